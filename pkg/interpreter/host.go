package interpreter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"pseudo9608/interpreter-go/pkg/ast"
)

// FileHandle is an opaque handle issued by a Host's Open.
type FileHandle any

// Host is the I/O adapter the interpreter executes against: terminal input
// and output, plus line-oriented file access. The default host uses process
// stdin/stdout and the local filesystem; embedders and tests substitute
// their own.
type Host interface {
	// ReadLine blocks for one line of terminal input, without its
	// terminator.
	ReadLine() (string, error)
	// Write sends text to terminal output.
	Write(text string)

	// Open opens name in the given mode. Opening a missing file for READ
	// is an error; WRITE truncates; APPEND creates when absent.
	Open(name string, mode ast.FileMode) (FileHandle, error)
	// ReadFileLine returns the next line without its terminator, or io.EOF.
	ReadFileLine(h FileHandle) (string, error)
	// WriteFileLine appends line followed by a newline.
	WriteFileLine(h FileHandle, line string) error
	// AtEOF reports whether the read cursor is at end of file.
	AtEOF(h FileHandle) (bool, error)
	// Close flushes and releases the handle.
	Close(h FileHandle) error
}

//-----------------------------------------------------------------------------
// Default host: process stdin/stdout and the working directory
//-----------------------------------------------------------------------------

// StdHost is the default Host. File names resolve relative to the process
// working directory.
type StdHost struct {
	stdin *bufio.Reader
}

// NewStdHost returns a host over os.Stdin and os.Stdout.
func NewStdHost() *StdHost {
	return &StdHost{stdin: bufio.NewReader(os.Stdin)}
}

type stdFile struct {
	f *os.File
	r *bufio.Reader // nil unless opened for READ
}

func (h *StdHost) ReadLine() (string, error) {
	line, err := h.stdin.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (h *StdHost) Write(text string) {
	fmt.Fprint(os.Stdout, text)
}

func (h *StdHost) Open(name string, mode ast.FileMode) (FileHandle, error) {
	switch mode {
	case ast.ModeRead:
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		return &stdFile{f: f, r: bufio.NewReader(f)}, nil
	case ast.ModeWrite:
		f, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		return &stdFile{f: f}, nil
	case ast.ModeAppend:
		f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		return &stdFile{f: f}, nil
	default:
		return nil, fmt.Errorf("unsupported file mode %s", mode)
	}
}

func (h *StdHost) ReadFileLine(handle FileHandle) (string, error) {
	sf := handle.(*stdFile)
	if sf.r == nil {
		return "", fmt.Errorf("%s is not open for READ", sf.f.Name())
	}
	line, err := sf.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (h *StdHost) WriteFileLine(handle FileHandle, line string) error {
	sf := handle.(*stdFile)
	_, err := sf.f.WriteString(line + "\n")
	return err
}

func (h *StdHost) AtEOF(handle FileHandle) (bool, error) {
	sf := handle.(*stdFile)
	if sf.r == nil {
		return false, fmt.Errorf("%s is not open for READ", sf.f.Name())
	}
	if _, err := sf.r.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (h *StdHost) Close(handle FileHandle) error {
	sf := handle.(*stdFile)
	return sf.f.Close()
}

//-----------------------------------------------------------------------------
// In-memory host for embedding and tests
//-----------------------------------------------------------------------------

// MemHost is a Host backed entirely by memory: scripted stdin lines,
// captured stdout, and a name-to-content file store. Closing a written
// handle publishes its content back to Files.
type MemHost struct {
	Stdin  []string
	Files  map[string]string
	stdout strings.Builder
	next   int
}

// NewMemHost returns an empty in-memory host.
func NewMemHost() *MemHost {
	return &MemHost{Files: make(map[string]string)}
}

// Stdout returns everything written to terminal output so far.
func (h *MemHost) Stdout() string { return h.stdout.String() }

// FileNames returns the stored file names, sorted.
func (h *MemHost) FileNames() []string {
	names := make([]string, 0, len(h.Files))
	for name := range h.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type memFile struct {
	host    *MemHost
	name    string
	mode    ast.FileMode
	lines   []string
	cursor  int
	pending strings.Builder
}

func (h *MemHost) ReadLine() (string, error) {
	if h.next >= len(h.Stdin) {
		return "", io.EOF
	}
	line := h.Stdin[h.next]
	h.next++
	return line, nil
}

func (h *MemHost) Write(text string) {
	h.stdout.WriteString(text)
}

func (h *MemHost) Open(name string, mode ast.FileMode) (FileHandle, error) {
	mf := &memFile{host: h, name: name, mode: mode}
	switch mode {
	case ast.ModeRead:
		content, ok := h.Files[name]
		if !ok {
			return nil, fmt.Errorf("open %s: file does not exist", name)
		}
		mf.lines = splitLines(content)
	case ast.ModeWrite:
		// Truncation happens on close; nothing to load.
	case ast.ModeAppend:
		mf.pending.WriteString(h.Files[name])
	default:
		return nil, fmt.Errorf("unsupported file mode %s", mode)
	}
	return mf, nil
}

func (h *MemHost) ReadFileLine(handle FileHandle) (string, error) {
	mf := handle.(*memFile)
	if mf.mode != ast.ModeRead {
		return "", fmt.Errorf("%s is not open for READ", mf.name)
	}
	if mf.cursor >= len(mf.lines) {
		return "", io.EOF
	}
	line := mf.lines[mf.cursor]
	mf.cursor++
	return line, nil
}

func (h *MemHost) WriteFileLine(handle FileHandle, line string) error {
	mf := handle.(*memFile)
	if mf.mode == ast.ModeRead {
		return fmt.Errorf("%s is not open for WRITE", mf.name)
	}
	mf.pending.WriteString(line)
	mf.pending.WriteString("\n")
	return nil
}

func (h *MemHost) AtEOF(handle FileHandle) (bool, error) {
	mf := handle.(*memFile)
	if mf.mode != ast.ModeRead {
		return false, fmt.Errorf("%s is not open for READ", mf.name)
	}
	return mf.cursor >= len(mf.lines), nil
}

func (h *MemHost) Close(handle FileHandle) error {
	mf := handle.(*memFile)
	if mf.mode != ast.ModeRead {
		mf.host.Files[mf.name] = mf.pending.String()
	}
	return nil
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
