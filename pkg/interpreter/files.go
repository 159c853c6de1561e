package interpreter

import "pseudo9608/interpreter-go/pkg/ast"

// openFile is one entry of the file table: an open handle keyed by the file
// name used in the source.
type openFile struct {
	name   string
	mode   ast.FileMode
	handle FileHandle
}

// fileTable tracks open files. Each file name is open in at most one mode
// at any time.
type fileTable struct {
	open map[string]*openFile
}

func newFileTable() *fileTable {
	return &fileTable{open: make(map[string]*openFile)}
}

func (t *fileTable) get(name string) (*openFile, bool) {
	f, ok := t.open[name]
	return f, ok
}

func (t *fileTable) add(f *openFile) {
	t.open[f.name] = f
}

func (t *fileTable) remove(name string) {
	delete(t.open, name)
}

// drain empties the table and returns the entries, for release at
// interpreter termination.
func (t *fileTable) drain() []*openFile {
	files := make([]*openFile, 0, len(t.open))
	for _, f := range t.open {
		files = append(files, f)
	}
	t.open = make(map[string]*openFile)
	return files
}
