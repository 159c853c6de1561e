// Package driver wires the pipeline together: source text through scanner,
// parser and resolver, then execution against a host I/O adapter.
package driver

import (
	"os"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/interpreter"
	"pseudo9608/interpreter-go/pkg/parser"
	"pseudo9608/interpreter-go/pkg/resolver"
	"pseudo9608/interpreter-go/pkg/scanner"
)

// tracer traces with key 'pseudo.driver'.
func tracer() tracing.Trace {
	return tracing.Select("pseudo.driver")
}

// Options configures a run. A nil Host selects the default adapter over
// process stdin/stdout and the working directory.
type Options struct {
	Host interpreter.Host
}

// Run executes pseudocode source text. It returns nil on a successful run
// to completion, or the first scan, parse, resolve or runtime diagnostic.
func Run(source string, opts Options) *diag.Error {
	src := normalize(source)

	tokens, err := scanner.New(src).Scan()
	if err != nil {
		return err
	}
	prog, err := parser.New(tokens).Parse()
	if err != nil {
		return err
	}
	res := resolver.New()
	if err := res.Resolve(prog); err != nil {
		return err
	}
	tracer().Infof("static checks passed, executing")
	return interpreter.New(opts.Host).Run(prog, res.Records())
}

// RunFile executes the pseudocode source at path.
func RunFile(path string, opts Options) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if derr := Run(string(src), opts); derr != nil {
		return derr
	}
	return nil
}

// normalize accepts \n and \r\n line separators, stripping every '\r'.
func normalize(src string) string {
	return strings.ReplaceAll(src, "\r", "")
}
