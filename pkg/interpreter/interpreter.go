package interpreter

import (
	"math/rand"
	"time"

	"github.com/npillmayer/schuko/tracing"

	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/runtime"
	"pseudo9608/interpreter-go/pkg/token"
	"pseudo9608/interpreter-go/pkg/types"
)

// tracer traces with key 'pseudo.exec'.
func tracer() tracing.Trace {
	return tracing.Select("pseudo.exec")
}

// Interpreter walks a resolved program tree against runtime frames, a file
// table and a host I/O adapter. Execution is strictly single-threaded; one
// statement completes before the next begins.
type Interpreter struct {
	global  *runtime.Frame
	records map[string]*types.RecordDef
	host    Host
	files   *fileTable
	calls   []string
	rng     *rand.Rand
}

// New returns an interpreter over the given host; a nil host selects the
// default stdin/stdout/filesystem adapter.
func New(host Host) *Interpreter {
	if host == nil {
		host = NewStdHost()
	}
	i := &Interpreter{
		global: runtime.NewFrame(nil),
		host:   host,
		files:  newFileTable(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return i
}

// GlobalFrame exposes the interpreter's global frame.
func (i *Interpreter) GlobalFrame() *runtime.Frame { return i.global }

// Run executes a resolved program. records carries the record definitions
// collected by the resolver. File handles still open when execution ends
// are released before returning.
func (i *Interpreter) Run(prog *ast.Program, records map[string]*types.RecordDef) *diag.Error {
	if records == nil {
		records = make(map[string]*types.RecordDef)
	}
	i.records = records
	i.registerBuiltins()
	defer i.releaseFiles()

	for _, stmt := range prog.Statements {
		if err := i.execStmt(stmt, i.global); err != nil {
			if derr, ok := err.(*diag.Error); ok {
				return derr
			}
			// A stray return signal cannot survive resolution.
			return i.errorf(stmt.Token(), "%v", err)
		}
	}
	tracer().Debugf("program completed")
	return nil
}

func (i *Interpreter) releaseFiles() {
	for _, f := range i.files.drain() {
		if err := i.host.Close(f.handle); err != nil {
			tracer().Errorf("closing %s: %v", f.name, err)
		}
	}
}

// errorf builds a runtime diagnostic carrying the active callable name.
func (i *Interpreter) errorf(tok token.Token, format string, args ...any) *diag.Error {
	err := diag.Newf(diag.Runtime, tok, format, args...)
	if n := len(i.calls); n > 0 {
		err.Callable = i.calls[n-1]
	}
	return err
}

// returnSignal carries a RETURN value out of arbitrarily deep statement
// execution. It is internal control flow, never surfaced as a diagnostic.
type returnSignal struct {
	value runtime.Value
}

func (returnSignal) Error() string { return "RETURN outside a function" }

//-----------------------------------------------------------------------------
// Statement execution
//-----------------------------------------------------------------------------

func (i *Interpreter) execStmts(stmts []ast.Statement, fr *runtime.Frame) error {
	for _, stmt := range stmts {
		if err := i.execStmt(stmt, fr); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) execStmt(stmt ast.Statement, fr *runtime.Frame) error {
	switch s := stmt.(type) {
	case *ast.Declare:
		typ := i.typeOfSpec(s.Spec)
		fr.Declare(s.Name, typ, runtime.Zero(typ, i.records))
		return nil
	case *ast.DeclareArray:
		typ := types.Array{Elem: i.namedType(s.Elem.Name), Bounds: s.Bounds}
		fr.Declare(s.Name, typ, runtime.Zero(typ, i.records))
		return nil
	case *ast.TypeDecl:
		// Definitions were collected during resolution.
		return nil
	case *ast.Assign:
		return i.execAssign(s, fr)
	case *ast.Output:
		return i.execOutput(s, fr)
	case *ast.Input:
		return i.execInput(s, fr)
	case *ast.If:
		return i.execIf(s, fr)
	case *ast.Case:
		return i.execCase(s, fr)
	case *ast.While:
		return i.execWhile(s, fr)
	case *ast.Repeat:
		return i.execRepeat(s, fr)
	case *ast.For:
		return i.execFor(s, fr)
	case *ast.ProcedureDecl:
		sig := i.signatureOf(s.Params, nil)
		i.global.Declare(s.Name, sig, &runtime.CallableValue{Name: s.Name, Sig: sig, Body: s.Body})
		return nil
	case *ast.FunctionDecl:
		ret := s.Return
		sig := i.signatureOf(s.Params, &ret)
		i.global.Declare(s.Name, sig, &runtime.CallableValue{Name: s.Name, Sig: sig, Body: s.Body})
		return nil
	case *ast.CallStmt:
		_, err := i.evalCall(s.Call, fr)
		return err
	case *ast.Return:
		value, err := i.evalExpr(s.Value, fr)
		if err != nil {
			return err
		}
		return returnSignal{value: value}
	case *ast.OpenFile:
		return i.execOpenFile(s, fr)
	case *ast.ReadFile:
		return i.execReadFile(s, fr)
	case *ast.WriteFile:
		return i.execWriteFile(s, fr)
	case *ast.CloseFile:
		return i.execCloseFile(s, fr)
	default:
		return i.errorf(stmt.Token(), "unsupported statement %s", stmt.NodeType())
	}
}

func (i *Interpreter) execAssign(s *ast.Assign, fr *runtime.Frame) error {
	value, err := i.evalExpr(s.Value, fr)
	if err != nil {
		return err
	}
	loc, err := i.location(s.Target, fr)
	if err != nil {
		return err
	}
	loc.store(widen(value, loc.typ))
	return nil
}

func (i *Interpreter) execOutput(s *ast.Output, fr *runtime.Frame) error {
	var out string
	for _, expr := range s.Exprs {
		value, err := i.evalExpr(expr, fr)
		if err != nil {
			return err
		}
		out += display(value)
	}
	i.host.Write(out + "\n")
	return nil
}

func (i *Interpreter) execInput(s *ast.Input, fr *runtime.Frame) error {
	loc, err := i.location(s.Target, fr)
	if err != nil {
		return err
	}
	line, err := i.host.ReadLine()
	if err != nil {
		return i.errorf(s.Token(), "INPUT failed: %v", err)
	}
	value, cerr := coerceInput(line, loc.typ)
	if cerr != nil {
		return i.errorf(s.Target.Token(), "cannot read %q as %s", line, loc.typ.Name())
	}
	loc.store(value)
	return nil
}

func (i *Interpreter) execIf(s *ast.If, fr *runtime.Frame) error {
	cond, err := i.evalBool(s.Cond, fr)
	if err != nil {
		return err
	}
	if cond {
		return i.execStmts(s.Then, fr)
	}
	return i.execStmts(s.Else, fr)
}

func (i *Interpreter) execCase(s *ast.Case, fr *runtime.Frame) error {
	subject, err := i.evalExpr(s.Subject, fr)
	if err != nil {
		return err
	}
	for _, clause := range s.Clauses {
		label, err := i.evalExpr(clause.Value, fr)
		if err != nil {
			return err
		}
		if valuesEqual(subject, label) {
			return i.execStmt(clause.Body, fr)
		}
	}
	if s.Otherwise != nil {
		return i.execStmt(s.Otherwise, fr)
	}
	return nil
}

func (i *Interpreter) execWhile(s *ast.While, fr *runtime.Frame) error {
	for {
		cond, err := i.evalBool(s.Cond, fr)
		if err != nil {
			return err
		}
		if !cond {
			return nil
		}
		if err := i.execStmts(s.Body, fr); err != nil {
			return err
		}
	}
}

func (i *Interpreter) execRepeat(s *ast.Repeat, fr *runtime.Frame) error {
	for {
		if err := i.execStmts(s.Body, fr); err != nil {
			return err
		}
		cond, err := i.evalBool(s.Cond, fr)
		if err != nil {
			return err
		}
		if cond {
			return nil
		}
	}
}

// execFor runs the counted loop: start, stop and step are computed once at
// entry, and the loop runs while the counter has not passed stop in the
// step direction.
func (i *Interpreter) execFor(s *ast.For, fr *runtime.Frame) error {
	start, err := i.evalInt(s.Start, fr)
	if err != nil {
		return err
	}
	stop, err := i.evalInt(s.Stop, fr)
	if err != nil {
		return err
	}
	step := int64(1)
	if s.Step != nil {
		step, err = i.evalInt(s.Step, fr)
		if err != nil {
			return err
		}
	}
	if step == 0 {
		return i.errorf(s.Token(), "FOR STEP must not be zero")
	}
	slot, ok := fr.Lookup(s.Name.Ident)
	if !ok {
		slot = fr.Declare(s.Name.Ident, types.Integer, runtime.IntegerValue{})
	}
	for counter := start; (step > 0 && counter <= stop) || (step < 0 && counter >= stop); counter += step {
		slot.Set(runtime.IntegerValue{Val: counter})
		if err := i.execStmts(s.Body, fr); err != nil {
			return err
		}
	}
	return nil
}

//-----------------------------------------------------------------------------
// File statements
//-----------------------------------------------------------------------------

func (i *Interpreter) filename(expr ast.Expression, fr *runtime.Frame) (string, error) {
	value, err := i.evalExpr(expr, fr)
	if err != nil {
		return "", err
	}
	str, ok := value.(runtime.StringValue)
	if !ok {
		return "", i.errorf(expr.Token(), "file name must be STRING, got %s", value.Kind())
	}
	return str.Val, nil
}

func (i *Interpreter) execOpenFile(s *ast.OpenFile, fr *runtime.Frame) error {
	name, err := i.filename(s.Name, fr)
	if err != nil {
		return err
	}
	if _, ok := i.files.get(name); ok {
		return i.errorf(s.Name.Token(), "file %s is already open", name)
	}
	handle, oerr := i.host.Open(name, s.Mode)
	if oerr != nil {
		return i.errorf(s.Name.Token(), "cannot open %s for %s: %v", name, s.Mode, oerr)
	}
	i.files.add(&openFile{name: name, mode: s.Mode, handle: handle})
	return nil
}

func (i *Interpreter) openFileFor(nameExpr ast.Expression, fr *runtime.Frame, modes ...ast.FileMode) (*openFile, error) {
	name, err := i.filename(nameExpr, fr)
	if err != nil {
		return nil, err
	}
	f, ok := i.files.get(name)
	if !ok {
		return nil, i.errorf(nameExpr.Token(), "file %s is not open", name)
	}
	for _, mode := range modes {
		if f.mode == mode {
			return f, nil
		}
	}
	return nil, i.errorf(nameExpr.Token(), "file %s is open for %s", name, f.mode)
}

func (i *Interpreter) execReadFile(s *ast.ReadFile, fr *runtime.Frame) error {
	f, err := i.openFileFor(s.Name, fr, ast.ModeRead)
	if err != nil {
		return err
	}
	line, rerr := i.host.ReadFileLine(f.handle)
	if rerr != nil {
		return i.errorf(s.Name.Token(), "READFILE %s: read past end of file", f.name)
	}
	loc, err := i.location(s.Target, fr)
	if err != nil {
		return err
	}
	loc.store(runtime.StringValue{Val: line})
	return nil
}

func (i *Interpreter) execWriteFile(s *ast.WriteFile, fr *runtime.Frame) error {
	f, err := i.openFileFor(s.Name, fr, ast.ModeWrite, ast.ModeAppend)
	if err != nil {
		return err
	}
	value, err := i.evalExpr(s.Value, fr)
	if err != nil {
		return err
	}
	if werr := i.host.WriteFileLine(f.handle, display(value)); werr != nil {
		return i.errorf(s.Name.Token(), "WRITEFILE %s: %v", f.name, werr)
	}
	return nil
}

func (i *Interpreter) execCloseFile(s *ast.CloseFile, fr *runtime.Frame) error {
	name, err := i.filename(s.Name, fr)
	if err != nil {
		return err
	}
	f, ok := i.files.get(name)
	if !ok {
		return i.errorf(s.Name.Token(), "file %s is not open", name)
	}
	i.files.remove(name)
	if cerr := i.host.Close(f.handle); cerr != nil {
		return i.errorf(s.Name.Token(), "CLOSEFILE %s: %v", name, cerr)
	}
	return nil
}

//-----------------------------------------------------------------------------
// Declaration helpers
//-----------------------------------------------------------------------------

// typeOfSpec maps declaration syntax to a type tag. The resolver has
// already validated every reference, so lookups cannot fail here.
func (i *Interpreter) typeOfSpec(spec ast.TypeSpec) types.Type {
	if spec.IsArray() {
		return types.Array{Elem: i.namedType(spec.Elem), Bounds: spec.Bounds}
	}
	return i.namedType(spec.Name)
}

func (i *Interpreter) namedType(name string) types.Type {
	switch name {
	case "INTEGER":
		return types.Integer
	case "REAL":
		return types.Real
	case "STRING":
		return types.String
	case "BOOLEAN":
		return types.Boolean
	default:
		return types.Record{TypeName: name}
	}
}

func (i *Interpreter) signatureOf(params []ast.Param, ret *ast.TypeSpec) types.Callable {
	sig := types.Callable{}
	for _, prm := range params {
		sig.Params = append(sig.Params, types.Param{
			Name: prm.Name,
			Type: i.typeOfSpec(prm.Spec),
			Mode: prm.Mode,
		})
	}
	if ret != nil {
		sig.Return = i.namedType(ret.Name)
	}
	return sig
}
