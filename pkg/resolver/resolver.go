package resolver

import (
	"github.com/npillmayer/schuko/tracing"

	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/token"
	"pseudo9608/interpreter-go/pkg/types"
)

// tracer traces with key 'pseudo.resolve'.
func tracer() tracing.Trace {
	return tracing.Select("pseudo.resolve")
}

// Resolver is the static pre-execution pass. It declares names into lexical
// scopes, records user type definitions, assigns a type to every expression
// and validates the program against the typing rules before any code runs.
type Resolver struct {
	global  *Environment
	records map[string]*types.RecordDef
}

// New returns a resolver with the built-in callables pre-registered in its
// global scope.
func New() *Resolver {
	r := &Resolver{
		global:  NewEnvironment(nil),
		records: make(map[string]*types.RecordDef),
	}
	for name, sig := range BuiltinSignatures() {
		r.global.Define(name, sig)
	}
	return r
}

// Records exposes the record definitions collected during resolution; the
// interpreter uses them to lay out record values.
func (r *Resolver) Records() map[string]*types.RecordDef {
	return r.records
}

// Resolve checks the whole program. The first violation aborts the pass.
func (r *Resolver) Resolve(prog *ast.Program) *diag.Error {
	for _, stmt := range prog.Statements {
		if err := r.stmt(stmt, r.global, nil); err != nil {
			return err
		}
	}
	tracer().Debugf("resolved %d top-level statements, %d record types",
		len(prog.Statements), len(r.records))
	return nil
}

func errorf(tok token.Token, format string, args ...any) *diag.Error {
	return diag.Newf(diag.Resolve, tok, format, args...)
}

// typeFromSpec maps declaration syntax to a type tag, validating record
// references against the definitions seen so far.
func (r *Resolver) typeFromSpec(spec ast.TypeSpec) (types.Type, *diag.Error) {
	if spec.IsArray() {
		elem, err := r.namedType(spec.Elem, spec.Tok)
		if err != nil {
			return nil, err
		}
		return types.Array{Elem: elem, Bounds: spec.Bounds}, nil
	}
	return r.namedType(spec.Name, spec.Tok)
}

func (r *Resolver) namedType(name string, tok token.Token) (types.Type, *diag.Error) {
	switch name {
	case "INTEGER":
		return types.Integer, nil
	case "REAL":
		return types.Real, nil
	case "STRING":
		return types.String, nil
	case "BOOLEAN":
		return types.Boolean, nil
	}
	if _, ok := r.records[name]; ok {
		return types.Record{TypeName: name}, nil
	}
	return nil, errorf(tok, "undeclared type %s", name)
}

// stmt verifies one statement. ret is the enclosing function's return type,
// nil outside a function body.
func (r *Resolver) stmt(stmt ast.Statement, env *Environment, ret types.Type) *diag.Error {
	switch s := stmt.(type) {
	case *ast.Declare:
		typ, err := r.typeFromSpec(s.Spec)
		if err != nil {
			return err
		}
		return r.declare(env, s.Name, typ, s.Token())
	case *ast.DeclareArray:
		elem, err := r.namedType(s.Elem.Name, s.Elem.Tok)
		if err != nil {
			return err
		}
		return r.declare(env, s.Name, types.Array{Elem: elem, Bounds: s.Bounds}, s.Token())
	case *ast.TypeDecl:
		return r.typeDecl(s)
	case *ast.Assign:
		return r.assign(s, env)
	case *ast.Output:
		for _, e := range s.Exprs {
			t, err := r.expr(e, env)
			if err != nil {
				return err
			}
			if !types.IsScalar(t) {
				return errorf(e.Token(), "OUTPUT expects INTEGER, REAL, STRING or BOOLEAN, got %s", t.Name())
			}
		}
		return nil
	case *ast.Input:
		t, err := r.expr(s.Target, env)
		if err != nil {
			return err
		}
		if !types.IsScalar(t) {
			return errorf(s.Target.Token(), "INPUT target must be INTEGER, REAL, STRING or BOOLEAN, got %s", t.Name())
		}
		return nil
	case *ast.If:
		if err := r.condition(s.Cond, env, "IF"); err != nil {
			return err
		}
		if err := r.stmts(s.Then, env, ret); err != nil {
			return err
		}
		return r.stmts(s.Else, env, ret)
	case *ast.Case:
		return r.caseStmt(s, env, ret)
	case *ast.While:
		if err := r.condition(s.Cond, env, "WHILE"); err != nil {
			return err
		}
		return r.stmts(s.Body, env, ret)
	case *ast.Repeat:
		if err := r.stmts(s.Body, env, ret); err != nil {
			return err
		}
		return r.condition(s.Cond, env, "UNTIL")
	case *ast.For:
		return r.forStmt(s, env, ret)
	case *ast.ProcedureDecl:
		return r.procedureDecl(s)
	case *ast.FunctionDecl:
		return r.functionDecl(s)
	case *ast.CallStmt:
		return r.callStmt(s, env)
	case *ast.Return:
		if ret == nil {
			return errorf(s.Token(), "RETURN may only appear inside a FUNCTION")
		}
		t, err := r.expr(s.Value, env)
		if err != nil {
			return err
		}
		if !types.Assignable(t, ret) {
			return errorf(s.Value.Token(), "RETURN expects %s, got %s", ret.Name(), t.Name())
		}
		return nil
	case *ast.OpenFile:
		return r.filenameExpr(s.Name, env)
	case *ast.ReadFile:
		if err := r.filenameExpr(s.Name, env); err != nil {
			return err
		}
		t, err := r.expr(s.Target, env)
		if err != nil {
			return err
		}
		if !types.Equal(t, types.String) {
			return errorf(s.Target.Token(), "READFILE target must be STRING, got %s", t.Name())
		}
		return nil
	case *ast.WriteFile:
		if err := r.filenameExpr(s.Name, env); err != nil {
			return err
		}
		t, err := r.expr(s.Value, env)
		if err != nil {
			return err
		}
		if !types.IsScalar(t) {
			return errorf(s.Value.Token(), "WRITEFILE expects a scalar value, got %s", t.Name())
		}
		return nil
	case *ast.CloseFile:
		return r.filenameExpr(s.Name, env)
	default:
		return errorf(stmt.Token(), "unsupported statement %s", stmt.NodeType())
	}
}

func (r *Resolver) stmts(stmts []ast.Statement, env *Environment, ret types.Type) *diag.Error {
	for _, s := range stmts {
		if err := r.stmt(s, env, ret); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) declare(env *Environment, name string, typ types.Type, tok token.Token) *diag.Error {
	if env.DefinedLocally(name) {
		return errorf(tok, "%s is already declared in this scope", name)
	}
	env.Define(name, typ)
	return nil
}

func (r *Resolver) condition(cond ast.Expression, env *Environment, context string) *diag.Error {
	t, err := r.expr(cond, env)
	if err != nil {
		return err
	}
	if !types.Equal(t, types.Boolean) {
		return errorf(cond.Token(), "%s condition must be BOOLEAN, got %s", context, t.Name())
	}
	return nil
}

func (r *Resolver) filenameExpr(name ast.Expression, env *Environment) *diag.Error {
	t, err := r.expr(name, env)
	if err != nil {
		return err
	}
	if !types.Equal(t, types.String) {
		return errorf(name.Token(), "file name must be STRING, got %s", t.Name())
	}
	return nil
}

func (r *Resolver) assign(s *ast.Assign, env *Environment) *diag.Error {
	targetT, err := r.expr(s.Target, env)
	if err != nil {
		return err
	}
	valueT, err := r.expr(s.Value, env)
	if err != nil {
		return err
	}
	if !types.Assignable(valueT, targetT) {
		return errorf(s.Token(), "cannot assign %s to %s", valueT.Name(), targetT.Name())
	}
	return nil
}

func (r *Resolver) typeDecl(s *ast.TypeDecl) *diag.Error {
	if _, ok := r.records[s.Name]; ok {
		return errorf(s.Token(), "type %s is already declared", s.Name)
	}
	def := &types.RecordDef{TypeName: s.Name}
	for _, f := range s.Fields {
		if f.Spec.IsArray() {
			return errorf(f.Tok, "ARRAY fields are not supported in TYPE")
		}
		if _, ok := def.Field(f.Name); ok {
			return errorf(f.Tok, "duplicate field %s in TYPE %s", f.Name, s.Name)
		}
		ft, err := r.namedType(f.Spec.Name, f.Spec.Tok)
		if err != nil {
			return err
		}
		def.Fields = append(def.Fields, types.Field{Name: f.Name, Type: ft})
	}
	r.records[s.Name] = def
	return nil
}

func (r *Resolver) caseStmt(s *ast.Case, env *Environment, ret types.Type) *diag.Error {
	subjectT, err := r.expr(s.Subject, env)
	if err != nil {
		return err
	}
	if !types.IsScalar(subjectT) {
		return errorf(s.Subject.Token(), "CASE subject must be a scalar, got %s", subjectT.Name())
	}
	for _, clause := range s.Clauses {
		labelT, err := r.expr(clause.Value, env)
		if err != nil {
			return err
		}
		if !types.Assignable(labelT, subjectT) {
			return errorf(clause.Value.Token(), "CASE label %s does not match subject type %s",
				labelT.Name(), subjectT.Name())
		}
		if err := r.stmt(clause.Body, env, ret); err != nil {
			return err
		}
	}
	if s.Otherwise != nil {
		return r.stmt(s.Otherwise, env, ret)
	}
	return nil
}

// forStmt checks the counted loop. An undeclared loop variable is declared
// INTEGER in the current scope; a declared one must already be INTEGER.
func (r *Resolver) forStmt(s *ast.For, env *Environment, ret types.Type) *diag.Error {
	if t, ok := env.Lookup(s.Name.Ident); ok {
		if !types.Equal(t, types.Integer) {
			return errorf(s.Name.Token(), "FOR loop variable %s must be INTEGER, is %s", s.Name.Ident, t.Name())
		}
	} else {
		env.Define(s.Name.Ident, types.Integer)
	}
	s.Name.SetResolvedType(types.Integer)
	for _, part := range []struct {
		expr ast.Expression
		name string
	}{{s.Start, "start"}, {s.Stop, "stop"}, {s.Step, "step"}} {
		if part.expr == nil {
			continue
		}
		t, err := r.expr(part.expr, env)
		if err != nil {
			return err
		}
		if !types.Equal(t, types.Integer) {
			return errorf(part.expr.Token(), "FOR %s value must be INTEGER, got %s", part.name, t.Name())
		}
	}
	return r.stmts(s.Body, env, ret)
}

// signature builds the callable type of a declaration, declaring the
// parameters into the body scope.
func (r *Resolver) signature(params []ast.Param, retSpec *ast.TypeSpec, body *Environment) (types.Callable, *diag.Error) {
	sig := types.Callable{}
	for _, prm := range params {
		pt, err := r.typeFromSpec(prm.Spec)
		if err != nil {
			return sig, err
		}
		if body.DefinedLocally(prm.Name) {
			return sig, errorf(prm.Tok, "duplicate parameter %s", prm.Name)
		}
		body.Define(prm.Name, pt)
		sig.Params = append(sig.Params, types.Param{Name: prm.Name, Type: pt, Mode: prm.Mode})
	}
	if retSpec != nil {
		rt, err := r.namedType(retSpec.Name, retSpec.Tok)
		if err != nil {
			return sig, err
		}
		sig.Return = rt
	}
	return sig, nil
}

func (r *Resolver) procedureDecl(s *ast.ProcedureDecl) *diag.Error {
	if r.global.DefinedLocally(s.Name) {
		return errorf(s.Token(), "%s is already declared in this scope", s.Name)
	}
	body := r.global.Extend()
	sig, err := r.signature(s.Params, nil, body)
	if err != nil {
		return err
	}
	// Declared before the body resolves, so recursive calls see the name.
	r.global.Define(s.Name, sig)
	return r.stmts(s.Body, body, nil)
}

func (r *Resolver) functionDecl(s *ast.FunctionDecl) *diag.Error {
	if r.global.DefinedLocally(s.Name) {
		return errorf(s.Token(), "%s is already declared in this scope", s.Name)
	}
	body := r.global.Extend()
	ret := s.Return
	sig, err := r.signature(s.Params, &ret, body)
	if err != nil {
		return err
	}
	r.global.Define(s.Name, sig)
	if err := r.stmts(s.Body, body, sig.Return); err != nil {
		return err
	}
	if !blockReturns(s.Body) {
		return errorf(s.Token(), "FUNCTION %s can reach the end of its body without RETURN", s.Name)
	}
	return nil
}

func (r *Resolver) callStmt(s *ast.CallStmt, env *Environment) *diag.Error {
	typ, ok := env.Lookup(s.Call.Name)
	if !ok {
		return errorf(s.Call.Token(), "undeclared name %s", s.Call.Name)
	}
	sig, ok := typ.(types.Callable)
	if !ok {
		return errorf(s.Call.Token(), "%s is not a PROCEDURE", s.Call.Name)
	}
	if sig.Return != nil {
		return errorf(s.Call.Token(), "CALL expects a PROCEDURE, %s is a FUNCTION", s.Call.Name)
	}
	if err := r.arguments(s.Call, sig, env); err != nil {
		return err
	}
	s.Call.SetResolvedType(types.Null)
	return nil
}

// blockReturns reports whether every control path through the statements
// reaches a RETURN. Loops are never counted on: a loop body may execute
// zero times.
func blockReturns(stmts []ast.Statement) bool {
	for _, stmt := range stmts {
		if stmtReturns(stmt) {
			return true
		}
	}
	return false
}

func stmtReturns(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.Return:
		return true
	case *ast.If:
		return s.Else != nil && blockReturns(s.Then) && blockReturns(s.Else)
	case *ast.Case:
		if s.Otherwise == nil || !stmtReturns(s.Otherwise) {
			return false
		}
		for _, clause := range s.Clauses {
			if !stmtReturns(clause.Body) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
