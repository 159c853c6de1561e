package resolver

import (
	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/token"
	"pseudo9608/interpreter-go/pkg/types"
)

// expr assigns a type to an expression and returns it. Every successfully
// resolved node carries its type afterwards.
func (r *Resolver) expr(expr ast.Expression, env *Environment) (types.Type, *diag.Error) {
	t, err := r.exprType(expr, env)
	if err != nil {
		return nil, err
	}
	expr.SetResolvedType(t)
	return t, nil
}

func (r *Resolver) exprType(expr ast.Expression, env *Environment) (types.Type, *diag.Error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalType(e)
	case *ast.Name:
		typ, ok := env.Lookup(e.Ident)
		if !ok {
			return nil, errorf(e.Token(), "undeclared name %s", e.Ident)
		}
		if _, isCallable := typ.(types.Callable); isCallable {
			return nil, errorf(e.Token(), "%s is a %s and cannot be used as a value", e.Ident, typ.Name())
		}
		return typ, nil
	case *ast.Unary:
		return r.unary(e, env)
	case *ast.Binary:
		return r.binary(e, env)
	case *ast.Index:
		return r.index(e, env)
	case *ast.Field:
		return r.field(e, env)
	case *ast.Call:
		return r.call(e, env)
	default:
		return nil, errorf(expr.Token(), "unsupported expression %s", expr.NodeType())
	}
}

func literalType(lit *ast.Literal) (types.Type, *diag.Error) {
	switch lit.Value.(type) {
	case int64:
		return types.Integer, nil
	case float64:
		return types.Real, nil
	case string:
		return types.String, nil
	case bool:
		return types.Boolean, nil
	default:
		return nil, errorf(lit.Token(), "unsupported literal %v", lit.Value)
	}
}

func (r *Resolver) unary(e *ast.Unary, env *Environment) (types.Type, *diag.Error) {
	t, err := r.expr(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.Minus:
		if !types.IsNumeric(t) {
			return nil, errorf(e.Operand.Token(), "unary '-' expects INTEGER or REAL, got %s", t.Name())
		}
		return t, nil
	case token.Not:
		if !types.Equal(t, types.Boolean) {
			return nil, errorf(e.Operand.Token(), "NOT expects BOOLEAN, got %s", t.Name())
		}
		return types.Boolean, nil
	default:
		return nil, errorf(e.Token(), "unsupported unary operator %s", e.Op)
	}
}

func (r *Resolver) binary(e *ast.Binary, env *Environment) (types.Type, *diag.Error) {
	lt, err := r.expr(e.Lhs, env)
	if err != nil {
		return nil, err
	}
	rt, err := r.expr(e.Rhs, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.Plus, token.Minus, token.Star:
		if err := r.numericOperands(e, lt, rt); err != nil {
			return nil, err
		}
		if types.Equal(lt, types.Integer) && types.Equal(rt, types.Integer) {
			return types.Integer, nil
		}
		return types.Real, nil
	case token.Slash:
		if err := r.numericOperands(e, lt, rt); err != nil {
			return nil, err
		}
		return types.Real, nil
	case token.Equal, token.NotEqual:
		if !types.IsScalar(lt) || !types.IsScalar(rt) {
			return nil, errorf(e.Token(), "'%s' expects scalar operands, got %s and %s", e.Op, lt.Name(), rt.Name())
		}
		if !comparable(lt, rt) {
			return nil, errorf(e.Token(), "cannot compare %s with %s", lt.Name(), rt.Name())
		}
		return types.Boolean, nil
	case token.Less, token.Greater, token.LessEqual, token.GreaterEqual:
		if err := r.numericOperands(e, lt, rt); err != nil {
			return nil, err
		}
		return types.Boolean, nil
	case token.And, token.Or:
		if !types.Equal(lt, types.Boolean) {
			return nil, errorf(e.Lhs.Token(), "%s expects BOOLEAN operands, got %s", e.Op, lt.Name())
		}
		if !types.Equal(rt, types.Boolean) {
			return nil, errorf(e.Rhs.Token(), "%s expects BOOLEAN operands, got %s", e.Op, rt.Name())
		}
		return types.Boolean, nil
	default:
		return nil, errorf(e.Token(), "unsupported binary operator %s", e.Op)
	}
}

func (r *Resolver) numericOperands(e *ast.Binary, lt, rt types.Type) *diag.Error {
	if !types.IsNumeric(lt) {
		return errorf(e.Lhs.Token(), "'%s' expects INTEGER or REAL, got %s", e.Op, lt.Name())
	}
	if !types.IsNumeric(rt) {
		return errorf(e.Rhs.Token(), "'%s' expects INTEGER or REAL, got %s", e.Op, rt.Name())
	}
	return nil
}

// comparable reports whether = and <> apply between the two scalar types:
// identical types, or the numeric pair under INTEGER -> REAL widening.
func comparable(a, b types.Type) bool {
	if types.Equal(a, b) {
		return true
	}
	return types.IsNumeric(a) && types.IsNumeric(b)
}

func (r *Resolver) index(e *ast.Index, env *Environment) (types.Type, *diag.Error) {
	arrT, err := r.expr(e.Array, env)
	if err != nil {
		return nil, err
	}
	arr, ok := arrT.(types.Array)
	if !ok {
		return nil, errorf(e.Array.Token(), "cannot index %s", arrT.Name())
	}
	if len(e.Indexes) != len(arr.Bounds) {
		return nil, errorf(e.Token(), "array expects %d index(es), got %d", len(arr.Bounds), len(e.Indexes))
	}
	for _, idx := range e.Indexes {
		t, err := r.expr(idx, env)
		if err != nil {
			return nil, err
		}
		if !types.Equal(t, types.Integer) {
			return nil, errorf(idx.Token(), "array index must be INTEGER, got %s", t.Name())
		}
	}
	return arr.Elem, nil
}

func (r *Resolver) field(e *ast.Field, env *Environment) (types.Type, *diag.Error) {
	recT, err := r.expr(e.Record, env)
	if err != nil {
		return nil, err
	}
	rec, ok := recT.(types.Record)
	if !ok {
		return nil, errorf(e.Record.Token(), "%s has no fields", recT.Name())
	}
	def, ok := r.records[rec.TypeName]
	if !ok {
		return nil, errorf(e.Token(), "undeclared type %s", rec.TypeName)
	}
	f, ok := def.Field(e.FieldName)
	if !ok {
		return nil, errorf(e.Token(), "type %s has no field %s", rec.TypeName, e.FieldName)
	}
	return f.Type, nil
}

func (r *Resolver) call(e *ast.Call, env *Environment) (types.Type, *diag.Error) {
	typ, ok := env.Lookup(e.Name)
	if !ok {
		return nil, errorf(e.Token(), "undeclared name %s", e.Name)
	}
	sig, ok := typ.(types.Callable)
	if !ok {
		return nil, errorf(e.Token(), "%s is not a FUNCTION", e.Name)
	}
	if sig.Return == nil {
		return nil, errorf(e.Token(), "%s is a PROCEDURE and returns no value", e.Name)
	}
	if err := r.arguments(e, sig, env); err != nil {
		return nil, err
	}
	return sig.Return, nil
}

// arguments checks a call's argument list against the callable signature.
// BYVALUE parameters admit the INTEGER -> REAL widening; BYREF parameters
// require a variable reference of exactly the parameter type.
func (r *Resolver) arguments(call *ast.Call, sig types.Callable, env *Environment) *diag.Error {
	if len(call.Args) != len(sig.Params) {
		return errorf(call.Token(), "%s expects %d argument(s), got %d", call.Name, len(sig.Params), len(call.Args))
	}
	for i, arg := range call.Args {
		param := sig.Params[i]
		t, err := r.expr(arg, env)
		if err != nil {
			return err
		}
		if param.Mode == types.ByReference {
			if !ast.IsVariableRef(arg) {
				return errorf(arg.Token(), "BYREF parameter %s requires a variable, not an expression", param.Name)
			}
			if !types.Equal(t, param.Type) {
				return errorf(arg.Token(), "BYREF parameter %s expects %s, got %s", param.Name, param.Type.Name(), t.Name())
			}
			continue
		}
		if !types.Assignable(t, param.Type) {
			return errorf(arg.Token(), "parameter %s expects %s, got %s", param.Name, param.Type.Name(), t.Name())
		}
	}
	return nil
}
