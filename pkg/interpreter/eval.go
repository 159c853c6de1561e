package interpreter

import (
	"strconv"
	"strings"

	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/runtime"
	"pseudo9608/interpreter-go/pkg/token"
	"pseudo9608/interpreter-go/pkg/types"
)

//-----------------------------------------------------------------------------
// Expression evaluation
//-----------------------------------------------------------------------------

func (i *Interpreter) evalExpr(expr ast.Expression, fr *runtime.Frame) (runtime.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalValue(e), nil
	case *ast.Name:
		slot, ok := fr.Lookup(e.Ident)
		if !ok {
			return nil, i.errorf(e.Token(), "undeclared name %s", e.Ident)
		}
		return slot.Get(), nil
	case *ast.Unary:
		return i.evalUnary(e, fr)
	case *ast.Binary:
		return i.evalBinary(e, fr)
	case *ast.Index:
		cell, _, err := i.indexCell(e, fr)
		if err != nil {
			return nil, err
		}
		return *cell, nil
	case *ast.Field:
		cell, _, err := i.fieldCell(e, fr)
		if err != nil {
			return nil, err
		}
		return *cell, nil
	case *ast.Call:
		return i.evalCall(e, fr)
	default:
		return nil, i.errorf(expr.Token(), "unsupported expression %s", expr.NodeType())
	}
}

func literalValue(lit *ast.Literal) runtime.Value {
	switch v := lit.Value.(type) {
	case int64:
		return runtime.IntegerValue{Val: v}
	case float64:
		return runtime.RealValue{Val: v}
	case string:
		return runtime.StringValue{Val: v}
	case bool:
		return runtime.BoolValue{Val: v}
	default:
		return runtime.NullValue{}
	}
}

func (i *Interpreter) evalBool(expr ast.Expression, fr *runtime.Frame) (bool, error) {
	value, err := i.evalExpr(expr, fr)
	if err != nil {
		return false, err
	}
	b, ok := value.(runtime.BoolValue)
	if !ok {
		return false, i.errorf(expr.Token(), "expected BOOLEAN, got %s", value.Kind())
	}
	return b.Val, nil
}

func (i *Interpreter) evalInt(expr ast.Expression, fr *runtime.Frame) (int64, error) {
	value, err := i.evalExpr(expr, fr)
	if err != nil {
		return 0, err
	}
	n, ok := value.(runtime.IntegerValue)
	if !ok {
		return 0, i.errorf(expr.Token(), "expected INTEGER, got %s", value.Kind())
	}
	return n.Val, nil
}

func (i *Interpreter) evalUnary(e *ast.Unary, fr *runtime.Frame) (runtime.Value, error) {
	operand, err := i.evalExpr(e.Operand, fr)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.Minus:
		switch v := operand.(type) {
		case runtime.IntegerValue:
			return runtime.IntegerValue{Val: -v.Val}, nil
		case runtime.RealValue:
			return runtime.RealValue{Val: -v.Val}, nil
		}
	case token.Not:
		if v, ok := operand.(runtime.BoolValue); ok {
			return runtime.BoolValue{Val: !v.Val}, nil
		}
	}
	return nil, i.errorf(e.Token(), "cannot apply %s to %s", e.Op, operand.Kind())
}

func (i *Interpreter) evalBinary(e *ast.Binary, fr *runtime.Frame) (runtime.Value, error) {
	// AND and OR short-circuit: the right operand only evaluates when the
	// left leaves the result open.
	if e.Op == token.And || e.Op == token.Or {
		lhs, err := i.evalBool(e.Lhs, fr)
		if err != nil {
			return nil, err
		}
		if e.Op == token.And && !lhs {
			return runtime.BoolValue{Val: false}, nil
		}
		if e.Op == token.Or && lhs {
			return runtime.BoolValue{Val: true}, nil
		}
		rhs, err := i.evalBool(e.Rhs, fr)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: rhs}, nil
	}

	lhs, err := i.evalExpr(e.Lhs, fr)
	if err != nil {
		return nil, err
	}
	rhs, err := i.evalExpr(e.Rhs, fr)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.Plus, token.Minus, token.Star:
		return i.arith(e, lhs, rhs)
	case token.Slash:
		return i.divide(e, lhs, rhs)
	case token.Equal:
		return runtime.BoolValue{Val: valuesEqual(lhs, rhs)}, nil
	case token.NotEqual:
		return runtime.BoolValue{Val: !valuesEqual(lhs, rhs)}, nil
	case token.Less, token.Greater, token.LessEqual, token.GreaterEqual:
		return i.compare(e, lhs, rhs)
	default:
		return nil, i.errorf(e.Token(), "unsupported operator %s", e.Op)
	}
}

// arith implements + - * with the INTEGER -> REAL widening: both INTEGER
// operands give INTEGER, any REAL operand gives REAL.
func (i *Interpreter) arith(e *ast.Binary, lhs, rhs runtime.Value) (runtime.Value, error) {
	li, lInt := lhs.(runtime.IntegerValue)
	ri, rInt := rhs.(runtime.IntegerValue)
	if lInt && rInt {
		switch e.Op {
		case token.Plus:
			return runtime.IntegerValue{Val: li.Val + ri.Val}, nil
		case token.Minus:
			return runtime.IntegerValue{Val: li.Val - ri.Val}, nil
		default:
			return runtime.IntegerValue{Val: li.Val * ri.Val}, nil
		}
	}
	lf, lok := asReal(lhs)
	rf, rok := asReal(rhs)
	if !lok || !rok {
		return nil, i.errorf(e.Token(), "cannot apply %s to %s and %s", e.Op, lhs.Kind(), rhs.Kind())
	}
	switch e.Op {
	case token.Plus:
		return runtime.RealValue{Val: lf + rf}, nil
	case token.Minus:
		return runtime.RealValue{Val: lf - rf}, nil
	default:
		return runtime.RealValue{Val: lf * rf}, nil
	}
}

// divide implements /, whose result is always REAL.
func (i *Interpreter) divide(e *ast.Binary, lhs, rhs runtime.Value) (runtime.Value, error) {
	lf, lok := asReal(lhs)
	rf, rok := asReal(rhs)
	if !lok || !rok {
		return nil, i.errorf(e.Token(), "cannot apply / to %s and %s", lhs.Kind(), rhs.Kind())
	}
	if rf == 0 {
		return nil, i.errorf(e.Rhs.Token(), "division by zero")
	}
	return runtime.RealValue{Val: lf / rf}, nil
}

func (i *Interpreter) compare(e *ast.Binary, lhs, rhs runtime.Value) (runtime.Value, error) {
	lf, lok := asReal(lhs)
	rf, rok := asReal(rhs)
	if !lok || !rok {
		return nil, i.errorf(e.Token(), "cannot apply %s to %s and %s", e.Op, lhs.Kind(), rhs.Kind())
	}
	var result bool
	switch e.Op {
	case token.Less:
		result = lf < rf
	case token.Greater:
		result = lf > rf
	case token.LessEqual:
		result = lf <= rf
	default:
		result = lf >= rf
	}
	return runtime.BoolValue{Val: result}, nil
}

// asReal views a numeric value as float64.
func asReal(v runtime.Value) (float64, bool) {
	switch val := v.(type) {
	case runtime.IntegerValue:
		return float64(val.Val), true
	case runtime.RealValue:
		return val.Val, true
	default:
		return 0, false
	}
}

// valuesEqual implements = and <> over scalars, comparing INTEGER and REAL
// under widening.
func valuesEqual(a, b runtime.Value) bool {
	if af, ok := asReal(a); ok {
		if bf, ok := asReal(b); ok {
			return af == bf
		}
		return false
	}
	switch av := a.(type) {
	case runtime.StringValue:
		bv, ok := b.(runtime.StringValue)
		return ok && av.Val == bv.Val
	case runtime.BoolValue:
		bv, ok := b.(runtime.BoolValue)
		return ok && av.Val == bv.Val
	default:
		return false
	}
}

//-----------------------------------------------------------------------------
// Variable references as storage locations
//-----------------------------------------------------------------------------

// location is a resolved storage cell: writing through it mutates the
// owning frame slot, array cell or record field in place.
type location struct {
	typ types.Type
	ref *runtime.Value
}

func (l location) store(v runtime.Value) { *l.ref = v }

func (i *Interpreter) location(expr ast.Expression, fr *runtime.Frame) (location, error) {
	switch e := expr.(type) {
	case *ast.Name:
		slot, ok := fr.Lookup(e.Ident)
		if !ok {
			return location{}, i.errorf(e.Token(), "undeclared name %s", e.Ident)
		}
		return location{typ: slot.Type, ref: slot.Ref}, nil
	case *ast.Index:
		cell, typ, err := i.indexCell(e, fr)
		if err != nil {
			return location{}, err
		}
		return location{typ: typ, ref: cell}, nil
	case *ast.Field:
		cell, typ, err := i.fieldCell(e, fr)
		if err != nil {
			return location{}, err
		}
		return location{typ: typ, ref: cell}, nil
	default:
		return location{}, i.errorf(expr.Token(), "%s is not assignable", expr.NodeType())
	}
}

// indexCell resolves an index expression to the underlying array cell and
// its element type.
func (i *Interpreter) indexCell(e *ast.Index, fr *runtime.Frame) (*runtime.Value, types.Type, error) {
	container, err := i.evalExpr(e.Array, fr)
	if err != nil {
		return nil, nil, err
	}
	arr, ok := container.(*runtime.ArrayValue)
	if !ok {
		return nil, nil, i.errorf(e.Array.Token(), "cannot index %s", container.Kind())
	}
	indexes := make([]int64, len(e.Indexes))
	for n, idxExpr := range e.Indexes {
		idx, err := i.evalInt(idxExpr, fr)
		if err != nil {
			return nil, nil, err
		}
		indexes[n] = idx
	}
	offset, inBounds := arr.Offset(indexes)
	if !inBounds {
		return nil, nil, i.errorf(e.Token(), "array index out of bounds")
	}
	return &arr.Cells[offset], arr.Elem, nil
}

// fieldCell resolves a field access to the underlying record cell and its
// declared type.
func (i *Interpreter) fieldCell(e *ast.Field, fr *runtime.Frame) (*runtime.Value, types.Type, error) {
	container, err := i.evalExpr(e.Record, fr)
	if err != nil {
		return nil, nil, err
	}
	rec, ok := container.(*runtime.RecordValue)
	if !ok {
		return nil, nil, i.errorf(e.Record.Token(), "%s has no fields", container.Kind())
	}
	idx := rec.Def.FieldIndex(e.FieldName)
	if idx < 0 {
		return nil, nil, i.errorf(e.Token(), "type %s has no field %s", rec.Def.TypeName, e.FieldName)
	}
	return &rec.Fields[idx], rec.Def.Fields[idx].Type, nil
}

//-----------------------------------------------------------------------------
// Calls
//-----------------------------------------------------------------------------

func (i *Interpreter) evalCall(call *ast.Call, fr *runtime.Frame) (runtime.Value, error) {
	slot, ok := fr.Lookup(call.Name)
	if !ok {
		return nil, i.errorf(call.Token(), "undeclared name %s", call.Name)
	}
	callable, ok := slot.Get().(*runtime.CallableValue)
	if !ok {
		return nil, i.errorf(call.Token(), "%s is not callable", call.Name)
	}

	if callable.Native != nil {
		args := make([]runtime.Value, len(call.Args))
		for n, arg := range call.Args {
			value, err := i.evalExpr(arg, fr)
			if err != nil {
				return nil, err
			}
			args[n] = widen(value, callable.Sig.Params[n].Type)
		}
		result, err := callable.Native(args)
		if err != nil {
			return nil, i.errorf(call.Token(), "%s: %v", callable.Name, err)
		}
		return result, nil
	}

	// Activation frames always parent on the global frame: the language has
	// no nested callables.
	activation := runtime.NewFrame(i.global)
	for n, arg := range call.Args {
		param := callable.Sig.Params[n]
		if param.Mode == types.ByReference {
			loc, err := i.location(arg, fr)
			if err != nil {
				return nil, err
			}
			activation.Alias(param.Name, param.Type, loc.ref)
			continue
		}
		value, err := i.evalExpr(arg, fr)
		if err != nil {
			return nil, err
		}
		activation.Declare(param.Name, param.Type, widen(runtime.Copy(value), param.Type))
	}

	i.calls = append(i.calls, callable.Name)
	defer func() { i.calls = i.calls[:len(i.calls)-1] }()

	err := i.execStmts(callable.Body, activation)
	if ret, ok := err.(returnSignal); ok {
		if callable.Sig.Return == nil {
			return nil, i.errorf(call.Token(), "RETURN in PROCEDURE %s", callable.Name)
		}
		return widen(ret.value, callable.Sig.Return), nil
	}
	if err != nil {
		return nil, err
	}
	if callable.Sig.Return != nil {
		return nil, i.errorf(call.Token(), "FUNCTION %s ended without RETURN", callable.Name)
	}
	return runtime.NullValue{}, nil
}

// widen converts an INTEGER value for a REAL destination; every other
// combination passes through unchanged.
func widen(v runtime.Value, to types.Type) runtime.Value {
	if iv, ok := v.(runtime.IntegerValue); ok && types.Equal(to, types.Real) {
		return runtime.RealValue{Val: float64(iv.Val)}
	}
	return v
}

//-----------------------------------------------------------------------------
// Display and input coercion
//-----------------------------------------------------------------------------

// display renders a value the way OUTPUT and WRITEFILE show it: INTEGER in
// decimal, REAL with at least one fractional digit, BOOLEAN as TRUE/FALSE,
// STRING verbatim.
func display(v runtime.Value) string {
	switch val := v.(type) {
	case runtime.IntegerValue:
		return strconv.FormatInt(val.Val, 10)
	case runtime.RealValue:
		s := strconv.FormatFloat(val.Val, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case runtime.StringValue:
		return val.Val
	case runtime.BoolValue:
		if val.Val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return v.Kind().String()
	}
}

// coerceInput converts one input line to the target type. Numeric and
// BOOLEAN targets tolerate surrounding whitespace; BOOLEAN then accepts only
// the upper-case words TRUE or FALSE.
func coerceInput(line string, to types.Type) (runtime.Value, error) {
	switch {
	case types.Equal(to, types.String):
		return runtime.StringValue{Val: line}, nil
	case types.Equal(to, types.Integer):
		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			return nil, err
		}
		return runtime.IntegerValue{Val: n}, nil
	case types.Equal(to, types.Real):
		f, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil {
			return nil, err
		}
		return runtime.RealValue{Val: f}, nil
	case types.Equal(to, types.Boolean):
		switch strings.TrimSpace(line) {
		case "TRUE":
			return runtime.BoolValue{Val: true}, nil
		case "FALSE":
			return runtime.BoolValue{Val: false}, nil
		}
		return nil, strconv.ErrSyntax
	default:
		return nil, strconv.ErrSyntax
	}
}
