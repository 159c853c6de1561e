package runtime

import (
	"fmt"

	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/types"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindInteger Kind = iota
	KindReal
	KindString
	KindBool
	KindArray
	KindRecord
	KindCallable
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "INTEGER"
	case KindReal:
		return "REAL"
	case KindString:
		return "STRING"
	case KindBool:
		return "BOOLEAN"
	case KindArray:
		return "ARRAY"
	case KindRecord:
		return "RECORD"
	case KindCallable:
		return "CALLABLE"
	case KindNull:
		return "NULL"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the shared behaviour for all runtime values. The resolver fixes
// every expression's type before execution, so the interpreter only ever
// does representation-level work on these variants.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type IntegerValue struct {
	Val int64
}

func (IntegerValue) Kind() Kind { return KindInteger }

type RealValue struct {
	Val float64
}

func (RealValue) Kind() Kind { return KindReal }

type StringValue struct {
	Val string
}

func (StringValue) Kind() Kind { return KindString }

type BoolValue struct {
	Val bool
}

func (BoolValue) Kind() Kind { return KindBool }

// NullValue marks the absence of a value: the result of a procedure call.
type NullValue struct{}

func (NullValue) Kind() Kind { return KindNull }

//-----------------------------------------------------------------------------
// Aggregates
//-----------------------------------------------------------------------------

// ArrayValue is a fixed-shape array: flat storage indexed by offset from
// the declared lower bounds. Arrays mutate in place; pointer identity is
// the value identity.
type ArrayValue struct {
	Elem   types.Type
	Bounds []types.Bounds
	Cells  []Value
}

func (*ArrayValue) Kind() Kind { return KindArray }

// Offset maps one index per dimension to a flat cell offset. The second
// result is false when any index falls outside its bounds.
func (a *ArrayValue) Offset(indexes []int64) (int, bool) {
	offset := 0
	for i, idx := range indexes {
		b := a.Bounds[i]
		if idx < b.Lo || idx > b.Hi {
			return 0, false
		}
		offset = offset*int(b.Size()) + int(idx-b.Lo)
	}
	return offset, true
}

// RecordValue is an instance of a user-declared record type, with one cell
// per field in declaration order. Records mutate in place.
type RecordValue struct {
	Def    *types.RecordDef
	Fields []Value
}

func (*RecordValue) Kind() Kind { return KindRecord }

// NativeFunc implements a built-in function over already-evaluated
// arguments.
type NativeFunc func(args []Value) (Value, error)

// CallableValue is a procedure or function descriptor: user callables carry
// a body, built-ins carry a native implementation.
type CallableValue struct {
	Name   string
	Sig    types.Callable
	Body   []ast.Statement
	Native NativeFunc
}

func (*CallableValue) Kind() Kind { return KindCallable }

//-----------------------------------------------------------------------------
// Construction and copying
//-----------------------------------------------------------------------------

// Zero builds the initial value for a declared slot of the given type.
// Aggregates are built recursively; records need their definitions.
func Zero(typ types.Type, records map[string]*types.RecordDef) Value {
	switch t := typ.(type) {
	case types.Primitive:
		switch t {
		case types.Integer:
			return IntegerValue{}
		case types.Real:
			return RealValue{}
		case types.String:
			return StringValue{}
		case types.Boolean:
			return BoolValue{}
		default:
			return NullValue{}
		}
	case types.Array:
		cells := make([]Value, t.Size())
		for i := range cells {
			cells[i] = Zero(t.Elem, records)
		}
		return &ArrayValue{Elem: t.Elem, Bounds: t.Bounds, Cells: cells}
	case types.Record:
		def := records[t.TypeName]
		fields := make([]Value, len(def.Fields))
		for i, f := range def.Fields {
			fields[i] = Zero(f.Type, records)
		}
		return &RecordValue{Def: def, Fields: fields}
	default:
		return NullValue{}
	}
}

// Copy returns a value with BYVALUE semantics: scalars as-is, aggregates
// deep-copied so the callee cannot alias the caller's storage.
func Copy(v Value) Value {
	switch val := v.(type) {
	case *ArrayValue:
		cells := make([]Value, len(val.Cells))
		for i, c := range val.Cells {
			cells[i] = Copy(c)
		}
		return &ArrayValue{Elem: val.Elem, Bounds: val.Bounds, Cells: cells}
	case *RecordValue:
		fields := make([]Value, len(val.Fields))
		for i, f := range val.Fields {
			fields[i] = Copy(f)
		}
		return &RecordValue{Def: val.Def, Fields: fields}
	default:
		return v
	}
}
