package interpreter

import (
	"fmt"

	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/resolver"
	"pseudo9608/interpreter-go/pkg/runtime"
)

// registerBuiltins installs the built-in functions into the global frame,
// pairing the signatures the resolver checked against with their native
// implementations. String positions are 1-based throughout.
func (i *Interpreter) registerBuiltins() {
	natives := map[string]runtime.NativeFunc{
		"EOF":           i.builtinEOF,
		"INT":           builtinINT,
		"RND":           i.builtinRND,
		"RANDOMBETWEEN": i.builtinRandomBetween,
		"LENGTH":        builtinLENGTH,
		"MID":           builtinMID,
		"LEFT":          builtinLEFT,
		"RIGHT":         builtinRIGHT,
		"ASC":           builtinASC,
	}
	for name, sig := range resolver.BuiltinSignatures() {
		i.global.Declare(name, sig, &runtime.CallableValue{
			Name:   name,
			Sig:    sig,
			Native: natives[name],
		})
	}
}

// builtinEOF reports whether the named file, open for READ, has reached
// end of file.
func (i *Interpreter) builtinEOF(args []runtime.Value) (runtime.Value, error) {
	name := args[0].(runtime.StringValue).Val
	f, ok := i.files.get(name)
	if !ok {
		return nil, fmt.Errorf("file %s is not open", name)
	}
	if f.mode != ast.ModeRead {
		return nil, fmt.Errorf("file %s is open for %s", name, f.mode)
	}
	eof, err := i.host.AtEOF(f.handle)
	if err != nil {
		return nil, err
	}
	return runtime.BoolValue{Val: eof}, nil
}

// builtinINT truncates a REAL toward zero.
func builtinINT(args []runtime.Value) (runtime.Value, error) {
	x := args[0].(runtime.RealValue).Val
	return runtime.IntegerValue{Val: int64(x)}, nil
}

// builtinRND returns a REAL in [0, 1).
func (i *Interpreter) builtinRND(args []runtime.Value) (runtime.Value, error) {
	return runtime.RealValue{Val: i.rng.Float64()}, nil
}

// builtinRandomBetween returns an INTEGER in [lo, hi].
func (i *Interpreter) builtinRandomBetween(args []runtime.Value) (runtime.Value, error) {
	lo := args[0].(runtime.IntegerValue).Val
	hi := args[1].(runtime.IntegerValue).Val
	if lo >= hi {
		return nil, fmt.Errorf("%d is not less than %d", lo, hi)
	}
	return runtime.IntegerValue{Val: lo + i.rng.Int63n(hi-lo+1)}, nil
}

func builtinLENGTH(args []runtime.Value) (runtime.Value, error) {
	s := args[0].(runtime.StringValue).Val
	return runtime.IntegerValue{Val: int64(len([]rune(s)))}, nil
}

func builtinMID(args []runtime.Value) (runtime.Value, error) {
	s := []rune(args[0].(runtime.StringValue).Val)
	start := args[1].(runtime.IntegerValue).Val
	length := args[2].(runtime.IntegerValue).Val
	if start < 1 || length < 0 || start+length-1 > int64(len(s)) {
		return nil, fmt.Errorf("MID(%q, %d, %d) is out of range", string(s), start, length)
	}
	return runtime.StringValue{Val: string(s[start-1 : start-1+length])}, nil
}

func builtinLEFT(args []runtime.Value) (runtime.Value, error) {
	s := []rune(args[0].(runtime.StringValue).Val)
	n := args[1].(runtime.IntegerValue).Val
	if n < 0 || n > int64(len(s)) {
		return nil, fmt.Errorf("LEFT(%q, %d) is out of range", string(s), n)
	}
	return runtime.StringValue{Val: string(s[:n])}, nil
}

func builtinRIGHT(args []runtime.Value) (runtime.Value, error) {
	s := []rune(args[0].(runtime.StringValue).Val)
	n := args[1].(runtime.IntegerValue).Val
	if n < 0 || n > int64(len(s)) {
		return nil, fmt.Errorf("RIGHT(%q, %d) is out of range", string(s), n)
	}
	return runtime.StringValue{Val: string(s[int64(len(s))-n:])}, nil
}

// builtinASC returns the code point of a one-character string.
func builtinASC(args []runtime.Value) (runtime.Value, error) {
	s := []rune(args[0].(runtime.StringValue).Val)
	if len(s) != 1 {
		return nil, fmt.Errorf("ASC expects a single character, got %q", string(s))
	}
	return runtime.IntegerValue{Val: int64(s[0])}, nil
}
