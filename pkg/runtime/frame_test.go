package runtime

import (
	"testing"

	"pseudo9608/interpreter-go/pkg/types"
)

func TestDeclareAndLookup(t *testing.T) {
	global := NewFrame(nil)
	global.Declare("X", types.Integer, IntegerValue{Val: 3})

	slot, ok := global.Lookup("X")
	if !ok || slot.Get() != (IntegerValue{Val: 3}) {
		t.Fatalf("lookup X: got %#v, %v", slot, ok)
	}
	slot.Set(IntegerValue{Val: 4})
	if slot.Get() != (IntegerValue{Val: 4}) {
		t.Errorf("set did not stick")
	}
}

func TestLookupWalksOutward(t *testing.T) {
	global := NewFrame(nil)
	global.Declare("G", types.String, StringValue{Val: "global"})
	child := NewFrame(global)

	if slot, ok := child.Lookup("G"); !ok || slot.Get() != (StringValue{Val: "global"}) {
		t.Fatalf("child should see the global slot")
	}
	if _, ok := global.Lookup("L"); ok {
		t.Fatalf("global should not see names that were never declared")
	}
}

func TestShadowing(t *testing.T) {
	global := NewFrame(nil)
	global.Declare("X", types.Integer, IntegerValue{Val: 1})
	child := NewFrame(global)
	child.Declare("X", types.String, StringValue{Val: "local"})

	slot, _ := child.Lookup("X")
	if slot.Get() != (StringValue{Val: "local"}) {
		t.Errorf("child lookup should find the shadowing slot")
	}
	gslot, _ := global.Lookup("X")
	if gslot.Get() != (IntegerValue{Val: 1}) {
		t.Errorf("global slot must be untouched")
	}
}

func TestAliasSharesStorage(t *testing.T) {
	global := NewFrame(nil)
	slot := global.Declare("X", types.Integer, IntegerValue{Val: 1})

	activation := NewFrame(global)
	activation.Alias("N", types.Integer, slot.Ref)

	alias, _ := activation.Lookup("N")
	alias.Set(IntegerValue{Val: 42})
	if slot.Get() != (IntegerValue{Val: 42}) {
		t.Errorf("write through alias should reach the original slot")
	}
}
