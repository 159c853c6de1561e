package runtime

import (
	"testing"

	"pseudo9608/interpreter-go/pkg/types"
)

func pointDef() map[string]*types.RecordDef {
	return map[string]*types.RecordDef{
		"Point": {TypeName: "Point", Fields: []types.Field{
			{Name: "X", Type: types.Integer},
			{Name: "Y", Type: types.Integer},
		}},
	}
}

func TestZeroScalars(t *testing.T) {
	if v := Zero(types.Integer, nil); v != (IntegerValue{}) {
		t.Errorf("INTEGER zero: got %#v", v)
	}
	if v := Zero(types.String, nil); v != (StringValue{}) {
		t.Errorf("STRING zero: got %#v", v)
	}
	if v := Zero(types.Boolean, nil); v != (BoolValue{}) {
		t.Errorf("BOOLEAN zero: got %#v", v)
	}
}

func TestZeroArrayOfRecords(t *testing.T) {
	typ := types.Array{Elem: types.Record{TypeName: "Point"}, Bounds: []types.Bounds{{Lo: 1, Hi: 2}}}
	arr := Zero(typ, pointDef()).(*ArrayValue)
	if len(arr.Cells) != 2 {
		t.Fatalf("cell count: got %d", len(arr.Cells))
	}
	rec := arr.Cells[0].(*RecordValue)
	if len(rec.Fields) != 2 || rec.Fields[0] != (IntegerValue{}) {
		t.Errorf("record zero: got %#v", rec)
	}
}

func TestOffset(t *testing.T) {
	arr := Zero(types.Array{
		Elem:   types.Integer,
		Bounds: []types.Bounds{{Lo: 1, Hi: 3}, {Lo: 0, Hi: 1}},
	}, nil).(*ArrayValue)

	cases := []struct {
		indexes []int64
		offset  int
		ok      bool
	}{
		{[]int64{1, 0}, 0, true},
		{[]int64{1, 1}, 1, true},
		{[]int64{2, 0}, 2, true},
		{[]int64{3, 1}, 5, true},
		{[]int64{0, 0}, 0, false},
		{[]int64{4, 0}, 0, false},
		{[]int64{1, 2}, 0, false},
	}
	for _, tc := range cases {
		offset, ok := arr.Offset(tc.indexes)
		if ok != tc.ok || (ok && offset != tc.offset) {
			t.Errorf("Offset(%v): got (%d, %v), want (%d, %v)", tc.indexes, offset, ok, tc.offset, tc.ok)
		}
	}
}

func TestCopyIsDeep(t *testing.T) {
	arr := Zero(types.Array{Elem: types.Integer, Bounds: []types.Bounds{{Lo: 1, Hi: 2}}}, nil).(*ArrayValue)
	arr.Cells[0] = IntegerValue{Val: 7}

	dup := Copy(arr).(*ArrayValue)
	dup.Cells[0] = IntegerValue{Val: 99}
	if arr.Cells[0] != (IntegerValue{Val: 7}) {
		t.Errorf("copy aliases the original storage")
	}

	rec := Zero(types.Record{TypeName: "Point"}, pointDef()).(*RecordValue)
	rec.Fields[1] = IntegerValue{Val: 4}
	dupRec := Copy(rec).(*RecordValue)
	dupRec.Fields[1] = IntegerValue{Val: -4}
	if rec.Fields[1] != (IntegerValue{Val: 4}) {
		t.Errorf("record copy aliases the original storage")
	}
}
