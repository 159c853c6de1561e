package parser

import (
	"strings"
	"testing"

	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/scanner"
	"pseudo9608/interpreter-go/pkg/token"
	"pseudo9608/interpreter-go/pkg/types"
)

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := tryParse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return prog
}

func tryParse(src string) (*ast.Program, *diag.Error) {
	tokens, err := scanner.New(src).Scan()
	if err != nil {
		return nil, err
	}
	return New(tokens).Parse()
}

func TestParseAssignment(t *testing.T) {
	prog := parseSource(t, "Count <- Count + 1\n")
	if len(prog.Statements) != 1 {
		t.Fatalf("statement count: got %d", len(prog.Statements))
	}
	assign, ok := prog.Statements[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %s", prog.Statements[0].NodeType())
	}
	if _, ok := assign.Target.(*ast.Name); !ok {
		t.Errorf("target should be a Name")
	}
	if _, ok := assign.Value.(*ast.Binary); !ok {
		t.Errorf("value should be a Binary")
	}
}

func TestPrecedence(t *testing.T) {
	prog := parseSource(t, "X <- 1 + 2 * 3\n")
	assign := prog.Statements[0].(*ast.Assign)
	add := assign.Value.(*ast.Binary)
	if add.Op != token.Plus {
		t.Fatalf("top operator: got %s", add.Op)
	}
	mul, ok := add.Rhs.(*ast.Binary)
	if !ok || mul.Op != token.Star {
		t.Fatalf("* should bind tighter than +")
	}
}

func TestUnaryMinusBindsTighterThanMul(t *testing.T) {
	prog := parseSource(t, "X <- -A * B\n")
	mul := prog.Statements[0].(*ast.Assign).Value.(*ast.Binary)
	if mul.Op != token.Star {
		t.Fatalf("top operator: got %s", mul.Op)
	}
	if _, ok := mul.Lhs.(*ast.Unary); !ok {
		t.Errorf("left operand should be the negation")
	}
}

func TestLogicalPrecedence(t *testing.T) {
	// NOT binds tighter than AND, AND tighter than OR.
	prog := parseSource(t, "X <- A OR NOT B AND C\n")
	or := prog.Statements[0].(*ast.Assign).Value.(*ast.Binary)
	if or.Op != token.Or {
		t.Fatalf("top operator: got %s", or.Op)
	}
	and, ok := or.Rhs.(*ast.Binary)
	if !ok || and.Op != token.And {
		t.Fatalf("right of OR should be AND")
	}
	if _, ok := and.Lhs.(*ast.Unary); !ok {
		t.Errorf("left of AND should be NOT B")
	}
}

func TestChainedComparisonRejected(t *testing.T) {
	_, err := tryParse("X <- 1 < 2 < 3\n")
	if err == nil || !strings.Contains(err.Error(), "chained") {
		t.Fatalf("expected chaining error, got %v", err)
	}
}

func TestCallAndPostfix(t *testing.T) {
	prog := parseSource(t, "X <- F(1, 2) + Pts[1].Y\n")
	add := prog.Statements[0].(*ast.Assign).Value.(*ast.Binary)
	call, ok := add.Lhs.(*ast.Call)
	if !ok || call.Name != "F" || len(call.Args) != 2 {
		t.Fatalf("left operand should be F(1, 2)")
	}
	field, ok := add.Rhs.(*ast.Field)
	if !ok || field.FieldName != "Y" {
		t.Fatalf("right operand should be a field access")
	}
	if _, ok := field.Record.(*ast.Index); !ok {
		t.Errorf("field receiver should be an index expression")
	}
}

func TestIfElse(t *testing.T) {
	src := `IF X < 0 THEN
  OUTPUT "neg"
ELSE
  OUTPUT "pos"
ENDIF
`
	prog := parseSource(t, src)
	ifStmt := prog.Statements[0].(*ast.If)
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("branch sizes: then %d, else %d", len(ifStmt.Then), len(ifStmt.Else))
	}
}

func TestIfWithThenOnNextLine(t *testing.T) {
	src := "IF X < 0\n  THEN\n  OUTPUT 1\nENDIF\n"
	prog := parseSource(t, src)
	if _, ok := prog.Statements[0].(*ast.If); !ok {
		t.Fatalf("expected If")
	}
}

func TestCaseClauses(t *testing.T) {
	src := `CASE OF Direction
  1 : OUTPUT "north"
  2 : OUTPUT "south"
  OTHERWISE : OUTPUT "lost"
ENDCASE
`
	prog := parseSource(t, src)
	caseStmt := prog.Statements[0].(*ast.Case)
	if len(caseStmt.Clauses) != 2 {
		t.Fatalf("clause count: got %d", len(caseStmt.Clauses))
	}
	if caseStmt.Otherwise == nil {
		t.Fatalf("OTHERWISE clause missing")
	}
	if caseStmt.Clauses[0].Value.Value != int64(1) {
		t.Errorf("first label: got %v", caseStmt.Clauses[0].Value.Value)
	}
}

func TestCaseNegativeLabel(t *testing.T) {
	src := "CASE OF X\n  -1 : OUTPUT \"neg\"\nENDCASE\n"
	prog := parseSource(t, src)
	caseStmt := prog.Statements[0].(*ast.Case)
	if caseStmt.Clauses[0].Value.Value != int64(-1) {
		t.Errorf("negative label: got %v", caseStmt.Clauses[0].Value.Value)
	}
}

func TestForWithStepAndTrailingName(t *testing.T) {
	src := "FOR Row <- 10 TO 1 STEP -1\n  OUTPUT Row\nENDFOR Row\n"
	prog := parseSource(t, src)
	forStmt := prog.Statements[0].(*ast.For)
	if forStmt.Name.Ident != "Row" {
		t.Errorf("loop variable: got %s", forStmt.Name.Ident)
	}
	if forStmt.Step == nil {
		t.Errorf("step should be present")
	}
}

func TestForWithoutStep(t *testing.T) {
	prog := parseSource(t, "FOR I <- 1 TO 5\n  OUTPUT I\nENDFOR\n")
	if prog.Statements[0].(*ast.For).Step != nil {
		t.Errorf("absent STEP should leave Step nil")
	}
}

func TestWhileAndRepeat(t *testing.T) {
	src := `WHILE N > 0 DO
  N <- N - 1
ENDWHILE
REPEAT
  N <- N + 1
UNTIL N = 5
`
	prog := parseSource(t, src)
	if _, ok := prog.Statements[0].(*ast.While); !ok {
		t.Fatalf("expected While")
	}
	if _, ok := prog.Statements[1].(*ast.Repeat); !ok {
		t.Fatalf("expected Repeat")
	}
}

func TestProcedureWithModes(t *testing.T) {
	src := `PROCEDURE Swap(BYREF X : INTEGER, BYREF Y : INTEGER)
  X <- Y
ENDPROCEDURE
`
	prog := parseSource(t, src)
	proc := prog.Statements[0].(*ast.ProcedureDecl)
	if len(proc.Params) != 2 {
		t.Fatalf("param count: got %d", len(proc.Params))
	}
	for _, prm := range proc.Params {
		if prm.Mode != types.ByReference {
			t.Errorf("parameter %s: got mode %s", prm.Name, prm.Mode)
		}
	}
}

func TestModeMarkerCarriesForward(t *testing.T) {
	src := `PROCEDURE P(BYREF A : INTEGER, B : INTEGER, BYVALUE C : INTEGER)
  OUTPUT A
ENDPROCEDURE
`
	prog := parseSource(t, src)
	proc := prog.Statements[0].(*ast.ProcedureDecl)
	want := []types.PassMode{types.ByReference, types.ByReference, types.ByValue}
	for i, prm := range proc.Params {
		if prm.Mode != want[i] {
			t.Errorf("param %d mode: got %s, want %s", i, prm.Mode, want[i])
		}
	}
}

func TestFunctionDecl(t *testing.T) {
	src := `FUNCTION F(N : INTEGER) RETURNS INTEGER
  RETURN N
ENDFUNCTION
`
	prog := parseSource(t, src)
	fn := prog.Statements[0].(*ast.FunctionDecl)
	if fn.Return.Name != "INTEGER" {
		t.Errorf("return type: got %s", fn.Return.Name)
	}
	if _, ok := fn.Body[0].(*ast.Return); !ok {
		t.Errorf("body should hold the RETURN")
	}
}

func TestDeclareArray(t *testing.T) {
	prog := parseSource(t, "DECLARE M : ARRAY[1:3, 0:1] OF REAL\n")
	decl := prog.Statements[0].(*ast.DeclareArray)
	if len(decl.Bounds) != 2 || decl.Bounds[1] != (types.Bounds{Lo: 0, Hi: 1}) {
		t.Fatalf("bounds: got %v", decl.Bounds)
	}
	if decl.Elem.Name != "REAL" {
		t.Errorf("element type: got %s", decl.Elem.Name)
	}
}

func TestTypeBlock(t *testing.T) {
	src := `TYPE Point
  DECLARE X : INTEGER
  DECLARE Y : INTEGER
ENDTYPE
`
	prog := parseSource(t, src)
	decl := prog.Statements[0].(*ast.TypeDecl)
	if decl.Name != "Point" || len(decl.Fields) != 2 {
		t.Fatalf("type decl: %s with %d fields", decl.Name, len(decl.Fields))
	}
}

func TestFileStatements(t *testing.T) {
	src := `OPENFILE FileA.txt FOR READ
READFILE FileA.txt, Line
OPENFILE "out.txt" FOR APPEND
WRITEFILE "out.txt", Line
CLOSEFILE FileA.txt
`
	prog := parseSource(t, src)
	open := prog.Statements[0].(*ast.OpenFile)
	lit, ok := open.Name.(*ast.Literal)
	if !ok || lit.Value != "FileA.txt" {
		t.Fatalf("dotted file name should become one STRING literal, got %v", open.Name)
	}
	if open.Mode != ast.ModeRead {
		t.Errorf("mode: got %s", open.Mode)
	}
	if prog.Statements[2].(*ast.OpenFile).Mode != ast.ModeAppend {
		t.Errorf("append mode lost")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"missing ENDIF", "IF X THEN\n  OUTPUT 1\n", "ENDIF"},
		{"missing THEN", "IF X\nOUTPUT 1\nENDIF\n", "THEN"},
		{"missing ENDWHILE", "WHILE X DO\n  OUTPUT 1\n", "ENDWHILE"},
		{"missing DO", "WHILE X\n  OUTPUT 1\nENDWHILE\n", "DO"},
		{"declare inside loop", "WHILE X DO\n  DECLARE Y : INTEGER\nENDWHILE\n", "DECLARE"},
		{"routine not at top level", "IF X THEN\n  PROCEDURE P\n  ENDPROCEDURE\nENDIF\n", "top level"},
		{"bad file mode", "OPENFILE f.txt FOR WRONG\n", "READ, WRITE or APPEND"},
		{"assignment missing arrow", "X 1\n", "<-"},
		{"case label not literal", "CASE OF X\n  Y : OUTPUT 1\nENDCASE\n", "literal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tryParse(tc.src)
			if err == nil {
				t.Fatalf("expected parse error")
			}
			if !strings.HasPrefix(err.Error(), "ParseError at line ") {
				t.Errorf("diagnostic format: %q", err.Error())
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}
