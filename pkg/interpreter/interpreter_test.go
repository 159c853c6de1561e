package interpreter

import (
	"fmt"
	"strings"
	"testing"

	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/parser"
	"pseudo9608/interpreter-go/pkg/resolver"
	"pseudo9608/interpreter-go/pkg/scanner"
)

// execute runs src through the whole pipeline against host and returns the
// first diagnostic, if any.
func execute(t *testing.T, src string, host *MemHost) *diag.Error {
	t.Helper()
	tokens, err := scanner.New(src).Scan()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	prog, err := parser.New(tokens).Parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res := resolver.New()
	if err := res.Resolve(prog); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	return New(host).Run(prog, res.Records())
}

func run(t *testing.T, src string, host *MemHost) *MemHost {
	t.Helper()
	if host == nil {
		host = NewMemHost()
	}
	if err := execute(t, src, host); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return host
}

func expectStdout(t *testing.T, src, want string) {
	t.Helper()
	host := run(t, src, nil)
	if host.Stdout() != want {
		t.Errorf("stdout:\n got %q\nwant %q", host.Stdout(), want)
	}
}

func expectRuntimeError(t *testing.T, src, fragment string) {
	t.Helper()
	err := execute(t, src, NewMemHost())
	if err == nil {
		t.Fatalf("expected runtime error mentioning %q", fragment)
	}
	if !strings.HasPrefix(err.Error(), "RuntimeError at line ") {
		t.Errorf("diagnostic format: %q", err.Error())
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Errorf("error %q does not mention %q", err.Error(), fragment)
	}
}

func TestHelloWorld(t *testing.T) {
	expectStdout(t, "OUTPUT \"Hello World!\"\n", "Hello World!\n")
}

func TestAccumulatingFor(t *testing.T) {
	src := `DECLARE T : INTEGER
T <- 0
FOR I <- 1 TO 5
  T <- T + I
ENDFOR
OUTPUT T
`
	expectStdout(t, src, "15\n")
}

func TestForStepAndDirections(t *testing.T) {
	src := `FOR I <- 10 TO 1 STEP -3
  OUTPUT I
ENDFOR
FOR J <- 5 TO 1
  OUTPUT J
ENDFOR
OUTPUT "done"
`
	// The second loop's step direction disagrees with stop-start: zero
	// iterations.
	expectStdout(t, src, "10\n7\n4\n1\ndone\n")
}

func TestForLoopCount(t *testing.T) {
	cases := []struct {
		start, stop, step string
		want              int
	}{
		{"1", "5", "1", 5},
		{"1", "5", "2", 3},
		{"5", "1", "-1", 5},
		{"1", "1", "1", 1},
		{"2", "1", "1", 0},
		{"1", "2", "-1", 0},
	}
	for _, tc := range cases {
		src := "DECLARE N : INTEGER\nN <- 0\nFOR I <- " + tc.start + " TO " + tc.stop +
			" STEP " + tc.step + "\n  N <- N + 1\nENDFOR\nOUTPUT N\n"
		host := run(t, src, nil)
		want := fmt.Sprintf("%d\n", tc.want)
		if host.Stdout() != want {
			t.Errorf("FOR %s TO %s STEP %s: got %q, want %q iterations",
				tc.start, tc.stop, tc.step, host.Stdout(), want)
		}
	}
}

func TestForStepZero(t *testing.T) {
	expectRuntimeError(t, "FOR I <- 1 TO 5 STEP 0\n  OUTPUT I\nENDFOR\n", "STEP must not be zero")
}

func TestByRefSwap(t *testing.T) {
	src := `DECLARE A : INTEGER
DECLARE B : INTEGER
PROCEDURE Swap(BYREF X : INTEGER, BYREF Y : INTEGER)
  DECLARE Temp : INTEGER
  Temp <- X
  X <- Y
  Y <- Temp
ENDPROCEDURE
A <- 1
B <- 2
CALL Swap(A, B)
OUTPUT A, " ", B
`
	expectStdout(t, src, "2 1\n")
}

func TestByValueDoesNotMutateCaller(t *testing.T) {
	src := `DECLARE A : INTEGER
PROCEDURE Bump(N : INTEGER)
  N <- N + 1
ENDPROCEDURE
A <- 5
CALL Bump(A)
OUTPUT A
`
	expectStdout(t, src, "5\n")
}

func TestByValueArrayIsCopied(t *testing.T) {
	src := `DECLARE A : ARRAY[1:2] OF INTEGER
PROCEDURE Mangle(Arr : ARRAY[1:2] OF INTEGER)
  Arr[1] <- 99
ENDPROCEDURE
A[1] <- 1
CALL Mangle(A)
OUTPUT A[1]
`
	expectStdout(t, src, "1\n")
}

func TestByRefArrayElement(t *testing.T) {
	src := `DECLARE A : ARRAY[1:3] OF INTEGER
PROCEDURE Bump(BYREF N : INTEGER)
  N <- N + 1
ENDPROCEDURE
A[2] <- 7
CALL Bump(A[2])
OUTPUT A[2]
`
	expectStdout(t, src, "8\n")
}

func TestRecursiveFactorial(t *testing.T) {
	src := `FUNCTION F(N : INTEGER) RETURNS INTEGER
  IF N <= 1 THEN
    RETURN 1
  ELSE
    RETURN N * F(N - 1)
  ENDIF
ENDFUNCTION
OUTPUT F(5)
`
	expectStdout(t, src, "120\n")
}

func TestRecordAndArray(t *testing.T) {
	src := `TYPE Point
  DECLARE X : INTEGER
  DECLARE Y : INTEGER
ENDTYPE
DECLARE Pts : ARRAY[1:2] OF Point
Pts[1].X <- 3
Pts[1].Y <- 4
OUTPUT Pts[1].X + Pts[1].Y
`
	expectStdout(t, src, "7\n")
}

func TestWholeArrayAssignmentSharesStorage(t *testing.T) {
	src := `DECLARE A : ARRAY[1:2] OF INTEGER
DECLARE B : ARRAY[1:2] OF INTEGER
A[1] <- 1
B <- A
B[1] <- 2
OUTPUT A[1], " ", B[1]
`
	// Arrays are container values: B <- A binds B to the same storage, so
	// later writes are visible through both names.
	expectStdout(t, src, "2 2\n")
}

func TestIntegerWideningOnAssign(t *testing.T) {
	src := "DECLARE X : REAL\nX <- 3\nOUTPUT X\n"
	expectStdout(t, src, "3.0\n")
}

func TestOutputFormatting(t *testing.T) {
	src := `OUTPUT 42
OUTPUT -7
OUTPUT 2.5
OUTPUT 10.0 / 4.0
OUTPUT TRUE, FALSE
OUTPUT "a", 1, "b"
OUTPUT 7 / 2
`
	expectStdout(t, src, "42\n-7\n2.5\n2.5\nTRUEFALSE\na1b\n3.5\n")
}

func TestDivision(t *testing.T) {
	expectStdout(t, "OUTPUT 1 / 3\n", "0.3333333333333333\n")
	expectRuntimeError(t, "OUTPUT 1 / 0\n", "division by zero")
	expectRuntimeError(t, "OUTPUT 1.0 / 0.0\n", "division by zero")
}

func TestShortCircuit(t *testing.T) {
	// The division on the right of AND must never run.
	src := `DECLARE X : INTEGER
X <- 0
IF X > 0 AND 1 / X > 0.5 THEN
  OUTPUT "yes"
ELSE
  OUTPUT "no"
ENDIF
`
	expectStdout(t, src, "no\n")
}

func TestCaseDispatch(t *testing.T) {
	src := `DECLARE X : INTEGER
X <- 2
CASE OF X
  1 : OUTPUT "one"
  2 : OUTPUT "two"
  OTHERWISE : OUTPUT "many"
ENDCASE
X <- 9
CASE OF X
  1 : OUTPUT "one"
  OTHERWISE : OUTPUT "many"
ENDCASE
`
	expectStdout(t, src, "two\nmany\n")
}

func TestCaseWithoutMatchOrOtherwise(t *testing.T) {
	src := "DECLARE X : INTEGER\nX <- 9\nCASE OF X\n  1 : OUTPUT \"one\"\nENDCASE\nOUTPUT \"after\"\n"
	expectStdout(t, src, "after\n")
}

func TestWhileAndRepeat(t *testing.T) {
	src := `DECLARE N : INTEGER
N <- 3
WHILE N > 0 DO
  OUTPUT N
  N <- N - 1
ENDWHILE
REPEAT
  N <- N + 1
UNTIL N = 2
OUTPUT N
`
	expectStdout(t, src, "3\n2\n1\n2\n")
}

func TestInputCoercion(t *testing.T) {
	src := `DECLARE N : INTEGER
DECLARE S : STRING
INPUT N
INPUT S
OUTPUT N + 1
OUTPUT S
`
	host := NewMemHost()
	host.Stdin = []string{"41", "free text"}
	if err := execute(t, src, host); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if host.Stdout() != "42\nfree text\n" {
		t.Errorf("stdout: got %q", host.Stdout())
	}
}

func TestInputCoercionFailure(t *testing.T) {
	src := "DECLARE N : INTEGER\nINPUT N\n"
	host := NewMemHost()
	host.Stdin = []string{"not a number"}
	err := execute(t, src, host)
	if err == nil || !strings.Contains(err.Error(), "cannot read") {
		t.Fatalf("expected coercion failure, got %v", err)
	}
}

func TestInputIntoArrayElement(t *testing.T) {
	src := "DECLARE A : ARRAY[1:2] OF INTEGER\nINPUT A[2]\nOUTPUT A[2]\n"
	host := NewMemHost()
	host.Stdin = []string{"5"}
	if err := execute(t, src, host); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if host.Stdout() != "5\n" {
		t.Errorf("stdout: got %q", host.Stdout())
	}
}

func TestArrayBounds(t *testing.T) {
	expectRuntimeError(t, "DECLARE A : ARRAY[1:3] OF INTEGER\nA[4] <- 1\n", "out of bounds")
	expectRuntimeError(t, "DECLARE A : ARRAY[1:3] OF INTEGER\nOUTPUT A[0]\n", "out of bounds")
	expectRuntimeError(t, "DECLARE M : ARRAY[1:2, 1:2] OF INTEGER\nOUTPUT M[1, 3]\n", "out of bounds")
}

func TestRuntimeErrorCarriesCallableName(t *testing.T) {
	src := `PROCEDURE Crash
  OUTPUT 1 / 0
ENDPROCEDURE
CALL Crash
`
	err := execute(t, src, NewMemHost())
	if err == nil || err.Callable != "Crash" {
		t.Fatalf("expected error inside Crash, got %v", err)
	}
	if !strings.Contains(err.Error(), "(in Crash)") {
		t.Errorf("rendered diagnostic: %q", err.Error())
	}
}

func TestStringBuiltins(t *testing.T) {
	src := `OUTPUT LENGTH("crunchy")
OUTPUT MID("crunchy", 2, 3)
OUTPUT LEFT("crunchy", 3)
OUTPUT RIGHT("crunchy", 2)
OUTPUT ASC("A")
OUTPUT INT(3.9)
OUTPUT INT(7)
`
	expectStdout(t, src, "7\nrun\ncru\nhy\n65\n3\n7\n")
}

func TestStringBuiltinRangeErrors(t *testing.T) {
	expectRuntimeError(t, "OUTPUT MID(\"abc\", 0, 1)\n", "out of range")
	expectRuntimeError(t, "OUTPUT MID(\"abc\", 2, 3)\n", "out of range")
	expectRuntimeError(t, "OUTPUT LEFT(\"abc\", 4)\n", "out of range")
	expectRuntimeError(t, "OUTPUT ASC(\"abc\")\n", "single character")
}

func TestRandomBuiltins(t *testing.T) {
	src := `DECLARE N : INTEGER
DECLARE X : REAL
N <- RANDOMBETWEEN(1, 6)
X <- RND()
IF N >= 1 AND N <= 6 AND X >= 0.0 AND X < 1.0 THEN
  OUTPUT "in range"
ENDIF
`
	expectStdout(t, src, "in range\n")
	expectRuntimeError(t, "OUTPUT RANDOMBETWEEN(6, 1)\n", "not less than")
}

func TestFileRoundTrip(t *testing.T) {
	src := `DECLARE Line : STRING
OPENFILE out.txt FOR WRITE
WRITEFILE out.txt, "alpha"
WRITEFILE out.txt, 42
CLOSEFILE out.txt
OPENFILE out.txt FOR READ
READFILE out.txt, Line
OUTPUT Line
CLOSEFILE out.txt
OPENFILE out.txt FOR APPEND
WRITEFILE out.txt, "omega"
CLOSEFILE out.txt
`
	host := run(t, src, nil)
	if host.Stdout() != "alpha\n" {
		t.Errorf("stdout: got %q", host.Stdout())
	}
	if got := host.Files["out.txt"]; got != "alpha\n42\nomega\n" {
		t.Errorf("file content: got %q", got)
	}
}

func TestFileCopyWithBlankSubstitution(t *testing.T) {
	src := `DECLARE Line : STRING
OPENFILE FileA.txt FOR READ
OPENFILE FileB.txt FOR WRITE
WHILE NOT EOF("FileA.txt") DO
  READFILE FileA.txt, Line
  IF Line = "" THEN
    Line <- "-------------------------"
  ENDIF
  WRITEFILE FileB.txt, Line
ENDWHILE
CLOSEFILE FileA.txt
CLOSEFILE FileB.txt
`
	host := NewMemHost()
	host.Files["FileA.txt"] = "one\n\ntwo\n"
	if err := execute(t, src, host); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := host.Files["FileB.txt"]; got != "one\n-------------------------\ntwo\n" {
		t.Errorf("FileB.txt: got %q", got)
	}
}

func TestFileErrors(t *testing.T) {
	expectRuntimeError(t, "OPENFILE a.txt FOR READ\n", "cannot open")
	expectRuntimeError(t, "DECLARE L : STRING\nREADFILE a.txt, L\n", "not open")
	expectRuntimeError(t, "CLOSEFILE a.txt\n", "not open")
	expectRuntimeError(t, "OPENFILE a.txt FOR WRITE\nOPENFILE a.txt FOR READ\n", "already open")
	expectRuntimeError(t, "OPENFILE a.txt FOR WRITE\nWRITEFILE a.txt, 1\nCLOSEFILE a.txt\nOPENFILE a.txt FOR READ\nWRITEFILE a.txt, 2\n", "open for READ")
	expectRuntimeError(t, "DECLARE L : STRING\nOPENFILE a.txt FOR WRITE\nREADFILE a.txt, L\n", "open for WRITE")
}

func TestReadPastEndOfFile(t *testing.T) {
	src := "DECLARE L : STRING\nOPENFILE a.txt FOR READ\nREADFILE a.txt, L\nREADFILE a.txt, L\n"
	host := NewMemHost()
	host.Files["a.txt"] = "only\n"
	err := execute(t, src, host)
	if err == nil || !strings.Contains(err.Error(), "read past end of file") {
		t.Fatalf("expected end-of-file error, got %v", err)
	}
}

func TestOpenFilesReleasedAtTermination(t *testing.T) {
	src := "OPENFILE a.txt FOR WRITE\nWRITEFILE a.txt, \"kept\"\n"
	host := run(t, src, nil)
	if got := host.Files["a.txt"]; got != "kept\n" {
		t.Errorf("file should be flushed at termination: got %q", got)
	}
}

func TestGlobalsVisibleInsideCallables(t *testing.T) {
	src := `DECLARE Total : INTEGER
PROCEDURE Add(N : INTEGER)
  Total <- Total + N
ENDPROCEDURE
Total <- 0
CALL Add(3)
CALL Add(4)
OUTPUT Total
`
	expectStdout(t, src, "7\n")
}

func TestLocalsDoNotLeak(t *testing.T) {
	src := `PROCEDURE P
  DECLARE Hidden : INTEGER
  Hidden <- 1
ENDPROCEDURE
CALL P
OUTPUT "ok"
`
	expectStdout(t, src, "ok\n")
}

func TestFunctionArgumentWidening(t *testing.T) {
	src := `FUNCTION Half(X : REAL) RETURNS REAL
  RETURN X / 2
ENDFUNCTION
OUTPUT Half(5)
`
	expectStdout(t, src, "2.5\n")
}
