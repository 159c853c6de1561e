package diag

import (
	"fmt"

	"pseudo9608/interpreter-go/pkg/token"
)

// Phase names the pipeline stage that produced a diagnostic.
type Phase int

const (
	Scan Phase = iota
	Parse
	Resolve
	Runtime
)

func (p Phase) String() string {
	switch p {
	case Scan:
		return "Scan"
	case Parse:
		return "Parse"
	case Resolve:
		return "Resolve"
	case Runtime:
		return "Runtime"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Error is the structured diagnostic shared by all four phases. Every error
// carries the source position and lexeme of an originating token; runtime
// errors additionally carry the active callable name when raised inside a
// call.
type Error struct {
	Phase    Phase
	Message  string
	Pos      token.Position
	Lexeme   string
	Callable string
}

// Error renders the one-line diagnostic format:
//
//	<Phase>Error at line L, column C: <message>
func (e *Error) Error() string {
	msg := e.Message
	if e.Callable != "" {
		msg = fmt.Sprintf("%s (in %s)", msg, e.Callable)
	}
	return fmt.Sprintf("%sError at %s: %s", e.Phase, e.Pos, msg)
}

// New builds a diagnostic anchored at the given token.
func New(phase Phase, tok token.Token, msg string) *Error {
	return &Error{Phase: phase, Message: msg, Pos: tok.Pos, Lexeme: tok.Lexeme}
}

// Newf is New with a format string.
func Newf(phase Phase, tok token.Token, format string, args ...any) *Error {
	return New(phase, tok, fmt.Sprintf(format, args...))
}
