package scanner

import (
	"strconv"

	"github.com/npillmayer/schuko/tracing"

	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/token"
)

// tracer traces with key 'pseudo.scan'.
func tracer() tracing.Trace {
	return tracing.Select("pseudo.scan")
}

// Scanner turns source text into a token sequence terminated by an EOF
// token. Newlines are significant (statement terminators); runs of blank
// lines collapse to a single Newline token, and leading indentation is
// discarded.
type Scanner struct {
	src    string
	pos    int // index of current byte
	line   int
	column int
	tokens []token.Token
}

// New returns a scanner over src. Line endings must already be normalised
// to '\n'; stray '\r' bytes are treated as whitespace.
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1, column: 1}
}

// Scan consumes the whole source and returns its tokens. The first error
// aborts the scan.
func (s *Scanner) Scan() ([]token.Token, *diag.Error) {
	for !s.atEnd() {
		ch := s.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			s.advance()
		case ch == '\n':
			s.scanNewline()
		case ch == '/' && s.peekAt(1) == '/':
			s.skipComment()
		case isLetter(ch):
			s.scanWord()
		case isDigit(ch):
			if err := s.scanNumber(); err != nil {
				return nil, err
			}
		case ch == '"':
			if err := s.scanString(); err != nil {
				return nil, err
			}
		default:
			if err := s.scanSymbol(); err != nil {
				return nil, err
			}
		}
	}
	// A final newline terminates the last statement even when the source
	// does not end with one.
	if n := len(s.tokens); n > 0 && s.tokens[n-1].Type != token.Newline {
		s.emit(token.Newline, "\n", nil, s.position())
	}
	s.emit(token.EOF, "", nil, s.position())
	tracer().Debugf("scanned %d tokens over %d lines", len(s.tokens), s.line)
	return s.tokens, nil
}

func (s *Scanner) atEnd() bool { return s.pos >= len(s.src) }

func (s *Scanner) peek() byte { return s.src[s.pos] }

func (s *Scanner) peekAt(offset int) byte {
	if s.pos+offset >= len(s.src) {
		return 0
	}
	return s.src[s.pos+offset]
}

func (s *Scanner) advance() byte {
	ch := s.src[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return ch
}

func (s *Scanner) position() token.Position {
	return token.Position{Line: s.line, Column: s.column}
}

func (s *Scanner) emit(t token.Type, lexeme string, value any, pos token.Position) {
	s.tokens = append(s.tokens, token.Token{Type: t, Lexeme: lexeme, Value: value, Pos: pos})
}

func (s *Scanner) errorf(pos token.Position, lexeme, format string, args ...any) *diag.Error {
	return diag.Newf(diag.Scan, token.Token{Lexeme: lexeme, Pos: pos}, format, args...)
}

func (s *Scanner) scanNewline() {
	pos := s.position()
	s.advance()
	// Collapse consecutive line breaks; a leading blank line produces no
	// token at all.
	if n := len(s.tokens); n == 0 || s.tokens[n-1].Type == token.Newline {
		return
	}
	s.emit(token.Newline, "\n", nil, pos)
}

func (s *Scanner) skipComment() {
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
}

func (s *Scanner) scanWord() {
	pos := s.position()
	start := s.pos
	for !s.atEnd() && (isLetter(s.peek()) || isDigit(s.peek())) {
		s.advance()
	}
	word := s.src[start:s.pos]
	t := token.LookupIdent(word)
	var value any
	if t == token.BoolLit {
		value = word == "TRUE"
	}
	s.emit(t, word, value, pos)
}

func (s *Scanner) scanNumber() *diag.Error {
	pos := s.position()
	start := s.pos
	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	if !s.atEnd() && s.peek() == '.' {
		if !isDigit(s.peekAt(1)) {
			return s.errorf(pos, s.src[start:s.pos+1], "malformed REAL literal: digits required after '.'")
		}
		s.advance() // '.'
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
		lexeme := s.src[start:s.pos]
		value, err := parseReal(lexeme)
		if err != nil {
			return s.errorf(pos, lexeme, "malformed REAL literal %q", lexeme)
		}
		s.emit(token.RealLit, lexeme, value, pos)
		return nil
	}
	lexeme := s.src[start:s.pos]
	value, err := parseInt(lexeme)
	if err != nil {
		return s.errorf(pos, lexeme, "INTEGER literal %q out of range", lexeme)
	}
	s.emit(token.IntLit, lexeme, value, pos)
	return nil
}

func (s *Scanner) scanString() *diag.Error {
	pos := s.position()
	start := s.pos
	s.advance() // opening quote
	for !s.atEnd() && s.peek() != '"' && s.peek() != '\n' {
		s.advance()
	}
	if s.atEnd() || s.peek() != '"' {
		return s.errorf(pos, s.src[start:s.pos], "unterminated string")
	}
	s.advance() // closing quote
	lexeme := s.src[start:s.pos]
	s.emit(token.StringLit, lexeme, lexeme[1:len(lexeme)-1], pos)
	return nil
}

// scanSymbol handles operators and delimiters. Two-character tokens are
// matched by maximal munch.
func (s *Scanner) scanSymbol() *diag.Error {
	pos := s.position()
	ch := s.advance()
	switch ch {
	case '+':
		s.emit(token.Plus, "+", nil, pos)
	case '-':
		s.emit(token.Minus, "-", nil, pos)
	case '*':
		s.emit(token.Star, "*", nil, pos)
	case '/':
		s.emit(token.Slash, "/", nil, pos)
	case '=':
		s.emit(token.Equal, "=", nil, pos)
	case '(':
		s.emit(token.LParen, "(", nil, pos)
	case ')':
		s.emit(token.RParen, ")", nil, pos)
	case '[':
		s.emit(token.LBracket, "[", nil, pos)
	case ']':
		s.emit(token.RBracket, "]", nil, pos)
	case ',':
		s.emit(token.Comma, ",", nil, pos)
	case ':':
		s.emit(token.Colon, ":", nil, pos)
	case '.':
		if !s.atEnd() && isDigit(s.peek()) {
			return s.errorf(pos, ".", "malformed REAL literal: digits required before '.'")
		}
		s.emit(token.Period, ".", nil, pos)
	case '<':
		switch {
		case !s.atEnd() && s.peek() == '-':
			s.advance()
			s.emit(token.Assign, "<-", nil, pos)
		case !s.atEnd() && s.peek() == '=':
			s.advance()
			s.emit(token.LessEqual, "<=", nil, pos)
		case !s.atEnd() && s.peek() == '>':
			s.advance()
			s.emit(token.NotEqual, "<>", nil, pos)
		default:
			s.emit(token.Less, "<", nil, pos)
		}
	case '>':
		if !s.atEnd() && s.peek() == '=' {
			s.advance()
			s.emit(token.GreaterEqual, ">=", nil, pos)
		} else {
			s.emit(token.Greater, ">", nil, pos)
		}
	default:
		return s.errorf(pos, string(ch), "unrecognised character %q", string(ch))
	}
	return nil
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func parseInt(lexeme string) (int64, error) {
	return strconv.ParseInt(lexeme, 10, 64)
}

func parseReal(lexeme string) (float64, error) {
	return strconv.ParseFloat(lexeme, 64)
}
