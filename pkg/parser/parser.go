package parser

import (
	"github.com/npillmayer/schuko/tracing"

	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/token"
)

// tracer traces with key 'pseudo.parse'.
func tracer() tracing.Trace {
	return tracing.Select("pseudo.parse")
}

// Parser is a recursive descent parser over a scanned token sequence. One
// newline terminates a statement; multi-line constructs end at their
// explicit terminator keyword.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New returns a parser over tokens. The sequence must be terminated by an
// EOF token, as produced by the scanner.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse consumes the whole token sequence and returns the program.
func (p *Parser) Parse() (*ast.Program, *diag.Error) {
	prog := &ast.Program{}
	for {
		p.skipNewlines()
		if p.at(token.EOF) {
			break
		}
		stmt, err := p.statement(ctxTopLevel)
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	tracer().Debugf("parsed %d top-level statements", len(prog.Statements))
	return prog, nil
}

// stmtContext controls which statement forms are admissible at the current
// nesting level, mirroring the statement stratification of the language:
// routine and TYPE declarations only at top level, DECLARE additionally in
// callable bodies, everything else anywhere.
type stmtContext int

const (
	ctxTopLevel stmtContext = iota
	ctxCallableBody
	ctxBlock
)

func (p *Parser) cur() token.Token { return p.tokens[p.pos] }

func (p *Parser) at(t token.Type) bool { return p.cur().Type == t }

func (p *Parser) atAny(ts ...token.Type) bool {
	for _, t := range ts {
		if p.cur().Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if tok.Type != token.EOF {
		p.pos++
	}
	return tok
}

// accept consumes and returns the current token when it has the given type.
func (p *Parser) accept(t token.Type) (token.Token, bool) {
	if p.at(t) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect consumes a token of the given type or fails with a diagnostic
// naming the expectation and the surrounding construct.
func (p *Parser) expect(t token.Type, context string) (token.Token, *diag.Error) {
	if p.at(t) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorf("expected %s %s, found %s", t, context, p.cur())
}

// expectEnd consumes the newline that terminates a single-line statement.
func (p *Parser) expectEnd(context string) *diag.Error {
	if p.at(token.EOF) {
		return nil
	}
	_, err := p.expect(token.Newline, context)
	return err
}

func (p *Parser) skipNewlines() {
	for p.at(token.Newline) {
		p.advance()
	}
}

func (p *Parser) errorf(format string, args ...any) *diag.Error {
	return diag.Newf(diag.Parse, p.cur(), format, args...)
}
