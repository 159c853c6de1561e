package parser

import (
	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/token"
)

// Expression precedence, lowest binding first: OR, AND, NOT, relational
// operators (non-associative), additive, multiplicative, unary minus,
// postfix (index, field, call), primary.

func (p *Parser) expression() (ast.Expression, *diag.Error) {
	return p.orExpr()
}

func (p *Parser) orExpr() (ast.Expression, *diag.Error) {
	expr, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.at(token.Or) {
		op := p.advance()
		rhs, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinary(op, op.Type, expr, rhs)
	}
	return expr, nil
}

func (p *Parser) andExpr() (ast.Expression, *diag.Error) {
	expr, err := p.notExpr()
	if err != nil {
		return nil, err
	}
	for p.at(token.And) {
		op := p.advance()
		rhs, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinary(op, op.Type, expr, rhs)
	}
	return expr, nil
}

func (p *Parser) notExpr() (ast.Expression, *diag.Error) {
	if p.at(token.Not) {
		op := p.advance()
		operand, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(op, op.Type, operand), nil
	}
	return p.comparison()
}

var relationalOps = []token.Type{
	token.Equal, token.NotEqual, token.Less, token.Greater,
	token.LessEqual, token.GreaterEqual,
}

func (p *Parser) comparison() (ast.Expression, *diag.Error) {
	expr, err := p.addSub()
	if err != nil {
		return nil, err
	}
	if !p.atAny(relationalOps...) {
		return expr, nil
	}
	op := p.advance()
	rhs, err := p.addSub()
	if err != nil {
		return nil, err
	}
	if p.atAny(relationalOps...) {
		return nil, p.errorf("comparison operators cannot be chained")
	}
	return ast.NewBinary(op, op.Type, expr, rhs), nil
}

func (p *Parser) addSub() (ast.Expression, *diag.Error) {
	expr, err := p.mulDiv()
	if err != nil {
		return nil, err
	}
	for p.atAny(token.Plus, token.Minus) {
		op := p.advance()
		rhs, err := p.mulDiv()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinary(op, op.Type, expr, rhs)
	}
	return expr, nil
}

func (p *Parser) mulDiv() (ast.Expression, *diag.Error) {
	expr, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.atAny(token.Star, token.Slash) {
		op := p.advance()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinary(op, op.Type, expr, rhs)
	}
	return expr, nil
}

func (p *Parser) unary() (ast.Expression, *diag.Error) {
	if p.at(token.Minus) {
		op := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(op, op.Type, operand), nil
	}
	return p.postfix()
}

// postfix parses a primary followed by any chain of index subscripts and
// field accesses. Calls attach only to a bare identifier.
func (p *Parser) postfix() (ast.Expression, *diag.Error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	return p.postfixChain(expr)
}

func (p *Parser) postfixChain(expr ast.Expression) (ast.Expression, *diag.Error) {
	for {
		switch {
		case p.at(token.LBracket):
			open := p.advance()
			var indexes []ast.Expression
			for {
				idx, err := p.expression()
				if err != nil {
					return nil, err
				}
				indexes = append(indexes, idx)
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			if _, err := p.expect(token.RBracket, "after array index"); err != nil {
				return nil, err
			}
			expr = ast.NewIndex(open, expr, indexes)
		case p.at(token.Period):
			dot := p.advance()
			name, err := p.expect(token.Ident, "after '.'")
			if err != nil {
				return nil, err
			}
			expr = ast.NewField(dot, expr, name.Lexeme)
		default:
			return expr, nil
		}
	}
}

func (p *Parser) primary() (ast.Expression, *diag.Error) {
	switch tok := p.cur(); tok.Type {
	case token.IntLit, token.RealLit, token.StringLit, token.BoolLit:
		p.advance()
		return ast.NewLiteral(tok, tok.Value), nil
	case token.Ident:
		p.advance()
		if p.at(token.LParen) {
			return p.callArgs(tok)
		}
		return ast.NewName(tok, tok.Lexeme), nil
	case token.LParen:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, "after '('"); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.errorf("unexpected %s in expression", tok)
	}
}

// callArgs parses the parenthesised argument list of a call to name.
func (p *Parser) callArgs(name token.Token) (ast.Expression, *diag.Error) {
	if _, err := p.expect(token.LParen, "after callable name"); err != nil {
		return nil, err
	}
	var args []ast.Expression
	if !p.at(token.RParen) {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
	}
	if _, err := p.expect(token.RParen, "after arguments"); err != nil {
		return nil, err
	}
	return p.postfixChain(ast.NewCall(name, name.Lexeme, args))
}

// variableRef parses an expression and requires it to be an assignable
// variable reference (name, index, or field chain).
func (p *Parser) variableRef(context string) (ast.Expression, *diag.Error) {
	tok := p.cur()
	name, err := p.expect(token.Ident, context)
	if err != nil {
		return nil, err
	}
	expr, err := p.postfixChain(ast.NewName(name, name.Lexeme))
	if err != nil {
		return nil, err
	}
	if !ast.IsVariableRef(expr) {
		return nil, diag.Newf(diag.Parse, tok, "expected a variable %s", context)
	}
	return expr, nil
}
