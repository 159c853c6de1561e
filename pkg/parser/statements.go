package parser

import (
	"strings"

	"pseudo9608/interpreter-go/pkg/ast"
	"pseudo9608/interpreter-go/pkg/diag"
	"pseudo9608/interpreter-go/pkg/token"
	"pseudo9608/interpreter-go/pkg/types"
)

func (p *Parser) statement(ctx stmtContext) (ast.Statement, *diag.Error) {
	switch tok := p.cur(); tok.Type {
	case token.Declare:
		if ctx == ctxBlock {
			return nil, p.errorf("DECLARE may not appear inside a loop or conditional")
		}
		return p.declareStmt()
	case token.TypeKw:
		if ctx != ctxTopLevel {
			return nil, p.errorf("TYPE declarations must appear at top level")
		}
		return p.typeDecl()
	case token.Procedure:
		if ctx != ctxTopLevel {
			return nil, p.errorf("PROCEDURE declarations must appear at top level")
		}
		return p.procedureDecl()
	case token.Function:
		if ctx != ctxTopLevel {
			return nil, p.errorf("FUNCTION declarations must appear at top level")
		}
		return p.functionDecl()
	case token.If:
		return p.ifStmt()
	case token.Case:
		return p.caseStmt()
	case token.While:
		return p.whileStmt()
	case token.Repeat:
		return p.repeatStmt()
	case token.For:
		return p.forStmt()
	default:
		return p.simpleStatement()
	}
}

// simpleStatement parses the single-line forms: assignment, OUTPUT, INPUT,
// CALL, RETURN and the file statements. These are also the only forms a
// CASE clause admits.
func (p *Parser) simpleStatement() (ast.Statement, *diag.Error) {
	switch tok := p.cur(); tok.Type {
	case token.Output:
		return p.outputStmt()
	case token.Input:
		return p.inputStmt()
	case token.Call:
		return p.callStmt()
	case token.Return:
		return p.returnStmt()
	case token.OpenFile:
		return p.openFileStmt()
	case token.ReadFile:
		return p.readFileStmt()
	case token.WriteFile:
		return p.writeFileStmt()
	case token.CloseFile:
		return p.closeFileStmt()
	case token.Ident:
		return p.assignStmt()
	default:
		return nil, p.errorf("unexpected %s at start of statement", tok)
	}
}

// block parses statements until one of the terminator keywords appears,
// leaving the terminator unconsumed. Blank lines between statements are
// skipped.
func (p *Parser) block(ctx stmtContext, terminators ...token.Type) ([]ast.Statement, *diag.Error) {
	stmts := []ast.Statement{}
	for {
		p.skipNewlines()
		if p.atAny(terminators...) {
			return stmts, nil
		}
		if p.at(token.EOF) {
			names := make([]string, len(terminators))
			for i, t := range terminators {
				names[i] = t.String()
			}
			return nil, p.errorf("missing %s", strings.Join(names, " or "))
		}
		stmt, err := p.statement(ctx)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

// endBlock consumes a block terminator, a tolerated (unvalidated) trailing
// identifier, and the statement-ending newline.
func (p *Parser) endBlock(terminator token.Type, context string) *diag.Error {
	if _, err := p.expect(terminator, context); err != nil {
		return err
	}
	p.accept(token.Ident)
	return p.expectEnd("after " + terminator.String())
}

//-----------------------------------------------------------------------------
// Declarations
//-----------------------------------------------------------------------------

// typeSpec parses a type in declaration position: a primitive keyword, a
// record type name, or ARRAY[lo:hi, ...] OF elem.
func (p *Parser) typeSpec() (ast.TypeSpec, *diag.Error) {
	tok := p.cur()
	if tok.Type == token.Array {
		p.advance()
		if _, err := p.expect(token.LBracket, "after ARRAY"); err != nil {
			return ast.TypeSpec{}, err
		}
		var bounds []types.Bounds
		for {
			b, err := p.boundsPair()
			if err != nil {
				return ast.TypeSpec{}, err
			}
			bounds = append(bounds, b)
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
		if len(bounds) > 2 {
			return ast.TypeSpec{}, diag.Newf(diag.Parse, tok, "arrays have at most 2 dimensions, got %d", len(bounds))
		}
		if _, err := p.expect(token.RBracket, "after array bounds"); err != nil {
			return ast.TypeSpec{}, err
		}
		if _, err := p.expect(token.Of, "after array bounds"); err != nil {
			return ast.TypeSpec{}, err
		}
		elem, err := p.typeName("as array element type")
		if err != nil {
			return ast.TypeSpec{}, err
		}
		return ast.TypeSpec{Tok: tok, Bounds: bounds, Elem: elem}, nil
	}
	name, err := p.typeName("as type")
	if err != nil {
		return ast.TypeSpec{}, err
	}
	return ast.TypeSpec{Tok: tok, Name: name}, nil
}

// typeName accepts a primitive type keyword or a record type identifier.
func (p *Parser) typeName(context string) (string, *diag.Error) {
	switch tok := p.cur(); tok.Type {
	case token.Integer, token.Real, token.String, token.Boolean, token.Ident:
		p.advance()
		return tok.Lexeme, nil
	default:
		return "", p.errorf("expected a type name %s, found %s", context, tok)
	}
}

// boundsPair parses lo:hi with compile-time integer literal bounds.
func (p *Parser) boundsPair() (types.Bounds, *diag.Error) {
	lo, err := p.boundLiteral()
	if err != nil {
		return types.Bounds{}, err
	}
	if _, err := p.expect(token.Colon, "in array bounds"); err != nil {
		return types.Bounds{}, err
	}
	hi, err := p.boundLiteral()
	if err != nil {
		return types.Bounds{}, err
	}
	return types.Bounds{Lo: lo, Hi: hi}, nil
}

func (p *Parser) boundLiteral() (int64, *diag.Error) {
	neg := false
	if _, ok := p.accept(token.Minus); ok {
		neg = true
	}
	tok, err := p.expect(token.IntLit, "as array bound")
	if err != nil {
		return 0, err
	}
	v := tok.Value.(int64)
	if neg {
		v = -v
	}
	return v, nil
}

func (p *Parser) declareStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // DECLARE
	name, err := p.expect(token.Ident, "after DECLARE")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon, "after variable name"); err != nil {
		return nil, err
	}
	spec, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after declaration"); err != nil {
		return nil, err
	}
	if spec.IsArray() {
		elem := ast.TypeSpec{Tok: spec.Tok, Name: spec.Elem}
		return ast.NewDeclareArray(kw, name.Lexeme, spec.Bounds, elem), nil
	}
	return ast.NewDeclare(kw, name.Lexeme, spec), nil
}

func (p *Parser) typeDecl() (ast.Statement, *diag.Error) {
	kw := p.advance() // TYPE
	name, err := p.expect(token.Ident, "after TYPE")
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after type name"); err != nil {
		return nil, err
	}
	var fields []ast.FieldDecl
	for {
		p.skipNewlines()
		if _, ok := p.accept(token.EndType); ok {
			break
		}
		declTok, err := p.expect(token.Declare, "inside TYPE block")
		if err != nil {
			return nil, err
		}
		fieldName, err := p.expect(token.Ident, "after DECLARE")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon, "after field name"); err != nil {
			return nil, err
		}
		spec, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		if err := p.expectEnd("after field declaration"); err != nil {
			return nil, err
		}
		fields = append(fields, ast.FieldDecl{Tok: declTok, Name: fieldName.Lexeme, Spec: spec})
	}
	if err := p.expectEnd("after ENDTYPE"); err != nil {
		return nil, err
	}
	return ast.NewTypeDecl(kw, name.Lexeme, fields), nil
}

// params parses an optional parenthesised parameter list. A BYREF or
// BYVALUE marker applies to its parameter and every following parameter up
// to the next marker; the default mode is BYVALUE.
func (p *Parser) params() ([]ast.Param, *diag.Error) {
	if _, ok := p.accept(token.LParen); !ok {
		return nil, nil
	}
	var params []ast.Param
	mode := types.ByValue
	for {
		switch {
		case p.at(token.ByRef):
			p.advance()
			mode = types.ByReference
		case p.at(token.ByValue):
			p.advance()
			mode = types.ByValue
		}
		name, err := p.expect(token.Ident, "as parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon, "after parameter name"); err != nil {
			return nil, err
		}
		spec, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Tok: name, Name: name.Lexeme, Spec: spec, Mode: mode})
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	if _, err := p.expect(token.RParen, "after parameters"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) procedureDecl() (ast.Statement, *diag.Error) {
	kw := p.advance() // PROCEDURE
	name, err := p.expect(token.Ident, "after PROCEDURE")
	if err != nil {
		return nil, err
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after procedure header"); err != nil {
		return nil, err
	}
	body, err := p.block(ctxCallableBody, token.EndProcedure)
	if err != nil {
		return nil, err
	}
	if err := p.endBlock(token.EndProcedure, "at end of procedure"); err != nil {
		return nil, err
	}
	return ast.NewProcedureDecl(kw, name.Lexeme, params, body), nil
}

func (p *Parser) functionDecl() (ast.Statement, *diag.Error) {
	kw := p.advance() // FUNCTION
	name, err := p.expect(token.Ident, "after FUNCTION")
	if err != nil {
		return nil, err
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Returns, "after function parameters"); err != nil {
		return nil, err
	}
	retTok := p.cur()
	retName, err := p.typeName("as return type")
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after function header"); err != nil {
		return nil, err
	}
	body, err := p.block(ctxCallableBody, token.EndFunction)
	if err != nil {
		return nil, err
	}
	if err := p.endBlock(token.EndFunction, "at end of function"); err != nil {
		return nil, err
	}
	ret := ast.TypeSpec{Tok: retTok, Name: retName}
	return ast.NewFunctionDecl(kw, name.Lexeme, params, ret, body), nil
}

//-----------------------------------------------------------------------------
// Simple statements
//-----------------------------------------------------------------------------

func (p *Parser) assignStmt() (ast.Statement, *diag.Error) {
	target, err := p.variableRef("as assignment target")
	if err != nil {
		return nil, err
	}
	arrow, err := p.expect(token.Assign, "after assignment target")
	if err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after assignment"); err != nil {
		return nil, err
	}
	return ast.NewAssign(arrow, target, value), nil
}

func (p *Parser) outputStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // OUTPUT
	var exprs []ast.Expression
	for {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	if err := p.expectEnd("after OUTPUT"); err != nil {
		return nil, err
	}
	return ast.NewOutput(kw, exprs), nil
}

func (p *Parser) inputStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // INPUT
	target, err := p.variableRef("after INPUT")
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after INPUT"); err != nil {
		return nil, err
	}
	return ast.NewInput(kw, target), nil
}

func (p *Parser) callStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // CALL
	name, err := p.expect(token.Ident, "after CALL")
	if err != nil {
		return nil, err
	}
	var args []ast.Expression
	if p.at(token.LParen) {
		expr, err := p.callArgs(name)
		if err != nil {
			return nil, err
		}
		call, ok := expr.(*ast.Call)
		if !ok {
			return nil, diag.Newf(diag.Parse, name, "CALL target must be a procedure name")
		}
		args = call.Args
	}
	if err := p.expectEnd("after CALL"); err != nil {
		return nil, err
	}
	return ast.NewCallStmt(kw, ast.NewCall(name, name.Lexeme, args)), nil
}

func (p *Parser) returnStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // RETURN
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after RETURN"); err != nil {
		return nil, err
	}
	return ast.NewReturn(kw, value), nil
}

//-----------------------------------------------------------------------------
// Control flow
//-----------------------------------------------------------------------------

func (p *Parser) ifStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // IF
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	p.accept(token.Newline) // THEN may sit on the next line
	if _, err := p.expect(token.Then, "after IF condition"); err != nil {
		return nil, err
	}
	if err := p.expectEnd("after THEN"); err != nil {
		return nil, err
	}
	then, err := p.block(ctxBlock, token.Else, token.EndIf)
	if err != nil {
		return nil, err
	}
	var els []ast.Statement
	if _, ok := p.accept(token.Else); ok {
		if err := p.expectEnd("after ELSE"); err != nil {
			return nil, err
		}
		els, err = p.block(ctxBlock, token.EndIf)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.EndIf, "at end of IF"); err != nil {
		return nil, err
	}
	if err := p.expectEnd("after ENDIF"); err != nil {
		return nil, err
	}
	return ast.NewIf(kw, cond, then, els), nil
}

func (p *Parser) caseStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // CASE
	if _, err := p.expect(token.Of, "after CASE"); err != nil {
		return nil, err
	}
	subject, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after CASE OF"); err != nil {
		return nil, err
	}
	var clauses []ast.CaseClause
	var otherwise ast.Statement
	for {
		p.skipNewlines()
		if p.at(token.EndCase) {
			break
		}
		if _, ok := p.accept(token.Otherwise); ok {
			p.accept(token.Colon)
			otherwise, err = p.simpleStatement()
			if err != nil {
				return nil, err
			}
			break
		}
		if p.at(token.EOF) {
			return nil, p.errorf("missing ENDCASE")
		}
		label, err := p.caseLabel()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon, "after CASE label"); err != nil {
			return nil, err
		}
		body, err := p.simpleStatement()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, ast.CaseClause{Value: label, Body: body})
	}
	p.skipNewlines()
	if err := p.endBlock(token.EndCase, "at end of CASE"); err != nil {
		return nil, err
	}
	return ast.NewCase(kw, subject, clauses, otherwise), nil
}

// caseLabel parses a literal clause label, folding a leading minus into a
// numeric literal.
func (p *Parser) caseLabel() (*ast.Literal, *diag.Error) {
	neg := false
	if _, ok := p.accept(token.Minus); ok {
		neg = true
	}
	tok := p.cur()
	switch tok.Type {
	case token.IntLit:
		p.advance()
		v := tok.Value.(int64)
		if neg {
			v = -v
		}
		return ast.NewLiteral(tok, v), nil
	case token.RealLit:
		p.advance()
		v := tok.Value.(float64)
		if neg {
			v = -v
		}
		return ast.NewLiteral(tok, v), nil
	case token.StringLit, token.BoolLit:
		if neg {
			return nil, p.errorf("'-' applies only to numeric CASE labels")
		}
		p.advance()
		return ast.NewLiteral(tok, tok.Value), nil
	default:
		return nil, p.errorf("expected a literal CASE label, found %s", tok)
	}
}

func (p *Parser) whileStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // WHILE
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Do, "after WHILE condition"); err != nil {
		return nil, err
	}
	if err := p.expectEnd("after DO"); err != nil {
		return nil, err
	}
	body, err := p.block(ctxBlock, token.EndWhile)
	if err != nil {
		return nil, err
	}
	if err := p.endBlock(token.EndWhile, "at end of WHILE"); err != nil {
		return nil, err
	}
	return ast.NewWhile(kw, cond, body), nil
}

func (p *Parser) repeatStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // REPEAT
	if err := p.expectEnd("after REPEAT"); err != nil {
		return nil, err
	}
	body, err := p.block(ctxBlock, token.Until)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Until, "at end of REPEAT"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after UNTIL"); err != nil {
		return nil, err
	}
	return ast.NewRepeat(kw, body, cond), nil
}

func (p *Parser) forStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // FOR
	nameTok, err := p.expect(token.Ident, "after FOR")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign, "after loop variable"); err != nil {
		return nil, err
	}
	start, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.To, "in FOR header"); err != nil {
		return nil, err
	}
	stop, err := p.expression()
	if err != nil {
		return nil, err
	}
	var step ast.Expression
	if _, ok := p.accept(token.Step); ok {
		step, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectEnd("after FOR header"); err != nil {
		return nil, err
	}
	body, err := p.block(ctxBlock, token.EndFor)
	if err != nil {
		return nil, err
	}
	if err := p.endBlock(token.EndFor, "at end of FOR"); err != nil {
		return nil, err
	}
	return ast.NewFor(kw, ast.NewName(nameTok, nameTok.Lexeme), start, stop, step, body), nil
}

//-----------------------------------------------------------------------------
// File statements
//-----------------------------------------------------------------------------

// filename parses the file identifier of a file statement: a STRING
// literal, or a dotted identifier such as FileA.txt which is assembled into
// a single STRING literal.
func (p *Parser) filename() (ast.Expression, *diag.Error) {
	if tok, ok := p.accept(token.StringLit); ok {
		return ast.NewLiteral(tok, tok.Value), nil
	}
	first, err := p.expect(token.Ident, "as file name")
	if err != nil {
		return nil, err
	}
	name := first.Lexeme
	for {
		if _, ok := p.accept(token.Period); !ok {
			break
		}
		part, err := p.expect(token.Ident, "after '.' in file name")
		if err != nil {
			return nil, err
		}
		name += "." + part.Lexeme
	}
	lit := ast.NewLiteral(first, name)
	return lit, nil
}

func (p *Parser) openFileStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // OPENFILE
	name, err := p.filename()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.For, "after file name"); err != nil {
		return nil, err
	}
	var mode ast.FileMode
	switch tok := p.cur(); tok.Type {
	case token.Read:
		mode = ast.ModeRead
	case token.Write:
		mode = ast.ModeWrite
	case token.Append:
		mode = ast.ModeAppend
	default:
		return nil, p.errorf("expected READ, WRITE or APPEND, found %s", tok)
	}
	p.advance()
	if err := p.expectEnd("after OPENFILE"); err != nil {
		return nil, err
	}
	return ast.NewOpenFile(kw, name, mode), nil
}

func (p *Parser) readFileStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // READFILE
	name, err := p.filename()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Comma, "after file name"); err != nil {
		return nil, err
	}
	target, err := p.variableRef("as READFILE target")
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after READFILE"); err != nil {
		return nil, err
	}
	return ast.NewReadFile(kw, name, target), nil
}

func (p *Parser) writeFileStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // WRITEFILE
	name, err := p.filename()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Comma, "after file name"); err != nil {
		return nil, err
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after WRITEFILE"); err != nil {
		return nil, err
	}
	return ast.NewWriteFile(kw, name, value), nil
}

func (p *Parser) closeFileStmt() (ast.Statement, *diag.Error) {
	kw := p.advance() // CLOSEFILE
	name, err := p.filename()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd("after CLOSEFILE"); err != nil {
		return nil, err
	}
	return ast.NewCloseFile(kw, name), nil
}
