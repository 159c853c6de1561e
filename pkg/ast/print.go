package ast

import (
	"fmt"
	"strconv"
	"strings"

	"pseudo9608/interpreter-go/pkg/token"
	"pseudo9608/interpreter-go/pkg/types"
)

// Print renders a program back to source text. The output is deterministic
// and, when re-scanned and re-parsed, yields an equivalent program: compound
// sub-expressions are parenthesised so the rendered text carries no
// precedence ambiguity.
func Print(prog *Program) string {
	var p printer
	for _, stmt := range prog.Statements {
		p.stmt(stmt)
	}
	return p.sb.String()
}

// PrintExpr renders a single expression.
func PrintExpr(expr Expression) string {
	var p printer
	return p.expr(expr)
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	p.sb.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) block(stmts []Statement) {
	p.indent++
	for _, s := range stmts {
		p.stmt(s)
	}
	p.indent--
}

func (p *printer) stmt(stmt Statement) {
	switch s := stmt.(type) {
	case *Declare:
		p.line("DECLARE %s : %s", s.Name, specString(s.Spec))
	case *DeclareArray:
		p.line("DECLARE %s : ARRAY[%s] OF %s", s.Name, boundsString(s.Bounds), specString(s.Elem))
	case *TypeDecl:
		p.line("TYPE %s", s.Name)
		p.indent++
		for _, f := range s.Fields {
			p.line("DECLARE %s : %s", f.Name, specString(f.Spec))
		}
		p.indent--
		p.line("ENDTYPE")
	case *Assign:
		p.line("%s <- %s", p.expr(s.Target), p.expr(s.Value))
	case *Output:
		parts := make([]string, len(s.Exprs))
		for i, e := range s.Exprs {
			parts[i] = p.expr(e)
		}
		p.line("OUTPUT %s", strings.Join(parts, ", "))
	case *Input:
		p.line("INPUT %s", p.expr(s.Target))
	case *If:
		p.line("IF %s THEN", p.expr(s.Cond))
		p.block(s.Then)
		if s.Else != nil {
			p.line("ELSE")
			p.block(s.Else)
		}
		p.line("ENDIF")
	case *Case:
		p.line("CASE OF %s", p.expr(s.Subject))
		p.indent++
		for _, c := range s.Clauses {
			p.line("%s : %s", p.expr(c.Value), p.inlineStmt(c.Body))
		}
		if s.Otherwise != nil {
			p.line("OTHERWISE : %s", p.inlineStmt(s.Otherwise))
		}
		p.indent--
		p.line("ENDCASE")
	case *While:
		p.line("WHILE %s DO", p.expr(s.Cond))
		p.block(s.Body)
		p.line("ENDWHILE")
	case *Repeat:
		p.line("REPEAT")
		p.block(s.Body)
		p.line("UNTIL %s", p.expr(s.Cond))
	case *For:
		if s.Step != nil {
			p.line("FOR %s <- %s TO %s STEP %s", s.Name.Ident, p.expr(s.Start), p.expr(s.Stop), p.expr(s.Step))
		} else {
			p.line("FOR %s <- %s TO %s", s.Name.Ident, p.expr(s.Start), p.expr(s.Stop))
		}
		p.block(s.Body)
		p.line("ENDFOR")
	case *ProcedureDecl:
		p.line("PROCEDURE %s%s", s.Name, paramsString(s.Params))
		p.block(s.Body)
		p.line("ENDPROCEDURE")
	case *FunctionDecl:
		p.line("FUNCTION %s%s RETURNS %s", s.Name, paramsString(s.Params), specString(s.Return))
		p.block(s.Body)
		p.line("ENDFUNCTION")
	case *CallStmt:
		p.line("CALL %s", p.expr(s.Call))
	case *Return:
		p.line("RETURN %s", p.expr(s.Value))
	case *OpenFile:
		p.line("OPENFILE %s FOR %s", p.expr(s.Name), string(s.Mode))
	case *ReadFile:
		p.line("READFILE %s, %s", p.expr(s.Name), p.expr(s.Target))
	case *WriteFile:
		p.line("WRITEFILE %s, %s", p.expr(s.Name), p.expr(s.Value))
	case *CloseFile:
		p.line("CLOSEFILE %s", p.expr(s.Name))
	default:
		p.line("// unprintable %s", stmt.NodeType())
	}
}

// inlineStmt renders a single-line statement without indentation or the
// trailing newline, for CASE clause bodies.
func (p *printer) inlineStmt(stmt Statement) string {
	sub := printer{indent: 0}
	sub.stmt(stmt)
	return strings.TrimSuffix(sub.sb.String(), "\n")
}

func (p *printer) expr(expr Expression) string {
	switch e := expr.(type) {
	case *Literal:
		return literalString(e)
	case *Name:
		return e.Ident
	case *Unary:
		if e.Op == token.Not {
			return "NOT " + p.expr(e.Operand)
		}
		return "-" + p.expr(e.Operand)
	case *Binary:
		return "(" + p.expr(e.Lhs) + " " + e.Op.String() + " " + p.expr(e.Rhs) + ")"
	case *Index:
		parts := make([]string, len(e.Indexes))
		for i, ix := range e.Indexes {
			parts[i] = p.expr(ix)
		}
		return p.expr(e.Array) + "[" + strings.Join(parts, ", ") + "]"
	case *Field:
		return p.expr(e.Record) + "." + e.FieldName
	case *Call:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = p.expr(a)
		}
		return e.Name + "(" + strings.Join(parts, ", ") + ")"
	default:
		return string(e.NodeType())
	}
}

func literalString(lit *Literal) string {
	switch v := lit.Value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case string:
		return "\"" + v + "\""
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func specString(spec TypeSpec) string {
	if spec.IsArray() {
		return fmt.Sprintf("ARRAY[%s] OF %s", boundsString(spec.Bounds), spec.Elem)
	}
	return spec.Name
}

func boundsString(bounds []types.Bounds) string {
	parts := make([]string, len(bounds))
	for i, b := range bounds {
		parts[i] = fmt.Sprintf("%d:%d", b.Lo, b.Hi)
	}
	return strings.Join(parts, ", ")
}

func paramsString(params []Param) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, prm := range params {
		parts[i] = fmt.Sprintf("%s %s : %s", prm.Mode, prm.Name, specString(prm.Spec))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
