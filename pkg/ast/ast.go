package ast

import (
	"pseudo9608/interpreter-go/pkg/token"
	"pseudo9608/interpreter-go/pkg/types"
)

type NodeType string

const (
	NodeLiteral       NodeType = "Literal"
	NodeName          NodeType = "Name"
	NodeUnary         NodeType = "Unary"
	NodeBinary        NodeType = "Binary"
	NodeIndex         NodeType = "Index"
	NodeField         NodeType = "Field"
	NodeCall          NodeType = "Call"
	NodeDeclare       NodeType = "Declare"
	NodeDeclareArray  NodeType = "DeclareArray"
	NodeTypeDecl      NodeType = "TypeDecl"
	NodeAssign        NodeType = "Assign"
	NodeOutput        NodeType = "Output"
	NodeInput         NodeType = "Input"
	NodeIf            NodeType = "If"
	NodeCase          NodeType = "Case"
	NodeWhile         NodeType = "While"
	NodeRepeat        NodeType = "Repeat"
	NodeFor           NodeType = "For"
	NodeProcedureDecl NodeType = "ProcedureDecl"
	NodeFunctionDecl  NodeType = "FunctionDecl"
	NodeCallStmt      NodeType = "CallStmt"
	NodeReturn        NodeType = "Return"
	NodeOpenFile      NodeType = "OpenFile"
	NodeReadFile      NodeType = "ReadFile"
	NodeWriteFile     NodeType = "WriteFile"
	NodeCloseFile     NodeType = "CloseFile"
)

// Node is the common behaviour of every AST node. Each node references the
// source token it originated from, which anchors diagnostics.
type Node interface {
	NodeType() NodeType
	Token() token.Token
	isNode()
}

type nodeImpl struct {
	kind NodeType
	Tok  token.Token
}

func newNode(kind NodeType, tok token.Token) nodeImpl {
	return nodeImpl{kind: kind, Tok: tok}
}

func (n nodeImpl) NodeType() NodeType { return n.kind }
func (n nodeImpl) Token() token.Token { return n.Tok }
func (nodeImpl) isNode()              {}

// Expression is a node the resolver assigns a type to.
type Expression interface {
	Node
	ResolvedType() types.Type
	SetResolvedType(types.Type)
	expressionNode()
}

type expressionMarker struct {
	typ types.Type
}

func (expressionMarker) expressionNode() {}

func (m *expressionMarker) ResolvedType() types.Type     { return m.typ }
func (m *expressionMarker) SetResolvedType(t types.Type) { m.typ = t }

// Statement is any executable or declarative node.
type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Program is a parsed source file: the top-level statement sequence.
type Program struct {
	Statements []Statement
}

//-----------------------------------------------------------------------------
// Type syntax
//-----------------------------------------------------------------------------

// TypeSpec is the surface syntax of a declared type: a primitive keyword or
// a record type name, or an ARRAY[...] OF elem shape when Bounds is non-nil.
// Array elements are always named (primitive or record) types.
type TypeSpec struct {
	Tok    token.Token
	Name   string
	Bounds []types.Bounds
	Elem   string
}

// IsArray reports whether the spec denotes an array shape.
func (s TypeSpec) IsArray() bool { return len(s.Bounds) > 0 }

// FileMode is the open mode of a file statement.
type FileMode string

const (
	ModeRead   FileMode = "READ"
	ModeWrite  FileMode = "WRITE"
	ModeAppend FileMode = "APPEND"
)

//-----------------------------------------------------------------------------
// Expressions
//-----------------------------------------------------------------------------

// Literal is a value coming directly from the source text. Value holds
// int64, float64, string or bool, matching the resolved type.
type Literal struct {
	nodeImpl
	expressionMarker
	Value any
}

// Name is a variable reference by identifier.
type Name struct {
	nodeImpl
	expressionMarker
	Ident string
}

// Unary applies - or NOT to a single operand.
type Unary struct {
	nodeImpl
	expressionMarker
	Op      token.Type
	Operand Expression
}

// Binary applies an arithmetic, relational or logical operator.
type Binary struct {
	nodeImpl
	expressionMarker
	Op  token.Type
	Lhs Expression
	Rhs Expression
}

// Index subscripts an array expression with one index per dimension.
type Index struct {
	nodeImpl
	expressionMarker
	Array   Expression
	Indexes []Expression
}

// Field accesses a named field of a record expression.
type Field struct {
	nodeImpl
	expressionMarker
	Record    Expression
	FieldName string
}

// Call invokes a named callable with arguments. In expression position the
// callee must be a function; as the operand of CALL it must be a procedure.
type Call struct {
	nodeImpl
	expressionMarker
	Name string
	Args []Expression
}

func NewLiteral(tok token.Token, value any) *Literal {
	return &Literal{nodeImpl: newNode(NodeLiteral, tok), Value: value}
}

func NewName(tok token.Token, ident string) *Name {
	return &Name{nodeImpl: newNode(NodeName, tok), Ident: ident}
}

func NewUnary(tok token.Token, op token.Type, operand Expression) *Unary {
	return &Unary{nodeImpl: newNode(NodeUnary, tok), Op: op, Operand: operand}
}

func NewBinary(tok token.Token, op token.Type, lhs, rhs Expression) *Binary {
	return &Binary{nodeImpl: newNode(NodeBinary, tok), Op: op, Lhs: lhs, Rhs: rhs}
}

func NewIndex(tok token.Token, array Expression, indexes []Expression) *Index {
	return &Index{nodeImpl: newNode(NodeIndex, tok), Array: array, Indexes: indexes}
}

func NewField(tok token.Token, record Expression, field string) *Field {
	return &Field{nodeImpl: newNode(NodeField, tok), Record: record, FieldName: field}
}

func NewCall(tok token.Token, name string, args []Expression) *Call {
	return &Call{nodeImpl: newNode(NodeCall, tok), Name: name, Args: args}
}

// IsVariableRef reports whether expr is a variable reference: a Name, Index
// or Field chain. Only variable references may be assigned to, read into,
// or passed to BYREF parameters.
func IsVariableRef(expr Expression) bool {
	switch e := expr.(type) {
	case *Name:
		return true
	case *Index:
		return IsVariableRef(e.Array)
	case *Field:
		return IsVariableRef(e.Record)
	default:
		return false
	}
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

// Declare introduces a scalar or record variable.
type Declare struct {
	nodeImpl
	statementMarker
	Name string
	Spec TypeSpec
}

// DeclareArray introduces a fixed-shape array variable.
type DeclareArray struct {
	nodeImpl
	statementMarker
	Name   string
	Bounds []types.Bounds
	Elem   TypeSpec
}

// FieldDecl is one DECLARE line inside a TYPE block.
type FieldDecl struct {
	Tok  token.Token
	Name string
	Spec TypeSpec
}

// TypeDecl declares a record type.
type TypeDecl struct {
	nodeImpl
	statementMarker
	Name   string
	Fields []FieldDecl
}

// Assign stores the value of an expression into a variable reference.
type Assign struct {
	nodeImpl
	statementMarker
	Target Expression
	Value  Expression
}

// Output writes the display form of each expression, unseparated, then a
// newline.
type Output struct {
	nodeImpl
	statementMarker
	Exprs []Expression
}

// Input reads one line from the host and coerces it into the target.
type Input struct {
	nodeImpl
	statementMarker
	Target Expression
}

// If executes Then or Else depending on the condition.
type If struct {
	nodeImpl
	statementMarker
	Cond Expression
	Then []Statement
	Else []Statement
}

// CaseClause is one "literal : statement" arm of a CASE block.
type CaseClause struct {
	Value *Literal
	Body  Statement
}

// Case dispatches on the subject value over literal-labelled clauses.
type Case struct {
	nodeImpl
	statementMarker
	Subject   Expression
	Clauses   []CaseClause
	Otherwise Statement
}

// While is the pre-condition loop.
type While struct {
	nodeImpl
	statementMarker
	Cond Expression
	Body []Statement
}

// Repeat is the post-condition loop, running until the condition is true.
type Repeat struct {
	nodeImpl
	statementMarker
	Body []Statement
	Cond Expression
}

// For is the counted loop. Step is nil when the STEP clause is absent and
// defaults to 1.
type For struct {
	nodeImpl
	statementMarker
	Name  *Name
	Start Expression
	Stop  Expression
	Step  Expression
	Body  []Statement
}

// Param is one parameter of a procedure or function declaration.
type Param struct {
	Tok  token.Token
	Name string
	Spec TypeSpec
	Mode types.PassMode
}

// ProcedureDecl declares a procedure in the global frame.
type ProcedureDecl struct {
	nodeImpl
	statementMarker
	Name   string
	Params []Param
	Body   []Statement
}

// FunctionDecl declares a function in the global frame.
type FunctionDecl struct {
	nodeImpl
	statementMarker
	Name   string
	Params []Param
	Return TypeSpec
	Body   []Statement
}

// CallStmt invokes a procedure for its effects.
type CallStmt struct {
	nodeImpl
	statementMarker
	Call *Call
}

// Return unwinds the enclosing function activation with a value.
type Return struct {
	nodeImpl
	statementMarker
	Value Expression
}

// OpenFile opens the named file in the given mode.
type OpenFile struct {
	nodeImpl
	statementMarker
	Name Expression
	Mode FileMode
}

// ReadFile reads the next line of an open READ file into the target.
type ReadFile struct {
	nodeImpl
	statementMarker
	Name   Expression
	Target Expression
}

// WriteFile appends the display form of the value and a newline.
type WriteFile struct {
	nodeImpl
	statementMarker
	Name  Expression
	Value Expression
}

// CloseFile flushes and releases an open handle.
type CloseFile struct {
	nodeImpl
	statementMarker
	Name Expression
}

func NewDeclare(tok token.Token, name string, spec TypeSpec) *Declare {
	return &Declare{nodeImpl: newNode(NodeDeclare, tok), Name: name, Spec: spec}
}

func NewDeclareArray(tok token.Token, name string, bounds []types.Bounds, elem TypeSpec) *DeclareArray {
	return &DeclareArray{nodeImpl: newNode(NodeDeclareArray, tok), Name: name, Bounds: bounds, Elem: elem}
}

func NewTypeDecl(tok token.Token, name string, fields []FieldDecl) *TypeDecl {
	return &TypeDecl{nodeImpl: newNode(NodeTypeDecl, tok), Name: name, Fields: fields}
}

func NewAssign(tok token.Token, target, value Expression) *Assign {
	return &Assign{nodeImpl: newNode(NodeAssign, tok), Target: target, Value: value}
}

func NewOutput(tok token.Token, exprs []Expression) *Output {
	return &Output{nodeImpl: newNode(NodeOutput, tok), Exprs: exprs}
}

func NewInput(tok token.Token, target Expression) *Input {
	return &Input{nodeImpl: newNode(NodeInput, tok), Target: target}
}

func NewIf(tok token.Token, cond Expression, then, els []Statement) *If {
	return &If{nodeImpl: newNode(NodeIf, tok), Cond: cond, Then: then, Else: els}
}

func NewCase(tok token.Token, subject Expression, clauses []CaseClause, otherwise Statement) *Case {
	return &Case{nodeImpl: newNode(NodeCase, tok), Subject: subject, Clauses: clauses, Otherwise: otherwise}
}

func NewWhile(tok token.Token, cond Expression, body []Statement) *While {
	return &While{nodeImpl: newNode(NodeWhile, tok), Cond: cond, Body: body}
}

func NewRepeat(tok token.Token, body []Statement, cond Expression) *Repeat {
	return &Repeat{nodeImpl: newNode(NodeRepeat, tok), Body: body, Cond: cond}
}

func NewFor(tok token.Token, name *Name, start, stop, step Expression, body []Statement) *For {
	return &For{nodeImpl: newNode(NodeFor, tok), Name: name, Start: start, Stop: stop, Step: step, Body: body}
}

func NewProcedureDecl(tok token.Token, name string, params []Param, body []Statement) *ProcedureDecl {
	return &ProcedureDecl{nodeImpl: newNode(NodeProcedureDecl, tok), Name: name, Params: params, Body: body}
}

func NewFunctionDecl(tok token.Token, name string, params []Param, ret TypeSpec, body []Statement) *FunctionDecl {
	return &FunctionDecl{nodeImpl: newNode(NodeFunctionDecl, tok), Name: name, Params: params, Return: ret, Body: body}
}

func NewCallStmt(tok token.Token, call *Call) *CallStmt {
	return &CallStmt{nodeImpl: newNode(NodeCallStmt, tok), Call: call}
}

func NewReturn(tok token.Token, value Expression) *Return {
	return &Return{nodeImpl: newNode(NodeReturn, tok), Value: value}
}

func NewOpenFile(tok token.Token, name Expression, mode FileMode) *OpenFile {
	return &OpenFile{nodeImpl: newNode(NodeOpenFile, tok), Name: name, Mode: mode}
}

func NewReadFile(tok token.Token, name, target Expression) *ReadFile {
	return &ReadFile{nodeImpl: newNode(NodeReadFile, tok), Name: name, Target: target}
}

func NewWriteFile(tok token.Token, name, value Expression) *WriteFile {
	return &WriteFile{nodeImpl: newNode(NodeWriteFile, tok), Name: name, Value: value}
}

func NewCloseFile(tok token.Token, name Expression) *CloseFile {
	return &CloseFile{nodeImpl: newNode(NodeCloseFile, tok), Name: name}
}
