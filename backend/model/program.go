package model

// Node is implemented by every statement and expression of a Program.
type Node interface {
	Span() Span
	Meta() *NodeMeta
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Span is a source range in the user's text.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NodeMeta is embedded in every node.
type NodeMeta struct {
	Loc Span
	// Approximate is set on nodes built without a full grammar.
	Approximate bool
	// Raw is the source text of the node, kept for approximate nodes.
	Raw string
}

func (m *NodeMeta) Span() Span      { return m.Loc }
func (m *NodeMeta) Meta() *NodeMeta { return m }

// Program is the root of a snippet model.
type Program struct {
	Language    Language
	Approximate bool
	Source      string
	Lines       []Line
	Body        []Stmt
}

// LineKind classifies a source line of an approximate model.
type LineKind int

const (
	LineStatement LineKind = iota
	LineBlank
	LineBrace
	LineDirective
	LineComment
	LineControl
)

// Line is one classified source line.
type Line struct {
	Number int
	Kind   LineKind
	Text   string
}

// LoopKind is the syntactic form of a loop.
type LoopKind int

const (
	For LoopKind = iota
	While
	DoWhile
	Range
)

func (k LoopKind) String() string {
	switch k {
	case While:
		return "while"
	case DoWhile:
		return "do-while"
	case Range:
		return "range"
	}
	return "for"
}

type (
	// Loop is a for, while, do-while or range loop. Cond is nil when the
	// loop has no condition.
	Loop struct {
		NodeMeta
		Kind   LoopKind
		Init   Stmt
		Cond   Expr
		Post   Stmt
		Body   []Stmt
		Header string
	}

	// Conditional is an if statement.
	Conditional struct {
		NodeMeta
		Init Stmt
		Test Expr
		Then []Stmt
		Else []Stmt
	}

	// FunctionDef is a named function or method.
	FunctionDef struct {
		NodeMeta
		Name     string
		Receiver string
		Params   []Param
		Body     []Stmt
	}

	// Assignment writes Value to Target, or to Dest when the target is not a
	// plain name. Op is the assignment operator as written.
	Assignment struct {
		NodeMeta
		Target string
		Dest   Expr
		Op     string
		Value  Expr
	}

	// Declaration introduces a name; Value is nil without an initializer.
	Declaration struct {
		NodeMeta
		Name  string
		Type  string
		Value Expr
	}

	ExprStmt struct {
		NodeMeta
		X Expr
	}

	Return struct {
		NodeMeta
		Results []Expr
	}

	// Branch is break, continue, goto or fallthrough. Label is empty for
	// unlabeled branches.
	Branch struct {
		NodeMeta
		Keyword string
		Label   string
	}

	// Block groups statements: bare blocks, type bodies, switch and try
	// bodies, deferred calls.
	Block struct {
		NodeMeta
		Kind string
		Name string
		X    Expr
		Body []Stmt
	}
)

// Param is a function parameter.
type Param struct {
	Name string
	Type string
}

// LitKind is the kind of a Literal.
type LitKind int

const (
	Number LitKind = iota
	String
	Char
	Bool
	Null
)

// CollectionKind distinguishes literals from sized allocations.
type CollectionKind int

const (
	CollectionLiteral CollectionKind = iota
	CollectionAlloc
)

type (
	// Call is a function call; Recv is set for method-style calls.
	Call struct {
		NodeMeta
		Callee string
		Recv   Expr
		Arrow  bool
		Args   []Expr
	}

	BinaryOp struct {
		NodeMeta
		Op    string
		Left  Expr
		Right Expr
	}

	UnaryOp struct {
		NodeMeta
		Op string
		X  Expr
	}

	Literal struct {
		NodeMeta
		Kind  LitKind
		Value string
	}

	Identifier struct {
		NodeMeta
		Name string
	}

	// Collection is an array or collection literal, or an allocation sized
	// by Size.
	Collection struct {
		NodeMeta
		Kind  CollectionKind
		Type  string
		Elems []Expr
		Size  Expr
	}

	// FuncLit is a closure or lambda.
	FuncLit struct {
		NodeMeta
		Params []Param
		Body   []Stmt
	}

	// Opaque is a recognized expression the model does not give a shape,
	// such as an index or selector. Children are its evaluated operands.
	Opaque struct {
		NodeMeta
		Kind     string
		Text     string
		Children []Expr
	}

	// Raw is unparsed expression text.
	Raw struct {
		NodeMeta
		Text string
	}
)

func (*Loop) stmtNode()        {}
func (*Conditional) stmtNode() {}
func (*FunctionDef) stmtNode() {}
func (*Assignment) stmtNode()  {}
func (*Declaration) stmtNode() {}
func (*ExprStmt) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*Branch) stmtNode()      {}
func (*Block) stmtNode()       {}

func (*Call) exprNode()       {}
func (*BinaryOp) exprNode()   {}
func (*UnaryOp) exprNode()    {}
func (*Literal) exprNode()    {}
func (*Identifier) exprNode() {}
func (*Collection) exprNode() {}
func (*FuncLit) exprNode()    {}
func (*Opaque) exprNode()     {}
func (*Raw) exprNode()        {}

// IsTrue reports whether e is a literal that is always true.
func IsTrue(e Expr) bool {
	lit, ok := e.(*Literal)
	if !ok {
		return false
	}
	switch lit.Kind {
	case Bool:
		return lit.Value == "true"
	case Number:
		return lit.Value == "1"
	}
	return false
}

// IsZero reports whether e is the numeric literal zero.
func IsZero(e Expr) bool {
	lit, ok := e.(*Literal)
	if !ok || lit.Kind != Number {
		return false
	}
	for _, r := range lit.Value {
		switch r {
		case '0', '.', '_':
		case 'f', 'F', 'l', 'L', 'd', 'D', 'u', 'U':
		default:
			return false
		}
	}
	return true
}
