package types

// Operand is the closed sum type for expression operands. The column /
// literal distinction is explicit rather than inferred from context.
type Operand interface {
	isOperand()
}

// Column is a bare identifier reference (optionally qualified, "t.col").
// Columns are emitted verbatim and never parameterized.
type Column string

// Literal is a literal value: string, number, bool, nil (SQL NULL), or
// []any (a value list, for IN). Literals are parameterized by the render
// mode, or inlined under SIMPLE.
type Literal struct {
	Value any
}

// Raw is a verbatim SQL fragment. The mapper produces Raw operands for
// CASE expressions and interval literals, whose arms render as literal
// text in the original queries.
type Raw string

// Func is a function or aggregate call. Star marks a bare * argument, as
// in COUNT(*).
type Func struct {
	Name string
	Args []Operand
	Star bool
}

func (Column) isOperand()      {}
func (Literal) isOperand()     {}
func (Raw) isOperand()         {}
func (Func) isOperand()        {}
func (*Expression) isOperand() {}
func (*Query) isOperand()      {}

// Expression is the atomic value/operator unit. A leaf expression has only
// Left set; binary forms carry Operator and Right. A *Query operand is a
// scalar subquery.
type Expression struct {
	Left     Operand
	Operator string
	Right    Operand
}
