// Package requel normalizes SQL parse trees into a canonical query IR and
// re-renders them as parameterized SQL.
//
// A raw, dialect-specific parse tree (see the rawast package for the
// expected shape) is mapped into the Query IR, validated against lexical,
// syntactic, and schema rules, and rendered back to SQL text in one of
// three parameter modes.
//
// # Basic Usage
//
//	raw, err := sqliteparse.Parse("SELECT name, email FROM users WHERE age > 18")
//	if err != nil {
//		return err
//	}
//	query, err := requel.Map(raw)
//	if err != nil {
//		return err
//	}
//	result, err := requel.NewBuilder(requel.Named).Build(query)
//	// result.SQL:   SELECT name, email FROM users WHERE age > @param1
//	// result.Named: map[string]any{"param1": 18}
//
// Queries can also be constructed programmatically:
//
//	q := &requel.Query{
//		Selects: []requel.SelectItem{{Expr: requel.Col("name")}},
//		From:    requel.T("users"),
//		Where:   requel.And(requel.Cond("age", ">", 18)),
//	}
//
// # Render Modes
//
// Named mode emits @paramN placeholders and a name-to-value map.
// Positional mode emits ? placeholders and an ordered value slice. Simple
// mode inlines literals directly into the SQL text; it performs no
// escaping beyond string quoting and is intended for trusted or debug use
// only.
//
// # Validation
//
// Build runs the full validation pipeline before rendering and never
// returns partial SQL for an invalid query. Supplying a Schema (a
// table-to-columns mapping, optionally loaded from DBML via
// SchemaFromDBML) enables schema validation on top of the lexical and
// syntax rules.
//
// The subsystem is synchronous and side-effect-free; concurrent callers
// operating on independent IR trees need no synchronization.
package requel

import "github.com/zoobzio/requel/internal/types"

// Query is the root IR node, re-exported from internal/types.
type Query = types.Query

// SelectItem is one select-list entry.
type SelectItem = types.SelectItem

// Source is the table-or-subquery sum type.
type Source = types.Source

// TableRef references a table by name.
type TableRef = types.TableRef

// SubQuery is a nested query source.
type SubQuery = types.SubQuery

// Join represents one JOIN clause.
type Join = types.Join

// JoinKind represents the kind of SQL join.
type JoinKind = types.JoinKind

// Re-export join kind constants for the public API.
const (
	JoinGeneric = types.JoinGeneric
	JoinInner   = types.JoinInner
	JoinLeft    = types.JoinLeft
	JoinRight   = types.JoinRight
	JoinFull    = types.JoinFull
	JoinCross   = types.JoinCross
)

// Filter is a boolean operator over an ordered sequence of conditions.
type Filter = types.Filter

// FilterItem is either a *Expression or a nested *Filter.
type FilterItem = types.FilterItem

// LogicOperator combines filter conditions.
type LogicOperator = types.LogicOperator

// Re-export logic operator constants for the public API.
const (
	AND = types.AND
	OR  = types.OR
)

// Expression is the atomic value/operator unit.
type Expression = types.Expression

// Operand is the expression operand sum type.
type Operand = types.Operand

// Column is a bare identifier reference operand.
type Column = types.Column

// Literal is a literal value operand.
type Literal = types.Literal

// Raw is a verbatim SQL fragment operand.
type Raw = types.Raw

// Func is a function or aggregate call operand.
type Func = types.Func

// OrderBy represents one ORDER BY term.
type OrderBy = types.OrderBy

// Direction represents sort direction.
type Direction = types.Direction

// Re-export direction constants for the public API.
const (
	ASC  = types.ASC
	DESC = types.DESC
)

// CTE is a named common table expression.
type CTE = types.CTE

// UnionArm is one union operand.
type UnionArm = types.UnionArm

// UnionKind distinguishes UNION from UNION ALL.
type UnionKind = types.UnionKind

// Re-export union kind constants for the public API.
const (
	Union    = types.Union
	UnionAll = types.UnionAll
)
