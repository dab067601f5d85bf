// Package rawast defines the parse-tree shape requel consumes. Any SQL
// parser may substitute for the reference adapters as long as it produces
// this shape: a "select" root exposing columns, a from list whose first
// non-join entry is the primary table, binary where/having trees with a
// parenthesized flag, and analogous groupby/orderby/limit/with fields.
//
// The shape is a closed tagged union: Node.Type discriminates, and each
// kind uses its own subset of fields. Unrecognized kinds are rejected by
// the mapper, never silently ignored.
package rawast

import (
	"encoding/json"
	"fmt"
)

// Node kinds recognized by the mapper.
const (
	NodeSelect    = "select"
	NodeBinary    = "binary_expr"
	NodeColumnRef = "column_ref"
	NodeNumber    = "number"
	NodeString    = "string"
	NodeBool      = "bool"
	NodeNull      = "null"
	NodeStar      = "star"
	NodeFunction  = "function"
	NodeAggrFunc  = "aggr_func"
	NodeCase      = "case"
	NodeInterval  = "interval"
	NodeExprList  = "expr_list"
)

// Node is one node of a raw parse tree.
//
//nolint:govet // fieldalignment: Grouped by node kind, not by size
type Node struct {
	Type string `json:"type"`

	// select
	Columns []SelectColumn `json:"columns,omitempty"`
	From    []FromItem     `json:"from,omitempty"`
	Where   *Node          `json:"where,omitempty"`
	GroupBy []*Node        `json:"groupby,omitempty"`
	Having  *Node          `json:"having,omitempty"`
	Qualify *Node          `json:"qualify,omitempty"`
	OrderBy []OrderTerm    `json:"orderby,omitempty"`
	Limit   *int           `json:"limit,omitempty"`
	Offset  *int           `json:"offset,omitempty"`
	With    []CTEItem      `json:"with,omitempty"`
	Unions  []UnionItem    `json:"unions,omitempty"`

	// binary_expr
	Operator      string `json:"operator,omitempty"`
	Left          *Node  `json:"left,omitempty"`
	Right         *Node  `json:"right,omitempty"`
	Parenthesized bool   `json:"parenthesized,omitempty"`

	// column_ref
	Table  string `json:"table,omitempty"`
	Column string `json:"column,omitempty"`

	// number / string / bool literals
	Value any `json:"value,omitempty"`

	// function / aggr_func
	Name string  `json:"name,omitempty"`
	Args []*Node `json:"args,omitempty"`

	// case
	Expr  *Node        `json:"expr,omitempty"`
	Whens []WhenClause `json:"whens,omitempty"`
	Else  *Node        `json:"else,omitempty"`

	// interval
	Unit string `json:"unit,omitempty"`

	// expr_list
	Items []*Node `json:"items,omitempty"`
}

// SelectColumn is one select-list entry: an expression plus optional alias.
type SelectColumn struct {
	Expr *Node  `json:"expr"`
	As   string `json:"as,omitempty"`
}

// FromItem is one entry of the from list. The first entry with an empty
// Join tag is the primary source; every other entry must carry a join tag.
// Either Table or Expr (a nested select) identifies the source.
type FromItem struct {
	Table string `json:"table,omitempty"`
	Alias string `json:"as,omitempty"`
	Expr  *Node  `json:"expr,omitempty"`
	Join  string `json:"join,omitempty"`
	On    *Node  `json:"on,omitempty"`
}

// OrderTerm is one order-by entry.
type OrderTerm struct {
	Column string `json:"column"`
	Type   string `json:"type,omitempty"`
}

// CTEItem is one WITH entry.
type CTEItem struct {
	Name string `json:"name"`
	Stmt *Node  `json:"stmt"`
}

// UnionItem is one union arm.
type UnionItem struct {
	Kind string `json:"kind"`
	Stmt *Node  `json:"stmt"`
}

// WhenClause is one WHEN/THEN arm of a case node.
type WhenClause struct {
	Cond   *Node `json:"cond"`
	Result *Node `json:"result"`
}

// Decode parses a JSON-encoded raw parse tree.
func Decode(data []byte) (*Node, error) {
	var node Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode raw parse tree: %w", err)
	}
	if node.Type == "" {
		return nil, fmt.Errorf("decode raw parse tree: missing node type")
	}
	return &node, nil
}
