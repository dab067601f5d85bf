package requel

import (
	"fmt"
	"strings"

	"github.com/zoobzio/requel/internal/types"
	"github.com/zoobzio/requel/rawast"
)

// MapOption configures a Map call.
type MapOption func(*mapper)

// WithMapDepth overrides the maximum query nesting depth for one Map call.
func WithMapDepth(depth int) MapOption {
	return func(m *mapper) {
		if depth > 0 {
			m.maxDepth = depth
		}
	}
}

// Map converts a raw parse tree into the Query IR. It fails with a
// MappingError if the root is not a select node or a required child is
// missing, an UnsupportedExpressionError for unrecognized node kinds, and
// a DepthExceededError when nesting exceeds the configured bound.
func Map(root *rawast.Node, opts ...MapOption) (*types.Query, error) {
	m := &mapper{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(m)
	}
	return m.mapQuery(root, 0)
}

type mapper struct {
	maxDepth int
}

func (m *mapper) mapQuery(n *rawast.Node, depth int) (*types.Query, error) {
	if depth >= m.maxDepth {
		return nil, DepthExceededError{Limit: m.maxDepth}
	}
	if n == nil {
		return nil, MappingError{Reason: "node is nil"}
	}
	if n.Type != rawast.NodeSelect {
		return nil, MappingError{Reason: "root node is not a select", Fragment: n.Type}
	}

	q := &types.Query{}

	for _, cte := range n.With {
		if cte.Name == "" {
			return nil, MappingError{Reason: "WITH entry has no name"}
		}
		if cte.Stmt == nil {
			return nil, MappingError{Reason: "WITH entry has no statement", Fragment: cte.Name}
		}
		sub, err := m.mapQuery(cte.Stmt, depth+1)
		if err != nil {
			return nil, err
		}
		q.With = append(q.With, types.CTE{Name: cte.Name, Query: sub})
	}

	if len(n.From) == 0 {
		return nil, MappingError{Reason: "select has no from list"}
	}
	from, joins, err := m.mapFrom(n.From, depth)
	if err != nil {
		return nil, err
	}
	q.From = from
	q.Joins = joins

	if len(n.Columns) == 0 {
		return nil, MappingError{Reason: "select has no column list"}
	}
	for _, col := range n.Columns {
		if col.Expr == nil {
			return nil, MappingError{Reason: "select column has no expression"}
		}
		expr, err := m.mapExpression(col.Expr, depth)
		if err != nil {
			return nil, err
		}
		q.Selects = append(q.Selects, types.SelectItem{Expr: expr, Alias: col.As})
	}

	if q.Where, err = m.mapFilter(n.Where, depth); err != nil {
		return nil, err
	}
	if q.Having, err = m.mapFilter(n.Having, depth); err != nil {
		return nil, err
	}
	if q.Qualify, err = m.mapFilter(n.Qualify, depth); err != nil {
		return nil, err
	}

	for _, g := range n.GroupBy {
		if g == nil || g.Type != rawast.NodeColumnRef {
			return nil, MappingError{Reason: "GROUP BY entry is not a column reference", Fragment: nodeKind(g)}
		}
		q.GroupBy = append(q.GroupBy, qualifiedColumn(g))
	}

	for _, term := range n.OrderBy {
		if term.Column == "" {
			return nil, MappingError{Reason: "ORDER BY entry has no column"}
		}
		dir, err := normalizeDirection(term.Type)
		if err != nil {
			return nil, err
		}
		q.OrderBy = append(q.OrderBy, types.OrderBy{Column: term.Column, Direction: dir})
	}

	if n.Limit != nil {
		if *n.Limit < 0 {
			return nil, MappingError{Reason: fmt.Sprintf("negative limit %d", *n.Limit)}
		}
		limit := *n.Limit
		q.Limit = &limit
	}
	if n.Offset != nil {
		if *n.Offset < 0 {
			return nil, MappingError{Reason: fmt.Sprintf("negative offset %d", *n.Offset)}
		}
		offset := *n.Offset
		q.Offset = &offset
	}

	for _, arm := range n.Unions {
		kind, err := normalizeUnionKind(arm.Kind)
		if err != nil {
			return nil, err
		}
		if arm.Stmt == nil {
			return nil, MappingError{Reason: "union arm has no statement"}
		}
		sub, err := m.mapQuery(arm.Stmt, depth+1)
		if err != nil {
			return nil, err
		}
		q.Unions = append(q.Unions, types.UnionArm{Kind: kind, Query: sub})
	}

	return q, nil
}

// mapFrom resolves the primary source (the first non-join entry) and maps
// every join-tagged entry into a Join.
func (m *mapper) mapFrom(items []rawast.FromItem, depth int) (types.Source, []types.Join, error) {
	var primary types.Source
	var joins []types.Join

	for _, item := range items {
		if item.Join == "" {
			if primary != nil {
				return nil, nil, MappingError{
					Reason:   "from list has more than one primary source",
					Fragment: item.Table,
				}
			}
			src, err := m.mapSource(item, depth)
			if err != nil {
				return nil, nil, err
			}
			primary = src
			continue
		}

		kind, err := normalizeJoinKind(item.Join)
		if err != nil {
			return nil, nil, err
		}
		target, err := m.mapSource(item, depth)
		if err != nil {
			return nil, nil, err
		}
		var on *types.Expression
		if item.On != nil {
			if on, err = m.mapExpression(item.On, depth); err != nil {
				return nil, nil, err
			}
		} else if kind != types.JoinCross {
			return nil, nil, MappingError{Reason: fmt.Sprintf("%s has no ON expression", kind)}
		}
		joins = append(joins, types.Join{Kind: kind, Target: target, On: on})
	}

	if primary == nil {
		return nil, nil, MappingError{Reason: "from list has no primary source"}
	}
	return primary, joins, nil
}

func (m *mapper) mapSource(item rawast.FromItem, depth int) (types.Source, error) {
	if item.Expr != nil {
		sub, err := m.mapQuery(item.Expr, depth+1)
		if err != nil {
			return nil, err
		}
		return types.SubQuery{Query: sub, Alias: item.Alias}, nil
	}
	if item.Table == "" {
		return nil, MappingError{Reason: "from entry has neither table nor subquery"}
	}
	return types.TableRef{Name: item.Table, Alias: item.Alias}, nil
}

// mapFilter regroups a raw binary AND/OR tree into a Filter. Explicit
// parentheses in the source become explicit Filter nesting; implicit
// same-operator chains collapse into one flat conditions sequence.
func (m *mapper) mapFilter(n *rawast.Node, depth int) (*types.Filter, error) {
	if n == nil {
		return nil, nil
	}
	if !isLogicalNode(n) {
		expr, err := m.mapExpression(n, depth)
		if err != nil {
			return nil, err
		}
		if isEmptyIn(expr) {
			return nil, nil
		}
		return &types.Filter{Op: types.AND, Conditions: []types.FilterItem{expr}}, nil
	}

	op := logicOperator(n.Operator)
	items, err := m.flattenFilter(n, op, depth)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &types.Filter{Op: op, Conditions: items}, nil
}

// flattenFilter walks both sides of a logical node. A side that is logical
// with the same operator and not parenthesized merges into the current
// sequence (associativity); a parenthesized or different-operator side
// becomes an opaque nested group.
func (m *mapper) flattenFilter(n *rawast.Node, op types.LogicOperator, depth int) ([]types.FilterItem, error) {
	var items []types.FilterItem
	for _, side := range []*rawast.Node{n.Left, n.Right} {
		if side == nil {
			return nil, MappingError{Reason: fmt.Sprintf("%s node is missing an operand", n.Operator)}
		}
		if isLogicalNode(side) {
			if logicOperator(side.Operator) == op && !side.Parenthesized {
				sub, err := m.flattenFilter(side, op, depth)
				if err != nil {
					return nil, err
				}
				items = append(items, sub...)
				continue
			}
			group, err := m.mapFilter(side, depth)
			if err != nil {
				return nil, err
			}
			if group != nil {
				items = append(items, group)
			}
			continue
		}
		expr, err := m.mapExpression(side, depth)
		if err != nil {
			return nil, err
		}
		if !isEmptyIn(expr) {
			items = append(items, expr)
		}
	}
	return items, nil
}

func (m *mapper) mapExpression(n *rawast.Node, depth int) (*types.Expression, error) {
	if n == nil {
		return nil, MappingError{Reason: "expression node is nil"}
	}
	if n.Type == rawast.NodeBinary {
		left, err := m.mapOperand(n.Left, depth)
		if err != nil {
			return nil, err
		}
		right, err := m.mapOperand(n.Right, depth)
		if err != nil {
			return nil, err
		}
		return &types.Expression{
			Left:     left,
			Operator: strings.ToUpper(strings.TrimSpace(n.Operator)),
			Right:    right,
		}, nil
	}
	operand, err := m.mapOperand(n, depth)
	if err != nil {
		return nil, err
	}
	return &types.Expression{Left: operand}, nil
}

func (m *mapper) mapOperand(n *rawast.Node, depth int) (types.Operand, error) {
	if n == nil {
		return nil, MappingError{Reason: "expression operand is nil"}
	}
	switch n.Type {
	case rawast.NodeBinary:
		return m.mapExpression(n, depth)
	case rawast.NodeColumnRef:
		return types.Column(qualifiedColumn(n)), nil
	case rawast.NodeNumber, rawast.NodeString, rawast.NodeBool:
		return types.Literal{Value: n.Value}, nil
	case rawast.NodeNull:
		return types.Literal{Value: nil}, nil
	case rawast.NodeStar:
		return types.Column("*"), nil
	case rawast.NodeFunction, rawast.NodeAggrFunc:
		return m.mapFunc(n, depth)
	case rawast.NodeCase:
		return m.mapCase(n, depth)
	case rawast.NodeInterval:
		return mapInterval(n)
	case rawast.NodeExprList:
		return mapExprList(n)
	case rawast.NodeSelect:
		sub, err := m.mapQuery(n, depth+1)
		if err != nil {
			return nil, err
		}
		return sub, nil
	default:
		return nil, UnsupportedExpressionError{Kind: n.Type, Fragment: describeNode(n)}
	}
}

func (m *mapper) mapFunc(n *rawast.Node, depth int) (types.Operand, error) {
	if n.Name == "" {
		return nil, MappingError{Reason: "function node has no name"}
	}
	// Aggregates over a bare * render as name(*).
	if len(n.Args) == 1 && n.Args[0] != nil && n.Args[0].Type == rawast.NodeStar {
		return types.Func{Name: n.Name, Star: true}, nil
	}
	args := make([]types.Operand, 0, len(n.Args))
	for _, arg := range n.Args {
		operand, err := m.mapOperand(arg, depth)
		if err != nil {
			return nil, err
		}
		args = append(args, operand)
	}
	return types.Func{Name: n.Name, Args: args}, nil
}

// mapCase renders a case node to a raw SQL fragment; WHEN/ELSE arms carry
// literal text, matching the source behavior of CASE handling.
func (m *mapper) mapCase(n *rawast.Node, depth int) (types.Operand, error) {
	var sb strings.Builder
	sb.WriteString("CASE")
	if n.Expr != nil {
		s, err := m.fragmentText(n.Expr, depth)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" ")
		sb.WriteString(s)
	}
	if len(n.Whens) == 0 {
		return nil, MappingError{Reason: "case expression has no WHEN arms"}
	}
	for _, when := range n.Whens {
		if when.Cond == nil || when.Result == nil {
			return nil, MappingError{Reason: "case WHEN arm is incomplete"}
		}
		cond, err := m.fragmentText(when.Cond, depth)
		if err != nil {
			return nil, err
		}
		result, err := m.fragmentText(when.Result, depth)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" WHEN ")
		sb.WriteString(cond)
		sb.WriteString(" THEN ")
		sb.WriteString(result)
	}
	if n.Else != nil {
		s, err := m.fragmentText(n.Else, depth)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" ELSE ")
		sb.WriteString(s)
	}
	sb.WriteString(" END")
	return types.Raw(sb.String()), nil
}

func mapInterval(n *rawast.Node) (types.Operand, error) {
	if n.Value == nil {
		return nil, MappingError{Reason: "interval node has no value"}
	}
	if n.Unit != "" {
		return types.Raw(fmt.Sprintf("INTERVAL '%v %s'", n.Value, strings.ToUpper(n.Unit))), nil
	}
	return types.Raw(fmt.Sprintf("INTERVAL '%v'", n.Value)), nil
}

// mapExprList maps a value list (the right side of IN) to a list literal.
// Non-literal elements are unsupported.
func mapExprList(n *rawast.Node) (types.Operand, error) {
	values := make([]any, 0, len(n.Items))
	for _, item := range n.Items {
		if item == nil {
			return nil, MappingError{Reason: "expression list has a nil element"}
		}
		switch item.Type {
		case rawast.NodeNumber, rawast.NodeString, rawast.NodeBool:
			values = append(values, item.Value)
		case rawast.NodeNull:
			values = append(values, nil)
		default:
			return nil, UnsupportedExpressionError{Kind: item.Type, Fragment: "expression list element"}
		}
	}
	return types.Literal{Value: values}, nil
}

// fragmentText renders a raw node as literal SQL text, used for CASE arms.
func (m *mapper) fragmentText(n *rawast.Node, depth int) (string, error) {
	switch n.Type {
	case rawast.NodeBinary:
		left, err := m.fragmentText(n.Left, depth)
		if err != nil {
			return "", err
		}
		right, err := m.fragmentText(n.Right, depth)
		if err != nil {
			return "", err
		}
		text := fmt.Sprintf("%s %s %s", left, strings.ToUpper(strings.TrimSpace(n.Operator)), right)
		if n.Parenthesized {
			text = "(" + text + ")"
		}
		return text, nil
	case rawast.NodeColumnRef:
		return qualifiedColumn(n), nil
	case rawast.NodeNumber, rawast.NodeString, rawast.NodeBool:
		return inlineLiteral(n.Value), nil
	case rawast.NodeNull:
		return "NULL", nil
	case rawast.NodeStar:
		return "*", nil
	case rawast.NodeFunction, rawast.NodeAggrFunc:
		args := make([]string, 0, len(n.Args))
		for _, arg := range n.Args {
			s, err := m.fragmentText(arg, depth)
			if err != nil {
				return "", err
			}
			args = append(args, s)
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")", nil
	default:
		return "", UnsupportedExpressionError{Kind: n.Type, Fragment: "case arm"}
	}
}

func isLogicalNode(n *rawast.Node) bool {
	if n == nil || n.Type != rawast.NodeBinary {
		return false
	}
	op := strings.ToUpper(strings.TrimSpace(n.Operator))
	return op == "AND" || op == "OR"
}

func logicOperator(op string) types.LogicOperator {
	if strings.EqualFold(strings.TrimSpace(op), "OR") {
		return types.OR
	}
	return types.AND
}

func qualifiedColumn(n *rawast.Node) string {
	if n.Table != "" {
		return n.Table + "." + n.Column
	}
	return n.Column
}

func normalizeJoinKind(join string) (types.JoinKind, error) {
	switch strings.ToUpper(strings.Join(strings.Fields(join), " ")) {
	case "JOIN":
		return types.JoinGeneric, nil
	case "INNER JOIN":
		return types.JoinInner, nil
	case "LEFT JOIN", "LEFT OUTER JOIN":
		return types.JoinLeft, nil
	case "RIGHT JOIN", "RIGHT OUTER JOIN":
		return types.JoinRight, nil
	case "FULL JOIN", "FULL OUTER JOIN":
		return types.JoinFull, nil
	case "CROSS JOIN":
		return types.JoinCross, nil
	default:
		return "", MappingError{Reason: "unsupported join kind", Fragment: join}
	}
}

func normalizeDirection(dir string) (types.Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(dir)) {
	case "", "ASC":
		return types.ASC, nil
	case "DESC":
		return types.DESC, nil
	default:
		return "", MappingError{Reason: "unsupported sort direction", Fragment: dir}
	}
}

func normalizeUnionKind(kind string) (types.UnionKind, error) {
	switch strings.ToUpper(strings.Join(strings.Fields(kind), " ")) {
	case "UNION":
		return types.Union, nil
	case "UNION ALL":
		return types.UnionAll, nil
	default:
		return "", MappingError{Reason: "unsupported union kind", Fragment: kind}
	}
}

func nodeKind(n *rawast.Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.Type
}

// describeNode produces a short fragment for error messages.
func describeNode(n *rawast.Node) string {
	switch {
	case n == nil:
		return "<nil>"
	case n.Name != "":
		return fmt.Sprintf("%s %q", n.Type, n.Name)
	case n.Column != "":
		return fmt.Sprintf("%s %q", n.Type, qualifiedColumn(n))
	case n.Value != nil:
		return fmt.Sprintf("%s %v", n.Type, n.Value)
	default:
		return n.Type
	}
}
