package requel

import (
	"fmt"
	"strings"

	"github.com/zoobzio/requel/internal/types"
)

// renderContext threads render state through recursive calls: the shared
// parameter manager and the nesting depth guard. Every nested query
// rendered within one Build shares the same paramManager, keeping
// placeholder numbering continuous.
type renderContext struct {
	params   *paramManager
	depth    int
	maxDepth int
}

func newRenderContext(params *paramManager, maxDepth int) *renderContext {
	return &renderContext{params: params, maxDepth: maxDepth}
}

// withNested creates a child context for rendering an owned nested query.
func (ctx *renderContext) withNested() (*renderContext, error) {
	if ctx.depth+1 > ctx.maxDepth {
		return nil, DepthExceededError{Limit: ctx.maxDepth}
	}
	return &renderContext{
		params:   ctx.params,
		depth:    ctx.depth + 1,
		maxDepth: ctx.maxDepth,
	}, nil
}

// renderQuery renders one query in fixed clause order. Absent clauses
// contribute nothing.
func renderQuery(q *types.Query, sql *strings.Builder, ctx *renderContext) error {
	if len(q.With) > 0 {
		sql.WriteString("WITH ")
		for i, cte := range q.With {
			if i > 0 {
				sql.WriteString(", ")
			}
			sql.WriteString(cte.Name)
			sql.WriteString(" AS (")
			sub, err := ctx.withNested()
			if err != nil {
				return err
			}
			if err := renderQuery(cte.Query, sql, sub); err != nil {
				return fmt.Errorf("CTE %q: %w", cte.Name, err)
			}
			sql.WriteString(")")
		}
		sql.WriteString(" ")
	}

	sql.WriteString("SELECT ")
	if len(q.Selects) == 0 {
		sql.WriteString("*")
	} else {
		for i, item := range q.Selects {
			if i > 0 {
				sql.WriteString(", ")
			}
			s, err := renderExpression(item.Expr, ctx)
			if err != nil {
				return fmt.Errorf("SELECT: %w", err)
			}
			sql.WriteString(s)
			if item.Alias != "" {
				sql.WriteString(" AS ")
				sql.WriteString(item.Alias)
			}
		}
	}

	sql.WriteString(" FROM ")
	if err := renderSource(q.From, sql, ctx); err != nil {
		return fmt.Errorf("FROM: %w", err)
	}

	for _, join := range q.Joins {
		sql.WriteString(" ")
		sql.WriteString(string(join.Kind))
		sql.WriteString(" ")
		if err := renderSource(join.Target, sql, ctx); err != nil {
			return fmt.Errorf("%s: %w", join.Kind, err)
		}
		if join.Kind != types.JoinCross && join.On != nil {
			sql.WriteString(" ON ")
			s, err := renderExpression(join.On, ctx)
			if err != nil {
				return fmt.Errorf("%s ON: %w", join.Kind, err)
			}
			sql.WriteString(s)
		}
	}

	if err := renderFilterClause(q.Where, "WHERE", sql, ctx); err != nil {
		return err
	}

	if len(q.GroupBy) > 0 {
		sql.WriteString(" GROUP BY ")
		sql.WriteString(strings.Join(q.GroupBy, ", "))
	}

	if err := renderFilterClause(q.Having, "HAVING", sql, ctx); err != nil {
		return err
	}
	if err := renderFilterClause(q.Qualify, "QUALIFY", sql, ctx); err != nil {
		return err
	}

	if len(q.OrderBy) > 0 {
		sql.WriteString(" ORDER BY ")
		for i, term := range q.OrderBy {
			if i > 0 {
				sql.WriteString(", ")
			}
			fmt.Fprintf(sql, "%s %s", term.Column, term.Direction)
		}
	}

	if q.Limit != nil {
		fmt.Fprintf(sql, " LIMIT %d", *q.Limit)
	}
	if q.Offset != nil {
		fmt.Fprintf(sql, " OFFSET %d", *q.Offset)
	}

	for _, arm := range q.Unions {
		sql.WriteString(" ")
		sql.WriteString(string(arm.Kind))
		sql.WriteString(" ")
		sub, err := ctx.withNested()
		if err != nil {
			return err
		}
		if err := renderQuery(arm.Query, sql, sub); err != nil {
			return fmt.Errorf("%s: %w", arm.Kind, err)
		}
	}

	return nil
}

func renderSource(src types.Source, sql *strings.Builder, ctx *renderContext) error {
	switch s := src.(type) {
	case types.TableRef:
		sql.WriteString(s.Name)
		if s.Alias != "" {
			sql.WriteString(" ")
			sql.WriteString(s.Alias)
		}
	case types.SubQuery:
		sub, err := ctx.withNested()
		if err != nil {
			return err
		}
		sql.WriteString("(")
		if err := renderQuery(s.Query, sql, sub); err != nil {
			return err
		}
		sql.WriteString(")")
		if s.Alias != "" {
			sql.WriteString(" ")
			sql.WriteString(s.Alias)
		}
	default:
		return fmt.Errorf("unknown source type: %T", src)
	}
	return nil
}

// renderFilterClause renders an optional filter with its clause keyword.
// A filter whose conditions all elide (empty IN lists) contributes nothing,
// keyword included.
func renderFilterClause(f *types.Filter, keyword string, sql *strings.Builder, ctx *renderContext) error {
	if f == nil {
		return nil
	}
	parts, err := renderFilterParts(f, ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", keyword, err)
	}
	if len(parts) == 0 {
		return nil
	}
	sql.WriteString(" ")
	sql.WriteString(keyword)
	sql.WriteString(" ")
	sql.WriteString(strings.Join(parts, " "+string(f.Op)+" "))
	return nil
}

// renderFilterParts renders each condition of a filter. Nested groups are
// parenthesized only when their operator differs from the enclosing
// filter's and they hold more than one rendered condition, which inverts
// the mapper's regrouping with minimal parenthesization.
func renderFilterParts(f *types.Filter, ctx *renderContext) ([]string, error) {
	parts := make([]string, 0, len(f.Conditions))
	for _, item := range f.Conditions {
		switch c := item.(type) {
		case *types.Expression:
			if isEmptyIn(c) {
				continue
			}
			s, err := renderExpression(c, ctx)
			if err != nil {
				return nil, err
			}
			parts = append(parts, s)
		case *types.Filter:
			sub, err := renderFilterParts(c, ctx)
			if err != nil {
				return nil, err
			}
			if len(sub) == 0 {
				continue
			}
			joined := strings.Join(sub, " "+string(c.Op)+" ")
			if len(sub) > 1 && c.Op != f.Op {
				joined = "(" + joined + ")"
			}
			parts = append(parts, joined)
		default:
			return nil, fmt.Errorf("unknown filter condition type: %T", item)
		}
	}
	return parts, nil
}

// isEmptyIn reports whether a condition is a set membership test against
// an empty value list. Such conditions are elided from rendered output.
func isEmptyIn(e *types.Expression) bool {
	if e == nil {
		return false
	}
	op := strings.ToUpper(e.Operator)
	if op != "IN" && op != "NOT IN" {
		return false
	}
	lit, ok := e.Right.(types.Literal)
	if !ok {
		return false
	}
	list, ok := lit.Value.([]any)
	return ok && len(list) == 0
}

func renderExpression(e *types.Expression, ctx *renderContext) (string, error) {
	if e == nil || e.Left == nil {
		return "", fmt.Errorf("expression has no operand")
	}
	left, err := renderOperand(e.Left, ctx)
	if err != nil {
		return "", err
	}
	if e.Operator == "" {
		if e.Right != nil {
			return "", fmt.Errorf("expression has a right operand but no operator")
		}
		return left, nil
	}
	if e.Right == nil {
		return "", fmt.Errorf("operator %s has no right operand", e.Operator)
	}
	right, err := renderOperand(e.Right, ctx)
	if err != nil {
		return "", err
	}
	return left + " " + e.Operator + " " + right, nil
}

func renderOperand(op types.Operand, ctx *renderContext) (string, error) {
	switch o := op.(type) {
	case types.Column:
		return string(o), nil
	case types.Raw:
		return string(o), nil
	case types.Literal:
		return renderLiteral(o, ctx)
	case types.Func:
		return renderFunc(o, ctx)
	case *types.Expression:
		return renderExpression(o, ctx)
	case *types.Query:
		sub, err := ctx.withNested()
		if err != nil {
			return "", err
		}
		var sql strings.Builder
		if err := renderQuery(o, &sql, sub); err != nil {
			return "", err
		}
		return "(" + sql.String() + ")", nil
	default:
		return "", fmt.Errorf("unrenderable operand type: %T", op)
	}
}

func renderLiteral(lit types.Literal, ctx *renderContext) (string, error) {
	if lit.Value == nil {
		return "NULL", nil
	}
	if list, ok := lit.Value.([]any); ok {
		elems := make([]string, len(list))
		for i, v := range list {
			elems[i] = ctx.params.add(v)
		}
		return "(" + strings.Join(elems, ", ") + ")", nil
	}
	return ctx.params.add(lit.Value), nil
}

func renderFunc(fn types.Func, ctx *renderContext) (string, error) {
	if fn.Name == "" {
		return "", fmt.Errorf("function call has no name")
	}
	if fn.Star {
		return fn.Name + "(*)", nil
	}
	args := make([]string, len(fn.Args))
	for i, arg := range fn.Args {
		s, err := renderOperand(arg, ctx)
		if err != nil {
			return "", fmt.Errorf("%s(): %w", fn.Name, err)
		}
		args[i] = s
	}
	return fn.Name + "(" + strings.Join(args, ", ") + ")", nil
}
