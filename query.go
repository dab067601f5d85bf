package requel

import (
	"fmt"

	"github.com/zoobzio/requel/internal/types"
)

// T creates a table reference with an optional alias.
func T(name string, alias ...string) types.TableRef {
	t := types.TableRef{Name: name}
	if len(alias) > 0 {
		if alias[0] == "" {
			panic(fmt.Errorf("table alias must be non-empty when given"))
		}
		t.Alias = alias[0]
	}
	return t
}

// Sub wraps a query as a subquery source with an optional alias.
func Sub(q *types.Query, alias ...string) types.SubQuery {
	s := types.SubQuery{Query: q}
	if len(alias) > 0 {
		if alias[0] == "" {
			panic(fmt.Errorf("subquery alias must be non-empty when given"))
		}
		s.Alias = alias[0]
	}
	return s
}

// Col creates a leaf expression referencing a column.
func Col(name string) *types.Expression {
	return &types.Expression{Left: types.Column(name)}
}

// Lit creates a leaf expression holding a literal value.
func Lit(value any) *types.Expression {
	return &types.Expression{Left: types.Literal{Value: value}}
}

// Cond creates a comparison between a column and a value. A []any value
// becomes a value list (IN), a *Query becomes a scalar subquery, and a
// *Expression is used as-is.
func Cond(column, operator string, value any) *types.Expression {
	return &types.Expression{
		Left:     types.Column(column),
		Operator: operator,
		Right:    operandFor(value),
	}
}

// CondCols creates a comparison between two columns.
func CondCols(left, operator, right string) *types.Expression {
	return &types.Expression{
		Left:     types.Column(left),
		Operator: operator,
		Right:    types.Column(right),
	}
}

func operandFor(value any) types.Operand {
	switch v := value.(type) {
	case types.Operand:
		return v
	case *types.Query:
		return v
	case []any:
		return types.Literal{Value: v}
	default:
		return types.Literal{Value: v}
	}
}

// And creates an AND filter over the given conditions. Conditions that
// render to nothing (IN against an empty list) are filtered out; And
// panics if nothing remains, keeping the non-empty invariant.
func And(conditions ...types.FilterItem) *types.Filter {
	return group(types.AND, conditions)
}

// Or creates an OR filter over the given conditions, with the same
// empty-condition filtering as And.
func Or(conditions ...types.FilterItem) *types.Filter {
	return group(types.OR, conditions)
}

func group(op types.LogicOperator, conditions []types.FilterItem) *types.Filter {
	kept := make([]types.FilterItem, 0, len(conditions))
	for _, item := range conditions {
		if e, ok := item.(*types.Expression); ok && isEmptyIn(e) {
			continue
		}
		if f, ok := item.(*types.Filter); ok && f == nil {
			continue
		}
		kept = append(kept, item)
	}
	if len(kept) == 0 {
		panic(fmt.Errorf("%s requires at least one renderable condition", op))
	}
	return &types.Filter{Op: op, Conditions: kept}
}

// Asc creates an ascending ORDER BY term.
func Asc(column string) types.OrderBy {
	return types.OrderBy{Column: column, Direction: types.ASC}
}

// Desc creates a descending ORDER BY term.
func Desc(column string) types.OrderBy {
	return types.OrderBy{Column: column, Direction: types.DESC}
}

// With creates a named CTE.
func With(name string, q *types.Query) types.CTE {
	if name == "" {
		panic(fmt.Errorf("CTE requires a name"))
	}
	return types.CTE{Name: name, Query: q}
}

// UnionOf creates a UNION arm.
func UnionOf(q *types.Query) types.UnionArm {
	return types.UnionArm{Kind: types.Union, Query: q}
}

// UnionAllOf creates a UNION ALL arm.
func UnionAllOf(q *types.Query) types.UnionArm {
	return types.UnionArm{Kind: types.UnionAll, Query: q}
}
