package types

import "fmt"

// Direction represents sort direction.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// OrderBy represents one ORDER BY term.
type OrderBy struct {
	Column    string
	Direction Direction
}

// JoinKind represents the kind of SQL join.
type JoinKind string

const (
	JoinGeneric JoinKind = "JOIN"
	JoinInner   JoinKind = "INNER JOIN"
	JoinLeft    JoinKind = "LEFT JOIN"
	JoinRight   JoinKind = "RIGHT JOIN"
	JoinFull    JoinKind = "FULL JOIN"
	JoinCross   JoinKind = "CROSS JOIN"
)

// Source is the table-or-subquery sum type used for FROM and join targets.
type Source interface {
	isSource()
}

// TableRef references a table by name with an optional alias.
type TableRef struct {
	Name  string
	Alias string
}

// SubQuery is a nested query used as a source, with an optional alias.
// The nested Query is exclusively owned by this node.
type SubQuery struct {
	Query *Query
	Alias string
}

func (TableRef) isSource() {}
func (SubQuery) isSource() {}

// Join represents one JOIN clause. Order of joins in a Query is the order
// they render in.
type Join struct {
	Kind   JoinKind
	Target Source
	On     *Expression
}

// SelectItem is one select-list entry: an expression plus optional alias.
type SelectItem struct {
	Expr  *Expression
	Alias string
}

// CTE is a named common table expression. The Query is exclusively owned.
type CTE struct {
	Name  string
	Query *Query
}

// UnionKind distinguishes UNION from UNION ALL.
type UnionKind string

const (
	Union    UnionKind = "UNION"
	UnionAll UnionKind = "UNION ALL"
)

// UnionArm is one union operand. The Query is exclusively owned.
type UnionArm struct {
	Kind  UnionKind
	Query *Query
}

// Query is the root IR node for a single SELECT query. All child nodes are
// owned by value; subtrees are never shared between queries.
//
//nolint:govet // fieldalignment: Logical grouping is preferred over memory optimization
type Query struct {
	Selects []SelectItem
	From    Source
	Joins   []Join
	Where   *Filter
	GroupBy []string
	Having  *Filter
	Qualify *Filter
	OrderBy []OrderBy
	Limit   *int
	Offset  *int
	With    []CTE
	Unions  []UnionArm
}

// Validate performs structural validation on the query tree. Rule-based
// validation (lexical, syntax, schema) lives in the validation pipeline;
// this only rejects shapes the renderer cannot interpret.
func (q *Query) Validate() error {
	if q.From == nil {
		return fmt.Errorf("query requires a FROM source")
	}
	if err := validateSource(q.From); err != nil {
		return err
	}
	for _, item := range q.Selects {
		if item.Expr == nil {
			return fmt.Errorf("select item has no expression")
		}
	}
	for _, join := range q.Joins {
		if join.Target == nil {
			return fmt.Errorf("%s has no target", join.Kind)
		}
		if err := validateSource(join.Target); err != nil {
			return err
		}
		if join.Kind != JoinCross && join.On == nil {
			return fmt.Errorf("%s requires an ON expression", join.Kind)
		}
	}
	for _, f := range []*Filter{q.Where, q.Having, q.Qualify} {
		if f == nil {
			continue
		}
		if err := f.Validate(); err != nil {
			return err
		}
	}
	if q.Limit != nil && *q.Limit < 0 {
		return fmt.Errorf("LIMIT must be non-negative, got %d", *q.Limit)
	}
	if q.Offset != nil && *q.Offset < 0 {
		return fmt.Errorf("OFFSET must be non-negative, got %d", *q.Offset)
	}
	for _, cte := range q.With {
		if cte.Name == "" {
			return fmt.Errorf("CTE requires a name")
		}
		if cte.Query == nil {
			return fmt.Errorf("CTE %q has no query", cte.Name)
		}
		if err := cte.Query.Validate(); err != nil {
			return fmt.Errorf("CTE %q: %w", cte.Name, err)
		}
	}
	for _, arm := range q.Unions {
		if arm.Query == nil {
			return fmt.Errorf("%s arm has no query", arm.Kind)
		}
		if err := arm.Query.Validate(); err != nil {
			return fmt.Errorf("%s arm: %w", arm.Kind, err)
		}
	}
	return nil
}

func validateSource(src Source) error {
	switch s := src.(type) {
	case TableRef:
		if s.Name == "" {
			return fmt.Errorf("table reference requires a name")
		}
	case SubQuery:
		if s.Query == nil {
			return fmt.Errorf("subquery source has no query")
		}
		return s.Query.Validate()
	default:
		return fmt.Errorf("unknown source type: %T", src)
	}
	return nil
}
