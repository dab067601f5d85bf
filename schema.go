package requel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zoobzio/dbml"

	"github.com/zoobzio/requel/internal/types"
)

// Schema maps table names to their ordered column lists. No types,
// defaults, or constraints are modeled.
type Schema map[string][]string

// SchemaFromDBML builds a Schema from a DBML project definition.
func SchemaFromDBML(project *dbml.Project) (Schema, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}
	schema := make(Schema, len(project.Tables))
	for _, table := range project.Tables {
		cols := make([]string, 0, len(table.Columns))
		for _, col := range table.Columns {
			cols = append(cols, col.Name)
		}
		schema[table.Name] = cols
	}
	return schema, nil
}

// schemaRule validates table and column references against a supplied
// Schema. It only runs when a schema is present, recurses into subqueries,
// and skips columns qualified by an alias it cannot resolve.
type schemaRule struct{}

func (schemaRule) Name() string { return "schema" }

func (schemaRule) Check(q *types.Query, schema Schema) []ValidationError {
	if schema == nil {
		return nil
	}
	return checkQuerySchema(q, schema)
}

func checkQuerySchema(q *types.Query, schema Schema) []ValidationError {
	var violations []ValidationError

	var tableName, tableAlias string
	switch src := q.From.(type) {
	case types.TableRef:
		tableName = src.Name
		tableAlias = src.Alias
		if _, ok := schema[src.Name]; !ok {
			violations = append(violations, ValidationError{
				Message:    fmt.Sprintf("table %q not found in schema", src.Name),
				Location:   "FROM",
				Suggestion: "available tables: " + strings.Join(schemaTables(schema), ", "),
			})
			// Column checks against an unknown table would be noise,
			// but nested queries still deserve a look.
			return append(violations, checkNestedSchemas(q, schema)...)
		}
	case types.SubQuery:
		// Column resolution against a derived table is out of scope;
		// validate the nested query instead.
		violations = append(violations, checkQuerySchema(src.Query, schema)...)
		return append(violations, checkNestedSchemas(q, schema)...)
	}

	columns := schema[tableName]
	known := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		known[col] = struct{}{}
	}

	for _, ref := range collectColumns(q) {
		if ref.Location != "SELECT" && ref.Location != "WHERE" {
			continue
		}
		qual := qualifier(ref.Name)
		if qual != "" && qual != tableName && qual != tableAlias {
			// Qualified by an alias this rule cannot resolve (a join
			// target, for instance); leave it alone.
			continue
		}
		name := baseColumn(ref.Name)
		if _, ok := known[name]; !ok {
			violations = append(violations, ValidationError{
				Message:    fmt.Sprintf("column %q not found in table %q", name, tableName),
				Location:   ref.Location,
				Suggestion: "available columns: " + strings.Join(columns, ", "),
			})
		}
	}

	return append(violations, checkNestedSchemas(q, schema)...)
}

// checkNestedSchemas recurses into every owned nested query: CTEs, union
// arms, subquery sources, join targets, and scalar subqueries.
func checkNestedSchemas(q *types.Query, schema Schema) []ValidationError {
	var violations []ValidationError
	for _, cte := range q.With {
		violations = append(violations, checkQuerySchema(cte.Query, schema)...)
	}
	for _, arm := range q.Unions {
		violations = append(violations, checkQuerySchema(arm.Query, schema)...)
	}
	for _, join := range q.Joins {
		if sub, ok := join.Target.(types.SubQuery); ok {
			violations = append(violations, checkQuerySchema(sub.Query, schema)...)
		}
	}
	for _, sub := range scalarSubqueries(q) {
		violations = append(violations, checkQuerySchema(sub, schema)...)
	}
	return violations
}

// scalarSubqueries finds *Query operands inside select and filter
// expressions.
func scalarSubqueries(q *types.Query) []*types.Query {
	var subs []*types.Query
	for _, item := range q.Selects {
		subs = append(subs, subqueriesInExpression(item.Expr)...)
	}
	for _, f := range []*types.Filter{q.Where, q.Having, q.Qualify} {
		subs = append(subs, subqueriesInFilter(f)...)
	}
	return subs
}

func subqueriesInFilter(f *types.Filter) []*types.Query {
	if f == nil {
		return nil
	}
	var subs []*types.Query
	for _, item := range f.Conditions {
		switch c := item.(type) {
		case *types.Expression:
			subs = append(subs, subqueriesInExpression(c)...)
		case *types.Filter:
			subs = append(subs, subqueriesInFilter(c)...)
		}
	}
	return subs
}

func subqueriesInExpression(e *types.Expression) []*types.Query {
	if e == nil {
		return nil
	}
	var subs []*types.Query
	for _, op := range []types.Operand{e.Left, e.Right} {
		switch o := op.(type) {
		case *types.Query:
			subs = append(subs, o)
		case *types.Expression:
			subs = append(subs, subqueriesInExpression(o)...)
		case types.Func:
			for _, arg := range o.Args {
				if sub, ok := arg.(*types.Query); ok {
					subs = append(subs, sub)
				}
			}
		}
	}
	return subs
}

func schemaTables(schema Schema) []string {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
