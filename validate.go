package requel

import (
	"github.com/zoobzio/requel/internal/types"
)

// Rule is one validation pass: a pure function of (query, optional schema)
// producing zero or more violations. Rules never mutate the IR.
type Rule interface {
	Name() string
	Check(q *types.Query, schema Schema) []ValidationError
}

// Rules returns the pipeline in application order.
func Rules() []Rule {
	return []Rule{
		lexicalRule{},
		syntaxRule{},
		schemaRule{},
	}
}

// Validate runs every rule and concatenates all violations; it does not
// short-circuit on the first failing rule.
func Validate(q *types.Query, schema Schema) []ValidationError {
	var violations []ValidationError
	for _, rule := range Rules() {
		violations = append(violations, rule.Check(q, schema)...)
	}
	return violations
}

// columnRef is a column reference found while walking the IR, tagged with
// the clause it was found in.
type columnRef struct {
	Name     string
	Location string
}

// collectColumns gathers every column reference in the query body,
// clause-tagged. Nested queries are not descended into here; rules that
// recurse (the schema validator) do so query by query.
func collectColumns(q *types.Query) []columnRef {
	var refs []columnRef
	for _, item := range q.Selects {
		refs = append(refs, columnsInExpression(item.Expr, "SELECT")...)
	}
	for _, join := range q.Joins {
		refs = append(refs, columnsInExpression(join.On, "JOIN")...)
	}
	refs = append(refs, columnsInFilter(q.Where, "WHERE")...)
	refs = append(refs, columnsInFilter(q.Having, "HAVING")...)
	refs = append(refs, columnsInFilter(q.Qualify, "QUALIFY")...)
	for _, col := range q.GroupBy {
		refs = append(refs, columnRef{Name: col, Location: "GROUP BY"})
	}
	for _, term := range q.OrderBy {
		refs = append(refs, columnRef{Name: term.Column, Location: "ORDER BY"})
	}
	return refs
}

func columnsInFilter(f *types.Filter, loc string) []columnRef {
	if f == nil {
		return nil
	}
	var refs []columnRef
	for _, item := range f.Conditions {
		switch c := item.(type) {
		case *types.Expression:
			refs = append(refs, columnsInExpression(c, loc)...)
		case *types.Filter:
			refs = append(refs, columnsInFilter(c, loc)...)
		}
	}
	return refs
}

func columnsInExpression(e *types.Expression, loc string) []columnRef {
	if e == nil {
		return nil
	}
	refs := columnsInOperand(e.Left, loc)
	refs = append(refs, columnsInOperand(e.Right, loc)...)
	return refs
}

func columnsInOperand(op types.Operand, loc string) []columnRef {
	switch o := op.(type) {
	case types.Column:
		if o == "*" {
			return nil
		}
		return []columnRef{{Name: string(o), Location: loc}}
	case types.Func:
		var refs []columnRef
		for _, arg := range o.Args {
			refs = append(refs, columnsInOperand(arg, loc)...)
		}
		return refs
	case *types.Expression:
		return columnsInExpression(o, loc)
	default:
		return nil
	}
}

// operatorRef is a binary operator found while walking the IR.
type operatorRef struct {
	Operator string
	Location string
}

func collectOperators(q *types.Query) []operatorRef {
	var ops []operatorRef
	for _, item := range q.Selects {
		ops = append(ops, operatorsInExpression(item.Expr, "SELECT")...)
	}
	for _, join := range q.Joins {
		ops = append(ops, operatorsInExpression(join.On, "JOIN")...)
	}
	ops = append(ops, operatorsInFilter(q.Where, "WHERE")...)
	ops = append(ops, operatorsInFilter(q.Having, "HAVING")...)
	ops = append(ops, operatorsInFilter(q.Qualify, "QUALIFY")...)
	return ops
}

func operatorsInFilter(f *types.Filter, loc string) []operatorRef {
	if f == nil {
		return nil
	}
	var ops []operatorRef
	for _, item := range f.Conditions {
		switch c := item.(type) {
		case *types.Expression:
			ops = append(ops, operatorsInExpression(c, loc)...)
		case *types.Filter:
			ops = append(ops, operatorsInFilter(c, loc)...)
		}
	}
	return ops
}

func operatorsInExpression(e *types.Expression, loc string) []operatorRef {
	if e == nil {
		return nil
	}
	var ops []operatorRef
	if e.Operator != "" {
		ops = append(ops, operatorRef{Operator: e.Operator, Location: loc})
	}
	ops = append(ops, operatorsInOperand(e.Left, loc)...)
	ops = append(ops, operatorsInOperand(e.Right, loc)...)
	return ops
}

func operatorsInOperand(op types.Operand, loc string) []operatorRef {
	switch o := op.(type) {
	case types.Func:
		var ops []operatorRef
		for _, arg := range o.Args {
			ops = append(ops, operatorsInOperand(arg, loc)...)
		}
		return ops
	case *types.Expression:
		return operatorsInExpression(o, loc)
	default:
		return nil
	}
}
