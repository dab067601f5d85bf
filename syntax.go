package requel

import (
	"fmt"

	"github.com/zoobzio/requel/internal/types"
)

// syntaxRule checks clause-level consistency: GROUP BY columns must be
// selected, HAVING needs GROUP BY, and LIMIT without ORDER BY is flagged
// as non-deterministic pagination.
type syntaxRule struct{}

func (syntaxRule) Name() string { return "syntax" }

func (syntaxRule) Check(q *types.Query, _ Schema) []ValidationError {
	var violations []ValidationError

	keys := selectKeys(q)
	for _, col := range q.GroupBy {
		if _, ok := keys[col]; ok {
			continue
		}
		if _, ok := keys[baseColumn(col)]; ok {
			continue
		}
		violations = append(violations, ValidationError{
			Message:    fmt.Sprintf("GROUP BY column %q does not appear in the select list", col),
			Location:   "GROUP BY",
			Suggestion: fmt.Sprintf("select %q or alias a select expression as %q", col, col),
		})
	}

	if q.Having != nil && len(q.GroupBy) == 0 {
		violations = append(violations, ValidationError{
			Message:    "HAVING requires a GROUP BY clause",
			Location:   "HAVING",
			Suggestion: "add a GROUP BY clause or move the condition to WHERE",
		})
	}

	if q.Limit != nil && len(q.OrderBy) == 0 {
		violations = append(violations, ValidationError{
			Message:    "LIMIT without ORDER BY yields non-deterministic pagination",
			Location:   "LIMIT",
			Suggestion: "add an ORDER BY clause",
		})
	}

	return violations
}

// selectKeys returns the set of names a GROUP BY column may refer to: each
// select item's alias, plus the column name for plain column selections.
func selectKeys(q *types.Query) map[string]struct{} {
	keys := make(map[string]struct{}, len(q.Selects))
	for _, item := range q.Selects {
		if item.Alias != "" {
			keys[item.Alias] = struct{}{}
		}
		if item.Expr == nil {
			continue
		}
		if col, ok := item.Expr.Left.(types.Column); ok && item.Expr.Operator == "" {
			keys[string(col)] = struct{}{}
			keys[baseColumn(string(col))] = struct{}{}
		}
	}
	return keys
}
