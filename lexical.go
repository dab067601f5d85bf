package requel

import (
	"fmt"
	"strings"

	"github.com/zoobzio/requel/internal/types"
)

// reservedKeywords are SQL keywords that may not be used as bare column
// references.
var reservedKeywords = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "join": {}, "on": {},
	"group": {}, "order": {}, "by": {}, "having": {}, "qualify": {},
	"limit": {}, "offset": {}, "union": {}, "all": {}, "distinct": {},
	"and": {}, "or": {}, "not": {}, "null": {}, "as": {}, "in": {},
	"is": {}, "like": {}, "between": {}, "exists": {}, "case": {},
	"when": {}, "then": {}, "else": {}, "end": {},
	"insert": {}, "update": {}, "delete": {}, "into": {}, "values": {},
	"set": {}, "create": {}, "alter": {}, "drop": {}, "table": {},
	"index": {}, "view": {},
}

// allowedOperators is the whitelist of comparison and logical operators a
// binary expression may carry.
var allowedOperators = map[string]struct{}{
	"=": {}, "!=": {}, "<>": {}, ">": {}, ">=": {}, "<": {}, "<=": {},
	"LIKE": {}, "NOT LIKE": {}, "IN": {}, "NOT IN": {},
	"IS": {}, "IS NOT": {}, "BETWEEN": {}, "NOT BETWEEN": {},
	"AND": {}, "OR": {},
	"+": {}, "-": {}, "*": {}, "/": {}, "%": {},
}

// lexicalRule rejects column references that collide with reserved SQL
// keywords and operators outside the whitelist.
type lexicalRule struct{}

func (lexicalRule) Name() string { return "lexical" }

func (lexicalRule) Check(q *types.Query, _ Schema) []ValidationError {
	var violations []ValidationError

	for _, ref := range collectColumns(q) {
		name := baseColumn(ref.Name)
		if _, reserved := reservedKeywords[strings.ToLower(name)]; reserved {
			violations = append(violations, ValidationError{
				Message:    fmt.Sprintf("column reference %q is a reserved SQL keyword", name),
				Location:   ref.Location,
				Suggestion: "rename the column or qualify it with its table",
			})
		}
	}

	for _, ref := range collectOperators(q) {
		if _, ok := allowedOperators[strings.ToUpper(ref.Operator)]; !ok {
			violations = append(violations, ValidationError{
				Message:    fmt.Sprintf("operator %q is not supported", ref.Operator),
				Location:   ref.Location,
				Suggestion: "use one of the supported comparison or logical operators",
			})
		}
	}

	return violations
}

// baseColumn strips a "table." or alias qualifier from a column reference.
func baseColumn(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// qualifier returns the "table." or alias prefix of a column reference, or
// empty when unqualified.
func qualifier(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return ""
}
