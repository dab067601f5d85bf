package requel

import (
	"fmt"
	"strings"

	"github.com/zoobzio/requel/internal/types"
)

// DefaultMaxDepth bounds query nesting (subqueries, CTEs, union arms) when
// no explicit limit is configured.
const DefaultMaxDepth = 16

// Result is the output of one build: the SQL text plus the parameter
// collection for the chosen mode. Named is populated under Named mode,
// Positional under Positional mode; both are nil under Simple mode.
type Result struct {
	SQL        string
	Named      map[string]any
	Positional []any
}

// Builder validates a query and renders it to SQL. The zero value renders
// in Simple mode with the default depth limit and no schema.
type Builder struct {
	Mode     Mode
	MaxDepth int
	Schema   Schema
}

// NewBuilder returns a Builder for the given render mode.
func NewBuilder(mode Mode) *Builder {
	return &Builder{Mode: mode, MaxDepth: DefaultMaxDepth}
}

// WithSchema returns a copy of the builder that validates against schema.
func (b *Builder) WithSchema(schema Schema) *Builder {
	nb := *b
	nb.Schema = schema
	return &nb
}

// WithMaxDepth returns a copy of the builder with the given nesting bound.
func (b *Builder) WithMaxDepth(depth int) *Builder {
	nb := *b
	nb.MaxDepth = depth
	return &nb
}

func (b *Builder) maxDepth() int {
	if b.MaxDepth > 0 {
		return b.MaxDepth
	}
	return DefaultMaxDepth
}

// Validate runs the full validation pipeline against q. All rules run;
// violations are concatenated, never short-circuited.
func (b *Builder) Validate(q *types.Query) []ValidationError {
	return Validate(q, b.Schema)
}

// Build validates q and renders it to SQL. If any rule reports a
// violation, Build fails with a QueryValidationError aggregating all of
// them and returns no SQL.
func (b *Builder) Build(q *types.Query) (*Result, error) {
	if q == nil {
		return nil, fmt.Errorf("query is nil")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if violations := b.Validate(q); len(violations) > 0 {
		return nil, QueryValidationError{Violations: violations}
	}

	pm := newParamManager(b.Mode)
	ctx := newRenderContext(pm, b.maxDepth())

	var sql strings.Builder
	if err := renderQuery(q, &sql, ctx); err != nil {
		return nil, err
	}

	res := &Result{SQL: sql.String()}
	switch b.Mode {
	case Named:
		res.Named = pm.named
	case Positional:
		res.Positional = pm.positional
	}
	return res, nil
}

// Build is a convenience wrapper: validate and render q in the given mode
// with default settings.
func Build(q *types.Query, mode Mode) (*Result, error) {
	return NewBuilder(mode).Build(q)
}
