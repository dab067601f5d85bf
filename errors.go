package requel

import (
	"fmt"
	"strings"
)

// MappingError indicates a malformed or unrecognized raw parse tree shape.
// Mapping failures are fatal to the current Map call and never partially
// recovered.
type MappingError struct {
	Reason   string
	Fragment string
}

func (e MappingError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("mapping failed: %s (near %s)", e.Reason, e.Fragment)
	}
	return fmt.Sprintf("mapping failed: %s", e.Reason)
}

// UnsupportedExpressionError indicates a raw node kind the mapper does not
// recognize. It carries the offending fragment for diagnosis.
type UnsupportedExpressionError struct {
	Kind     string
	Fragment string
}

func (e UnsupportedExpressionError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("unsupported expression type %q: %s", e.Kind, e.Fragment)
	}
	return fmt.Sprintf("unsupported expression type %q", e.Kind)
}

// ValidationError is one rule violation found by the validation pipeline.
type ValidationError struct {
	Message    string
	Location   string
	Suggestion string
}

func (e ValidationError) Error() string {
	s := e.Message
	if e.Location != "" {
		s = e.Location + ": " + s
	}
	if e.Suggestion != "" {
		s += " (" + e.Suggestion + ")"
	}
	return s
}

// QueryValidationError aggregates every violation found by the pipeline.
// Build never returns partial SQL alongside this error.
type QueryValidationError struct {
	Violations []ValidationError
}

func (e QueryValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return fmt.Sprintf("query validation failed with %d violation(s): %s",
		len(e.Violations), strings.Join(msgs, "; "))
}

// DepthExceededError indicates the query tree nests deeper than the
// configured maximum recursion depth.
type DepthExceededError struct {
	Limit int
}

func (e DepthExceededError) Error() string {
	return fmt.Sprintf("maximum query nesting depth (%d) exceeded", e.Limit)
}
