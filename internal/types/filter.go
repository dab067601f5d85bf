package types

import "fmt"

// LogicOperator represents how filter conditions are combined.
type LogicOperator string

const (
	AND LogicOperator = "AND"
	OR  LogicOperator = "OR"
)

// FilterItem is either a *Expression (a comparison) or a nested *Filter
// (an explicitly grouped sub-expression). The nesting is how
// parenthesization intent survives the map/render round trip.
type FilterItem interface {
	isFilterItem()
}

func (*Filter) isFilterItem()     {}
func (*Expression) isFilterItem() {}

// Filter is a boolean operator over an ordered, non-empty sequence of
// conditions.
type Filter struct {
	Op         LogicOperator
	Conditions []FilterItem
}

// Validate rejects filters the renderer cannot interpret. Conditions must
// be non-empty after construction; constructors filter out conditions that
// render to nothing (e.g. IN against an empty list) before finalizing.
func (f *Filter) Validate() error {
	if f.Op != AND && f.Op != OR {
		return fmt.Errorf("filter has unknown logic operator %q", f.Op)
	}
	if len(f.Conditions) == 0 {
		return fmt.Errorf("filter has no conditions")
	}
	for _, item := range f.Conditions {
		switch c := item.(type) {
		case *Expression:
			if c == nil || c.Left == nil {
				return fmt.Errorf("filter condition has no operand")
			}
		case *Filter:
			if err := c.Validate(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown filter condition type: %T", item)
		}
	}
	return nil
}
