package requel

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects the parameterization strategy for one build.
type Mode int

const (
	// Simple inlines literal values directly into the SQL text. No
	// parameter collection is produced. Not injection-safe; trusted or
	// debug use only.
	Simple Mode = iota
	// Named emits @paramN placeholders and collects a name-to-value map.
	Named
	// Positional emits ? placeholders and collects an ordered value slice.
	Positional
)

func (m Mode) String() string {
	switch m {
	case Simple:
		return "simple"
	case Named:
		return "named"
	case Positional:
		return "positional"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "simple":
		return Simple, nil
	case "named":
		return Named, nil
	case "positional":
		return Positional, nil
	default:
		return Simple, fmt.Errorf("unknown render mode %q", s)
	}
}

// paramManager accumulates parameter values for one top-level build. One
// instance is created per Build call and threaded by pointer through every
// recursive render, so placeholder numbering stays continuous across
// subqueries and CTEs.
type paramManager struct {
	mode       Mode
	count      int
	named      map[string]any
	positional []any
}

func newParamManager(mode Mode) *paramManager {
	pm := &paramManager{mode: mode}
	if mode == Named {
		pm.named = make(map[string]any)
	}
	return pm
}

// add registers a literal value and returns its placeholder text. Under
// Simple mode the value is inlined and nothing is registered.
func (pm *paramManager) add(value any) string {
	switch pm.mode {
	case Named:
		pm.count++
		name := fmt.Sprintf("param%d", pm.count)
		pm.named[name] = value
		return "@" + name
	case Positional:
		pm.count++
		pm.positional = append(pm.positional, value)
		return "?"
	default:
		return inlineLiteral(value)
	}
}

// inlineLiteral renders a literal value as SQL text. Strings are single
// quoted with embedded quotes doubled; that is the only escaping performed.
func inlineLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
