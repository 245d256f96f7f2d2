// Package templating renders monitor field templates.
//
// Templates use Gonja (Jinja2-like syntax for Go). An engine holds a fixed
// set of named templates, pre-compiled at initialization and rendered by
// name with a per-call context.
package templating

// EngineType represents the template engine to use for rendering.
type EngineType int

const (
	// EngineTypeGonja uses the Gonja template engine (Jinja2-like syntax).
	EngineTypeGonja EngineType = iota
)

// String returns the string representation of the engine type.
func (e EngineType) String() string {
	switch e {
	case EngineTypeGonja:
		return "gonja"
	default:
		return "unknown"
	}
}
