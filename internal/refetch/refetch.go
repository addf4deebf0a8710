// Package refetch synthesizes standalone query operations for fragments that
// clients refetch on their own, such as after a mutation or to refresh a view.
//
// Each Generator recognizes fragments of one shape (on the Viewer type, on the
// Query type, on Node) and builds the operation that reaches the fragment
// from a root field. A Dispatcher tries the generators in a fixed order and
// the first match wins.
package refetch

import (
	"strings"

	"github.com/hanpama/refetchgen/internal/ir"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

// Root is the result of a successful match.
type Root struct {
	// IdentifierField is set by id-based generators only.
	IdentifierField *string
	// Path lists the field names from the operation root down to the field
	// that holds the fragment spread.
	Path      []string
	Operation *ir.OperationDefinition
	Fragment  *ir.FragmentDefinition
}

// Strategy attempts to build a refetch root for fragment.
//
// It returns (nil, nil) when the fragment's type condition is not one it
// handles, and a non-nil error when the type condition matches but the
// schema does not have the shape a refetch needs.
type Strategy func(s *schema.Schema, fragment *ir.FragmentDefinition, queryName string, vars *ir.VariableMap) (*Root, error)

// Generator pairs a strategy with a description of the fragments it accepts.
// Generators hold no state and may be shared between goroutines.
type Generator struct {
	Description string
	Build       Strategy
}

// Dispatcher tries generators in order.
type Dispatcher struct {
	generators []Generator
}

// DefaultGenerators is the registry used by NewDispatcher when no generators
// are given.
var DefaultGenerators = []Generator{
	ViewerQueryGenerator,
	QueryQueryGenerator,
	NodeQueryGenerator,
}

func NewDispatcher(generators ...Generator) *Dispatcher {
	if len(generators) == 0 {
		generators = DefaultGenerators
	}
	return &Dispatcher{generators: append([]Generator(nil), generators...)}
}

// Descriptions lists the generator descriptions in dispatch order.
func (d *Dispatcher) Descriptions() []string {
	out := make([]string, len(d.generators))
	for i, g := range d.generators {
		out[i] = g.Description
	}
	return out
}

// Build returns the root built by the first generator that accepts fragment.
// An error from a generator is returned immediately without trying the rest.
// When no generator accepts the fragment the result is a single
// UnsupportedRefetchableFragment violation.
func (d *Dispatcher) Build(s *schema.Schema, fragment *ir.FragmentDefinition, queryName string, vars *ir.VariableMap) (*Root, error) {
	if vars == nil {
		vars = ir.NewVariableMap()
	}
	for _, g := range d.generators {
		root, err := g.Build(s, fragment, queryName, vars)
		if err != nil {
			return nil, err
		}
		if root != nil {
			return root, nil
		}
	}
	return nil, ir.ValidationError{
		violationUnsupportedRefetchableFragment(fragment, describeAll(d.Descriptions())),
	}
}

func describeAll(descs []string) string {
	switch len(descs) {
	case 0:
		return "none"
	case 1:
		return descs[0]
	}
	return strings.Join(descs[:len(descs)-1], ", ") + " or " + descs[len(descs)-1]
}
