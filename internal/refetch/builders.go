package refetch

import (
	"github.com/hanpama/refetchgen/internal/ir"
)

// BuildOperationVariableDefinitions declares every variable the fragment
// needs on the synthesized operation. The fragment's own definitions come
// first, in their original order and with their defaults; variables only
// known from vars follow in map order, typed as inferred and without a
// default.
func BuildOperationVariableDefinitions(vars *ir.VariableMap, fragmentVariables []*ir.VariableDefinition) []*ir.VariableDefinition {
	defs := make([]*ir.VariableDefinition, 0, len(fragmentVariables)+vars.Len())
	seen := make(map[string]bool, len(fragmentVariables))
	for _, def := range fragmentVariables {
		if seen[def.Name.Value] {
			continue
		}
		seen[def.Name.Value] = true
		defs = append(defs, def)
	}
	for _, v := range vars.Values() {
		if seen[v.Name.Value] {
			continue
		}
		seen[v.Name.Value] = true
		defs = append(defs, &ir.VariableDefinition{
			Name: v.Name,
			Type: v.Type,
		})
	}
	return defs
}

// BuildFragmentSpread wraps fragment in a spread that carries its name and
// location. The fragment is referenced, not copied.
func BuildFragmentSpread(fragment *ir.FragmentDefinition) ir.Selection {
	return &ir.FragmentSpread{
		Fragment:   fragment.Name,
		Definition: fragment,
	}
}
