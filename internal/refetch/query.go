package refetch

import (
	"github.com/hanpama/refetchgen/internal/ir"
	language "github.com/hanpama/refetchgen/internal/language"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

// QueryQueryGenerator refetches fragments on the query type itself by
// spreading them at the operation root.
var QueryQueryGenerator = Generator{
	Description: "the Query type",
	Build:       buildQueryRefetchOperation,
}

func buildQueryRefetchOperation(s *schema.Schema, fragment *ir.FragmentDefinition, queryName string, vars *ir.VariableMap) (*Root, error) {
	queryType := s.GetQueryType()
	if queryType == nil || fragment.TypeCondition != queryType {
		return nil, nil
	}
	return &Root{
		Path: []string{},
		Operation: &ir.OperationDefinition{
			Kind:                language.Query,
			Name:                ir.NewNamed(queryName, fragment.Name.Location),
			Type:                queryType,
			VariableDefinitions: BuildOperationVariableDefinitions(vars, fragment.VariableDefinitions),
			Selections:          []ir.Selection{BuildFragmentSpread(fragment)},
		},
		Fragment: fragment,
	}, nil
}
