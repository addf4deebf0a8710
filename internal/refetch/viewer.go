package refetch

import (
	"github.com/hanpama/refetchgen/internal/ir"
	language "github.com/hanpama/refetchgen/internal/language"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

const (
	ViewerTypeName  = "Viewer"
	ViewerFieldName = "viewer"
)

// ViewerQueryGenerator refetches fragments on the Viewer type through
// Query.viewer. The viewer has no identifier, so the root is positional.
var ViewerQueryGenerator = Generator{
	Description: "the Viewer type",
	Build:       buildViewerRefetchOperation,
}

func buildViewerRefetchOperation(s *schema.Schema, fragment *ir.FragmentDefinition, queryName string, vars *ir.VariableMap) (*Root, error) {
	if s.TypeName(fragment.TypeCondition) != ViewerTypeName {
		return nil, nil
	}
	queryType := s.GetQueryType()
	viewerField, err := viewerFieldOf(s, queryType, fragment)
	if err != nil {
		return nil, err
	}

	return &Root{
		IdentifierField: nil,
		Path:            []string{ViewerFieldName},
		Operation: &ir.OperationDefinition{
			Kind:                language.Query,
			Name:                ir.NewNamed(queryName, fragment.Name.Location),
			Type:                queryType,
			VariableDefinitions: BuildOperationVariableDefinitions(vars, fragment.VariableDefinitions),
			Selections: []ir.Selection{
				&ir.LinkedField{
					Definition: ir.FieldRef{Field: viewerField, Location: fragment.Name.Location},
					Selections: []ir.Selection{BuildFragmentSpread(fragment)},
				},
			},
		},
		Fragment: fragment,
	}, nil
}

// viewerFieldOf accepts the schema only when Viewer is an object type,
// Query.viewer returns it without arguments, and it is the fragment's type
// condition.
func viewerFieldOf(s *schema.Schema, queryType *schema.Type, fragment *ir.FragmentDefinition) (*schema.Field, error) {
	viewerType := s.GetType(ViewerTypeName)
	viewerField := s.NamedField(queryType, ViewerFieldName)
	if viewerType != nil && viewerField != nil {
		if viewerType.IsObject() &&
			viewerType == s.GetType(viewerField.Type.Inner()) &&
			viewerType == fragment.TypeCondition &&
			len(viewerField.Arguments) == 0 {
			return viewerField, nil
		}
	}
	return nil, ir.ValidationError{violationInvalidViewerSchema(fragment)}
}
