package refetch

import (
	"github.com/hanpama/refetchgen/internal/ir"
	language "github.com/hanpama/refetchgen/internal/language"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

const (
	NodeInterfaceName = "Node"
	NodeFieldName     = "node"
	NodeIDFieldName   = "id"
	idTypeName        = "ID"
)

// NodeQueryGenerator refetches fragments on Node, or on types implementing
// it, through Query.node(id: $id).
var NodeQueryGenerator = Generator{
	Description: "the Node interface or types implementing the Node interface",
	Build:       buildNodeRefetchOperation,
}

func buildNodeRefetchOperation(s *schema.Schema, fragment *ir.FragmentDefinition, queryName string, vars *ir.VariableMap) (*Root, error) {
	typeCondition := fragment.TypeCondition
	if s.TypeName(typeCondition) != NodeInterfaceName && !typeCondition.Implements(NodeInterfaceName) {
		return nil, nil
	}
	queryType := s.GetQueryType()
	nodeField, idArg, err := nodeFieldOf(s, queryType, fragment)
	if err != nil {
		return nil, err
	}
	if err := checkNodeFragment(fragment, vars); err != nil {
		return nil, err
	}

	idVariable := ir.NewNamed(NodeIDFieldName, fragment.Name.Location)
	variables := BuildOperationVariableDefinitions(vars, fragment.VariableDefinitions)
	variables = append(variables, &ir.VariableDefinition{
		Name: idVariable,
		Type: schema.NonNullType(schema.NamedType(idTypeName)),
	})

	identifier := NodeIDFieldName
	return &Root{
		IdentifierField: &identifier,
		Path:            []string{NodeFieldName},
		Operation: &ir.OperationDefinition{
			Kind:                language.Query,
			Name:                ir.NewNamed(queryName, fragment.Name.Location),
			Type:                queryType,
			VariableDefinitions: variables,
			Selections: []ir.Selection{
				&ir.LinkedField{
					Definition: ir.FieldRef{Field: nodeField, Location: fragment.Name.Location},
					Arguments: []*ir.Argument{{
						Name:  idVariable,
						Value: &language.Value{Kind: language.Variable, Raw: NodeIDFieldName},
						Type:  idArg.Type,
					}},
					Selections: []ir.Selection{BuildFragmentSpread(fragment)},
				},
			},
		},
		Fragment: fragment,
	}, nil
}

// nodeFieldOf accepts the schema only when Node is an interface with an ID
// typed id field and Query.node(id: ID!) returns Node.
func nodeFieldOf(s *schema.Schema, queryType *schema.Type, fragment *ir.FragmentDefinition) (*schema.Field, *schema.InputValue, error) {
	nodeType := s.GetType(NodeInterfaceName)
	nodeField := s.NamedField(queryType, NodeFieldName)
	if nodeType.IsInterface() && nodeField != nil && len(nodeField.Arguments) == 1 {
		idArg := nodeField.Argument(NodeIDFieldName)
		idField := s.NamedField(nodeType, NodeIDFieldName)
		if idArg != nil && idArg.Type.Inner() == idTypeName &&
			idField != nil && idField.Type.Inner() == idTypeName &&
			s.GetType(nodeField.Type.Inner()) == nodeType {
			return nodeField, idArg, nil
		}
	}
	return nil, nil, ir.ValidationError{violationInvalidNodeSchema(fragment)}
}

func checkNodeFragment(fragment *ir.FragmentDefinition, vars *ir.VariableMap) error {
	for _, def := range fragment.VariableDefinitions {
		if def.Name.Value == NodeIDFieldName {
			return ir.ValidationError{violationRefetchableFragmentOnNodeWithID(fragment, def.Name.Location)}
		}
	}
	if v, ok := vars.Get(NodeIDFieldName); ok {
		return ir.ValidationError{violationRefetchableFragmentOnNodeWithID(fragment, v.Name.Location)}
	}
	if !selectsField(fragment.Selections, NodeIDFieldName) {
		return ir.ValidationError{violationRefetchableFragmentMissingIDField(fragment)}
	}
	return nil
}

// selectsField reports whether name is selected, unaliased, at the top level
// of selections or of an inline fragment without directives.
func selectsField(selections []ir.Selection, name string) bool {
	for _, sel := range selections {
		switch s := sel.(type) {
		case *ir.ScalarField:
			if s.Alias == nil && s.Definition.Field.Name == name && len(s.Directives) == 0 {
				return true
			}
		case *ir.InlineFragment:
			if len(s.Directives) == 0 && selectsField(s.Selections, name) {
				return true
			}
		}
	}
	return false
}
