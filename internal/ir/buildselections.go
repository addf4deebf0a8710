package ir

import (
	language "github.com/hanpama/refetchgen/internal/language"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

const typenameFieldName = "__typename"

// typenameField is the implicit meta field available on every composite type.
var typenameField = schema.NewField(typenameFieldName,
	"The name of the current Object type at runtime.",
	schema.NonNullType(schema.NamedType("String")))

func (b *builder) buildSelections(parent *schema.Type, set language.SelectionSet) []Selection {
	if len(set) == 0 {
		return nil
	}
	selections := make([]Selection, 0, len(set))
	for _, node := range set {
		switch sel := node.(type) {
		case *language.Field:
			if s := b.buildField(parent, sel); s != nil {
				selections = append(selections, s)
			}
		case *language.FragmentSpread:
			def := b.fragments[sel.Name]
			if def == nil {
				b.addViolation(violationUndefinedFragment(sel.Name, sel.Position))
				continue
			}
			selections = append(selections, &FragmentSpread{
				Fragment:   NewNamed(sel.Name, LocationOf(sel.Position)),
				Definition: def,
				Directives: b.buildDirectives(sel.Directives),
			})
		case *language.InlineFragment:
			typeCondition := parent
			if sel.TypeCondition != "" {
				typeCondition = b.schema.GetType(sel.TypeCondition)
				if typeCondition == nil {
					b.addViolation(violationUnknownType(sel.TypeCondition, sel.Position))
					continue
				}
				if !typeCondition.IsComposite() {
					b.addViolation(violationInvalidTypeCondition(sel.TypeCondition, sel.Position))
					continue
				}
			}
			selections = append(selections, &InlineFragment{
				TypeCondition: typeCondition,
				Directives:    b.buildDirectives(sel.Directives),
				Selections:    b.buildSelections(typeCondition, sel.SelectionSet),
				Loc:           LocationOf(sel.Position),
			})
		}
	}
	return selections
}

func (b *builder) buildField(parent *schema.Type, node *language.Field) Selection {
	var field *schema.Field
	if node.Name == typenameFieldName {
		field = typenameField
	} else {
		field = b.schema.NamedField(parent, node.Name)
	}
	if field == nil {
		b.addViolation(violationUnknownField(node.Name, parent.Name, node.Position))
		return nil
	}

	var alias *Named
	if node.Alias != "" && node.Alias != node.Name {
		a := NewNamed(node.Alias, LocationOf(node.Position))
		alias = &a
	}
	ref := FieldRef{Field: field, Location: LocationOf(node.Position)}
	args := b.buildArguments(field, node.Arguments)
	dirs := b.buildDirectives(node.Directives)

	fieldType := b.schema.GetType(field.Type.Inner())
	if fieldType.IsComposite() {
		if len(node.SelectionSet) == 0 {
			b.addViolation(violationMissingSelections(node.Name, field.Type.String(), node.Position))
			return nil
		}
		return &LinkedField{
			Alias:      alias,
			Definition: ref,
			Arguments:  args,
			Directives: dirs,
			Selections: b.buildSelections(fieldType, node.SelectionSet),
		}
	}
	if len(node.SelectionSet) > 0 {
		b.addViolation(violationLeafWithSelections(node.Name, field.Type.String(), node.Position))
		return nil
	}
	return &ScalarField{
		Alias:      alias,
		Definition: ref,
		Arguments:  args,
		Directives: dirs,
	}
}

func (b *builder) buildArguments(field *schema.Field, nodes language.ArgumentList) []*Argument {
	if len(nodes) == 0 {
		return nil
	}
	args := make([]*Argument, 0, len(nodes))
	for _, node := range nodes {
		var typ *schema.TypeRef
		if def := field.Argument(node.Name); def != nil {
			typ = def.Type
		}
		args = append(args, &Argument{
			Name:  NewNamed(node.Name, LocationOf(node.Position)),
			Value: node.Value,
			Type:  typ,
		})
	}
	return args
}
