// Package printer renders IR operations as GraphQL documents.
package printer

import (
	"bytes"
	"io"

	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/hanpama/refetchgen/internal/ir"
	language "github.com/hanpama/refetchgen/internal/language"
)

// Document converts op and every fragment it reaches through spreads into a
// query document. Fragments follow the operation in the order they are first
// spread. Directives named in omit are dropped everywhere.
func Document(op *ir.OperationDefinition, omit ...string) *language.QueryDocument {
	c := &converter{
		omit: make(map[string]bool, len(omit)),
		seen: make(map[*ir.FragmentDefinition]bool),
	}
	for _, name := range omit {
		c.omit[name] = true
	}
	doc := &language.QueryDocument{}
	doc.Operations = append(doc.Operations, &language.OperationDefinition{
		Operation:           op.Kind,
		Name:                op.Name.Value,
		VariableDefinitions: c.variables(op.VariableDefinitions),
		Directives:          c.directives(op.Directives),
		SelectionSet:        c.selections(op.Selections),
	})
	// Fragments discovered while converting a fragment are appended to the
	// queue and handled in turn.
	for i := 0; i < len(c.queue); i++ {
		f := c.queue[i]
		def := &language.FragmentDefinition{
			Name:               f.Name.Value,
			VariableDefinition: c.variables(f.VariableDefinitions),
			Directives:         c.directives(f.Directives),
			SelectionSet:       c.selections(f.Selections),
		}
		if f.TypeCondition != nil {
			def.TypeCondition = f.TypeCondition.Name
		}
		doc.Fragments = append(doc.Fragments, def)
	}
	return doc
}

// Fprint writes the document of op to w.
func Fprint(w io.Writer, op *ir.OperationDefinition, omit ...string) error {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(Document(op, omit...))
	_, err := w.Write(buf.Bytes())
	return err
}

// String renders op as text.
func String(op *ir.OperationDefinition, omit ...string) string {
	var buf bytes.Buffer
	_ = Fprint(&buf, op, omit...)
	return buf.String()
}

type converter struct {
	omit  map[string]bool
	seen  map[*ir.FragmentDefinition]bool
	queue []*ir.FragmentDefinition
}

func (c *converter) variables(defs []*ir.VariableDefinition) language.VariableDefinitionList {
	var out language.VariableDefinitionList
	for _, d := range defs {
		out = append(out, &language.VariableDefinition{
			Variable:     d.Name.Value,
			Type:         d.Type.ToAST(),
			DefaultValue: d.DefaultValue,
			Directives:   c.directives(d.Directives),
		})
	}
	return out
}

func (c *converter) directives(dirs []*ir.Directive) language.DirectiveList {
	var out language.DirectiveList
	for _, d := range dirs {
		if c.omit[d.Name.Value] {
			continue
		}
		out = append(out, &language.Directive{
			Name:      d.Name.Value,
			Arguments: arguments(d.Arguments),
		})
	}
	return out
}

func arguments(args []*ir.Argument) language.ArgumentList {
	var out language.ArgumentList
	for _, a := range args {
		out = append(out, &language.Argument{Name: a.Name.Value, Value: a.Value})
	}
	return out
}

func (c *converter) selections(sels []ir.Selection) language.SelectionSet {
	var out language.SelectionSet
	for _, sel := range sels {
		switch s := sel.(type) {
		case *ir.ScalarField:
			out = append(out, c.field(s.Alias, s.Definition, s.Arguments, s.Directives, nil))
		case *ir.LinkedField:
			out = append(out, c.field(s.Alias, s.Definition, s.Arguments, s.Directives, s.Selections))
		case *ir.InlineFragment:
			inline := &language.InlineFragment{
				Directives:   c.directives(s.Directives),
				SelectionSet: c.selections(s.Selections),
			}
			if s.TypeCondition != nil {
				inline.TypeCondition = s.TypeCondition.Name
			}
			out = append(out, inline)
		case *ir.FragmentSpread:
			if s.Definition != nil && !c.seen[s.Definition] {
				c.seen[s.Definition] = true
				c.queue = append(c.queue, s.Definition)
			}
			out = append(out, &language.FragmentSpread{
				Name:       s.Fragment.Value,
				Directives: c.directives(s.Directives),
			})
		}
	}
	return out
}

func (c *converter) field(alias *ir.Named, ref ir.FieldRef, args []*ir.Argument, dirs []*ir.Directive, sels []ir.Selection) *language.Field {
	f := &language.Field{
		Name:       ref.Field.Name,
		Alias:      ref.Field.Name,
		Arguments:  arguments(args),
		Directives: c.directives(dirs),
	}
	if alias != nil {
		f.Alias = alias.Value
	}
	if sels != nil {
		f.SelectionSet = c.selections(sels)
	}
	return f
}
