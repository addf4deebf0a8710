package ir

import (
	"fmt"

	language "github.com/hanpama/refetchgen/internal/language"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

// Location points at a span start in a source document.
type Location struct {
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// LocationOf converts a parser position. A nil position yields the zero
// Location.
func LocationOf(pos *language.Position) Location {
	if pos == nil {
		return Location{}
	}
	loc := Location{Line: pos.Line, Column: pos.Column}
	if pos.Src != nil {
		loc.Source = pos.Src.Name
	}
	return loc
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Source, l.Line, l.Column)
}

// Named is a name together with the location it was written at.
type Named struct {
	Value    string   `json:"value"`
	Location Location `json:"location"`
}

func NewNamed(value string, loc Location) Named { return Named{Value: value, Location: loc} }

// Program holds every executable definition of a compilation pass.
// It is read-only once Build returns.
type Program struct {
	Fragments  []*FragmentDefinition
	Operations []*OperationDefinition

	fragments  map[string]*FragmentDefinition
	operations map[string]*OperationDefinition
}

// Fragment returns the fragment named name, or nil.
func (p *Program) Fragment(name string) *FragmentDefinition { return p.fragments[name] }

// Operation returns the operation named name, or nil.
func (p *Program) Operation(name string) *OperationDefinition { return p.operations[name] }

type FragmentDefinition struct {
	Name                Named
	TypeCondition       *schema.Type
	VariableDefinitions []*VariableDefinition
	Directives          []*Directive
	Selections          []Selection
}

// Directive returns the first directive named name, or nil.
func (f *FragmentDefinition) Directive(name string) *Directive {
	return findDirective(f.Directives, name)
}

type OperationDefinition struct {
	Kind                language.Operation
	Name                Named
	Type                *schema.Type
	VariableDefinitions []*VariableDefinition
	Directives          []*Directive
	Selections          []Selection
}

type VariableDefinition struct {
	Name         Named
	Type         *schema.TypeRef
	DefaultValue *language.Value
	Directives   []*Directive
}

type Directive struct {
	Name      Named
	Arguments []*Argument
}

// Argument returns the argument named name, or nil.
func (d *Directive) Argument(name string) *Argument { return findArgument(d.Arguments, name) }

type Argument struct {
	Name  Named
	Value *language.Value
	// Type is the declared type of the argument, nil when the schema does
	// not define it.
	Type *schema.TypeRef
}

// Selection is one of *LinkedField, *ScalarField, *FragmentSpread or
// *InlineFragment.
type Selection interface {
	selection()
	Location() Location
}

// FieldRef is a schema field resolved at a location in a document.
type FieldRef struct {
	Field    *schema.Field
	Location Location
}

type LinkedField struct {
	Alias      *Named
	Definition FieldRef
	Arguments  []*Argument
	Directives []*Directive
	Selections []Selection
}

type ScalarField struct {
	Alias      *Named
	Definition FieldRef
	Arguments  []*Argument
	Directives []*Directive
}

// FragmentSpread references a fragment by pointer; the fragment itself is
// shared, never copied.
type FragmentSpread struct {
	Fragment   Named
	Definition *FragmentDefinition
	Arguments  []*Argument
	Directives []*Directive
}

type InlineFragment struct {
	TypeCondition *schema.Type
	Directives    []*Directive
	Selections    []Selection
	Loc           Location
}

func (*LinkedField) selection()    {}
func (*ScalarField) selection()    {}
func (*FragmentSpread) selection() {}
func (*InlineFragment) selection() {}

func (f *LinkedField) Location() Location    { return f.Definition.Location }
func (f *ScalarField) Location() Location    { return f.Definition.Location }
func (s *FragmentSpread) Location() Location { return s.Fragment.Location }
func (f *InlineFragment) Location() Location { return f.Loc }

// ResponseKey returns the alias if present, else the field name.
func (f *LinkedField) ResponseKey() string {
	if f.Alias != nil {
		return f.Alias.Value
	}
	return f.Definition.Field.Name
}

// ResponseKey returns the alias if present, else the field name.
func (f *ScalarField) ResponseKey() string {
	if f.Alias != nil {
		return f.Alias.Value
	}
	return f.Definition.Field.Name
}

func findDirective(dirs []*Directive, name string) *Directive {
	for _, d := range dirs {
		if d.Name.Value == name {
			return d
		}
	}
	return nil
}

func findArgument(args []*Argument, name string) *Argument {
	for _, a := range args {
		if a.Name.Value == name {
			return a
		}
	}
	return nil
}
