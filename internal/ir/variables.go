package ir

import (
	"github.com/elliotchance/orderedmap/v3"

	language "github.com/hanpama/refetchgen/internal/language"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

// Variable is a variable referenced by a fragment and the type inferred for
// it.
type Variable struct {
	Name Named
	Type *schema.TypeRef
}

// VariableMap records every variable a fragment references, in first-use
// order. Keys are unique.
type VariableMap struct {
	entries *orderedmap.OrderedMap[string, *Variable]
}

func NewVariableMap() *VariableMap {
	return &VariableMap{entries: orderedmap.NewOrderedMap[string, *Variable]()}
}

// Set adds v unless a variable with the same name is already present.
func (m *VariableMap) Set(v *Variable) {
	if _, ok := m.entries.Get(v.Name.Value); ok {
		return
	}
	m.entries.Set(v.Name.Value, v)
}

func (m *VariableMap) Get(name string) (*Variable, bool) { return m.entries.Get(name) }
func (m *VariableMap) Len() int                          { return m.entries.Len() }

func (m *VariableMap) Has(name string) bool {
	_, ok := m.entries.Get(name)
	return ok
}

// Values returns the variables in insertion order.
func (m *VariableMap) Values() []*Variable {
	out := make([]*Variable, 0, m.entries.Len())
	for el := m.entries.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Names returns the variable names in insertion order.
func (m *VariableMap) Names() []string {
	out := make([]string, 0, m.entries.Len())
	for el := m.entries.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

type variableCollector struct {
	schema     *schema.Schema
	results    map[*FragmentDefinition]*VariableMap
	inProgress map[*FragmentDefinition]bool
	// untyped remembers where a variable was first seen without a known
	// type, per fragment, so it can be reported if no later use types it.
	untyped map[*FragmentDefinition]*orderedmap.OrderedMap[string, Location]
	// own holds the violations found in a fragment's own selections.
	own map[*FragmentDefinition][]*Violation
}

// VariableUsage is the result of CollectVariables.
type VariableUsage struct {
	vars       map[string]*VariableMap
	violations map[string]ValidationError
	all        ValidationError
}

// Variables returns the variables of the named fragment, or nil when the
// program has no such fragment.
func (u *VariableUsage) Variables(fragment string) *VariableMap { return u.vars[fragment] }

// Violations lists the problems found in the named fragment and in every
// fragment it reaches through spreads. A fragment with violations has an
// unreliable variable map.
func (u *VariableUsage) Violations(fragment string) ValidationError {
	return u.violations[fragment]
}

// Err returns every violation of the program, each once, or nil.
func (u *VariableUsage) Err() error {
	if len(u.all) == 0 {
		return nil
	}
	return u.all
}

// CollectVariables computes, for every fragment of p, the variables its
// selections reference directly or through fragment spreads. Declared
// fragment variables keep their declared type; other variables take the type
// of the argument they are passed to.
//
// Violations are kept per fragment so that a broken fragment only affects
// the fragments that spread it.
func CollectVariables(p *Program, sch *schema.Schema) *VariableUsage {
	c := &variableCollector{
		schema:     sch,
		results:    make(map[*FragmentDefinition]*VariableMap, len(p.Fragments)),
		inProgress: make(map[*FragmentDefinition]bool),
		untyped:    make(map[*FragmentDefinition]*orderedmap.OrderedMap[string, Location]),
		own:        make(map[*FragmentDefinition][]*Violation),
	}
	u := &VariableUsage{
		vars:       make(map[string]*VariableMap, len(p.Fragments)),
		violations: make(map[string]ValidationError),
	}
	for _, f := range p.Fragments {
		u.vars[f.Name.Value] = c.visitFragment(f)
	}
	for _, f := range p.Fragments {
		untyped, ok := c.untyped[f]
		if !ok {
			continue
		}
		for el := untyped.Front(); el != nil; el = el.Next() {
			if !c.results[f].Has(el.Key) {
				c.own[f] = append(c.own[f], violationUndefinedVariable(el.Key, f.Name.Value, el.Value))
			}
		}
	}
	for _, f := range p.Fragments {
		u.all = append(u.all, c.own[f]...)
		if verr := c.reachable(f); len(verr) > 0 {
			u.violations[f.Name.Value] = verr
		}
	}
	return u
}

// reachable gathers the violations of f and of every fragment it spreads,
// directly or transitively, in visiting order.
func (c *variableCollector) reachable(f *FragmentDefinition) ValidationError {
	var out ValidationError
	seen := make(map[*FragmentDefinition]bool)
	var visit func(f *FragmentDefinition)
	var walk func(selections []Selection)
	visit = func(f *FragmentDefinition) {
		if f == nil || seen[f] {
			return
		}
		seen[f] = true
		out = append(out, c.own[f]...)
		walk(f.Selections)
	}
	walk = func(selections []Selection) {
		for _, sel := range selections {
			switch s := sel.(type) {
			case *LinkedField:
				walk(s.Selections)
			case *InlineFragment:
				walk(s.Selections)
			case *FragmentSpread:
				visit(s.Definition)
			}
		}
	}
	visit(f)
	return out
}

func (c *variableCollector) visitFragment(f *FragmentDefinition) *VariableMap {
	if vars, ok := c.results[f]; ok {
		return vars
	}
	vars := NewVariableMap()
	if c.inProgress[f] {
		// Cycles are reported by Build; stop here.
		return vars
	}
	c.inProgress[f] = true
	defer delete(c.inProgress, f)

	for _, def := range f.VariableDefinitions {
		vars.Set(&Variable{Name: def.Name, Type: def.Type})
	}
	c.visitDirectives(f, vars, f.Directives)
	c.visitSelections(f, vars, f.Selections)
	c.results[f] = vars
	return vars
}

func (c *variableCollector) visitSelections(f *FragmentDefinition, vars *VariableMap, selections []Selection) {
	for _, sel := range selections {
		switch s := sel.(type) {
		case *LinkedField:
			c.visitArguments(f, vars, s.Arguments)
			c.visitDirectives(f, vars, s.Directives)
			c.visitSelections(f, vars, s.Selections)
		case *ScalarField:
			c.visitArguments(f, vars, s.Arguments)
			c.visitDirectives(f, vars, s.Directives)
		case *InlineFragment:
			c.visitDirectives(f, vars, s.Directives)
			c.visitSelections(f, vars, s.Selections)
		case *FragmentSpread:
			c.visitDirectives(f, vars, s.Directives)
			for _, v := range c.visitFragment(s.Definition).Values() {
				c.use(f, vars, v.Name.Value, v.Type, v.Name.Location)
			}
		}
	}
}

func (c *variableCollector) visitDirectives(f *FragmentDefinition, vars *VariableMap, dirs []*Directive) {
	for _, d := range dirs {
		c.visitArguments(f, vars, d.Arguments)
	}
}

func (c *variableCollector) visitArguments(f *FragmentDefinition, vars *VariableMap, args []*Argument) {
	for _, arg := range args {
		c.visitValue(f, vars, arg.Value, arg.Type)
	}
}

func (c *variableCollector) visitValue(f *FragmentDefinition, vars *VariableMap, v *language.Value, typ *schema.TypeRef) {
	if v == nil {
		return
	}
	switch v.Kind {
	case language.Variable:
		c.use(f, vars, v.Raw, typ, LocationOf(v.Position))
	case language.ListValue:
		var elem *schema.TypeRef
		if typ != nil {
			elem = typ
			if elem.IsNonNull() {
				elem = elem.OfType
			}
			if elem.Kind == schema.TypeRefKindList {
				elem = elem.OfType
			}
		}
		for _, child := range v.Children {
			c.visitValue(f, vars, child.Value, elem)
		}
	case language.ObjectValue:
		var input *schema.Type
		if typ != nil {
			input = c.schema.GetType(typ.Inner())
		}
		for _, child := range v.Children {
			var fieldType *schema.TypeRef
			if input != nil {
				if field := input.InputField(child.Name); field != nil {
					fieldType = field.Type
				}
			}
			c.visitValue(f, vars, child.Value, fieldType)
		}
	}
}

func (c *variableCollector) use(f *FragmentDefinition, vars *VariableMap, name string, typ *schema.TypeRef, loc Location) {
	if typ == nil {
		if !vars.Has(name) {
			untyped, ok := c.untyped[f]
			if !ok {
				untyped = orderedmap.NewOrderedMap[string, Location]()
				c.untyped[f] = untyped
			}
			if _, seen := untyped.Get(name); !seen {
				untyped.Set(name, loc)
			}
		}
		return
	}
	existing, ok := vars.Get(name)
	if !ok {
		vars.Set(&Variable{Name: NewNamed(name, loc), Type: typ})
		return
	}
	if existing.Type.Equal(typ) {
		return
	}
	if def := declaration(f, name); def != nil {
		// A declared type is never changed, it must fit every use.
		if !variableFits(def.Type, def.DefaultValue != nil, typ) {
			c.conflict(f, name, def.Type, typ, loc)
		}
		return
	}
	switch {
	case typ.IsNonNull() && typ.OfType.Equal(existing.Type):
		// The stricter usage wins.
		existing.Type = typ
	case existing.Type.IsNonNull() && existing.Type.OfType.Equal(typ):
		// already the stricter type
	default:
		c.conflict(f, name, existing.Type, typ, loc)
	}
}

func (c *variableCollector) conflict(f *FragmentDefinition, name string, first, second *schema.TypeRef, loc Location) {
	c.own[f] = append(c.own[f], violationConflictingVariableUse(name, first.String(), second.String(), loc))
}

// variableFits reports whether a variable of type varType may be passed
// where locType is expected. A default value lets a nullable variable feed a
// non-null position.
func variableFits(varType *schema.TypeRef, hasDefault bool, locType *schema.TypeRef) bool {
	if locType.IsNonNull() {
		if varType.IsNonNull() {
			return variableFits(varType.OfType, false, locType.OfType)
		}
		if !hasDefault {
			return false
		}
		return variableFits(varType, false, locType.OfType)
	}
	if varType.IsNonNull() {
		return variableFits(varType.OfType, false, locType)
	}
	if varType.IsList() || locType.IsList() {
		if !varType.IsList() || !locType.IsList() {
			return false
		}
		return variableFits(varType.OfType, false, locType.OfType)
	}
	return varType.Named == locType.Named
}

func declaration(f *FragmentDefinition, name string) *VariableDefinition {
	for _, def := range f.VariableDefinitions {
		if def.Name.Value == name {
			return def
		}
	}
	return nil
}
