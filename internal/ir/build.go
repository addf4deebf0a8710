package ir

import (
	"context"
	"fmt"

	language "github.com/hanpama/refetchgen/internal/language"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

type builder struct {
	schema     *schema.Schema
	discovery  Discovery
	documents  []*language.QueryDocument
	fragments  map[string]*FragmentDefinition
	operations map[string]*OperationDefinition
	program    *Program
	violations []*Violation
}

// Build reads every document from disc and lowers its fragments and
// operations into IR resolved against sch. Schema mismatches are reported
// together as a ValidationError.
func Build(ctx context.Context, disc Discovery, sch *schema.Schema) (*Program, error) {
	b := &builder{
		schema:     sch,
		discovery:  disc,
		fragments:  make(map[string]*FragmentDefinition),
		operations: make(map[string]*OperationDefinition),
		program:    &Program{},
	}
	if err := b.build(ctx); err != nil {
		return nil, err
	}
	b.program.fragments = b.fragments
	b.program.operations = b.operations
	return b.program, nil
}

func (b *builder) build(ctx context.Context) error {
	metas, err := b.discovery.ListDocuments(ctx)
	if err != nil {
		return err
	}
	for _, meta := range metas {
		source, err := b.discovery.ReadDocument(ctx, meta.ID)
		if err != nil {
			return err
		}
		doc, err := language.ParseQuery(meta.FilePath, source)
		if err != nil {
			return fmt.Errorf("parse %s: %w", meta.FilePath, err)
		}
		b.documents = append(b.documents, doc)
	}

	// Declare fragments first so spreads can point at them regardless of
	// document order.
	b.declareFragments()
	b.populateFragments()
	b.populateOperations()
	b.checkFragmentCycles()

	if len(b.violations) > 0 {
		return ValidationError(b.violations)
	}
	return nil
}

func (b *builder) addViolation(v ...*Violation) {
	b.violations = append(b.violations, v...)
}

func (b *builder) declareFragments() {
	for _, doc := range b.documents {
		for _, node := range doc.Fragments {
			if _, ok := b.fragments[node.Name]; ok {
				b.addViolation(violationDuplicateFragment(node.Name, node.Position))
				continue
			}
			typeCondition := b.schema.GetType(node.TypeCondition)
			if typeCondition == nil {
				b.addViolation(violationUnknownType(node.TypeCondition, node.Position))
				continue
			}
			if !typeCondition.IsComposite() {
				b.addViolation(violationInvalidTypeCondition(node.TypeCondition, node.Position))
				continue
			}
			frag := &FragmentDefinition{
				Name:          NewNamed(node.Name, LocationOf(node.Position)),
				TypeCondition: typeCondition,
			}
			b.fragments[node.Name] = frag
			b.program.Fragments = append(b.program.Fragments, frag)
		}
	}
}

func (b *builder) populateFragments() {
	for _, doc := range b.documents {
		for _, node := range doc.Fragments {
			frag := b.fragments[node.Name]
			// Skip duplicates and fragments whose declaration failed.
			if frag == nil || frag.Name.Location != LocationOf(node.Position) {
				continue
			}
			frag.VariableDefinitions = b.buildVariableDefinitions(node.VariableDefinition)
			frag.Directives = b.buildDirectives(node.Directives)
			frag.Selections = b.buildSelections(frag.TypeCondition, node.SelectionSet)
		}
	}
}

func (b *builder) populateOperations() {
	for _, doc := range b.documents {
		for _, node := range doc.Operations {
			if node.Name != "" {
				if _, ok := b.operations[node.Name]; ok {
					b.addViolation(violationDuplicateOperation(node.Name, node.Position))
					continue
				}
			}
			root := b.rootType(node.Operation)
			if root == nil {
				b.addViolation(violationMissingRootType(node.Operation, node.Position))
				continue
			}
			op := &OperationDefinition{
				Kind:                node.Operation,
				Name:                NewNamed(node.Name, LocationOf(node.Position)),
				Type:                root,
				VariableDefinitions: b.buildVariableDefinitions(node.VariableDefinitions),
				Directives:          b.buildDirectives(node.Directives),
				Selections:          b.buildSelections(root, node.SelectionSet),
			}
			if node.Name != "" {
				b.operations[node.Name] = op
			}
			b.program.Operations = append(b.program.Operations, op)
		}
	}
}

func (b *builder) rootType(op language.Operation) *schema.Type {
	switch op {
	case language.Query:
		return b.schema.GetQueryType()
	case language.Mutation:
		return b.schema.GetMutationType()
	case language.Subscription:
		return b.schema.GetSubscriptionType()
	}
	return nil
}

func (b *builder) buildVariableDefinitions(nodes language.VariableDefinitionList) []*VariableDefinition {
	var defs []*VariableDefinition
	seen := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		if seen[node.Variable] {
			b.addViolation(violationDuplicateVariable(node.Variable, node.Position))
			continue
		}
		seen[node.Variable] = true
		ref := schema.TypeRefFromAST(node.Type)
		named := b.schema.GetType(ref.Inner())
		if named == nil {
			b.addViolation(violationUnknownType(ref.Inner(), node.Position))
			continue
		}
		if !named.IsInputType() {
			b.addViolation(violationInvalidVariableType(node.Variable, ref.Inner(), node.Position))
			continue
		}
		defs = append(defs, &VariableDefinition{
			Name:         NewNamed(node.Variable, LocationOf(node.Position)),
			Type:         ref,
			DefaultValue: node.DefaultValue,
			Directives:   b.buildDirectives(node.Directives),
		})
	}
	return defs
}

func (b *builder) buildDirectives(nodes language.DirectiveList) []*Directive {
	if len(nodes) == 0 {
		return nil
	}
	dirs := make([]*Directive, 0, len(nodes))
	for _, node := range nodes {
		// Client-only directives (such as @refetchable) are not part of the
		// server schema; their arguments stay untyped.
		def := b.schema.GetDirective(node.Name)
		args := make([]*Argument, 0, len(node.Arguments))
		for _, arg := range node.Arguments {
			var typ *schema.TypeRef
			if def != nil {
				if argDef := def.Argument(arg.Name); argDef != nil {
					typ = argDef.Type
				}
			}
			args = append(args, &Argument{
				Name:  NewNamed(arg.Name, LocationOf(arg.Position)),
				Value: arg.Value,
				Type:  typ,
			})
		}
		dirs = append(dirs, &Directive{
			Name:      NewNamed(node.Name, LocationOf(node.Position)),
			Arguments: args,
		})
	}
	return dirs
}

// checkFragmentCycles reports every fragment that reaches itself through
// spreads.
func (b *builder) checkFragmentCycles() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*FragmentDefinition]int, len(b.fragments))
	var visit func(selections []Selection)
	visit = func(selections []Selection) {
		for _, sel := range selections {
			switch s := sel.(type) {
			case *LinkedField:
				visit(s.Selections)
			case *InlineFragment:
				visit(s.Selections)
			case *FragmentSpread:
				if s.Definition == nil {
					continue
				}
				switch state[s.Definition] {
				case visiting:
					b.addViolation(violationFragmentCycle(s.Fragment.Value, s.Fragment.Location))
				case unvisited:
					state[s.Definition] = visiting
					visit(s.Definition.Selections)
					state[s.Definition] = done
				}
			}
		}
	}
	for _, f := range b.program.Fragments {
		if state[f] != unvisited {
			continue
		}
		state[f] = visiting
		visit(f.Selections)
		state[f] = done
	}
}
