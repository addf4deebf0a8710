package refetch_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/refetchgen/internal/ir"
	language "github.com/hanpama/refetchgen/internal/language"
	"github.com/hanpama/refetchgen/internal/refetch"
	schema "github.com/hanpama/refetchgen/internal/schema"
	"github.com/stretchr/testify/require"
)

func mustLoadSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sdl, err := os.ReadFile("testdata/schema.graphql")
	require.NoError(t, err)
	return mustParseSchema(t, string(sdl))
}

func mustParseSchema(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	s, err := schema.BuildFromSDL(&language.Source{Name: "schema.graphql", Input: sdl})
	require.NoError(t, err)
	return s
}

func mustBuild(t *testing.T, sch *schema.Schema, content string) *ir.Program {
	t.Helper()
	p, err := ir.Build(context.Background(),
		ir.NewInMemoryDiscovery([]ir.InMemoryDocument{{Path: "doc.graphql", Content: content}}), sch)
	require.NoError(t, err)
	return p
}

// dispatch builds the program, collects its variables and dispatches the
// named fragment with the default generators.
func dispatch(t *testing.T, sch *schema.Schema, content, fragment string) (*refetch.Root, error) {
	t.Helper()
	p := mustBuild(t, sch, content)
	usage := ir.CollectVariables(p, sch)
	require.NoError(t, usage.Err())
	f := p.Fragment(fragment)
	require.NotNil(t, f)
	return refetch.NewDispatcher().Build(sch, f, "RefetchQuery", usage.Variables(fragment))
}

func variableSummary(defs []*ir.VariableDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name.Value + ":" + d.Type.String()
	}
	return out
}

func requireKinds(t *testing.T, err error, want ...ir.ViolationKind) {
	t.Helper()
	verr, ok := ir.AsValidationError(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	if diff := cmp.Diff(want, verr.Kinds()); diff != "" {
		t.Fatalf("violation kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestViewerGenerator(t *testing.T) {
	sch := mustLoadSchema(t)
	root, err := dispatch(t, sch, `
fragment ViewerFeed($count: Int = 10) on Viewer {
  feed(first: $count, after: $cursor) { title author { ...Avatar } }
}

fragment Avatar on User {
  picture(size: $size)
}
`, "ViewerFeed")
	require.NoError(t, err)

	require.Nil(t, root.IdentifierField)
	require.Equal(t, []string{"viewer"}, root.Path)
	require.Equal(t, "ViewerFeed", root.Fragment.Name.Value)

	op := root.Operation
	require.Equal(t, language.Query, op.Kind)
	require.Equal(t, "RefetchQuery", op.Name.Value)
	require.Same(t, sch.GetQueryType(), op.Type)

	want := []string{"count:Int", "cursor:String", "size:Int!"}
	if diff := cmp.Diff(want, variableSummary(op.VariableDefinitions)); diff != "" {
		t.Errorf("variables mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, op.VariableDefinitions[0].DefaultValue, "declared default is kept")

	require.Len(t, op.Selections, 1)
	viewer, ok := op.Selections[0].(*ir.LinkedField)
	require.True(t, ok)
	require.Equal(t, "viewer", viewer.Definition.Field.Name)
	require.Empty(t, viewer.Arguments)
	require.Len(t, viewer.Selections, 1)
	spread, ok := viewer.Selections[0].(*ir.FragmentSpread)
	require.True(t, ok)
	require.Equal(t, "ViewerFeed", spread.Fragment.Value)
	require.Same(t, root.Fragment, spread.Definition)
}

func TestViewerGenerator_SkipsOtherTypes(t *testing.T) {
	sch := mustLoadSchema(t)
	p := mustBuild(t, sch, `fragment Card on User { name }`)

	// The type name is checked before the schema is consulted.
	root, err := refetch.ViewerQueryGenerator.Build(nil, p.Fragment("Card"), "Q", ir.NewVariableMap())
	require.NoError(t, err)
	require.Nil(t, root)
}

func TestViewerGenerator_InvalidSchema(t *testing.T) {
	tests := []struct {
		name string
		sdl  string
	}{
		{
			name: "viewer field with arguments",
			sdl: `
type Query { viewer(as: ID): Viewer }
type Viewer { name: String }`,
		},
		{
			name: "viewer field returning another type",
			sdl: `
type Query { viewer: Other }
type Viewer { name: String }
type Other { name: String }`,
		},
		{
			name: "missing viewer field",
			sdl: `
type Query { other: Viewer }
type Viewer { name: String }`,
		},
		{
			name: "viewer is an interface",
			sdl: `
type Query { viewer: Viewer }
interface Viewer { name: String }
type Me implements Viewer { name: String }`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sch := mustParseSchema(t, tt.sdl)
			root, err := dispatch(t, sch, `fragment V on Viewer { name }`, "V")
			require.Nil(t, root)
			requireKinds(t, err, refetch.KindInvalidViewerSchema)
		})
	}
}

func TestViewerGenerator_WinsOverNode(t *testing.T) {
	sch := mustParseSchema(t, `
interface Node { id: ID! }
type Query {
  node(id: ID!): Node
  viewer: Viewer
}
type Viewer implements Node { id: ID! name: String }`)

	root, err := dispatch(t, sch, `fragment V on Viewer { id name }`, "V")
	require.NoError(t, err)
	require.Equal(t, []string{"viewer"}, root.Path)
	require.Nil(t, root.IdentifierField)
}

func TestQueryGenerator(t *testing.T) {
	sch := mustLoadSchema(t)
	root, err := dispatch(t, sch, `
fragment Home on Query {
  viewer { actor { picture(size: $size) } }
}
`, "Home")
	require.NoError(t, err)

	require.Nil(t, root.IdentifierField)
	require.Equal(t, []string{}, root.Path)
	require.Equal(t, []string{"size:Int!"}, variableSummary(root.Operation.VariableDefinitions))
	require.Len(t, root.Operation.Selections, 1)
	spread, ok := root.Operation.Selections[0].(*ir.FragmentSpread)
	require.True(t, ok)
	require.Same(t, root.Fragment, spread.Definition)
}

func TestNodeGenerator(t *testing.T) {
	sch := mustLoadSchema(t)
	tests := []struct {
		name     string
		content  string
		fragment string
		wantVars []string
	}{
		{
			name:     "object implementing Node",
			content:  `fragment UserFriends($n: Int!) on User { id friends(first: $n, orderBy: $order) { name } }`,
			fragment: "UserFriends",
			wantVars: []string{"n:Int!", "order:String", "id:ID!"},
		},
		{
			name:     "Node interface",
			content:  `fragment AnyNode on Node { id ... on Story { title } }`,
			fragment: "AnyNode",
			wantVars: []string{"id:ID!"},
		},
		{
			name:     "id selected in inline fragment",
			content:  `fragment StoryNode on Story { ... on Story { id } title }`,
			fragment: "StoryNode",
			wantVars: []string{"id:ID!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := dispatch(t, sch, tt.content, tt.fragment)
			require.NoError(t, err)

			require.NotNil(t, root.IdentifierField)
			require.Equal(t, "id", *root.IdentifierField)
			require.Equal(t, []string{"node"}, root.Path)
			if diff := cmp.Diff(tt.wantVars, variableSummary(root.Operation.VariableDefinitions)); diff != "" {
				t.Errorf("variables mismatch (-want +got):\n%s", diff)
			}

			node := root.Operation.Selections[0].(*ir.LinkedField)
			require.Equal(t, "node", node.Definition.Field.Name)
			require.Len(t, node.Arguments, 1)
			require.Equal(t, "id", node.Arguments[0].Name.Value)
			require.Equal(t, language.Variable, node.Arguments[0].Value.Kind)
			require.Equal(t, "id", node.Arguments[0].Value.Raw)
			require.Equal(t, "ID!", node.Arguments[0].Type.String())
			require.Same(t, root.Fragment, node.Selections[0].(*ir.FragmentSpread).Definition)
		})
	}
}

func TestNodeGenerator_Violations(t *testing.T) {
	sch := mustLoadSchema(t)
	tests := []struct {
		name    string
		content string
		want    ir.ViolationKind
	}{
		{
			name:    "missing id selection",
			content: `fragment F on User { name }`,
			want:    refetch.KindRefetchableFragmentMissingIDField,
		},
		{
			name:    "aliased id does not count",
			content: `fragment F on User { key: id }`,
			want:    refetch.KindRefetchableFragmentMissingIDField,
		},
		{
			name:    "declared id variable",
			content: `fragment F($id: Int!) on User { id friends(first: $id) { name } }`,
			want:    refetch.KindRefetchableFragmentOnNodeWithID,
		},
		{
			name:    "used id variable",
			content: `fragment F on User { id picture(size: $id) }`,
			want:    refetch.KindRefetchableFragmentOnNodeWithID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := dispatch(t, sch, tt.content, "F")
			require.Nil(t, root)
			requireKinds(t, err, tt.want)
		})
	}
}

func TestNodeGenerator_InvalidSchema(t *testing.T) {
	sch := mustParseSchema(t, `
interface Node { id: ID! }
type Query { node: Node }
type User implements Node { id: ID! }`)

	root, err := dispatch(t, sch, `fragment F on User { id }`, "F")
	require.Nil(t, root)
	requireKinds(t, err, refetch.KindInvalidNodeSchema)
}

func TestDispatcher_NoMatch(t *testing.T) {
	sch := mustLoadSchema(t)
	root, err := dispatch(t, sch, `fragment R on SearchResult { __typename }`, "R")
	require.Nil(t, root)
	requireKinds(t, err, refetch.KindUnsupportedRefetchableFragment)

	verr, _ := ir.AsValidationError(err)
	require.Contains(t, verr[0].Message,
		"the Viewer type, the Query type or the Node interface or types implementing the Node interface")
	require.Equal(t, "doc.graphql", verr[0].Locations[0].Source)
}

func TestDispatcher_Order(t *testing.T) {
	var calls []string
	gen := func(name string, match bool) refetch.Generator {
		return refetch.Generator{
			Description: name,
			Build: func(*schema.Schema, *ir.FragmentDefinition, string, *ir.VariableMap) (*refetch.Root, error) {
				calls = append(calls, name)
				if match {
					return &refetch.Root{Path: []string{name}}, nil
				}
				return nil, nil
			},
		}
	}
	d := refetch.NewDispatcher(gen("a", false), gen("b", true), gen("c", true))
	require.Equal(t, []string{"a", "b", "c"}, d.Descriptions())

	f := &ir.FragmentDefinition{Name: ir.NewNamed("F", ir.Location{})}
	root, err := d.Build(nil, f, "Q", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, root.Path)
	require.Equal(t, []string{"a", "b"}, calls, "dispatch stops at the first match")
}

func TestDispatcher_StopsOnError(t *testing.T) {
	failing := refetch.Generator{
		Description: "failing",
		Build: func(*schema.Schema, *ir.FragmentDefinition, string, *ir.VariableMap) (*refetch.Root, error) {
			return nil, ir.ValidationError{ir.NewViolation("Broken", "broken", ir.Location{})}
		},
	}
	reached := false
	never := refetch.Generator{
		Description: "never",
		Build: func(*schema.Schema, *ir.FragmentDefinition, string, *ir.VariableMap) (*refetch.Root, error) {
			reached = true
			return &refetch.Root{}, nil
		},
	}
	f := &ir.FragmentDefinition{Name: ir.NewNamed("F", ir.Location{})}
	_, err := refetch.NewDispatcher(failing, never).Build(nil, f, "Q", nil)
	requireKinds(t, err, "Broken")
	require.False(t, reached)
}

func TestDispatcher_Deterministic(t *testing.T) {
	sch := mustLoadSchema(t)
	content := `
fragment F($n: Int!) on User {
  id
  friends(first: $n, orderBy: $order) { picture(size: $size) }
  name @include(if: $withName)
}`
	summarize := func(root *refetch.Root) string {
		return strings.Join(root.Path, ".") + " " + strings.Join(variableSummary(root.Operation.VariableDefinitions), ",")
	}
	first, err := dispatch(t, sch, content, "F")
	require.NoError(t, err)
	for range 5 {
		again, err := dispatch(t, sch, content, "F")
		require.NoError(t, err)
		require.Equal(t, summarize(first), summarize(again))
	}
	require.Equal(t, "node n:Int!,order:String,size:Int!,withName:Boolean!,id:ID!", summarize(first))
}

func TestBuildOperationVariableDefinitions(t *testing.T) {
	vars := ir.NewVariableMap()
	vars.Set(&ir.Variable{Name: ir.NewNamed("a", ir.Location{}), Type: schema.NamedType("Int")})
	vars.Set(&ir.Variable{Name: ir.NewNamed("b", ir.Location{}), Type: schema.NamedType("String")})
	declared := []*ir.VariableDefinition{
		{Name: ir.NewNamed("b", ir.Location{}), Type: schema.NonNullType(schema.NamedType("String"))},
		{Name: ir.NewNamed("c", ir.Location{}), Type: schema.NamedType("Boolean")},
	}

	got := refetch.BuildOperationVariableDefinitions(vars, declared)
	want := []string{"b:String!", "c:Boolean", "a:Int"}
	if diff := cmp.Diff(want, variableSummary(got)); diff != "" {
		t.Errorf("variables mismatch (-want +got):\n%s", diff)
	}
	require.Same(t, declared[0], got[0])
}
