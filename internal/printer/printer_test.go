package printer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/refetchgen/internal/ir"
	language "github.com/hanpama/refetchgen/internal/language"
	"github.com/hanpama/refetchgen/internal/printer"
	"github.com/hanpama/refetchgen/internal/refetch"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

const sdl = `
interface Node { id: ID! }

type Query {
  node(id: ID!): Node
  viewer: Viewer
}

type Viewer {
  actor: User
}

type User implements Node {
  id: ID!
  name: String
  picture(size: Int!): String
  best: User
}
`

const documents = `
fragment ActorCard on Viewer @refetchable(queryName: "ActorCardRefetch") {
  actor {
    ...Avatar
    best { ...Avatar ...Name }
  }
}

fragment Avatar on User {
  avatar: picture(size: $size)
  ... on User @include(if: $withName) { ...Name }
}

fragment Name on User { name }
`

func refetchRoots(t *testing.T) []*refetch.Root {
	t.Helper()
	sch, err := schema.BuildFromSDL(&language.Source{Name: "schema.graphql", Input: sdl})
	require.NoError(t, err)
	p, err := ir.Build(context.Background(),
		ir.NewInMemoryDiscovery([]ir.InMemoryDocument{{Path: "doc.graphql", Content: documents}}), sch)
	require.NoError(t, err)
	roots, err := refetch.Transform(context.Background(), p, sch)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	return roots
}

func TestDocument(t *testing.T) {
	root := refetchRoots(t)[0]
	doc := printer.Document(root.Operation, refetch.RefetchableDirectiveName)

	require.Len(t, doc.Operations, 1)
	op := doc.Operations[0]
	require.Equal(t, "ActorCardRefetch", op.Name)
	require.Equal(t, language.Query, op.Operation)

	var fragments []string
	for _, f := range doc.Fragments {
		fragments = append(fragments, f.Name+" on "+f.TypeCondition)
		require.Empty(t, f.Directives)
	}
	want := []string{"ActorCard on Viewer", "Avatar on User", "Name on User"}
	if diff := cmp.Diff(want, fragments); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestString(t *testing.T) {
	root := refetchRoots(t)[0]
	out := printer.String(root.Operation, refetch.RefetchableDirectiveName)

	for _, want := range []string{
		"query ActorCardRefetch (",
		"$size: Int!",
		"$withName: Boolean!",
		"viewer {",
		"... ActorCard",
		"fragment ActorCard on Viewer",
		"avatar: picture(size: $size)",
		"@include(if: $withName)",
		"fragment Name on User",
	} {
		require.Contains(t, out, want)
	}
	require.NotContains(t, out, "@refetchable")
	require.Equal(t, 1, strings.Count(out, "fragment Avatar on User"))

	// The output is a valid document with the same definitions.
	doc, err := language.ParseQuery("printed.graphql", out)
	require.NoError(t, err)
	var names []string
	for _, op := range doc.Operations {
		names = append(names, "query "+op.Name)
	}
	for _, f := range doc.Fragments {
		names = append(names, "fragment "+f.Name)
	}
	want := []string{"query ActorCardRefetch", "fragment ActorCard", "fragment Avatar", "fragment Name"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("printed definitions mismatch (-want +got):\n%s", diff)
	}
}

func TestStringKeepsDirectives(t *testing.T) {
	root := refetchRoots(t)[0]
	out := printer.String(root.Operation)
	require.Contains(t, out, `@refetchable(queryName: "ActorCardRefetch")`)
}
