package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/refetchgen/internal/language"
)

var projectDir = filepath.Join("testdata", "project")

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := runCLI(t, "help")
	require.NoError(t, err)
	require.Contains(t, out, "COMMANDS:")

	out, _, err = runCLI(t, "help", "generate")
	require.NoError(t, err)
	require.Contains(t, out, "generate FLAGS")
	require.Contains(t, out, "-out <dir>")

	_, _, err = runCLI(t, "help", "serve")
	require.ErrorContains(t, err, "unknown help topic")
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := runCLI(t, "compile")
	require.ErrorContains(t, err, `unknown command "compile"`)
	require.Contains(t, stderr, "USAGE:")

	_, _, err = runCLI(t)
	require.ErrorContains(t, err, "missing command")
}

func TestGenerateStdout(t *testing.T) {
	out, _, err := runCLI(t, "generate",
		"-schema", filepath.Join(projectDir, "schema.graphql"),
		"-documents", filepath.Join(projectDir, "src"))
	require.NoError(t, err)

	require.Contains(t, out, "# Refetch query for fragment UserAvatar.")
	require.Contains(t, out, "# path: node\n# identifier: id")
	require.Contains(t, out, "query UserAvatarRefetchQuery (")
	require.Contains(t, out, "query ViewerActorRefetchQuery (")
	require.Contains(t, out, "# path: viewer\n# identifier: (none)")
	require.NotContains(t, out, "@refetchable")

	// Both generated documents go to stdout as one parseable stream.
	doc, err := language.ParseQuery("stdout.graphql", out)
	require.NoError(t, err)
	var ops []string
	for _, op := range doc.Operations {
		ops = append(ops, op.Name)
	}
	require.Equal(t, []string{"UserAvatarRefetchQuery", "ViewerActorRefetchQuery"}, ops)
}

func TestGenerateFromConfig(t *testing.T) {
	outDir := t.TempDir()
	_, _, err := runCLI(t, "generate", "-config", filepath.Join(projectDir, "refetchgen.yaml"), "-out", outDir)
	require.NoError(t, err)

	for _, name := range []string{"UserAvatarRefetchQuery.graphql", "ViewerActorRefetchQuery.graphql"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		require.Contains(t, string(data), "fragment UserAvatar on User")
	}
}

func TestGenerateIgnoresOwnOutput(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.graphql")
	src, err := os.ReadFile(filepath.Join(projectDir, "schema.graphql"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(schemaPath, src, 0o644))
	docs, err := os.ReadFile(filepath.Join(projectDir, "src", "components.graphql"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "components.graphql"), docs, 0o644))

	args := []string{"generate", "-schema", schemaPath, "-documents", dir, "-out", filepath.Join(dir, "__generated__")}
	_, _, err = runCLI(t, args...)
	require.NoError(t, err)
	// A second run must not read the generated operations back.
	_, _, err = runCLI(t, args...)
	require.NoError(t, err)
}

func TestCheck(t *testing.T) {
	out, _, err := runCLI(t, "check", "-config", filepath.Join(projectDir, "refetchgen.yaml"))
	require.NoError(t, err)
	require.Equal(t, "ok: 2 refetchable fragments\n", out)
}

func TestCheckReportsViolations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.graphql"),
		[]byte(`fragment NoID on User @refetchable(queryName: "NoIDRefetch") { name }`), 0o644))

	_, stderr, err := runCLI(t, "check",
		"-schema", filepath.Join(projectDir, "schema.graphql"),
		"-documents", dir,
		"-log.level", "debug")
	require.ErrorContains(t, err, "violations found")
	require.ErrorContains(t, err, `fragments on "Node" must select the "id" field`)
	require.Contains(t, stderr, "fragment is not refetchable")
}

func TestMissingSchema(t *testing.T) {
	_, stderr, err := runCLI(t, "check", "-documents", projectDir)
	require.ErrorContains(t, err, "-schema is required")
	require.Contains(t, stderr, "check FLAGS")
}
