package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdata(parts ...string) string {
	return filepath.Join(append([]string{"..", "..", "..", "testdata"}, parts...)...)
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

func TestRestoreCommand_WritesDOT(t *testing.T) {
	out := filepath.Join(t.TempDir(), "diamond.dot")

	err := execute(t, "restore", testdata("listings", "diamond.json"), out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Contains(t, string(data), "strict digraph {")
	assert.Contains(t, string(data), `"0000000000000000" -> "0000000000000003" [label="branch_true"];`)
	assert.Contains(t, string(data), `"0000000000000002" -> "0000000000000003" [label="fallthrough"];`)
}

func TestRestoreCommand_Deterministic(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.dot")
	second := filepath.Join(dir, "b.dot")

	require.NoError(t, execute(t, "restore", testdata("listings", "diamond.json"), first))
	require.NoError(t, execute(t, "restore", testdata("listings", "diamond.json"), second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)

	linesA := strings.Split(strings.TrimSpace(string(a)), "\n")
	linesB := strings.Split(strings.TrimSpace(string(b)), "\n")
	sort.Strings(linesA)
	sort.Strings(linesB)
	assert.Equal(t, linesA, linesB)
}

func TestRestoreCommand_YAMLListing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "loop.dot")

	err := execute(t, "restore", testdata("listings", "loop.yaml"), out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"0000000000000001" -> "0000000000000000" [label="jump"];`)
}

func TestRestoreCommand_NoOutputFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "dangling.json")
	out := filepath.Join(dir, "dangling.dot")

	listing := `[{"address": 0, "kind": "unconditional_jump", "targets": [99]}]`
	require.NoError(t, os.WriteFile(in, []byte(listing), 0644))

	err := execute(t, "restore", in, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling target")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output file may exist on hard failure")
}

func TestTraceCommand_ForeignBranch(t *testing.T) {
	out := filepath.Join(t.TempDir(), "trace.dot")

	err := execute(t, "trace", testdata("traces", "memcpy_call.json"), out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"memcpy"`)
}

func TestBatchCommand_ProcessesDirectory(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	cacheDir := filepath.Join(dir, "cache")
	t.Setenv("CFR_CACHE_DIR", cacheDir)

	src := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(src, 0755))
	listing, err := os.ReadFile(testdata("listings", "diamond.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src, "diamond.json"), listing, 0644))

	require.NoError(t, execute(t, "batch", src, "--out", outDir))

	data, err := os.ReadFile(filepath.Join(outDir, "diamond.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "strict digraph {")

	// Cache was persisted and a second run reuses it.
	_, err = os.Stat(filepath.Join(cacheDir, cacheFileName))
	require.NoError(t, err)
	require.NoError(t, execute(t, "batch", src, "--out", outDir))
}
