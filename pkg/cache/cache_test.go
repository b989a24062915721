package cache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rendered(out string) Rendered {
	return Rendered{Format: "dot", Output: []byte(out)}
}

func TestRenderCache_Basic(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", rendered("graph_a"))
	c.Set("b", rendered("graph_b"))
	c.Set("c", rendered("graph_c"))

	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, []byte("graph_a"), val.Output)

	val, found = c.Get("b")
	require.True(t, found)
	assert.Equal(t, []byte("graph_b"), val.Output)
}

func TestRenderCache_LRU_Eviction(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", rendered("graph_a"))
	c.Set("b", rendered("graph_b"))
	c.Set("c", rendered("graph_c"))

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item - should evict 'b' (least recently used)
	c.Set("d", rendered("graph_d"))

	assert.Equal(t, 3, c.Len())

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")

	_, found = c.Get("a")
	assert.True(t, found, "a should still be present")

	_, found = c.Get("c")
	assert.True(t, found, "c should still be present")

	_, found = c.Get("d")
	assert.True(t, found, "d should be present")
}

func TestRenderCache_Delete(t *testing.T) {
	c := New(Options{MaxSize: 10})

	c.Set("a", rendered("graph_a"))
	c.Set("b", rendered("graph_b"))

	c.Delete("a")

	assert.Equal(t, 1, c.Len())

	_, found := c.Get("a")
	assert.False(t, found)

	val, found := c.Get("b")
	require.True(t, found)
	assert.Equal(t, []byte("graph_b"), val.Output)
}

func TestRenderCache_SaveLoad(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("a", Rendered{Format: "dot", Output: []byte("strict digraph {\n}\n"), Warnings: []string{"no reachable exit: every block has outgoing edges"}})
	c.Set("b", rendered("graph_b"))

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{MaxSize: 10})
	require.NoError(t, restored.Load(&buf))

	assert.Equal(t, 2, restored.Len())

	val, found := restored.Get("a")
	require.True(t, found)
	assert.Equal(t, "dot", val.Format)
	assert.Equal(t, []byte("strict digraph {\n}\n"), val.Output)
	require.Len(t, val.Warnings, 1)
}

func TestRenderCache_LoadRespectsMaxSize(t *testing.T) {
	big := New(Options{})
	big.Set("a", rendered("graph_a"))
	big.Set("b", rendered("graph_b"))
	big.Set("c", rendered("graph_c"))

	var buf bytes.Buffer
	require.NoError(t, big.Save(&buf))

	small := New(Options{MaxSize: 2})
	require.NoError(t, small.Load(&buf))
	assert.Equal(t, 2, small.Len())
}

func TestRenderCache_LoadFileMissingIsNotError(t *testing.T) {
	c := New(Options{})
	require.NoError(t, c.LoadFile(t.TempDir()+"/no-such-cache.msgpack"))
	assert.Equal(t, 0, c.Len())
}

func TestRenderCache_SaveFileLoadFile(t *testing.T) {
	path := t.TempDir() + "/nested/render.msgpack"

	c := New(Options{})
	c.Set("a", rendered("graph_a"))
	require.NoError(t, c.SaveFile(path))

	restored := New(Options{})
	require.NoError(t, restored.LoadFile(path))
	val, found := restored.Get("a")
	require.True(t, found)
	assert.Equal(t, []byte("graph_a"), val.Output)
}

func TestKey_DistinguishesContentAndFormat(t *testing.T) {
	a := Key([]byte("input"), "dot")
	b := Key([]byte("input"), "json")
	c := Key([]byte("other"), "dot")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, Key([]byte("input"), "dot"))
}
