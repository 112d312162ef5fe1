package labeltree

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := Parse([]byte(src), quietLogger())
	require.NoError(t, err)
	return tree
}

func mustFlatten(t *testing.T, tree *Tree) *FlatMap {
	t.Helper()
	flat, err := Flatten(tree, FlattenOptions{Logger: quietLogger()})
	require.NoError(t, err)
	return flat
}

// ---------------------------------------------------------------------------
// Flatten / Nest
// ---------------------------------------------------------------------------

func TestFlattenPreservesDocumentOrder(t *testing.T) {
	tree := mustParse(t, `{
		"zeta": "Z",
		"date": {"month": {"april": "April", "august": "August"}},
		"alpha": ["a1", "a2"]
	}`)

	flat := mustFlatten(t, tree)
	assert.Equal(t, []string{"zeta", "date.month.april", "date.month.august", "alpha"}, flat.Keys())

	v, ok := flat.Get("alpha")
	require.True(t, ok)
	assert.True(t, v.IsList())
	assert.Equal(t, []string{"a1", "a2"}, v.List)
}

func TestNestFlattenRoundTrip(t *testing.T) {
	tree := mustParse(t, `{
		"hello": "Hello",
		"menu": {"file": {"open": "Open", "close": "Close"}, "edit": "Edit"},
		"alts": ["x", "y"],
		"empty": []
	}`)

	flat := mustFlatten(t, tree)
	nested, err := Nest(flat)
	require.NoError(t, err)
	assert.True(t, Equal(tree, nested), "Nest(Flatten(t)) differs from t:\n%v\n%v", tree.ToMap(), nested.ToMap())

	again := mustFlatten(t, nested)
	require.Equal(t, flat.Keys(), again.Keys())
	for _, k := range flat.Keys() {
		a, _ := flat.Get(k)
		b, _ := again.Get(k)
		assert.True(t, a.Equal(b), "%s: %+v != %+v", k, a, b)
	}
}

func TestFlattenSanitizesDottedKeys(t *testing.T) {
	tree := NewTree()
	tree.SetLeaf("a.b", String("dotted"))

	flat := mustFlatten(t, tree)
	assert.True(t, flat.Has("a_b"), "keys = %v", flat.Keys())
}

func TestFlattenCollision(t *testing.T) {
	tree := NewTree()
	tree.SetLeaf("a_b", String("first"))
	tree.SetLeaf("a.b", String("second"))

	flat := mustFlatten(t, tree)
	v, _ := flat.Get("a_b")
	assert.Equal(t, "second", v.Text, "non-strict collision keeps the later value")

	_, err := Flatten(tree, FlattenOptions{StrictKeys: true, Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrKeyCollision)
}

func TestMergeConflicts(t *testing.T) {
	tree := mustParse(t, `{"a": "leaf", "b": {"c": "deep"}}`)

	flat := NewFlatMap()
	flat.Set("a.x", String("through leaf"))
	assert.ErrorIs(t, Merge(tree, flat), ErrPathConflict, "descending through a leaf")

	flat = NewFlatMap()
	flat.Set("b", String("over object"))
	assert.ErrorIs(t, Merge(tree, flat), ErrPathConflict, "replacing an object")
}

// ---------------------------------------------------------------------------
// SortByKey
// ---------------------------------------------------------------------------

func TestSortByKey(t *testing.T) {
	tree := mustParse(t, `{"b": {"z": "1", "a": "2"}, "a": ["z", "a"], "c": "3"}`)

	sorted := SortByKey(tree)
	assert.Equal(t, []string{"a", "b", "c"}, sorted.Keys())
	child, _ := sorted.Child("b")
	assert.Equal(t, []string{"a", "z"}, child.Keys())
	list, _ := sorted.Leaf("a")
	assert.Equal(t, []string{"z", "a"}, list.List, "list order is kept")
	assert.True(t, IsSorted(sorted))

	first, err := Marshal(sorted, DefaultIndent)
	require.NoError(t, err)
	second, err := Marshal(SortByKey(sorted), DefaultIndent)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "SortByKey is idempotent")

	assert.False(t, IsSorted(tree))
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func TestPathHelpers(t *testing.T) {
	tree := mustParse(t, `{"hello": {"world": "Hello World", "alts": ["a"]}, "bye": "Bye"}`)

	require.NoError(t, ReplacePath(tree, "hello.world", "Hi"))
	v, _ := GetPath(tree, "hello.world")
	assert.Equal(t, "Hi", v.(Value).Text)
	assert.ErrorIs(t, ReplacePath(tree, "hello.alts", "x"), ErrNotString)
	assert.ErrorIs(t, ReplacePath(tree, "hello", "x"), ErrNotString)

	assert.True(t, DeletePath(tree, "hello.world"))
	assert.True(t, DeletePath(tree, "hello.alts"))
	_, ok := tree.Get("hello")
	assert.False(t, ok, "empty parent object was not pruned")
	assert.False(t, DeletePath(tree, "missing.key"))

	assert.ErrorIs(t, SetPath(tree, "a..b", String("x")), ErrInvalidPath)
}

func TestQuery(t *testing.T) {
	tree := mustParse(t, `{
		"menu": {
			"file": {"title": "File", "open": "Open"},
			"edit": {"title": "Edit"},
			"alts": ["x"]
		},
		"title": "Top"
	}`)

	got, err := Query(tree, "menu.*.title")
	require.NoError(t, err)
	assert.Equal(t, []string{"menu.edit.title", "menu.file.title"}, got)

	got, err = Query(tree, "menu.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"menu.alts", "menu.edit", "menu.file"}, got)
}

// ---------------------------------------------------------------------------
// Codec
// ---------------------------------------------------------------------------

func TestParseRejectsNonObject(t *testing.T) {
	for _, src := range []string{`[]`, `"text"`, `42`} {
		_, err := Parse([]byte(src), quietLogger())
		assert.ErrorIs(t, err, ErrNotObject, "Parse(%s)", src)
	}
	_, err := Parse([]byte(`{"a": `), quietLogger())
	assert.Error(t, err)
}

func TestParseDropsNonStringScalars(t *testing.T) {
	tree := mustParse(t, `{"n": 1, "b": true, "z": null, "s": "ok", "l": ["a", 2, {"x": "y"}, "b"]}`)

	assert.Equal(t, []string{"s", "l"}, tree.Keys())
	l, _ := tree.Leaf("l")
	assert.Equal(t, []string{"a", "b"}, l.List)
}

func TestMarshal(t *testing.T) {
	tree := mustParse(t, `{"b": {"c": "<b>&</b>"}, "a": ["x", "y"], "e": {}, "f": []}`)

	data, err := Marshal(tree, DefaultIndent)
	require.NoError(t, err)
	want := strings.Join([]string{
		`{`,
		`  "b": {`,
		`    "c": "<b>&</b>"`,
		`  },`,
		`  "a": [`,
		`    "x",`,
		`    "y"`,
		`  ],`,
		`  "e": {},`,
		`  "f": []`,
		`}`,
		``,
	}, "\n")
	assert.Equal(t, want, string(data))

	back := mustParse(t, string(data))
	assert.True(t, Equal(tree, back), "Parse(Marshal(t)) != t")
}
