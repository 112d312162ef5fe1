package store

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/ctv/labeltree"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "i18n"), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestPathFor(t *testing.T) {
	s := New("dist/i18n", nil)
	assert.Equal(t, filepath.Join("dist", "i18n", "uk.json"), s.PathFor("uk"))
}

func TestReadMissingFile(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Read("fr")
	require.NoError(t, err)
	assert.False(t, rec.Exists)
	assert.Zero(t, rec.Tree.Len())
	assert.Zero(t, rec.Flat.Len())
}

func TestReadMalformedFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"hello": `},
		{"array root", `["hello"]`},
		{"string root", `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			writeRaw(t, s.PathFor("en"), tt.content)

			rec, err := s.Read("en")
			require.NoError(t, err)
			assert.True(t, rec.Exists)
			assert.Zero(t, rec.Flat.Len())
		})
	}
}

func TestReadStrictCollision(t *testing.T) {
	s := newTestStore(t)
	s.StrictKeys = true
	writeRaw(t, s.PathFor("en"), `{"a_b": "x", "a.b": "y"}`)

	_, err := s.Read("en")
	assert.ErrorIs(t, err, labeltree.ErrKeyCollision)
}

func TestReadAllKeepsOrder(t *testing.T) {
	s := newTestStore(t)
	writeRaw(t, s.PathFor("uk"), `{"hello": "Привіт"}`)
	writeRaw(t, s.PathFor("en"), `{"hello": "Hello"}`)

	recs, err := s.ReadAll([]string{"uk", "en", "fr"})
	require.NoError(t, err)
	var codes []string
	for _, r := range recs {
		codes = append(codes, r.Code)
	}
	assert.Equal(t, []string{"uk", "en", "fr"}, codes)
	v, _ := recs[0].Flat.Get("hello")
	assert.Equal(t, "Привіт", v.Text)
}

func TestWriteCreatesDirectories(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Read("en")
	require.NoError(t, err)
	rec.Tree.SetLeaf("hello", labeltree.String("Hello"))

	require.NoError(t, s.Write(rec))
	assert.True(t, rec.Exists)

	data, err := os.ReadFile(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"hello\": \"Hello\"\n}\n", string(data))
}

func TestWriteFileRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "en.json")
	require.NoError(t, os.Mkdir(target, 0755))

	err := WriteFile(target, []byte("{}\n"))
	require.ErrorIs(t, err, ErrNotRegularFile)
	assert.EqualError(t, err, "path ["+target+"] already exists and is not a file")
}
