package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/ctv/labelops"
	"github.com/minios-linux/ctv/labelsync"
	"github.com/minios-linux/ctv/labeltree"
	"github.com/minios-linux/ctv/store"
)

func record(t *testing.T, code, doc string) *store.Record {
	t.Helper()
	tree, err := labeltree.Parse([]byte(doc), nil)
	require.NoError(t, err)
	flat, err := labeltree.Flatten(tree, labeltree.FlattenOptions{})
	require.NoError(t, err)
	return &store.Record{Code: code, Tree: tree, Flat: flat}
}

func TestTable(t *testing.T) {
	header, rows := Table([]*store.Record{
		record(t, "en", `{"hello": "Hello", "alts": ["a", "b"]}`),
		record(t, "uk", `{"bye": "Бувай", "hello": "Привіт"}`),
	})

	assert.Equal(t, []string{"label", "en", "en_new", "uk", "uk_new"}, header)
	assert.Equal(t, [][]string{
		{"hello", "Hello", "", "Привіт", ""},
		{"alts", "a🏁b", "", "", ""},
		{"bye", "", "", "Бувай", ""},
	}, rows)
}

func TestWriteCSV(t *testing.T) {
	records := []*store.Record{record(t, "en", `{"greeting": "Hello, world", "q": "say \"hi\""}`)}

	t.Run("default dialect", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, records, CSVOptions{}))
		assert.Equal(t, "label,en,en_new\ngreeting,\"Hello, world\",\nq,\"say \"\"hi\"\"\",\n", buf.String())
	})

	t.Run("semicolon crlf bom", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, records, CSVOptions{Delimiter: ';', CRLF: true, BOM: true}))
		out := buf.String()
		assert.True(t, strings.HasPrefix(out, "\ufefflabel;en;en_new\r\n"))
		assert.Contains(t, out, "greeting;Hello, world;\r\n")
	})
}

func TestParseEOLAndDelimiter(t *testing.T) {
	crlf, err := ParseEOL("CRLF")
	require.NoError(t, err)
	assert.True(t, crlf)
	_, err = ParseEOL("cr")
	assert.Error(t, err)

	d, err := ParseDelimiter("")
	require.NoError(t, err)
	assert.Equal(t, ',', d)
	d, err = ParseDelimiter("\t")
	require.NoError(t, err)
	assert.Equal(t, '\t', d)
	_, err = ParseDelimiter(";;")
	assert.Error(t, err)
	_, err = ParseDelimiter(`"`)
	assert.Error(t, err)
}

func TestSyncTable(t *testing.T) {
	out := Sync([]labelsync.ReportRow{
		{Label: "hello", Marks: map[string]string{"en": "*", "uk": "+"}},
		{Label: "hello", Marks: map[string]string{"en": "*", "fr": "+"}},
	}, []string{"en", "fr", "uk"}, NewStyles(false))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5, out)
	assert.Contains(t, lines[1], "Label")
	assert.Contains(t, lines[3], "hello")
	assert.Equal(t, 1, strings.Count(out, "*"))
	assert.Equal(t, 2, strings.Count(out, "+"))
}

func TestDeleteTable(t *testing.T) {
	out := Delete([]labelops.DeleteRow{
		{Code: "en", Status: labelops.StatusSubtree, Labels: []string{"menu.file", "menu.edit"}},
		{Code: "uk"},
	}, NewStyles(false))

	assert.Contains(t, out, "Deleted")
	assert.Contains(t, out, "menu.file, menu.edit")
	assert.Contains(t, out, "uk")
}

func TestMatchesTable(t *testing.T) {
	out := Matches([]labelops.Match{
		{Code: "en", Label: "alts", Value: labeltree.List("a", "b")},
	}, NewStyles(false))

	assert.Contains(t, out, "Translate")
	assert.Contains(t, out, "a, b")
}
