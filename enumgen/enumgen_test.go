package enumgen

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/ctv/store"
)

func TestEmitTypeScript(t *testing.T) {
	got, err := Emit([]string{"hello", "date.month.april", "hello"}, []string{"en", "uk"}, Options{})
	require.NoError(t, err)

	want := `/* eslint-disable */
/**
 * DO NOT EDIT!
 * THIS IS AUTOMATICALLY GENERATED FILE
 * run ctv label sync
 */

export enum ELanguageLabel {
  EN = 'en',
  UK = 'uk',
}

export type TLanguageLabel = 'date.month.april'
  | 'hello';

export type TLanguageLabelOrString  = TLanguageLabel | string;
export type TLanguageLabelOrNever  = TLanguageLabel | never;
`
	assert.Equal(t, want, string(got))
}

func TestEmitTypeScriptEmptyKeys(t *testing.T) {
	got, err := Emit(nil, []string{"en"}, Options{Name: "Label"})
	require.NoError(t, err)
	assert.Contains(t, string(got), "export type TLabel = never;\n")
	assert.Contains(t, string(got), "export enum ELabel {\n  EN = 'en',\n}")
}

func TestEmitIsDeterministic(t *testing.T) {
	a, err := Emit([]string{"b", "a", "c"}, []string{"en", "pt-BR"}, Options{})
	require.NoError(t, err)
	b, err := Emit([]string{"c", "b", "a", "a"}, []string{"en", "pt-BR"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Contains(t, string(a), "  PT_BR = 'pt-BR',\n")
}

func TestEmitEscapesQuotes(t *testing.T) {
	got, err := Emit([]string{"it's"}, []string{"en"}, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(got), `'it\'s'`)
}

func TestEmitGo(t *testing.T) {
	got, err := Emit([]string{"hello", "bye"}, []string{"en", "pt-BR"}, Options{Format: FormatGo, Package: "labels"})
	require.NoError(t, err)
	src := string(got)

	_, err = parser.ParseFile(token.NewFileSet(), "labels.go", got, parser.ParseComments)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(src, "// Code generated by ctv label sync. DO NOT EDIT.\n"))
	assert.Contains(t, src, "package labels\n")
	assert.Contains(t, src, `LanguagePT_BR Language = "pt-BR"`)
	assert.Contains(t, src, "var Languages = []Language{LanguageEN, LanguagePT_BR}")
	assert.Less(t, strings.Index(src, `"bye",`), strings.Index(src, `"hello",`))
	assert.Contains(t, src, "func IsLanguageLabel(s string) bool {")
}

func TestEmitGoEmptyKeys(t *testing.T) {
	got, err := Emit(nil, []string{"en"}, Options{Format: FormatGo})
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), "labels.go", got, 0)
	require.NoError(t, err)
	assert.Contains(t, string(got), "package languagelabel\n")
}

func TestIdentifier(t *testing.T) {
	cases := map[string]string{
		"en":         "EN",
		"pt-BR":      "PT_BR",
		"zh-Hans":    "ZH_HANS",
		"sr_Latn":    "SR_LATN",
		"419":        "_419",
		"":           "_",
		"es-419.x":   "ES_419_X",
		"uk":         "UK",
		"fil":        "FIL",
		"de-CH-1901": "DE_CH_1901",
	}
	for in, want := range cases {
		assert.Equal(t, want, Identifier(in), "Identifier(%q)", in)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTS, f)

	f, err = ParseFormat("GO")
	require.NoError(t, err)
	assert.Equal(t, FormatGo, f)

	_, err = ParseFormat("rust")
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dist", "i18n", "language.ts")

	require.NoError(t, WriteFile(path, []byte("first")))
	require.NoError(t, WriteFile(path, []byte("second")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	require.ErrorIs(t, WriteFile(dir, []byte("x")), store.ErrNotRegularFile)
}
