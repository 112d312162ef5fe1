package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	require.NoError(t, err, "ctv %s", strings.Join(args, " "))
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestConfigFileName(t *testing.T) {
	tests := map[string]string{
		"":     ".ctv.config.json",
		"JSON": ".ctv.config.json",
		"yml":  ".ctv.yaml",
		"toml": ".ctv.toml",
	}
	for format, want := range tests {
		got, err := configFileName(format)
		require.NoError(t, err, "configFileName(%q)", format)
		assert.Equal(t, want, got, "configFileName(%q)", format)
	}
	_, err := configFileName("ini")
	assert.Error(t, err)
}

func TestCheckTranslation(t *testing.T) {
	assert.NoError(t, checkTranslation("Hello"))
	assert.Error(t, checkTranslation("   "))
	assert.NoError(t, checkTranslation(strings.Repeat("я", maxTranslationLen)))
	assert.Error(t, checkTranslation(strings.Repeat("a", maxTranslationLen+1)))
}

func TestResolvePath(t *testing.T) {
	old := rootDir
	t.Cleanup(func() { rootDir = old })
	rootDir = "/srv/app"

	assert.Equal(t, filepath.Join("/srv/app", "dist/i18n"), resolvePath("dist/i18n"))
	assert.Equal(t, "/tmp/x.csv", resolvePath("/tmp/x.csv"))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Empty(t, firstNonEmpty())
}

func TestVersionCommand(t *testing.T) {
	out := mustRun(t, "version")
	assert.True(t, strings.HasPrefix(out, "ctv version dev\n"), "version output = %q", out)
}

func TestCommandsRequireConfiguration(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "--root", dir, "label", "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ctv init")
}

func TestLabelWorkflow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	mustRun(t, "--root", dir, "init")
	cfgPath := filepath.Join(dir, ".ctv.config.json")
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, cfgPath)), &cfg), "init wrote invalid JSON")
	cfg["languages"] = []string{"en", "uk"}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, data, 0644))

	i18nDir := filepath.Join(dir, "dist", "i18n")
	enPath := filepath.Join(i18nDir, "en.json")
	ukPath := filepath.Join(i18nDir, "uk.json")

	t.Run("add copies the label to other languages", func(t *testing.T) {
		mustRun(t, "--root", dir, "label", "add", "hello.world", "-f", "en", "-t", "Hello", "--no-auto-translate")

		assert.Equal(t, "{\n  \"hello\": {\n    \"world\": \"Hello\"\n  }\n}\n", readFile(t, ukPath))
		enum := readFile(t, filepath.Join(i18nDir, "language.ts"))
		assert.Contains(t, enum, "export type TLanguageLabel = 'hello.world';")
	})

	t.Run("add rejects invalid labels", func(t *testing.T) {
		_, err := runCLI(t, "--root", dir, "label", "add", "Bad Label", "-t", "x")
		assert.Error(t, err, "invalid label accepted")
		_, err = runCLI(t, "--root", dir, "label", "add", "good.label", "-f", "de", "-t", "x")
		assert.Error(t, err, "unknown language accepted")
	})

	t.Run("replace", func(t *testing.T) {
		mustRun(t, "--root", dir, "label", "replace", "hello.world", "-f", "uk", "-t", "Привіт")
		assert.Contains(t, readFile(t, ukPath), "\"world\": \"Привіт\"")

		_, err := runCLI(t, "--root", dir, "label", "replace", "missing.label", "-t", "x")
		assert.Error(t, err, "replace of a missing label")
	})

	t.Run("get json", func(t *testing.T) {
		out := mustRun(t, "--root", dir, "label", "get", "hello", "--json")
		var rows []labelRow
		require.NoError(t, json.Unmarshal([]byte(out), &rows), "output %q", out)
		require.Len(t, rows, 2)
		assert.Equal(t, "en", rows[0].Code)
		assert.Equal(t, "Привіт", rows[1].Trans)
	})

	t.Run("export csv", func(t *testing.T) {
		mustRun(t, "--root", dir, "export", "csv", "-o", "out.csv")
		want := "label,en,en_new,uk,uk_new\nhello.world,Hello,,Привіт,\n"
		assert.Equal(t, want, readFile(t, filepath.Join(dir, "out.csv")))
	})

	t.Run("delete", func(t *testing.T) {
		out := mustRun(t, "--root", dir, "label", "delete", "hello")
		assert.Contains(t, out, "hello.world")
		assert.Equal(t, "{}\n", readFile(t, enPath))
		enum := readFile(t, filepath.Join(i18nDir, "language.ts"))
		assert.Contains(t, enum, "export type TLanguageLabel = never;")
	})
}

func TestCacheCommand(t *testing.T) {
	dir := t.TempDir()
	cacheDir := t.TempDir()
	t.Setenv("CTV_CACHE_DIR", cacheDir)

	out := mustRun(t, "--root", dir, "cache", "--clear")
	assert.Contains(t, out, filepath.Join(cacheDir, "translate-engine.json"))
	assert.Contains(t, out, "0KB")
	assert.Equal(t, "{}\n", readFile(t, filepath.Join(cacheDir, "translate-engine.json")))
}

func TestLangFlagSelectsMessageLanguage(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CTV_CACHE_DIR", t.TempDir())
	t.Setenv("CTV_LANG", "")
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "de_DE.UTF-8")

	out := mustRun(t, "--root", dir, "cache")
	assert.Contains(t, out, "Size:")

	out = mustRun(t, "--root", dir, "--lang", "uk", "cache")
	assert.Contains(t, out, "Розмір:")

	t.Setenv("CTV_LANG", "uk")
	out = mustRun(t, "--root", dir, "--lang", "en", "cache")
	assert.Contains(t, out, "Size:")
}
