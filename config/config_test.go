package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/ctv/enumgen"
	"github.com/minios-linux/ctv/labelsync"
	"github.com/minios-linux/ctv/store"
	"github.com/minios-linux/ctv/translate"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), `{
  "languages": ["en", "uk"],
  "engine": "terra",
  "terra": {"apiKey": "secret"}
}`)

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"en", "uk"}, cfg.Languages)
		assert.Equal(t, "terra", cfg.Engine)
		assert.Equal(t, "dist/i18n", cfg.BasePath, "default kept")
		assert.Equal(t, "LanguageLabel", cfg.NameEnum, "default kept")
		require.NotNil(t, cfg.Terra)
		assert.Equal(t, Terra{APIKey: "secret", FromLangCode: "auto", ToLangCode: "uk", UserAgent: cfg.Terra.UserAgent, Endpoint: cfg.Terra.Endpoint}, *cfg.Terra)
		assert.Equal(t, filepath.Join(dir, FileName), cfg.Path)
	})

	t.Run("yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".ctv.yaml"), "languages: [en, de]\nbasePath: i18n\nenumFormat: go\n")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "i18n", cfg.BasePath)
		assert.Equal(t, "go", cfg.EnumFormat)
		assert.Equal(t, enumgen.FormatGo, cfg.EnumOptions().Format)
		assert.Equal(t, translate.DefaultUserAgent, cfg.Bing.UserAgent, "bing user agent default lost")
	})

	t.Run("toml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".ctv.toml"), "languages = [\"en\", \"fr\"]\nengineUseCache = true\n\n[openai]\nmodel = \"llama3\"\n")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.True(t, cfg.EngineUseCache)
		assert.Equal(t, "llama3", cfg.OpenAI.Model)
	})

	t.Run("json file wins over yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".ctv.yaml"), "languages: [de]\n")
		writeFile(t, filepath.Join(dir, FileName), `{"languages": ["fr"]}`)

		assert.Equal(t, filepath.Join(dir, FileName), Find(dir))
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed file names the path", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, FileName)
		writeFile(t, path, `{"languages": `)

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("empty language list", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), `{"languages": []}`)

		_, err := Load(dir)
		assert.ErrorIs(t, err, labelsync.ErrNoLanguages)
	})
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("CTV_LANGUAGES", "en,uk")

	cfg, err := LoadOrDefault(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, []string{"en", "uk"}, cfg.Languages)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CTV_ENGINE", "openai")
	t.Setenv("CTV_ENGINE_USE_CACHE", "true")
	t.Setenv("CTV_OPENAI_API_KEY", "sk-test")
	t.Setenv("CTV_TERRA_API_KEY", "terra-key")
	t.Setenv("CTV_CACHE_DIR", "/tmp/ctv-cache")

	cfg := Defaults()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "openai", cfg.Engine)
	assert.True(t, cfg.EngineUseCache)
	assert.Equal(t, "/tmp/ctv-cache", cfg.CacheDir)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "terra-key", cfg.Terra.APIKey)
	assert.Equal(t, "dist/i18n", cfg.BasePath, "unset variables keep their values")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"duplicate language", func(c *Config) { c.Languages = []string{"en", "en"} }, "more than once"},
		{"bad tag", func(c *Config) { c.Languages = []string{"en", "not a tag"} }, "BCP 47"},
		{"bad regexp", func(c *Config) { c.LabelValidation = "([a-z" }, "labelValidation"},
		{"unknown engine", func(c *Config) { c.Engine = "google" }, "engine"},
		{"unknown enum format", func(c *Config) { c.EnumFormat = "rust" }, "enumFormat"},
		{"empty base path", func(c *Config) { c.BasePath = "" }, "basePath"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidLabel(t *testing.T) {
	cfg := Defaults()
	for label, want := range map[string]bool{
		"menu.file.open": true,
		"a_b-c":          true,
		"ab":             false,
		"Menu.File":      false,
		"with space":     false,
	} {
		assert.Equal(t, want, cfg.ValidLabel(label), "ValidLabel(%q)", label)
	}
	assert.False(t, cfg.ValidLabel(strings.Repeat("a", 101)), "101 character label accepted")
	assert.ErrorIs(t, cfg.CheckLabel("ab"), ErrInvalidLabel)
}

func TestLangCode(t *testing.T) {
	cfg := Defaults()
	cfg.Languages = []string{"en", "uk"}

	got, err := cfg.LangCode("")
	require.NoError(t, err)
	assert.Equal(t, "en", got)

	got, err = cfg.LangCode("uk")
	require.NoError(t, err)
	assert.Equal(t, "uk", got)

	_, err = cfg.LangCode("de")
	assert.ErrorIs(t, err, ErrUnknownLanguage)

	cfg.Languages = nil
	_, err = cfg.LangCode("en")
	assert.ErrorIs(t, err, labelsync.ErrNoLanguages)
}

func TestTranslateConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Proxy = "http://proxy:3128"
	cfg.Terra.APIKey = "k"
	cfg.OpenAI.Model = "m"

	tc := cfg.TranslateConfig()
	assert.Equal(t, cfg.Proxy, tc.Proxy)
	assert.Equal(t, "k", tc.Terra.APIKey)
	assert.Equal(t, "auto", tc.Terra.FromLangCode)
	assert.Equal(t, "m", tc.OpenAI.Model)

	cfg.Terra = nil
	assert.Empty(t, cfg.TranslateConfig().Terra.APIKey, "nil terra section leaked values")
}

func TestInit(t *testing.T) {
	t.Run("writes defaults without terra", func(t *testing.T) {
		dir := t.TempDir()
		path, err := Init(dir, "", false)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.NotContains(t, doc, "terra")
		assert.Equal(t, "dist/i18n", doc["basePath"])
		assert.Equal(t, "en", doc["langCodeDefault"])

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "bing", cfg.Engine)
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), `{"languages": ["fr"]}`)

		_, err := Init(dir, "", false)
		assert.ErrorIs(t, err, ErrExists)
		_, err = Init(dir, "", true)
		assert.NoError(t, err)
	})

	t.Run("rejects a directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, FileName), 0755))

		_, err := Init(dir, "", true)
		assert.ErrorIs(t, err, store.ErrNotRegularFile)
	})

	t.Run("yaml and toml round trip", func(t *testing.T) {
		for _, name := range []string{".ctv.yaml", ".ctv.toml"} {
			dir := t.TempDir()
			_, err := Init(dir, name, false)
			require.NoError(t, err, name)

			cfg, err := Load(dir)
			require.NoError(t, err, name)
			assert.Equal(t, []string{"en"}, cfg.Languages, name)
			assert.Equal(t, DefaultLabelValidation, cfg.LabelValidation, name)
		}
	})
}
