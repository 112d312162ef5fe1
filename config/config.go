// Package config holds the ctv project configuration.
//
// The configuration lives in the project root, in one of the files listed in
// FileNames. Values present in the file are decoded over Defaults(), then
// CTV_* environment variables override them. Validation happens before any
// language file is touched.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"golang.org/x/text/language"

	"github.com/minios-linux/ctv/enumgen"
	"github.com/minios-linux/ctv/labelsync"
	"github.com/minios-linux/ctv/translate"
)

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// Config is the top-level configuration document.
type Config struct {
	// BasePath is the directory holding one {code}.json file per language.
	BasePath string `json:"basePath" yaml:"basePath" toml:"basePath" env:"BASE_PATH"`
	// BasePathEnum is the path of the generated label enumeration.
	BasePathEnum string `json:"basePathEnum" yaml:"basePathEnum" toml:"basePathEnum" env:"BASE_PATH_ENUM"`
	// Engine selects the translation engine: bing, terra or openai.
	Engine string `json:"engine" yaml:"engine" toml:"engine" env:"ENGINE"`
	// EngineUseCache persists translations in the cache directory.
	EngineUseCache bool `json:"engineUseCache" yaml:"engineUseCache" toml:"engineUseCache" env:"ENGINE_USE_CACHE"`
	// CacheLegacyKeys keys the cache on target language only, sharing
	// entries across source languages.
	CacheLegacyKeys bool `json:"cacheLegacyKeys,omitempty" yaml:"cacheLegacyKeys,omitempty" toml:"cacheLegacyKeys,omitempty" env:"CACHE_LEGACY_KEYS"`
	// CacheDir overrides the user cache directory.
	CacheDir string `json:"cacheDir,omitempty" yaml:"cacheDir,omitempty" toml:"cacheDir,omitempty" env:"CACHE_DIR"`
	// StrictKeys rejects documents whose nested and dotted keys collide.
	StrictKeys bool `json:"strictKeys,omitempty" yaml:"strictKeys,omitempty" toml:"strictKeys,omitempty" env:"STRICT_KEYS"`
	// EnumFormat is ts (default) or go.
	EnumFormat string `json:"enumFormat,omitempty" yaml:"enumFormat,omitempty" toml:"enumFormat,omitempty" env:"ENUM_FORMAT"`
	// EnumPackage is the package of a generated Go enumeration.
	EnumPackage string `json:"enumPackage,omitempty" yaml:"enumPackage,omitempty" toml:"enumPackage,omitempty" env:"ENUM_PACKAGE"`
	// LabelValidation is the pattern every new label must match.
	LabelValidation string `json:"labelValidation" yaml:"labelValidation" toml:"labelValidation" env:"LABEL_VALIDATION"`
	// LangCodeDefault is used when a command is given no language.
	LangCodeDefault string `json:"langCodeDefault" yaml:"langCodeDefault" toml:"langCodeDefault" env:"LANG_CODE_DEFAULT"`
	// Languages in priority order.
	Languages []string `json:"languages" yaml:"languages" toml:"languages" env:"LANGUAGES" envSeparator:","`
	// NameEnum is the base name of the generated types.
	NameEnum string `json:"nameEnum" yaml:"nameEnum" toml:"nameEnum" env:"NAME_ENUM"`
	UserAgent string `json:"userAgent" yaml:"userAgent" toml:"userAgent" env:"USER_AGENT"`
	// Proxy is an optional HTTP proxy URL for translation requests.
	Proxy string `json:"proxy,omitempty" yaml:"proxy,omitempty" toml:"proxy,omitempty" env:"PROXY"`

	Bing   Bing   `json:"bing" yaml:"bing" toml:"bing" envPrefix:"BING_"`
	Terra  *Terra `json:"terra,omitempty" yaml:"terra,omitempty" toml:"terra,omitempty" envPrefix:"TERRA_"`
	OpenAI OpenAI `json:"openai,omitempty" yaml:"openai,omitempty" toml:"openai,omitempty" envPrefix:"OPENAI_"`

	// Path is the file the configuration was read from; empty for defaults.
	Path string `json:"-" yaml:"-" toml:"-"`

	labelRe *regexp.Regexp
}

// Bing configures the Bing translator.
type Bing struct {
	Correct   bool   `json:"correct" yaml:"correct" toml:"correct" env:"CORRECT"`
	Raw       bool   `json:"raw" yaml:"raw" toml:"raw" env:"RAW"`
	UserAgent string `json:"userAgent" yaml:"userAgent" toml:"userAgent" env:"USER_AGENT"`
	BaseURL   string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" toml:"baseUrl,omitempty" env:"BASE_URL"`
}

// Terra configures the TerraPrint translator.
type Terra struct {
	APIKey       string `json:"apiKey" yaml:"apiKey" toml:"apiKey" env:"API_KEY"`
	FromLangCode string `json:"fromLangCode" yaml:"fromLangCode" toml:"fromLangCode" env:"FROM_LANG_CODE"`
	ToLangCode   string `json:"toLangCode" yaml:"toLangCode" toml:"toLangCode" env:"TO_LANG_CODE"`
	UserAgent    string `json:"userAgent" yaml:"userAgent" toml:"userAgent" env:"USER_AGENT"`
	Endpoint     string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty" env:"ENDPOINT"`
}

// OpenAI configures an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	APIKey       string  `json:"apiKey,omitempty" yaml:"apiKey,omitempty" toml:"apiKey,omitempty" env:"API_KEY"`
	BaseURL      string  `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" toml:"baseUrl,omitempty" env:"BASE_URL"`
	Model        string  `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty" env:"MODEL"`
	Temperature  float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" toml:"temperature,omitempty" env:"TEMPERATURE"`
	SystemPrompt string  `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty" toml:"systemPrompt,omitempty" env:"SYSTEM_PROMPT"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

const (
	DefaultLangCode        = "en"
	DefaultLabelValidation = `^[a-z0-9\.\-\_]{3,100}$`
)

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		BasePath:        "dist/i18n",
		BasePathEnum:    "dist/i18n/language.ts",
		Engine:          translate.EngineBing.String(),
		LabelValidation: DefaultLabelValidation,
		LangCodeDefault: DefaultLangCode,
		Languages:       []string{DefaultLangCode},
		NameEnum:        "LanguageLabel",
		UserAgent:       translate.DefaultUserAgent,
		Bing: Bing{
			UserAgent: translate.DefaultUserAgent,
		},
		Terra: &Terra{
			FromLangCode: "auto",
			ToLangCode:   "uk",
			UserAgent:    translate.DefaultUserAgent,
		},
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

var (
	// ErrUnknownLanguage is returned for a language code missing from
	// Languages.
	ErrUnknownLanguage = errors.New("the specified language code does not exist in the settings")
	// ErrInvalidLabel is returned for a label rejected by LabelValidation.
	ErrInvalidLabel = errors.New("label name is not correct")
)

// Validate checks the configuration. Every error names the source file.
func (c *Config) Validate() error {
	src := c.source()

	if _, err := labelsync.BuildPriority(c.Languages); err != nil {
		return fmt.Errorf("%s: languages: %w", src, err)
	}
	for _, code := range c.Languages {
		if _, err := language.Parse(code); err != nil {
			return fmt.Errorf("%s: language %q is not a valid BCP 47 tag: %w", src, code, err)
		}
	}

	re, err := regexp.Compile(c.LabelValidation)
	if err != nil {
		return fmt.Errorf("%s: labelValidation: %w", src, err)
	}
	c.labelRe = re

	if _, err := translate.ParseEngine(c.Engine); err != nil {
		return fmt.Errorf("%s: engine: %w", src, err)
	}
	if _, err := enumgen.ParseFormat(c.EnumFormat); err != nil {
		return fmt.Errorf("%s: enumFormat: %w", src, err)
	}
	if c.BasePath == "" {
		return fmt.Errorf("%s: basePath is empty", src)
	}
	return nil
}

func (c *Config) source() string {
	if c.Path == "" {
		return "default configuration"
	}
	return c.Path
}

// ValidLabel reports whether label matches LabelValidation.
func (c *Config) ValidLabel(label string) bool {
	if c.labelRe == nil {
		re, err := regexp.Compile(c.LabelValidation)
		if err != nil {
			return false
		}
		c.labelRe = re
	}
	return c.labelRe.MatchString(label)
}

// CheckLabel returns ErrInvalidLabel when label does not validate.
func (c *Config) CheckLabel(label string) error {
	if !c.ValidLabel(label) {
		return fmt.Errorf("%w: %q does not match %s", ErrInvalidLabel, label, c.LabelValidation)
	}
	return nil
}

// LangCode resolves the language a command works on: code when given,
// otherwise LangCodeDefault. The result must be a configured language.
func (c *Config) LangCode(code string) (string, error) {
	if len(c.Languages) == 0 {
		return "", labelsync.ErrNoLanguages
	}
	if code == "" {
		code = c.LangCodeDefault
	}
	if code == "" {
		return c.Languages[0], nil
	}
	if !slices.Contains(c.Languages, code) {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	return code, nil
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

// EngineKind returns the parsed Engine.
func (c *Config) EngineKind() (translate.Engine, error) {
	return translate.ParseEngine(c.Engine)
}

// EnumOptions returns the generator options for the label enumeration.
func (c *Config) EnumOptions() enumgen.Options {
	format, _ := enumgen.ParseFormat(c.EnumFormat)
	return enumgen.Options{
		Name:    c.NameEnum,
		Format:  format,
		Package: c.EnumPackage,
	}
}

// TranslateConfig returns the provider configuration.
func (c *Config) TranslateConfig() translate.Config {
	tc := translate.Config{
		UserAgent: c.UserAgent,
		Proxy:     c.Proxy,
		Bing: translate.BingConfig{
			BaseURL:   c.Bing.BaseURL,
			UserAgent: c.Bing.UserAgent,
		},
		OpenAI: translate.OpenAIConfig{
			BaseURL:      c.OpenAI.BaseURL,
			APIKey:       c.OpenAI.APIKey,
			Model:        c.OpenAI.Model,
			Temperature:  c.OpenAI.Temperature,
			SystemPrompt: c.OpenAI.SystemPrompt,
		},
	}
	if c.Terra != nil {
		tc.Terra = translate.TerraConfig{
			Endpoint:     c.Terra.Endpoint,
			APIKey:       c.Terra.APIKey,
			FromLangCode: c.Terra.FromLangCode,
			UserAgent:    c.Terra.UserAgent,
		}
	}
	return tc
}
