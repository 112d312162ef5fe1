// Package translate provides the translation engines used to fill missing
// labels: Bing Translator (web endpoint), TerraPrint (LibreTranslate API) and
// any OpenAI-compatible chat completions service (OpenAI, Groq, Ollama).
//
// Engines are selected by Engine and constructed with New. They all satisfy
// Provider, the single capability the synchronizer depends on.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Engines
// ---------------------------------------------------------------------------

// Engine identifies a translation backend.
type Engine int

const (
	EngineBing Engine = iota + 1
	EngineTerra
	EngineOpenAI
)

var engineNames = map[Engine]string{
	EngineBing:   "bing",
	EngineTerra:  "terra",
	EngineOpenAI: "openai",
}

// Engines lists every supported engine in display order.
func Engines() []Engine {
	return []Engine{EngineBing, EngineTerra, EngineOpenAI}
}

func (e Engine) String() string {
	if name, ok := engineNames[e]; ok {
		return name
	}
	return fmt.Sprintf("engine(%d)", int(e))
}

// ParseEngine resolves an engine tag such as "bing". Unknown tags fail with
// ErrUnsupportedEngine.
func ParseEngine(s string) (Engine, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for e, n := range engineNames {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedEngine, s)
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	ErrEmptyText           = errors.New("no text to translate")
	ErrTextTooLong         = errors.New("text exceeds the engine's maximum length")
	ErrUnsupportedLanguage = errors.New("language is not supported")
	ErrUnsupportedEngine   = errors.New("translation engine is not supported")
)

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

// Provider translates a single text between two language codes.
type Provider interface {
	Name() string
	TranslateText(ctx context.Context, text, from, to string) (string, error)
}

// Config holds the settings of every engine. Only the section of the
// selected engine is used.
type Config struct {
	// UserAgent sent by the web engines; DefaultUserAgent if empty.
	UserAgent string
	// Proxy is an optional HTTP/HTTPS proxy URL. HTTP_PROXY and HTTPS_PROXY
	// are honoured when empty.
	Proxy string
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// MaxRetries bounds retries on transport errors, 5xx and 429. Default: 3.
	MaxRetries int

	Bing   BingConfig
	Terra  TerraConfig
	OpenAI OpenAIConfig

	Logger *slog.Logger
}

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0"

func (c *Config) effectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 60 * time.Second
}

func (c *Config) effectiveMaxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return 3
}

func (c *Config) userAgent(override string) string {
	if override != "" {
		return override
	}
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// New constructs the provider of engine.
func New(engine Engine, cfg Config) (Provider, error) {
	switch engine {
	case EngineBing:
		return newBing(cfg), nil
	case EngineTerra:
		return newTerra(cfg), nil
	case EngineOpenAI:
		return newOpenAI(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, engine)
	}
}

// checkText trims text and rejects empty input.
func checkText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}
