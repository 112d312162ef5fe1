package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
)

// TerraConfig configures the TerraPrint (LibreTranslate) engine.
type TerraConfig struct {
	// Endpoint of the translate API.
	Endpoint string
	APIKey   string
	// FromLangCode is the source language used when the caller gives none.
	// "auto" asks the service to detect it.
	FromLangCode string
	UserAgent    string
}

const terraDefaultEndpoint = "https://translate.terraprint.co/translate"

// Languages served by TerraPrint.
var terraLanguages = map[string]string{
	"en": "English", "ar": "Arabic", "az": "Azerbaijani", "zh": "Chinese",
	"cs": "Czech", "nl": "Dutch", "eo": "Esperanto", "fi": "Finnish",
	"fr": "French", "de": "German", "el": "Greek", "hi": "Hindi",
	"hu": "Hungarian", "id": "Indonesian", "ga": "Irish", "it": "Italian",
	"ja": "Japanese", "ko": "Korean", "fa": "Persian", "pl": "Polish",
	"pt": "Portuguese", "ru": "Russian", "sk": "Slovak", "es": "Spanish",
	"sv": "Swedish", "tr": "Turkish", "uk": "Ukrainian", "vi": "Vietnamese",
}

type terraProvider struct {
	endpoint string
	cfg      TerraConfig
	ua       string
	http     *retrier
}

func newTerra(cfg Config) *terraProvider {
	endpoint := cfg.Terra.Endpoint
	if endpoint == "" {
		endpoint = terraDefaultEndpoint
	}
	return &terraProvider{
		endpoint: endpoint,
		cfg:      cfg.Terra,
		ua:       cfg.userAgent(cfg.Terra.UserAgent),
		http: &retrier{
			name:       "terra",
			client:     makeHTTPClient(cfg.Proxy, cfg.effectiveTimeout()),
			maxRetries: cfg.effectiveMaxRetries(),
			log:        cfg.logger(),
		},
	}
}

func (t *terraProvider) Name() string { return EngineTerra.String() }

// terraLangCode resolves a code case-insensitively, falling back to the
// base language ("pt-BR" -> "pt").
func terraLangCode(code string) (string, bool) {
	code = strings.ToLower(code)
	if _, ok := terraLanguages[code]; ok {
		return code, true
	}
	if base, _, ok := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-"); ok {
		if _, ok := terraLanguages[base]; ok {
			return base, true
		}
	}
	return "", false
}

func (t *terraProvider) TranslateText(ctx context.Context, text, from, to string) (string, error) {
	text, err := checkText(text)
	if err != nil {
		return "", err
	}
	target, ok := terraLangCode(to)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, to)
	}

	if from == "" {
		from = t.cfg.FromLangCode
	}
	var source string
	switch {
	case from == "":
		return "", fmt.Errorf("%w: source language is required", ErrUnsupportedLanguage)
	case from == "auto":
		source = from
	default:
		if source, ok = terraLangCode(from); !ok {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, from)
		}
	}

	fields := [][2]string{
		{"q", text},
		{"target", target},
		{"format", "text"},
		{"source", source},
	}
	if t.cfg.APIKey != "" {
		fields = append(fields, [2]string{"api_key", t.cfg.APIKey})
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("building terra request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building terra request: %w", err)
	}
	payload := body.Bytes()

	resp, err := t.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Accept-Language", "en-US,en")
		req.Header.Set("User-Agent", t.ua)
		req.Header.Set("Referer", "https://translate.terraprint.co")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var result struct {
		TranslatedText string `json:"translatedText"`
		Error          string `json:"error"`
	}
	if err := json.Unmarshal(resp.body, &result); err != nil && resp.status == http.StatusOK {
		return "", fmt.Errorf("terra: invalid response: %w", err)
	}
	if resp.status != http.StatusOK {
		msg := result.Error
		if msg == "" {
			msg = truncate(string(resp.body), 300)
		}
		return "", fmt.Errorf("terra: status %d: %s", resp.status, msg)
	}
	if result.Error != "" {
		return "", fmt.Errorf("terra: %s", result.Error)
	}
	return result.TranslatedText, nil
}
