package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/minios-linux/ctv/langmeta"
)

// OpenAIConfig configures an OpenAI-compatible chat completions service.
type OpenAIConfig struct {
	// BaseURL of the API, e.g. https://api.groq.com/openai/v1 or
	// http://localhost:11434/v1 for Ollama.
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	// SystemPrompt overrides DefaultSystemPrompt. {{targetLang}} is replaced
	// with the target language name.
	SystemPrompt string
}

const (
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openAIDefaultModel   = "gpt-4o-mini"
)

// DefaultSystemPrompt is the system prompt for translating UI labels.
const DefaultSystemPrompt = `You are a professional translator specializing in software and product localization. You are translating UI labels for an application.

CONTEXT AWARENESS:
- The audience is software users
- Tone: professional yet approachable, clear and concise
- Use IT/software terminology that is standard in {{targetLang}} tech community

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in the target language, not word-for-word
- Use idiomatic expressions natural to {{targetLang}}, not literal translations
- Maintain the original tone and intent, but express it naturally in {{targetLang}}

TECHNICAL REQUIREMENTS:
- Return ONLY a JSON array of translated strings, one for each input entry, in the same order.
- Preserve all interpolation variables exactly as-is (e.g. {{count}}, {name}, %s).
- Preserve leading/trailing whitespace, newlines, and punctuation patterns.
- Keep brand names and proper nouns unchanged.
- Return ONLY the JSON array, no explanations or markdown code blocks.`

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

type openAIProvider struct {
	cfg  OpenAIConfig
	http *retrier
}

func newOpenAI(cfg Config) (*openAIProvider, error) {
	oc := cfg.OpenAI
	if oc.BaseURL == "" {
		oc.BaseURL = openAIDefaultBaseURL
	}
	oc.BaseURL = strings.TrimSuffix(oc.BaseURL, "/")
	if oc.Model == "" {
		oc.Model = openAIDefaultModel
	}
	if oc.Temperature == 0 {
		oc.Temperature = 0.3
	}
	if oc.APIKey == "" && oc.BaseURL == openAIDefaultBaseURL {
		return nil, errors.New("openai: API key is required (set openai.apiKey or CTV_OPENAI_API_KEY)")
	}
	return &openAIProvider{
		cfg: oc,
		http: &retrier{
			name:       "openai",
			client:     makeHTTPClient(cfg.Proxy, cfg.effectiveTimeout()),
			maxRetries: cfg.effectiveMaxRetries(),
			log:        cfg.logger(),
		},
	}, nil
}

func (o *openAIProvider) Name() string { return EngineOpenAI.String() }

// resolvedPrompt returns the system prompt with {{targetLang}} replaced.
func (o *openAIProvider) resolvedPrompt(to string) string {
	prompt := o.cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	return strings.ReplaceAll(prompt, "{{targetLang}}", langmeta.Resolve(to).EnglishName)
}

func (o *openAIProvider) TranslateText(ctx context.Context, text, from, to string) (string, error) {
	text, err := checkText(text)
	if err != nil {
		return "", err
	}
	if to == "" {
		return "", fmt.Errorf("%w: target language is required", ErrUnsupportedLanguage)
	}

	target := langmeta.Resolve(to)
	var user strings.Builder
	if from != "" {
		source := langmeta.Resolve(from)
		fmt.Fprintf(&user, "Translate these UI strings from %s (%s) to %s (%s):\n\n", source.EnglishName, from, target.EnglishName, to)
	} else {
		fmt.Fprintf(&user, "Translate these UI strings to %s (%s):\n\n", target.EnglishName, to)
	}
	fmt.Fprintf(&user, "1. %s\n", escapeForPrompt(text))
	user.WriteString("\nReturn a JSON array with exactly 1 translated string.")

	body, err := buildOpenAIChatRequest(o.cfg.Model, o.resolvedPrompt(to), user.String(), o.cfg.Temperature)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	endpoint := o.cfg.BaseURL + "/chat/completions"

	resp, err := o.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if o.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
		}
		return req, nil
	})
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("openai: API returned status %d: %s", resp.status, truncate(string(resp.body), 500))
	}

	content, err := extractResponseText(resp.body)
	if err != nil {
		return "", err
	}
	translations, err := parseTranslations(content, 1)
	if err != nil {
		return "", err
	}
	return translations[0], nil
}

// ---------------------------------------------------------------------------
// Request and response formats
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		Stream:      false,
	}
	return json.Marshal(req)
}

// extractResponseText tries the known response formats and returns the text.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if errObj, ok := raw["error"]; ok {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("API error: %s", msg)
			}
		}
		return "", fmt.Errorf("API error: %v", errObj)
	}

	// 1. OpenAI chat format: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	// 2. Ollama native chat format: message.content
	if message, ok := raw["message"].(map[string]any); ok {
		if content, ok := message["content"].(string); ok {
			return content, nil
		}
	}

	// 3. Simple response field (Ollama generate)
	if resp, ok := raw["response"].(string); ok {
		return resp, nil
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// parseTranslations extracts a JSON array of strings from the model output.
func parseTranslations(content string, expected int) ([]string, error) {
	content = strings.TrimSpace(content)

	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	startIdx := strings.Index(content, "[")
	endIdx := strings.LastIndex(content, "]")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var translations []string
	if err := json.Unmarshal([]byte(content), &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON array: %w\nResponse: %s", err, truncate(content, 300))
	}
	if len(translations) < expected {
		return nil, fmt.Errorf("got %d translations, expected %d", len(translations), expected)
	}
	return translations, nil
}

// escapeForPrompt prepares a string for inclusion in the prompt.
func escapeForPrompt(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return fmt.Sprintf(`"%s"`, s)
}
