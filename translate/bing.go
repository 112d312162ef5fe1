package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
)

// BingConfig configures the Bing Translator engine.
type BingConfig struct {
	// BaseURL of the translator site. The host reached after redirects is
	// used for the translation requests.
	BaseURL   string
	UserAgent string
}

const (
	bingDefaultBaseURL = "https://www.bing.com"
	bingMaxTextLen     = 1000
	bingMaxEPTTextLen  = 3000
	bingAutoDetect     = "auto-detect"
)

var (
	// ErrCaptcha is returned when Bing asks for a captcha.
	ErrCaptcha = errors.New("bing translator is asking for a captcha, please do not request too frequently")
	// ErrLimitExceeded is returned when the translation quota is exhausted.
	ErrLimitExceeded = errors.New("translation limit exceeded, please try again later")
)

var (
	bingIGPattern    = regexp.MustCompile(`IG:"([^"]+)"`)
	bingIIDPattern   = regexp.MustCompile(`data-iid="([^"]+)"`)
	bingTokenPattern = regexp.MustCompile(`params_AbusePreventionHelper\s?=\s?([^\]]+])`)
)

// Languages accepted by the EPT endpoint, which allows longer texts.
var bingEPTLanguages = []string{
	"af", "am", "ar", "az", "bg", "bn", "bs", "ca", "cs", "cy", "da", "de", "el", "en", "es", "et",
	"fa", "fi", "fil", "fr", "ga", "gu", "he", "hi", "hr", "ht", "hu", "hy", "id", "is", "it", "iu",
	"ja", "kk", "km", "kn", "ko", "ku", "lo", "lt", "lv", "mg", "mi", "ml", "mr", "ms", "mt", "my",
	"nb", "ne", "nl", "or", "pa", "pl", "prs", "ps", "pt", "pt-PT", "ro", "ru", "sk", "sl", "sm", "sq",
	"sr-Cyrl", "sr-Latn", "sv", "sw", "ta", "te", "th", "to", "tr", "uk", "ur", "vi", "zh-Hans", "zh-Hant",
}

// Codes that Bing spells differently from BCP 47.
var bingAliases = map[string]string{
	"zh":    "zh-Hans",
	"zh-cn": "zh-Hans",
	"zh-sg": "zh-Hans",
	"zh-tw": "zh-Hant",
	"zh-hk": "zh-Hant",
	"no":    "nb",
	"tl":    "fil",
	"sr":    "sr-Cyrl",
	"pt-br": "pt",
	"iw":    "he",
}

// bingSession holds the values scraped from the translator page.
type bingSession struct {
	base   string
	ig     string
	iid    string
	key    int64
	token  string
	expiry time.Duration
	count  int
}

func (s *bingSession) expired(now time.Time) bool {
	return now.Sub(time.UnixMilli(s.key)) > s.expiry
}

type bingProvider struct {
	base string
	ua   string
	http *retrier
	now  func() time.Time

	mu      sync.Mutex
	session *bingSession
}

func newBing(cfg Config) *bingProvider {
	base := cfg.Bing.BaseURL
	if base == "" {
		base = bingDefaultBaseURL
	}
	return &bingProvider{
		base: strings.TrimSuffix(base, "/"),
		ua:   cfg.userAgent(cfg.Bing.UserAgent),
		http: &retrier{
			name:       "bing",
			client:     makeHTTPClient(cfg.Proxy, cfg.effectiveTimeout()),
			maxRetries: cfg.effectiveMaxRetries(),
			log:        cfg.logger(),
		},
		now: time.Now,
	}
}

func (b *bingProvider) Name() string { return EngineBing.String() }

// bingLangCode maps a language code to Bing's spelling. An empty source
// means auto-detection.
func bingLangCode(code string, source bool) (string, error) {
	if code == "" || code == "auto" || code == bingAutoDetect {
		if source {
			return bingAutoDetect, nil
		}
		return "", fmt.Errorf("%w: target language is required", ErrUnsupportedLanguage)
	}
	if alias, ok := bingAliases[strings.ToLower(code)]; ok {
		return alias, nil
	}
	if _, err := language.Parse(code); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return code, nil
}

func (b *bingProvider) TranslateText(ctx context.Context, text, from, to string) (string, error) {
	text, err := checkText(text)
	if err != nil {
		return "", err
	}
	fromCode, err := bingLangCode(from, true)
	if err != nil {
		return "", err
	}
	toCode, err := bingLangCode(to, false)
	if err != nil {
		return "", err
	}

	length := utf8.RuneCountInString(text)
	useEPT := length <= bingMaxEPTTextLen && bingEPTSupported(fromCode) && bingEPTSupported(toCode)
	if !useEPT && length > bingMaxTextLen {
		return "", fmt.Errorf("%w: %d characters, maximum is %d", ErrTextTooLong, length, bingMaxTextLen)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil || b.session.expired(b.now()) {
		s, err := b.fetchSession(ctx)
		if err != nil {
			return "", err
		}
		b.session = s
	}

	endpoint := b.translateURL(useEPT)
	form := url.Values{
		"fromLang": {fromCode},
		"to":       {toCode},
		"text":     {text},
		"token":    {b.session.token},
		"key":      {strconv.FormatInt(b.session.key, 10)},
		"tryFetchingGenderDebiasedTranslations": {"true"},
	}

	resp, err := b.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", b.ua)
		req.Header.Set("Referer", b.session.base+"/translator")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	translated, err := parseBingResponse(resp)
	if err != nil {
		return "", err
	}
	if translated == "" {
		return text, nil
	}
	return translated, nil
}

func bingEPTSupported(code string) bool {
	return code == bingAutoDetect || slices.Contains(bingEPTLanguages, code)
}

// fetchSession scrapes the translator page for the request parameters.
func (b *bingProvider) fetchSession(ctx context.Context) (*bingSession, error) {
	resp, err := b.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.base+"/translator", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", b.ua)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching bing translator page: %w", err)
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("fetching bing translator page: status %d", resp.status)
	}

	page := string(resp.body)
	s := &bingSession{base: b.base}
	if resp.url != nil {
		s.base = resp.url.Scheme + "://" + resp.url.Host
	}

	m := bingIGPattern.FindStringSubmatch(page)
	if m == nil {
		return nil, fmt.Errorf("bing translator page: missing field IG")
	}
	s.ig = m[1]
	if m = bingIIDPattern.FindStringSubmatch(page); m == nil {
		return nil, fmt.Errorf("bing translator page: missing field IID")
	}
	s.iid = m[1]
	if m = bingTokenPattern.FindStringSubmatch(page); m == nil {
		return nil, fmt.Errorf("bing translator page: missing field token")
	}

	var params []json.RawMessage
	if err := json.Unmarshal([]byte(m[1]), &params); err != nil || len(params) < 3 {
		return nil, fmt.Errorf("bing translator page: malformed abuse prevention params %q", m[1])
	}
	var expiryMs int64
	if err := json.Unmarshal(params[0], &s.key); err != nil {
		return nil, fmt.Errorf("bing translator page: key: %w", err)
	}
	if err := json.Unmarshal(params[1], &s.token); err != nil {
		return nil, fmt.Errorf("bing translator page: token: %w", err)
	}
	if err := json.Unmarshal(params[2], &expiryMs); err != nil {
		return nil, fmt.Errorf("bing translator page: expiry: %w", err)
	}
	if s.key == 0 || s.token == "" || expiryMs == 0 {
		return nil, fmt.Errorf("bing translator page: empty abuse prevention params")
	}
	s.expiry = time.Duration(expiryMs) * time.Millisecond
	return s, nil
}

func (b *bingProvider) translateURL(useEPT bool) string {
	s := b.session
	iid := s.iid
	q := url.Values{"isVertical": {"1"}, "IG": {s.ig}}
	if useEPT {
		s.count++
		iid += "." + strconv.Itoa(s.count)
		q.Set("ref", "TThis")
		q.Set("edgepdftranslator", "1")
	}
	q.Set("IID", iid)
	return s.base + "/ttranslatev3?" + q.Encode()
}

type bingTranslation struct {
	DetectedLanguage struct {
		Language string  `json:"language"`
		Score    float64 `json:"score"`
	} `json:"detectedLanguage"`
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

type bingError struct {
	ShowCaptcha bool `json:"ShowCaptcha"`
	StatusCode  int  `json:"StatusCode"`
}

func parseBingResponse(resp *response) (string, error) {
	body := strings.TrimSpace(string(resp.body))

	if strings.HasPrefix(body, "{") {
		var e bingError
		if err := json.Unmarshal([]byte(body), &e); err != nil {
			return "", fmt.Errorf("bing: invalid response (status %d): %s", resp.status, truncate(body, 300))
		}
		switch {
		case e.ShowCaptcha:
			return "", ErrCaptcha
		case e.StatusCode == http.StatusUnauthorized || resp.status == http.StatusUnauthorized:
			return "", ErrLimitExceeded
		default:
			return "", fmt.Errorf("bing: request failed (status %d): %s", resp.status, truncate(body, 300))
		}
	}
	if resp.status == http.StatusUnauthorized {
		return "", ErrLimitExceeded
	}
	if resp.status != http.StatusOK {
		return "", fmt.Errorf("bing: request failed (status %d): %s", resp.status, truncate(body, 300))
	}

	var items []bingTranslation
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return "", fmt.Errorf("bing: invalid response: %w", err)
	}
	if len(items) == 0 || len(items[0].Translations) == 0 {
		return "", nil
	}
	return items[0].Translations[0].Text, nil
}
