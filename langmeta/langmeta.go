// Package langmeta provides language display metadata (native and English
// names, emoji flags) used by translation prompts and CLI reports.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the canonical BCP 47 form of the requested code.
	Code string
	// Name is the language's name in itself ("Українська").
	Name string
	// EnglishName is the English name ("Ukrainian").
	EnglishName string
	// Flag is the regional-indicator flag of the language's likely region.
	Flag string
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code, accepting
// variants like pt_BR and pt-br. Unknown codes pass through as their own
// name without a flag.
func Resolve(lang string) Meta {
	code := canonicalize(lang)
	unknown := Meta{Code: lang, Name: lang, EnglishName: lang}

	tag, err := language.Parse(code)
	if err != nil {
		return unknown
	}
	name := display.Self.Name(tag)
	if name == "" {
		return unknown
	}
	english := display.English.Tags().Name(tag)
	if english == "" {
		english = name
	}

	return Meta{
		Code:        code,
		Name:        upperFirst(name),
		EnglishName: english,
		Flag:        Flag(tag),
	}
}

// Flag returns the emoji flag for the tag's region, inferring the most likely
// region when the tag has none. Non-country regions yield "".
func Flag(tag language.Tag) string {
	region, conf := tag.Region()
	if conf == language.No {
		return ""
	}
	code := region.String()
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return ""
	}
	const base = 0x1F1E6
	return string([]rune{rune(base + int(code[0]-'A')), rune(base + int(code[1]-'A'))})
}

// Label formats a language for display: "🇺🇦 Українська (uk)".
func Label(lang string) string {
	m := Resolve(lang)
	if m.Flag == "" {
		return m.Name + " (" + lang + ")"
	}
	return m.Flag + " " + m.Name + " (" + lang + ")"
}

func upperFirst(s string) string {
	for i, r := range s {
		return strings.ToUpper(string(r)) + s[i+len(string(r)):]
	}
	return s
}
