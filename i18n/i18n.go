// Package i18n translates ctv's own user-facing messages.
//
// Catalogs are gettext .po files embedded from
// locales/{lang}/LC_MESSAGES/ctv.po and read with gotext. The message
// language is chosen once per process by Init: an explicit language (the
// --lang flag), then CTV_LANG, then the gettext variables LANGUAGE, LC_ALL,
// LC_MESSAGES and LANG. The winner is matched against the embedded catalogs
// with golang.org/x/text/language, so "uk_UA.UTF-8" selects "uk" and a
// locale without a catalog keeps the English source strings.
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

//go:embed all:locales
var locales embed.FS

const domain = "ctv"

// EnvLang overrides the message language, e.g. CTV_LANG=uk.
const EnvLang = "CTV_LANG"

// Fallback is the language the messages are written in.
const Fallback = "en"

var (
	po      *gotext.Locale
	current = Fallback
)

// Init selects the message language and loads its catalog. It returns the
// selected catalog language, Fallback when none matched.
func Init(lang string) string {
	current = Match(firstNonEmpty(lang, os.Getenv(EnvLang), envLocale()))
	if current == Fallback {
		po = nil
		return current
	}
	po = gotext.NewLocaleFSWithPath(current, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
	return current
}

// Language returns the language selected by the last Init.
func Language() string {
	return current
}

// Catalogs lists the languages that have an embedded catalog, sorted.
func Catalogs() []string {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out
}

// Match maps a locale such as "uk_UA.UTF-8" or "pt-BR" to the closest
// embedded catalog. Empty, "C", "POSIX" and unmatched locales give Fallback.
func Match(locale string) string {
	locale = normalize(locale)
	if locale == "" {
		return Fallback
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Fallback
	}

	catalogs := Catalogs()
	supported := make([]language.Tag, 0, len(catalogs)+1)
	supported = append(supported, language.English)
	for _, c := range catalogs {
		supported = append(supported, language.Make(c))
	}
	_, idx, conf := language.NewMatcher(supported).Match(tag)
	if conf == language.No || idx == 0 {
		return Fallback
	}
	return catalogs[idx-1]
}

// T translates msgid. Messages missing from the catalog are returned
// unchanged.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a message with plural forms using the catalog's plural rule.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// envLocale returns the first usable gettext locale variable.
func envLocale() string {
	for _, name := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(name)
		if name == "LANGUAGE" {
			// colon separated preference list
			for _, v := range strings.Split(val, ":") {
				if normalize(v) != "" {
					return v
				}
			}
			continue
		}
		if normalize(val) != "" {
			return val
		}
	}
	return ""
}

// normalize turns a POSIX locale into a BCP 47 candidate: "uk_UA.UTF-8@x"
// becomes "uk-UA". "C" and "POSIX" mean no translation and give "".
func normalize(locale string) string {
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.TrimSpace(locale)
	if locale == "C" || locale == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(locale, "_", "-")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
