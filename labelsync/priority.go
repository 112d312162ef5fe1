package labelsync

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoLanguages is returned when no language is configured.
	ErrNoLanguages = errors.New("no languages configured")
	// ErrDuplicateLanguage is returned when a code is configured twice.
	ErrDuplicateLanguage = errors.New("language configured more than once")
)

// Priority maps each configured language code to its rank: its position in
// the configuration. Lower ranks are consulted first as translation sources.
type Priority map[string]int

// BuildPriority ranks languages by configuration order.
func BuildPriority(languages []string) (Priority, error) {
	if len(languages) == 0 {
		return nil, ErrNoLanguages
	}
	p := make(Priority, len(languages))
	for i, code := range languages {
		if _, dup := p[code]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLanguage, code)
		}
		p[code] = i
	}
	return p, nil
}

// Rank returns the rank of code.
func (p Priority) Rank(code string) (int, bool) {
	r, ok := p[code]
	return r, ok
}

// Sources returns every ranked language except target, lowest rank first.
func (p Priority) Sources(target string) []string {
	out := make([]string, 0, len(p))
	for code := range p {
		if code != target {
			out = append(out, code)
		}
	}
	sort.Slice(out, func(i, j int) bool { return p[out[i]] < p[out[j]] })
	return out
}
