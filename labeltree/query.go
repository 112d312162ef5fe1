package labeltree

import (
	"sort"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Wildcard matches any single key segment in a Query pattern.
const Wildcard = "*"

// Query returns the dotted paths of all entries matching pattern, sorted.
// A pattern is a dotted path in which any segment may be Wildcard, for
// example "menu.*.title". Matches may be leaves or objects; list elements are
// never matched individually.
func Query(t *Tree, pattern string) ([]string, error) {
	parts, err := splitPath(pattern)
	if err != nil {
		return nil, err
	}

	x := jp.R()
	for _, p := range parts {
		if p == Wildcard {
			x = x.W()
		} else {
			x = x.C(p)
		}
	}

	var out []string
	for _, loc := range x.Locate(t.ToMap(), 0) {
		if path, ok := childPath(loc); ok {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

// childPath converts a located expression of child steps into a dotted path.
func childPath(loc jp.Expr) (string, bool) {
	segs := make([]string, 0, len(loc))
	for _, frag := range loc {
		switch f := frag.(type) {
		case jp.Root:
		case jp.Child:
			segs = append(segs, string(f))
		default:
			return "", false
		}
	}
	if len(segs) == 0 {
		return "", false
	}
	return strings.Join(segs, Separator), true
}
