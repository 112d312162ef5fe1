package labeltree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPath is returned for empty paths or paths with empty segments.
	ErrInvalidPath = errors.New("invalid label path")
	// ErrNotString is returned when a string operation targets a list leaf or
	// an object.
	ErrNotString = errors.New("label is not a string")
)

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	parts := strings.Split(path, Separator)
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return parts, nil
}

// GetPath returns the entry at a dotted path: a Value or a *Tree.
func GetPath(t *Tree, path string) (any, bool) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, false
	}
	cur := t
	for _, p := range parts[:len(parts)-1] {
		child, ok := cur.Child(p)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur.Get(parts[len(parts)-1])
}

// SetPath stores a leaf at a dotted path, creating intermediate objects.
// Descending through a leaf, or replacing an object with a leaf, fails with
// ErrPathConflict.
func SetPath(t *Tree, path string, v Value) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}
	cur := t
	for i, p := range parts[:len(parts)-1] {
		entry, ok := cur.Get(p)
		if !ok {
			child := NewTree()
			cur.SetChild(p, child)
			cur = child
			continue
		}
		child, ok := entry.(*Tree)
		if !ok {
			return fmt.Errorf("%w: %q is a leaf", ErrPathConflict, strings.Join(parts[:i+1], Separator))
		}
		cur = child
	}
	last := parts[len(parts)-1]
	if _, ok := cur.Child(last); ok {
		return fmt.Errorf("%w: %q is an object", ErrPathConflict, path)
	}
	cur.SetLeaf(last, v)
	return nil
}

// DeletePath removes the entry at a dotted path, leaf or subtree. Objects
// left empty by the removal are pruned. It reports whether anything was
// removed.
func DeletePath(t *Tree, path string) bool {
	parts, err := splitPath(path)
	if err != nil {
		return false
	}
	return deleteParts(t, parts)
}

func deleteParts(t *Tree, parts []string) bool {
	if len(parts) == 1 {
		return t.Delete(parts[0])
	}
	child, ok := t.Child(parts[0])
	if !ok {
		return false
	}
	if !deleteParts(child, parts[1:]) {
		return false
	}
	if child.Len() == 0 {
		t.Delete(parts[0])
	}
	return true
}

// ReplacePath overwrites an existing string leaf.
func ReplacePath(t *Tree, path, text string) error {
	entry, ok := GetPath(t, path)
	if !ok {
		return fmt.Errorf("%w: %q not found", ErrInvalidPath, path)
	}
	leaf, ok := entry.(Value)
	if !ok || leaf.IsList() {
		return fmt.Errorf("%w: %q", ErrNotString, path)
	}
	return SetPath(t, path, String(text))
}
