package labeltree

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

var (
	// ErrKeyCollision is returned in strict mode when a sanitized key lands on
	// a path that is already taken.
	ErrKeyCollision = errors.New("key collision")
	// ErrPathConflict is returned when a path would have to descend through an
	// existing leaf, or replace an object with a leaf.
	ErrPathConflict = errors.New("path conflict")
)

// FlatMap is an insertion-ordered mapping from dotted label path to leaf.
type FlatMap struct {
	keys   []string
	values map[string]Value
}

// NewFlatMap returns an empty flat map.
func NewFlatMap() *FlatMap {
	return &FlatMap{values: make(map[string]Value)}
}

// Len returns the number of labels.
func (m *FlatMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the label paths in insertion order.
func (m *FlatMap) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Has reports whether label is present.
func (m *FlatMap) Has(label string) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[label]
	return ok
}

// Get returns the leaf stored under label.
func (m *FlatMap) Get(label string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[label]
	return v, ok
}

// Set stores v under label. New labels are appended; existing labels keep
// their position.
func (m *FlatMap) Set(label string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[label]; !ok {
		m.keys = append(m.keys, label)
	}
	m.values[label] = v
}

// Delete removes label and reports whether it was present.
func (m *FlatMap) Delete(label string) bool {
	if !m.Has(label) {
		return false
	}
	delete(m.values, label)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == label })
	return true
}

// Clone returns a deep copy of m.
func (m *FlatMap) Clone() *FlatMap {
	out := NewFlatMap()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.values[k].Clone())
	}
	return out
}

// Missing returns the labels of src that are absent from m, in src order.
func (m *FlatMap) Missing(src *FlatMap) []string {
	var out []string
	for _, k := range src.Keys() {
		if !m.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// FlattenOptions controls Flatten.
type FlattenOptions struct {
	// StrictKeys turns a collision between a sanitized key and an existing
	// path into ErrKeyCollision instead of a warning.
	StrictKeys bool
	// Logger receives sanitization and collision warnings.
	Logger *slog.Logger
}

// Flatten converts a tree into its dotted-path view. Keys that contain the
// separator are rewritten with underscores and reported as warnings.
func Flatten(t *Tree, opts FlattenOptions) (*FlatMap, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	out := NewFlatMap()
	if err := flattenInto(out, t, "", opts.StrictKeys, log); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out *FlatMap, t *Tree, prefix string, strict bool, log *slog.Logger) error {
	if t == nil {
		return nil
	}
	for _, key := range t.keys {
		name := key
		if strings.Contains(name, Separator) {
			name = strings.ReplaceAll(name, Separator, "_")
			log.Warn("label key contains dots, this is unsupported", "key", key, "rewritten", name)
		}

		path := name
		if prefix != "" {
			path = prefix + Separator + name
		}

		// Paths can only collide after sanitization: object keys are unique.
		switch v := t.values[key].(type) {
		case Value:
			if strict && hasPrefix(out, path) {
				return fmt.Errorf("%w: %q", ErrKeyCollision, path)
			}
			if out.Has(path) {
				log.Warn("label path collision, later value wins", "path", path)
			}
			out.Set(path, v.Clone())
		case *Tree:
			if strict && out.Has(path) {
				return fmt.Errorf("%w: %q", ErrKeyCollision, path)
			}
			if err := flattenInto(out, v, path, strict, log); err != nil {
				return err
			}
		}
	}
	return nil
}

func hasPrefix(m *FlatMap, path string) bool {
	if m.Has(path) {
		return true
	}
	for _, k := range m.keys {
		if strings.HasPrefix(k, path+Separator) {
			return true
		}
	}
	return false
}

// Nest converts a flat map back into a tree.
func Nest(m *FlatMap) (*Tree, error) {
	t := NewTree()
	if err := Merge(t, m); err != nil {
		return nil, err
	}
	return t, nil
}

// Merge writes every entry of m into t, creating intermediate objects as
// needed. Existing leaves with the same path are overwritten.
func Merge(t *Tree, m *FlatMap) error {
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if err := SetPath(t, k, v); err != nil {
			return err
		}
	}
	return nil
}
