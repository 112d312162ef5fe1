// Package labeltree models nested label documents and their flat, dotted-path
// view.
//
// A label document is a JSON object whose leaves are either strings or arrays
// of strings:
//
//	{
//	    "hello": "Hello",
//	    "date": {
//	        "month": { "april": "April" }
//	    },
//	    "greeting": ["Hi", "Hey"]
//	}
//
// Flattened, the same document becomes an ordered map:
//
//	hello            -> "Hello"
//	date.month.april -> "April"
//	greeting         -> ["Hi", "Hey"]
//
// Both Tree and FlatMap preserve insertion order so that iteration follows
// the order of the source document.
package labeltree

import (
	"slices"
	"sort"
)

// Separator joins the key segments of a flattened label path.
const Separator = "."

// Value is a label leaf: a single string, or an ordered list of alternative
// strings. A non-nil List marks the value as a list.
type Value struct {
	Text string
	List []string
}

// String returns a string leaf.
func String(s string) Value {
	return Value{Text: s}
}

// List returns a list leaf. The slice is copied.
func List(items ...string) Value {
	l := make([]string, len(items))
	copy(l, items)
	return Value{List: l}
}

// IsList reports whether v is a list leaf.
func (v Value) IsList() bool {
	return v.List != nil
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	if v.List == nil {
		return v
	}
	return Value{List: slices.Clone(v.List)}
}

// Equal reports whether two leaves hold the same content.
func (v Value) Equal(o Value) bool {
	if v.IsList() != o.IsList() {
		return false
	}
	if v.IsList() {
		return slices.Equal(v.List, o.List)
	}
	return v.Text == o.Text
}

// Tree is an insertion-ordered nested label document. Every entry is either a
// Value or a *Tree.
type Tree struct {
	keys   []string
	values map[string]any
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{values: make(map[string]any)}
}

// Len returns the number of direct entries.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the direct entry keys in insertion order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.keys)
}

// Get returns the raw entry stored under key: a Value or a *Tree.
func (t *Tree) Get(key string) (any, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.values[key]
	return v, ok
}

// Leaf returns the leaf stored under key, if the entry is a leaf.
func (t *Tree) Leaf(key string) (Value, bool) {
	v, ok := t.Get(key)
	if !ok {
		return Value{}, false
	}
	leaf, ok := v.(Value)
	return leaf, ok
}

// Child returns the subtree stored under key, if the entry is an object.
func (t *Tree) Child(key string) (*Tree, bool) {
	v, ok := t.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := v.(*Tree)
	return child, ok
}

// SetLeaf stores a leaf under key, replacing any existing entry in place.
func (t *Tree) SetLeaf(key string, v Value) {
	t.set(key, v)
}

// SetChild stores a subtree under key, replacing any existing entry in place.
func (t *Tree) SetChild(key string, child *Tree) {
	t.set(key, child)
}

func (t *Tree) set(key string, v any) {
	if t.values == nil {
		t.values = make(map[string]any)
	}
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// Delete removes the entry stored under key. It reports whether an entry was
// removed.
func (t *Tree) Delete(key string) bool {
	if t == nil {
		return false
	}
	if _, ok := t.values[key]; !ok {
		return false
	}
	delete(t.values, key)
	t.keys = slices.DeleteFunc(t.keys, func(k string) bool { return k == key })
	return true
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	out := NewTree()
	if t == nil {
		return out
	}
	for _, k := range t.keys {
		switch v := t.values[k].(type) {
		case Value:
			out.set(k, v.Clone())
		case *Tree:
			out.set(k, v.Clone())
		}
	}
	return out
}

// SortByKey returns a copy of t with the keys of every nesting level in
// ascending lexicographic order. List leaves keep their element order.
func SortByKey(t *Tree) *Tree {
	out := NewTree()
	if t == nil {
		return out
	}
	keys := slices.Clone(t.keys)
	sort.Strings(keys)
	for _, k := range keys {
		switch v := t.values[k].(type) {
		case Value:
			out.set(k, v.Clone())
		case *Tree:
			out.set(k, SortByKey(v))
		}
	}
	return out
}

// IsSorted reports whether every nesting level of t is in ascending key
// order.
func IsSorted(t *Tree) bool {
	if t == nil {
		return true
	}
	if !sort.StringsAreSorted(t.keys) {
		return false
	}
	for _, k := range t.keys {
		if child, ok := t.values[k].(*Tree); ok && !IsSorted(child) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b hold the same entries, ignoring key order.
func Equal(a, b *Tree) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a == nil || b == nil {
		return true
	}
	for _, k := range a.keys {
		bv, ok := b.values[k]
		if !ok {
			return false
		}
		switch av := a.values[k].(type) {
		case Value:
			leaf, ok := bv.(Value)
			if !ok || !av.Equal(leaf) {
				return false
			}
		case *Tree:
			child, ok := bv.(*Tree)
			if !ok || !Equal(av, child) {
				return false
			}
		}
	}
	return true
}

// ToMap converts t into plain Go values (map[string]any, string, []any), the
// shape produced by encoding/json.
func (t *Tree) ToMap() map[string]any {
	out := make(map[string]any, t.Len())
	if t == nil {
		return out
	}
	for _, k := range t.keys {
		switch v := t.values[k].(type) {
		case Value:
			if v.IsList() {
				items := make([]any, len(v.List))
				for i, s := range v.List {
					items[i] = s
				}
				out[k] = items
			} else {
				out[k] = v.Text
			}
		case *Tree:
			out[k] = v.ToMap()
		}
	}
	return out
}
