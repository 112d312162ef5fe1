package labeltree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// DefaultIndent is the indentation used when writing label documents.
const DefaultIndent = "  "

// ErrNotObject is returned when a document's root is not a JSON object.
var ErrNotObject = errors.New("document root is not an object")

// Parse decodes a JSON label document, preserving key order. Non-string
// scalars (numbers, booleans, null) are not labels: they are dropped and
// reported to log.
func Parse(data []byte, log *slog.Logger) (*Tree, error) {
	if log == nil {
		log = slog.Default()
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	t, err := decodeObject(dec, "", log)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parsing JSON: unexpected data after document")
	}
	return t, nil
}

// decodeObject reads object members up to and including the closing brace.
func decodeObject(dec *json.Decoder, prefix string, log *slog.Logger) (*Tree, error) {
	t := NewTree()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}
		path := key
		if prefix != "" {
			path = prefix + Separator + key
		}

		vt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := vt.(type) {
		case string:
			t.SetLeaf(key, String(v))
		case json.Delim:
			switch v {
			case '{':
				child, err := decodeObject(dec, path, log)
				if err != nil {
					return nil, err
				}
				t.SetChild(key, child)
			case '[':
				items, err := decodeList(dec, path, log)
				if err != nil {
					return nil, err
				}
				t.SetLeaf(key, Value{List: items})
			}
		default:
			log.Warn("dropping non-string label value", "path", path, "value", v)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return t, nil
}

// decodeList reads array elements up to and including the closing bracket.
func decodeList(dec *json.Decoder, path string, log *slog.Logger) ([]string, error) {
	items := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch v := tok.(type) {
		case string:
			items = append(items, v)
		case json.Delim:
			if err := skipNested(dec); err != nil {
				return nil, err
			}
			log.Warn("dropping nested value inside label list", "path", path)
		default:
			log.Warn("dropping non-string list element", "path", path, "value", v)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

// skipNested consumes tokens until the container just opened is closed.
func skipNested(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// Marshal encodes t as JSON with the given indentation, in the tree's key
// order, followed by a newline. Characters such as <, > and & are written
// verbatim.
func Marshal(t *Tree, indent string) ([]byte, error) {
	var b strings.Builder
	if err := writeObject(&b, t, indent, 0); err != nil {
		return nil, err
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func writeObject(b *strings.Builder, t *Tree, indent string, depth int) error {
	if t.Len() == 0 {
		b.WriteString("{}")
		return nil
	}
	b.WriteString("{\n")
	keys := t.Keys()
	for i, k := range keys {
		b.WriteString(strings.Repeat(indent, depth+1))
		ks, err := jsonString(k)
		if err != nil {
			return err
		}
		b.WriteString(ks)
		b.WriteString(": ")

		entry, _ := t.Get(k)
		switch v := entry.(type) {
		case Value:
			if err := writeValue(b, v, indent, depth+1); err != nil {
				return err
			}
		case *Tree:
			if err := writeObject(b, v, indent, depth+1); err != nil {
				return err
			}
		}
		if i < len(keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat(indent, depth))
	b.WriteByte('}')
	return nil
}

func writeValue(b *strings.Builder, v Value, indent string, depth int) error {
	if !v.IsList() {
		s, err := jsonString(v.Text)
		if err != nil {
			return err
		}
		b.WriteString(s)
		return nil
	}
	if len(v.List) == 0 {
		b.WriteString("[]")
		return nil
	}
	b.WriteString("[\n")
	for i, item := range v.List {
		s, err := jsonString(item)
		if err != nil {
			return err
		}
		b.WriteString(strings.Repeat(indent, depth+1))
		b.WriteString(s)
		if i < len(v.List)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat(indent, depth))
	b.WriteByte(']')
	return nil
}

// jsonString returns s as a JSON string literal without HTML escaping.
func jsonString(s string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
