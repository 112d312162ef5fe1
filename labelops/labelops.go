// Package labelops edits individual labels across the language documents:
// adding, deleting, replacing and looking them up.
package labelops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/minios-linux/ctv/labeltree"
	"github.com/minios-linux/ctv/store"
)

// ErrLabelNotFound is returned when a label to replace does not exist.
var ErrLabelNotFound = errors.New("label not found")

// Delete statuses.
const (
	// StatusExact marks a deleted leaf.
	StatusExact = "*"
	// StatusSubtree marks a deleted object and every label under it.
	StatusSubtree = "-"
)

// ---------------------------------------------------------------------------
// Add / Replace
// ---------------------------------------------------------------------------

// Add stores text under label in the document of code, creating the file and
// any intermediate objects. The document is written back sorted and the
// updated record is returned.
func Add(st *store.Store, code, label, text string) (*store.Record, error) {
	rec, err := st.Read(code)
	if err != nil {
		return nil, err
	}
	if err := labeltree.SetPath(rec.Tree, label, labeltree.String(text)); err != nil {
		return nil, fmt.Errorf("%s: %w", rec.Path, err)
	}
	rec.Tree = labeltree.SortByKey(rec.Tree)
	if err := st.Write(rec); err != nil {
		return nil, err
	}
	return rec, refresh(st, rec)
}

// Replace overwrites the existing string label in the document of code.
func Replace(st *store.Store, code, label, text string) (*store.Record, error) {
	rec, err := st.Read(code)
	if err != nil {
		return nil, err
	}
	if !rec.Flat.Has(label) {
		return nil, fmt.Errorf("%w: %q in %s", ErrLabelNotFound, label, rec.Path)
	}
	if err := labeltree.ReplacePath(rec.Tree, label, text); err != nil {
		return nil, fmt.Errorf("%s: %w", rec.Path, err)
	}
	if err := st.Write(rec); err != nil {
		return nil, err
	}
	return rec, refresh(st, rec)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

// DeleteRow reports what Delete removed from one language.
type DeleteRow struct {
	Code string
	// Status is StatusExact, StatusSubtree or empty when nothing matched.
	Status string
	// Labels lists the labels removed with a subtree.
	Labels []string
}

// Delete removes label from every language in codes. An exact leaf match
// removes the leaf; otherwise every label under label is removed. Changed
// documents are written back sorted. The records are returned in codes order
// with their state after the deletion.
func Delete(st *store.Store, codes []string, label string) ([]DeleteRow, []*store.Record, error) {
	records, err := st.ReadAll(codes)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]DeleteRow, 0, len(records))
	for _, rec := range records {
		row := DeleteRow{Code: rec.Code}
		if rec.Flat.Has(label) {
			row.Status = StatusExact
		} else if under := labelsUnder(rec.Flat, label); len(under) > 0 {
			row.Status = StatusSubtree
			row.Labels = under
		}

		if row.Status != "" {
			labeltree.DeletePath(rec.Tree, label)
			rec.Tree = labeltree.SortByKey(rec.Tree)
			if err := st.Write(rec); err != nil {
				return rows, records, err
			}
			if err := refresh(st, rec); err != nil {
				return rows, records, err
			}
		}
		rows = append(rows, row)
	}
	return rows, records, nil
}

// ---------------------------------------------------------------------------
// Find
// ---------------------------------------------------------------------------

// Match is one label found by Find.
type Match struct {
	Code  string
	Label string
	Value labeltree.Value
}

// Find looks label up in every record. An empty label lists everything; a
// label containing labeltree.Wildcard segments is matched as a pattern;
// otherwise the exact label and every label under it are returned.
func Find(records []*store.Record, label string) ([]Match, error) {
	var out []Match
	for _, rec := range records {
		labels, err := findLabels(rec, label)
		if err != nil {
			return nil, err
		}
		for _, l := range labels {
			v, _ := rec.Flat.Get(l)
			out = append(out, Match{Code: rec.Code, Label: l, Value: v})
		}
	}
	return out, nil
}

func findLabels(rec *store.Record, label string) ([]string, error) {
	if label == "" {
		return rec.Flat.Keys(), nil
	}
	if !isPattern(label) {
		var out []string
		if rec.Flat.Has(label) {
			out = append(out, label)
		}
		return append(out, labelsUnder(rec.Flat, label)...), nil
	}

	paths, err := labeltree.Query(rec.Tree, label)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range paths {
		if rec.Flat.Has(p) {
			out = append(out, p)
			continue
		}
		out = append(out, labelsUnder(rec.Flat, p)...)
	}
	return out, nil
}

func isPattern(label string) bool {
	for _, seg := range strings.Split(label, labeltree.Separator) {
		if seg == labeltree.Wildcard {
			return true
		}
	}
	return false
}

// labelsUnder returns the labels nested below prefix, in document order.
func labelsUnder(m *labeltree.FlatMap, prefix string) []string {
	var out []string
	p := prefix + labeltree.Separator
	for _, k := range m.Keys() {
		if strings.HasPrefix(k, p) {
			out = append(out, k)
		}
	}
	return out
}

func refresh(st *store.Store, rec *store.Record) error {
	flat, err := labeltree.Flatten(rec.Tree, labeltree.FlattenOptions{StrictKeys: st.StrictKeys, Logger: st.Logger})
	if err != nil {
		return fmt.Errorf("%s: %w", rec.Path, err)
	}
	rec.Flat = flat
	return nil
}
