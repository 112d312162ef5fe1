// Package report renders command results: terminal tables for label
// operations and the CSV export of all labels.
package report

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/minios-linux/ctv/labelops"
	"github.com/minios-linux/ctv/labelsync"
	"github.com/minios-linux/ctv/labeltree"
)

// ---------------------------------------------------------------------------
// Styles
// ---------------------------------------------------------------------------

// Styles colors the table cells.
type Styles struct {
	Header lipgloss.Style
	Index  lipgloss.Style
	Code   lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Border lipgloss.Style
}

// NewStyles returns the default palette, or unstyled cells when color is
// false.
func NewStyles(color bool) Styles {
	plain := lipgloss.NewStyle().Padding(0, 1)
	if !color {
		return Styles{Header: plain, Index: plain, Code: plain, Label: plain, Value: plain, Border: lipgloss.NewStyle()}
	}
	return Styles{
		Header: plain.Bold(true).Foreground(lipgloss.Color("39")),
		Index:  plain.Foreground(lipgloss.Color("240")),
		Code:   plain.Foreground(lipgloss.Color("229")),
		Label:  plain.Foreground(lipgloss.Color("76")),
		Value:  plain.Foreground(lipgloss.Color("44")),
		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func (s Styles) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		Headers(headers...)
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

// Sync renders the labels filled by a synchronization run, one row per
// label and one column per language. Rows sharing a label are grouped.
func Sync(rows []labelsync.ReportRow, languages []string, s Styles) string {
	grouped := labelsync.GroupRows(rows)

	t := s.newTable(append([]string{"#", "Label"}, languages...)...)
	for i, row := range grouped {
		cells := []string{strconv.Itoa(i + 1), row.Label}
		for _, code := range languages {
			cells = append(cells, row.Marks[code])
		}
		t.Row(cells...)
	}
	return t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return s.Header
		case col == 0:
			return s.Index
		case col == 1:
			return s.Label
		default:
			return s.Value
		}
	}).Render()
}

// Delete renders the per-language result of a label deletion.
func Delete(rows []labelops.DeleteRow, s Styles) string {
	t := s.newTable("Lang", "Deleted", "Labels")
	for _, row := range rows {
		t.Row(row.Code, row.Status, strings.Join(row.Labels, ", "))
	}
	return t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return s.Header
		case col == 0:
			return s.Code
		case col == 1:
			return s.Value
		default:
			return s.Label
		}
	}).Render()
}

// Matches renders the labels found by a lookup.
func Matches(matches []labelops.Match, s Styles) string {
	t := s.newTable("#", "Code", "Label", "Translate")
	for i, m := range matches {
		t.Row(strconv.Itoa(i+1), m.Code, m.Label, FormatValue(m.Value, ", "))
	}
	return t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return s.Header
		case col == 0:
			return s.Index
		case col == 1:
			return s.Code
		case col == 2:
			return s.Label
		default:
			return s.Value
		}
	}).Render()
}

// FormatValue renders a leaf as text, joining list items with sep.
func FormatValue(v labeltree.Value, sep string) string {
	if v.IsList() {
		return strings.Join(v.List, sep)
	}
	return v.Text
}
