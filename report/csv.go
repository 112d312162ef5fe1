package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/minios-linux/ctv/store"
)

// ListSeparator joins list items in a single CSV cell.
const ListSeparator = "🏁"

// NewSuffix names the empty column next to each language, to be filled
// with updated translations.
const NewSuffix = "_new"

const bom = "\ufeff"

// CSVOptions controls the CSV dialect.
type CSVOptions struct {
	// Delimiter between columns; ',' if zero.
	Delimiter rune
	// CRLF ends rows with \r\n instead of \n.
	CRLF bool
	// BOM prefixes the output with a UTF-8 byte order mark.
	BOM bool
}

// ParseEOL resolves an end-of-line name: "lf" or "crlf".
func ParseEOL(s string) (crlf bool, err error) {
	switch strings.ToLower(s) {
	case "", "lf":
		return false, nil
	case "crlf":
		return true, nil
	default:
		return false, fmt.Errorf("unsupported end of line %q (want lf or crlf)", s)
	}
}

// ParseDelimiter resolves a single-character delimiter.
func ParseDelimiter(s string) (rune, error) {
	if s == "" {
		return ',', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

// Table builds the export table: a label column, then for every record a
// column with its values and an empty "<code>_new" column. Labels appear in
// first-seen order across records.
func Table(records []*store.Record) (header []string, rows [][]string) {
	header = []string{"label"}
	index := make(map[string]int)
	width := 1 + 2*len(records)

	for i, rec := range records {
		header = append(header, rec.Code, rec.Code+NewSuffix)
		col := 1 + 2*i
		for _, label := range rec.Flat.Keys() {
			v, _ := rec.Flat.Get(label)
			r, ok := index[label]
			if !ok {
				r = len(rows)
				index[label] = r
				row := make([]string, width)
				row[0] = label
				rows = append(rows, row)
			}
			rows[r][col] = FormatValue(v, ListSeparator)
		}
	}
	return header, rows
}

// WriteCSV writes the export table of records to w.
func WriteCSV(w io.Writer, records []*store.Record, opts CSVOptions) error {
	if opts.BOM {
		if _, err := io.WriteString(w, bom); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	cw.UseCRLF = opts.CRLF

	header, rows := Table(records)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
