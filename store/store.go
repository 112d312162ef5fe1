// Package store reads and writes per-language label documents.
//
// Each language lives in one JSON file named after its code under a base
// directory:
//
//	dist/i18n/en.json
//	dist/i18n/uk.json
//
// A Record carries both the nested document and its flattened view.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/minios-linux/ctv/labeltree"
)

// Ext is the file extension of label documents.
const Ext = ".json"

// ErrNotRegularFile is returned when a write target exists but is not a
// regular file.
var ErrNotRegularFile = errors.New("already exists and is not a file")

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Record is one language's loaded document.
type Record struct {
	Code   string
	Path   string
	Tree   *labeltree.Tree
	Flat   *labeltree.FlatMap
	Exists bool
}

// Store resolves and accesses label documents under a base directory.
type Store struct {
	BasePath string
	// StrictKeys rejects keys that collide after dot sanitization.
	StrictKeys bool
	// Indent used when writing documents; labeltree.DefaultIndent if empty.
	Indent string
	Logger *slog.Logger
}

// New returns a store rooted at basePath.
func New(basePath string, log *slog.Logger) *Store {
	return &Store{BasePath: basePath, Logger: log}
}

func (s *Store) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// PathFor returns the document path of a language code.
func (s *Store) PathFor(code string) string {
	return filepath.Join(s.BasePath, code+Ext)
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// Read loads the document of code. A missing file yields an empty record with
// Exists unset. Unreadable or malformed documents are logged and replaced by
// an empty tree. Only strict key collisions are returned as errors.
func (s *Store) Read(code string) (*Record, error) {
	path := s.PathFor(code)
	rec := &Record{Code: code, Path: path, Tree: labeltree.NewTree()}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		rec.Exists = true
		tree, perr := labeltree.Parse(data, s.log().With("lang", code))
		if perr != nil {
			s.log().Warn("ignoring malformed label file", "path", path, "err", perr)
		} else {
			rec.Tree = tree
		}
	case errors.Is(err, fs.ErrNotExist):
		s.log().Debug("label file not found, starting empty", "path", path)
	default:
		rec.Exists = fileExists(path)
		s.log().Warn("cannot read label file", "path", path, "err", err)
	}

	flat, err := labeltree.Flatten(rec.Tree, labeltree.FlattenOptions{
		StrictKeys: s.StrictKeys,
		Logger:     s.log().With("lang", code),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.Flat = flat
	return rec, nil
}

// ReadAll loads every code, keeping the given order.
func (s *Store) ReadAll(codes []string) ([]*Record, error) {
	out := make([]*Record, 0, len(codes))
	for _, code := range codes {
		rec, err := s.Read(code)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Write serializes rec.Tree to rec.Path and marks the record as existing.
func (s *Store) Write(rec *Record) error {
	indent := s.Indent
	if indent == "" {
		indent = labeltree.DefaultIndent
	}
	data, err := labeltree.Marshal(rec.Tree, indent)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", rec.Path, err)
	}
	if err := WriteFile(rec.Path, data); err != nil {
		return err
	}
	rec.Exists = true
	return nil
}

// WriteFile writes data to path, creating parent directories when the file
// does not exist yet. It fails with ErrNotRegularFile if path is a
// directory or another non-regular file.
func WriteFile(path string, data []byte) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.Mode().IsRegular() {
			return fmt.Errorf("path [%s] %w", path, ErrNotRegularFile)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	default:
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
