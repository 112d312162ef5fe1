// Package labelsync keeps the label key sets of all configured languages
// identical.
//
// For every target language, each label present in another language but
// missing from the target is filled exactly once, from the first language in
// configuration order that has it. String values are machine translated
// through the translation cache when auto-translation is enabled and copied
// verbatim otherwise; list values are always copied. Changed documents are
// re-sorted and written back, then the label enumeration is regenerated from
// the first configured language.
package labelsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/minios-linux/ctv/cache"
	"github.com/minios-linux/ctv/enumgen"
	"github.com/minios-linux/ctv/labeltree"
	"github.com/minios-linux/ctv/store"
	"github.com/minios-linux/ctv/translate"
)

// ---------------------------------------------------------------------------
// States
// ---------------------------------------------------------------------------

// State is a stage of a synchronization run. A run advances strictly in
// order and stops at the first failure.
type State int

const (
	StateConfigLoaded State = iota + 1
	StateLanguagesRead
	StateSynchronized
	StateEnumEmitted
)

func (s State) String() string {
	switch s {
	case StateConfigLoaded:
		return "config loaded"
	case StateLanguagesRead:
		return "languages read"
	case StateSynchronized:
		return "synchronized"
	case StateEnumEmitted:
		return "enum emitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ---------------------------------------------------------------------------
// Options and results
// ---------------------------------------------------------------------------

// EnumOptions locates and shapes the generated label enumeration.
type EnumOptions struct {
	Path string
	enumgen.Options
}

// Options configures a run.
type Options struct {
	// Languages in priority order.
	Languages []string
	Store     *store.Store
	// Cache memoizes translations; an in-memory cache is used when nil.
	Cache *cache.Cache
	// NewProvider builds the translation engine. It is called at most once,
	// when the first string needs translating.
	NewProvider func() (translate.Provider, error)
	// AutoTranslate machine translates filled strings. Without it values are
	// copied from the source language.
	AutoTranslate bool
	// DryRun computes the changes without writing any file.
	DryRun bool
	// Enum is the artifact to regenerate; nil skips generation.
	Enum   *EnumOptions
	Logger *slog.Logger
	// OnState is called each time the run reaches a new state.
	OnState func(State)
}

// ReportRow records one filled label: Marks maps the source language to "*"
// and each filled target to "+".
type ReportRow struct {
	Label string
	Marks map[string]string
}

const (
	MarkSource = "*"
	MarkTarget = "+"
)

// Result summarizes a run.
type Result struct {
	// State is the last state reached.
	State State
	Rows  []ReportRow
	// Changed lists the codes of languages that received labels.
	Changed []string
	// Written lists the files written, in order.
	Written []string
	// Keys is the sorted label set of the representative language.
	Keys []string
	// EnumPath is set when the enumeration was written.
	EnumPath string
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

type syncer struct {
	opts     Options
	log      *slog.Logger
	cache    *cache.Cache
	provider translate.Provider
	result   *Result
}

// Run performs one synchronization run. On error the returned Result
// reports the state reached; files written before the failure stay on disk.
func Run(ctx context.Context, opts Options) (*Result, error) {
	s := &syncer{opts: opts, log: opts.Logger, cache: opts.Cache, result: &Result{}}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.cache == nil {
		s.cache = cache.New(cache.Options{Logger: s.log})
	}
	if opts.Store == nil {
		return s.result, errors.New("labelsync: no language store")
	}

	priority, err := BuildPriority(opts.Languages)
	if err != nil {
		return s.result, err
	}
	s.advance(StateConfigLoaded)

	records, err := opts.Store.ReadAll(opts.Languages)
	if err != nil {
		return s.result, fmt.Errorf("reading languages: %w", err)
	}
	s.advance(StateLanguagesRead)

	byCode := make(map[string]*store.Record, len(records))
	for _, rec := range records {
		byCode[rec.Code] = rec
	}

	for _, target := range records {
		if err := s.syncTarget(ctx, target, priority, byCode); err != nil {
			return s.result, err
		}
	}
	s.advance(StateSynchronized)

	rep := records[0]
	s.result.Keys = SortedKeys(rep.Flat)
	if opts.Enum != nil && !opts.DryRun {
		if err := WriteEnum(opts.Enum, s.result.Keys, opts.Languages); err != nil {
			return s.result, err
		}
		s.result.EnumPath = opts.Enum.Path
		s.log.Debug("label enum written", "path", opts.Enum.Path, "keys", len(s.result.Keys))
	}
	s.advance(StateEnumEmitted)

	return s.result, nil
}

func (s *syncer) advance(state State) {
	s.result.State = state
	s.log.Debug("sync state", "state", state)
	if s.opts.OnState != nil {
		s.opts.OnState(state)
	}
}

// syncTarget fills every label target is missing. The target record is only
// updated once the merged document has been written.
func (s *syncer) syncTarget(ctx context.Context, target *store.Record, priority Priority, byCode map[string]*store.Record) error {
	working := target.Flat.Clone()
	pending := labeltree.NewFlatMap()

	for _, code := range priority.Sources(target.Code) {
		source := byCode[code]
		for _, label := range working.Missing(source.Flat) {
			v, _ := source.Flat.Get(label)
			filled, err := s.fill(ctx, v, source.Code, target.Code)
			if err != nil {
				return fmt.Errorf("translating %q from %s to %s: %w", label, source.Code, target.Code, err)
			}
			working.Set(label, filled)
			pending.Set(label, filled)
			s.result.Rows = append(s.result.Rows, ReportRow{
				Label: label,
				Marks: map[string]string{source.Code: MarkSource, target.Code: MarkTarget},
			})
		}
	}

	if pending.Len() == 0 {
		s.log.Debug("language is up to date", "lang", target.Code)
		return nil
	}

	tree := target.Tree.Clone()
	if err := labeltree.Merge(tree, pending); err != nil {
		return fmt.Errorf("merging labels into %s: %w", target.Path, err)
	}
	tree = labeltree.SortByKey(tree)

	if !s.opts.DryRun {
		next := *target
		next.Tree = tree
		if err := s.opts.Store.Write(&next); err != nil {
			return err
		}
		*target = next
		s.result.Written = append(s.result.Written, target.Path)
	}
	target.Tree = tree
	target.Flat = working
	s.result.Changed = append(s.result.Changed, target.Code)
	s.log.Info("labels added", "lang", target.Code, "count", pending.Len())
	return nil
}

// fill produces the target value of a missing label.
func (s *syncer) fill(ctx context.Context, v labeltree.Value, from, to string) (labeltree.Value, error) {
	if v.IsList() || !s.opts.AutoTranslate || v.Text == "" {
		return v.Clone(), nil
	}
	if s.provider == nil {
		if s.opts.NewProvider == nil {
			return labeltree.Value{}, errors.New("no translation engine configured")
		}
		p, err := s.opts.NewProvider()
		if err != nil {
			return labeltree.Value{}, err
		}
		s.provider = p
	}
	text, err := s.cache.GetOrTranslate(ctx, v.Text, from, to, s.provider)
	if err != nil {
		return labeltree.Value{}, err
	}
	return labeltree.String(text), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// WriteEnum regenerates the label enumeration from keys.
func WriteEnum(e *EnumOptions, keys, languages []string) error {
	data, err := enumgen.Emit(keys, languages, e.Options)
	if err != nil {
		return err
	}
	if err := enumgen.WriteFile(e.Path, data); err != nil {
		return fmt.Errorf("writing label enum: %w", err)
	}
	return nil
}

// SortedKeys returns the labels of m in ascending order.
func SortedKeys(m *labeltree.FlatMap) []string {
	keys := m.Keys()
	slices.Sort(keys)
	return keys
}

// GroupRows merges rows that share a label, keeping first-seen order. The
// first row's marks are kept; later rows only add target marks.
func GroupRows(rows []ReportRow) []ReportRow {
	var out []ReportRow
	index := make(map[string]int)
	for _, row := range rows {
		i, seen := index[row.Label]
		if !seen {
			marks := make(map[string]string, len(row.Marks))
			for code, mark := range row.Marks {
				marks[code] = mark
			}
			index[row.Label] = len(out)
			out = append(out, ReportRow{Label: row.Label, Marks: marks})
			continue
		}
		for code, mark := range row.Marks {
			if mark == MarkTarget {
				out[i].Marks[code] = mark
			}
		}
	}
	return out
}
