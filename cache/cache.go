// Package cache implements the translation cache: a content-addressed memo
// of provider results, persisted as translate-engine.json in the cache
// directory. Repeated runs reuse earlier translations instead of calling the
// translation engine again.
//
// The file is a flat JSON object mapping the hex sha256 of the lowercased
// source text and language codes to the translated text. Entries are never
// invalidated automatically; run `ctv cache --clear` to drop them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/minios-linux/ctv/store"
)

// FileName is the cache file name inside the cache directory.
const FileName = "translate-engine.json"

// Translator performs the underlying translation on a cache miss.
type Translator interface {
	TranslateText(ctx context.Context, text, from, to string) (string, error)
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Options configures a Cache.
type Options struct {
	// Dir holds the cache file. Persistence is disabled when empty.
	Dir string
	// Persist writes the file after every miss. Without it the cache only
	// lives for the current run.
	Persist bool
	// LegacyKeys hashes text and target language only, matching caches
	// written by older versions. Translations are then shared between
	// source languages.
	LegacyKeys bool
	Logger     *slog.Logger
}

// Cache memoizes translations. It is safe for concurrent use: at most one
// translation per key is in flight at a time.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
	loaded  bool

	path       string
	persist    bool
	legacyKeys bool
	group      singleflight.Group
	log        *slog.Logger
}

// New returns a cache. Nothing is read until first use.
func New(opts Options) *Cache {
	c := &Cache{
		persist:    opts.Persist && opts.Dir != "",
		legacyKeys: opts.LegacyKeys,
		log:        opts.Logger,
	}
	if opts.Dir != "" {
		c.path = filepath.Join(opts.Dir, FileName)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Path returns the cache file path, or "" when no directory was configured.
func (c *Cache) Path() string {
	return c.path
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

// Key returns the cache key of a translation request.
func Key(text, from, to string, legacy bool) string {
	parts := []string{strings.ToLower(text), to}
	if !legacy {
		parts = []string{strings.ToLower(text), from, to}
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "_")))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) key(text, from, to string) string {
	return Key(text, from, to, c.legacyKeys)
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the cache file once. A missing file is created empty; any other
// read or parse failure is returned. Later calls are no-ops.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

func (c *Cache) loadLocked() error {
	if c.loaded {
		return nil
	}
	entries := make(map[string]string)

	if c.persist {
		data, err := os.ReadFile(c.path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("parsing %s: %w", c.path, err)
			}
			if entries == nil {
				entries = make(map[string]string)
			}
		case errors.Is(err, fs.ErrNotExist):
			c.log.Debug("creating translation cache", "path", c.path)
			if err := store.WriteFile(c.path, []byte("{}\n")); err != nil {
				return err
			}
		default:
			return fmt.Errorf("reading %s: %w", c.path, err)
		}
	}

	c.entries = entries
	c.loaded = true
	return nil
}

// saveLocked rewrites the whole cache file.
func (c *Cache) saveLocked() error {
	if !c.persist {
		return nil
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding translation cache: %w", err)
	}
	return store.WriteFile(c.path, append(data, '\n'))
}

// ---------------------------------------------------------------------------
// Lookup
// ---------------------------------------------------------------------------

// Lookup returns a cached translation.
func (c *Cache) Lookup(text, from, to string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(); err != nil {
		return "", false, err
	}
	v, ok := c.entries[c.key(text, from, to)]
	return v, ok, nil
}

// GetOrTranslate returns the cached translation of text, calling tr and
// storing its result on a miss. With persistence enabled, the file is
// rewritten before returning. A write failure is returned to the caller and
// the translation is not kept.
func (c *Cache) GetOrTranslate(ctx context.Context, text, from, to string, tr Translator) (string, error) {
	key := c.key(text, from, to)

	c.mu.Lock()
	if err := c.loadLocked(); err != nil {
		c.mu.Unlock()
		return "", err
	}
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		c.log.Debug("translation cache hit", "from", from, "to", to)
		return v, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if v, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return v, nil
		}
		c.mu.Unlock()

		translated, err := tr.TranslateText(ctx, text, from, to)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.entries[key] = translated
		if err := c.saveLocked(); err != nil {
			delete(c.entries, key)
			return "", err
		}
		return translated, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ---------------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------------

// Len returns the number of cached translations.
func (c *Cache) Len() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(); err != nil {
		return 0, err
	}
	return len(c.entries), nil
}

// Size returns the size of the cache file in bytes. A missing file has
// size zero.
func (c *Cache) Size() (int64, error) {
	if c.path == "" {
		return 0, nil
	}
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("checking %s: %w", c.path, err)
	}
	return info.Size(), nil
}

// Clear drops every entry and resets the file to an empty object.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]string)
	c.loaded = true
	if c.path == "" {
		return nil
	}
	return store.WriteFile(c.path, []byte("{}\n"))
}
