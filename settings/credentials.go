// Package settings locates the per-user ctv directories and stores API keys
// for the translation engines that need one.
//
// Translation cache:
//
//	$XDG_CACHE_HOME/ctv/  (default: ~/.cache/ctv/)
//
// Credentials:
//
//	$XDG_DATA_HOME/ctv/auth.json  (default: ~/.local/share/ctv/auth.json)
//
// auth.json is a JSON object keyed by engine name ("terra", "openai"). File
// permissions are 0600 (owner read/write only).
//
// Lookup order for API keys:
//  1. --api-key flag or the key in the project configuration
//  2. the engine's environment variable (TERRA_API_KEY, OPENAI_API_KEY)
//  3. this credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName  = "ctv"
	fileName = "auth.json"
)

// ---------------------------------------------------------------------------
// Entries
// ---------------------------------------------------------------------------

// Info is the entry stored per engine in auth.json.
type Info struct {
	// Type is always "api".
	Type string `json:"type"`
	Key  string `json:"key"`
	// BaseURL of an OpenAI-compatible endpoint.
	BaseURL string `json:"baseUrl,omitempty"`
}

// IsAPI returns true if this is an API key entry.
func (i *Info) IsAPI() bool {
	return i.Type == "api"
}

// Store holds all credentials, keyed by engine name.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// Directories
// ---------------------------------------------------------------------------

// DataDir returns the ctv data directory.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// CacheDir returns the directory of the translation cache: override when
// set, otherwise $XDG_CACHE_HOME/ctv (falls back to ~/.cache/ctv).
func CacheDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

func xdgDir(envVar string, fallback ...string) (string, error) {
	if xdg := os.Getenv(envVar); xdg != "" {
		return filepath.Join(xdg, dirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append(append([]string{home}, fallback...), dirName)...), nil
}

// FilePath returns the auth.json file path, or "" if it cannot be
// determined.
func FilePath() string {
	dir, err := DataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, fileName)
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path := FilePath()
	if path == "" {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path := FilePath()
	if path == "" {
		return fmt.Errorf("cannot determine the credentials path")
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// API keys
// ---------------------------------------------------------------------------

// SetAPIKey stores an API key, and optionally a base URL, for an engine.
func SetAPIKey(engine, key, baseURL string) error {
	store := Load()
	store[engine] = &Info{Type: "api", Key: key, BaseURL: baseURL}
	return Save(store)
}

// GetAPIKey returns the stored API key of an engine, or "".
func GetAPIKey(engine string) string {
	info := Load()[engine]
	if info == nil || !info.IsAPI() {
		return ""
	}
	return info.Key
}

// GetBaseURL returns the stored base URL of an engine, or "".
func GetBaseURL(engine string) string {
	info := Load()[engine]
	if info == nil {
		return ""
	}
	return info.BaseURL
}

// Remove deletes the credentials of an engine.
func Remove(engine string) error {
	store := Load()
	if _, ok := store[engine]; !ok {
		return nil
	}
	delete(store, engine)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path := FilePath()
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// EnvVarForEngine returns the conventional API key variable of an engine.
func EnvVarForEngine(engine string) string {
	switch engine {
	case "terra":
		return "TERRA_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// ResolveAPIKey returns explicit when set, then the engine's environment
// variable, then the stored key.
func ResolveAPIKey(engine, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := EnvVarForEngine(engine); v != "" {
		if key := os.Getenv(v); key != "" {
			return key
		}
	}
	return GetAPIKey(engine)
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
