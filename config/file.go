package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/ctv/store"
)

// ---------------------------------------------------------------------------
// File names
// ---------------------------------------------------------------------------

// FileName is the default configuration file name.
const FileName = ".ctv.config.json"

// FileNames lists the accepted configuration files in lookup order.
var FileNames = []string{FileName, ".ctv.yaml", ".ctv.yml", ".ctv.toml"}

// EnvPrefix prefixes every environment override, e.g. CTV_ENGINE.
const EnvPrefix = "CTV_"

// ErrNotFound is returned by Load when no configuration file exists.
var ErrNotFound = errors.New("configuration file not found")

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Find returns the first configuration file present in rootDir, or "".
func Find(rootDir string) string {
	for _, name := range FileNames {
		path := filepath.Join(rootDir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// Load reads the configuration of the project in rootDir, applies
// environment overrides and validates the result. Without a configuration
// file it returns ErrNotFound.
func Load(rootDir string) (*Config, error) {
	path := Find(rootDir)
	if path == "" {
		return nil, fmt.Errorf("%w in %s (run \"ctv init\")", ErrNotFound, rootDir)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Defaults() with environment
// overrides when the project has no configuration file.
func LoadOrDefault(rootDir string) (*Config, error) {
	cfg, err := Load(rootDir)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return cfg, err
	}
	cfg = Defaults()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the file at path over Defaults(). The format follows the
// file extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// ApplyEnv overrides cfg with CTV_* environment variables.
func ApplyEnv(cfg *Config) error {
	if cfg.Terra == nil {
		cfg.Terra = &Terra{}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Encode renders cfg in the format implied by the extension of name.
func Encode(cfg *Config, name string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// ErrExists is returned by Init when the configuration file already exists.
var ErrExists = errors.New("the settings file already exists")

// Init writes the default configuration to rootDir/name. An existing file is
// only replaced when force is set.
func Init(rootDir, name string, force bool) (string, error) {
	if name == "" {
		name = FileName
	}
	path := filepath.Join(rootDir, name)

	info, err := os.Stat(path)
	switch {
	case err == nil && !info.Mode().IsRegular():
		return path, fmt.Errorf("path [%s] %w", path, store.ErrNotRegularFile)
	case err == nil && !force:
		return path, fmt.Errorf("%w: %s", ErrExists, path)
	case err != nil && !os.IsNotExist(err):
		return path, err
	}

	cfg := Defaults()
	cfg.Terra = nil
	data, err := Encode(cfg, name)
	if err != nil {
		return path, fmt.Errorf("encoding %s: %w", path, err)
	}
	return path, store.WriteFile(path, data)
}
