// Package config loads tracker configuration from JSONC files. A
// project file (.dit.json at the repository root) layers over the
// global user file, and CLI flags override both.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Defaults.
const (
	DefaultDitDir        = ".dit"
	DefaultCommitMessage = "dit commit"
	DefaultCommitAllMsg  = "dit commit all"
)

// FileName is the project config file name, looked up at the
// repository root.
const FileName = ".dit.json"

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigInvalid  = errors.New("invalid config file")
	ErrDitDirEmpty    = errors.New("dit_dir cannot be empty")
)

// Config holds all configuration options.
type Config struct {
	// DitDir is the storage root, relative to the repository root.
	DitDir string `json:"dit_dir"`

	// Editor overrides $EDITOR for composing issue and comment text.
	Editor string `json:"editor,omitempty"`

	// CommitMessage is used for single-entity commits,
	// CommitAllMessage for commit-all.
	CommitMessage    string `json:"commit_message,omitempty"`
	CommitAllMessage string `json:"commit_all_message,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DitDir:           DefaultDitDir,
		CommitMessage:    DefaultCommitMessage,
		CommitAllMessage: DefaultCommitAllMsg,
	}
}

// Load resolves configuration with the following precedence (highest
// wins): defaults, global user config, project config at repoRoot (or
// the explicit path when non-empty, which then must exist).
func Load(repoRoot, explicitPath string, env map[string]string) (Config, error) {
	cfg := Default()

	if globalPath := globalConfigPath(env); globalPath != "" {
		layer, loaded, err := loadFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}
		if loaded {
			cfg = merge(cfg, layer)
		}
	}

	projectPath := filepath.Join(repoRoot, FileName)
	mustExist := false
	if explicitPath != "" {
		projectPath = explicitPath
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(repoRoot, projectPath)
		}
		mustExist = true
	}

	layer, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}
	if loaded {
		cfg = merge(cfg, layer)
	}

	if cfg.DitDir == "" {
		return Config{}, ErrDitDirEmpty
	}
	return cfg, nil
}

// Format renders the resolved configuration as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// globalConfigPath returns $XDG_CONFIG_HOME/dit/config.json, falling
// back to ~/.config/dit/config.json. Empty when no home is known.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "dit", "config.json")
	}
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "dit", "config.json")
	}
	return ""
}

func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}
		if os.IsNotExist(err) {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, false, fmt.Errorf("read config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, true, nil
}

// merge overlays non-empty fields of layer onto base.
func merge(base, layer Config) Config {
	if layer.DitDir != "" {
		base.DitDir = layer.DitDir
	}
	if layer.Editor != "" {
		base.Editor = layer.Editor
	}
	if layer.CommitMessage != "" {
		base.CommitMessage = layer.CommitMessage
	}
	if layer.CommitAllMessage != "" {
		base.CommitAllMessage = layer.CommitAllMessage
	}
	return base
}
