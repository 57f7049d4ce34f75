// Package hookconfig reads the pre-commit framework's two YAML files: the
// consumer config (.pre-commit-config.yaml) and the hook manifest a hook
// repository publishes (.pre-commit-hooks.yaml).
package hookconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Well-known file names.
const (
	ConfigFileName   = ".pre-commit-config.yaml"
	ManifestFileName = ".pre-commit-hooks.yaml"
)

// Repository kinds that are not fetched from a remote.
const (
	LocalRepo = "local"
	MetaRepo  = "meta"
)

// Config is a .pre-commit-config.yaml document.
type Config struct {
	Repos                  []Repo            `yaml:"repos" json:"repos"`
	DefaultLanguageVersion map[string]string `yaml:"default_language_version,omitempty" json:"default_language_version,omitempty"`
	DefaultStages          []string          `yaml:"default_stages,omitempty" json:"default_stages,omitempty"`
	DefaultInstallTypes    []string          `yaml:"default_install_hook_types,omitempty" json:"default_install_hook_types,omitempty"`
	Files                  string            `yaml:"files,omitempty" json:"files,omitempty"`
	Exclude                string            `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	FailFast               bool              `yaml:"fail_fast,omitempty" json:"fail_fast,omitempty"`
	MinimumVersion         string            `yaml:"minimum_pre_commit_version,omitempty" json:"minimum_pre_commit_version,omitempty"`
	CI                     map[string]any    `yaml:"ci,omitempty" json:"ci,omitempty"`
}

// Repo is one entry under repos.
type Repo struct {
	Repo  string `yaml:"repo" json:"repo"`
	Rev   string `yaml:"rev,omitempty" json:"rev,omitempty"`
	Hooks []Hook `yaml:"hooks" json:"hooks"`
}

// Hook is a hook definition. The same shape is used for manifest entries
// and for config entries, where everything but ID is an override.
type Hook struct {
	ID                     string   `yaml:"id" json:"id"`
	Name                   string   `yaml:"name,omitempty" json:"name,omitempty"`
	Alias                  string   `yaml:"alias,omitempty" json:"alias,omitempty"`
	Description            string   `yaml:"description,omitempty" json:"description,omitempty"`
	Entry                  string   `yaml:"entry,omitempty" json:"entry,omitempty"`
	Language               string   `yaml:"language,omitempty" json:"language,omitempty"`
	LanguageVersion        string   `yaml:"language_version,omitempty" json:"language_version,omitempty"`
	Files                  string   `yaml:"files,omitempty" json:"files,omitempty"`
	Exclude                string   `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Types                  []string `yaml:"types,omitempty" json:"types,omitempty"`
	TypesOr                []string `yaml:"types_or,omitempty" json:"types_or,omitempty"`
	ExcludeTypes           []string `yaml:"exclude_types,omitempty" json:"exclude_types,omitempty"`
	Args                   []string `yaml:"args,omitempty" json:"args,omitempty"`
	AdditionalDependencies []string `yaml:"additional_dependencies,omitempty" json:"additional_dependencies,omitempty"`
	Stages                 []string `yaml:"stages,omitempty" json:"stages,omitempty"`
	PassFilenames          *bool    `yaml:"pass_filenames,omitempty" json:"pass_filenames,omitempty"`
	RequireSerial          bool     `yaml:"require_serial,omitempty" json:"require_serial,omitempty"`
	AlwaysRun              bool     `yaml:"always_run,omitempty" json:"always_run,omitempty"`
	Verbose                bool     `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	LogFile                string   `yaml:"log_file,omitempty" json:"log_file,omitempty"`
	MinimumVersion         string   `yaml:"minimum_pre_commit_version,omitempty" json:"minimum_pre_commit_version,omitempty"`
}

// ErrNoHooks is returned by HookIDs callers that require at least one hook.
var ErrNoHooks = errors.New("no hooks configured")

// LoadConfig reads a .pre-commit-config.yaml file.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- config path is operator supplied
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes a .pre-commit-config.yaml document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := decodeStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigFileName, err)
	}
	for i, r := range cfg.Repos {
		if r.Repo == "" {
			return nil, fmt.Errorf("parse %s: repos[%d]: missing repo", ConfigFileName, i)
		}
		for j, h := range r.Hooks {
			if h.ID == "" {
				return nil, fmt.Errorf("parse %s: repos[%d].hooks[%d]: missing id", ConfigFileName, i, j)
			}
		}
	}
	return &cfg, nil
}

// HookIDs returns the configured hook ids in file order. An id configured
// more than once is listed at its first position only, because the
// framework's `run <id>` already runs every hook sharing that id.
func (c *Config) HookIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range c.Repos {
		for _, h := range r.Hooks {
			if seen[h.ID] {
				continue
			}
			seen[h.ID] = true
			ids = append(ids, h.ID)
		}
	}
	return ids
}

// LoadManifest reads a .pre-commit-hooks.yaml file.
func LoadManifest(path string) ([]Hook, error) {
	// #nosec G304 -- manifest path is operator supplied
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest decodes a .pre-commit-hooks.yaml document.
func ParseManifest(data []byte) ([]Hook, error) {
	var hooks []Hook
	if err := decodeStrict(data, &hooks); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFileName, err)
	}
	seen := make(map[string]bool)
	for i, h := range hooks {
		switch {
		case h.ID == "":
			return nil, fmt.Errorf("parse %s: hooks[%d]: missing id", ManifestFileName, i)
		case h.Entry == "":
			return nil, fmt.Errorf("parse %s: %s: missing entry", ManifestFileName, h.ID)
		case h.Language == "":
			return nil, fmt.Errorf("parse %s: %s: missing language", ManifestFileName, h.ID)
		case seen[h.ID]:
			return nil, fmt.Errorf("parse %s: duplicate hook id %q", ManifestFileName, h.ID)
		}
		seen[h.ID] = true
	}
	return hooks, nil
}

// decodeStrict rejects unknown keys so typos in the bundle surface early.
// An empty document decodes to the zero value.
func decodeStrict(data []byte, v interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
