package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/hookkit/internal/schema"
	"github.com/fulmenhq/hookkit/pkg/fixtures"
	"github.com/fulmenhq/hookkit/pkg/hookconfig"
	"github.com/fulmenhq/hookkit/pkg/safeio"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the optional project config file read from the source root.
const FileName = ".hookkit.yaml"

// EnvPrefix prefixes every environment override (HOOKKIT_FIXTURES, ...).
const EnvPrefix = "HOOKKIT"

// Config holds all configuration for a harness run
type Config struct {
	Root          string   `mapstructure:"-"`
	Fixtures      string   `mapstructure:"fixtures"`
	HookConfig    string   `mapstructure:"hook_config"`
	Copy          []string `mapstructure:"copy"`
	StripPrefix   string   `mapstructure:"strip_prefix"`
	Framework     string   `mapstructure:"framework"`
	TempDir       string   `mapstructure:"temp_dir"`
	KeepWorkspace bool     `mapstructure:"keep_workspace"`
	CacheDir      string   `mapstructure:"cache_dir"`
	Output        string   `mapstructure:"output"`
}

var defaultConfig = Config{
	Fixtures:   "test/example_files.zip",
	HookConfig: hookconfig.ConfigFileName,
	Copy: []string{
		hookconfig.ConfigFileName,
		hookconfig.ManifestFileName,
		".pre-commit/**",
		"hooks/**",
	},
	StripPrefix: fixtures.DefaultStripPrefix,
	Output:      "text",
}

// flag name -> config key
var flagKeys = map[string]string{
	"fixtures":       "fixtures",
	"hook-config":    "hook_config",
	"framework":      "framework",
	"temp-dir":       "temp_dir",
	"keep-workspace": "keep_workspace",
	"cache-dir":      "cache_dir",
	"output":         "output",
}

// Default returns a copy of the built-in defaults.
func Default() Config {
	c := defaultConfig
	c.Copy = append([]string(nil), defaultConfig.Copy...)
	return c
}

// Load resolves configuration for the tree at root. Precedence, lowest first:
// defaults, [tool.hookkit] in pyproject.toml, .hookkit.yaml, HOOKKIT_*
// environment variables, then any flags in fs that were set explicitly.
func Load(root string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("fixtures", defaultConfig.Fixtures)
	v.SetDefault("hook_config", defaultConfig.HookConfig)
	v.SetDefault("copy", defaultConfig.Copy)
	v.SetDefault("strip_prefix", defaultConfig.StripPrefix)
	v.SetDefault("framework", "")
	v.SetDefault("temp_dir", "")
	v.SetDefault("keep_workspace", false)
	v.SetDefault("cache_dir", "")
	v.SetDefault("output", defaultConfig.Output)

	pyproject, err := readPyproject(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return nil, err
	}
	if len(pyproject) > 0 {
		if err := v.MergeConfigMap(pyproject); err != nil {
			return nil, fmt.Errorf("merge pyproject.toml: %w", err)
		}
	}

	projectFile := filepath.Join(root, FileName)
	if data, err := os.ReadFile(projectFile); err == nil { // #nosec G304 -- fixed name under root
		res, verr := schema.ValidateYAML(data, schema.HookkitConfig)
		if verr != nil {
			return nil, verr
		}
		if !res.Valid {
			return nil, &InvalidError{File: projectFile, Errors: res.Errors}
		}
		v.SetConfigFile(projectFile)
		v.SetConfigType("yaml")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", projectFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", projectFile, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}
	cfg.Root = root
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that the schema cannot express.
func (c *Config) Validate() error {
	if _, err := safeio.CleanRelPath(c.HookConfig); err != nil {
		return fmt.Errorf("hook_config must be relative to the source root: %w", err)
	}
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("output must be text or json, got %q", c.Output)
	}
	if c.Fixtures == "" {
		return errors.New("fixtures must not be empty")
	}
	return nil
}

// FixturesPath returns the fixture archive path, resolved against Root when relative.
func (c *Config) FixturesPath() string {
	if filepath.IsAbs(c.Fixtures) {
		return c.Fixtures
	}
	return filepath.Join(c.Root, c.Fixtures)
}

// FrameworkCommand splits the framework override into argv, or nil when unset.
func (c *Config) FrameworkCommand() []string {
	return strings.Fields(c.Framework)
}

// InvalidError reports a project config file that fails schema validation.
type InvalidError struct {
	File   string
	Errors []schema.ValidationError
}

func (e *InvalidError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		parts = append(parts, ve.Path+": "+ve.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.File, strings.Join(parts, "; "))
}

// readPyproject returns the [tool.hookkit] table with keys normalised to
// snake_case, or nil when the file or table is absent.
func readPyproject(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- fixed name under root
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc struct {
		Tool struct {
			Hookkit map[string]interface{} `toml:"hookkit"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Tool.Hookkit) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(doc.Tool.Hookkit))
	for k, val := range doc.Tool.Hookkit {
		out[strings.ReplaceAll(k, "-", "_")] = val
	}
	return out, nil
}
