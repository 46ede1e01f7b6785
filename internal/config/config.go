package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// FileName is the name of the config file, without extension.
	FileName = "zest"

	// FileExt is the config file extension.
	FileExt = "toml"

	// EnvPrefix is prepended to the environment variables that override
	// config values, so components_dir is read from ZEST_COMPONENTS_DIR.
	EnvPrefix = "ZEST"
)

// ErrInvalid is returned when a loaded configuration can't be used.
var ErrInvalid = errors.New("invalid configuration")

// Config is a zest project's configuration. Relative paths are relative to
// the directory holding the config file.
type Config struct {
	// ComponentsDir is the default components root.
	ComponentsDir string `mapstructure:"components_dir"`

	// TemplatesDir holds page templates.
	TemplatesDir string `mapstructure:"templates_dir"`

	// StaticDir is served under /static.
	StaticDir string `mapstructure:"static_dir"`

	// CacheDir is where the template fingerprint index is kept. Leave it
	// empty to keep nothing on disk.
	CacheDir string `mapstructure:"cache_dir"`

	// SearchPaths are extra directories searched for components after
	// the components root.
	SearchPaths []string `mapstructure:"search_paths"`

	// Namespaces maps a namespace to the directory holding its
	// components.
	Namespaces map[string]string `mapstructure:"namespaces"`

	Debug      bool   `mapstructure:"debug"`
	AutoReload bool   `mapstructure:"auto_reload"`
	MaxDepth   int    `mapstructure:"max_depth"`
	BaseURL    string `mapstructure:"base_url"`

	// Listen is the address zest serve listens on.
	Listen string `mapstructure:"listen"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ComponentsDir: "components",
		TemplatesDir:  "templates",
		StaticDir:     "static",
		CacheDir:      ".zest-cache",
		SearchPaths:   []string{},
		Namespaces:    map[string]string{},
		MaxDepth:      16,
		Listen:        ":8080",
	}
}

// LoadOptions control where Load looks for the config file.
type LoadOptions struct {
	// File is an explicit config file. It must exist.
	File string

	// Dir is searched for zest.toml when File is empty. Defaults to the
	// working directory.
	Dir string
}

func newViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("components_dir", defaults.ComponentsDir)
	v.SetDefault("templates_dir", defaults.TemplatesDir)
	v.SetDefault("static_dir", defaults.StaticDir)
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("search_paths", defaults.SearchPaths)
	v.SetDefault("namespaces", defaults.Namespaces)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("auto_reload", defaults.AutoReload)
	v.SetDefault("max_depth", defaults.MaxDepth)
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("listen", defaults.Listen)

	v.SetConfigType(FileExt)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration, returning it along with the path of the
// file it came from. The path is empty when only defaults and the
// environment were used.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
	}

	resolved := ""
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		resolved = v.ConfigFileUsed()
	case opts.File == "" && errors.As(err, &notFound):
		// defaults and the environment are enough
	default:
		return nil, "", fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("error parsing config: %w", err)
	}

	base := opts.Dir
	if resolved != "" {
		base = filepath.Dir(resolved)
	}
	cfg.resolvePaths(base)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

func (c *Config) resolvePaths(base string) {
	if base == "" {
		return
	}
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.ComponentsDir = abs(c.ComponentsDir)
	c.TemplatesDir = abs(c.TemplatesDir)
	c.StaticDir = abs(c.StaticDir)
	c.CacheDir = abs(c.CacheDir)
	for i, p := range c.SearchPaths {
		c.SearchPaths[i] = abs(p)
	}
	for ns, p := range c.Namespaces {
		c.Namespaces[ns] = abs(p)
	}
}

// Validate reports whether c can be used to build a renderer.
func (c *Config) Validate() error {
	if c.ComponentsDir == "" {
		return fmt.Errorf("components_dir must be set: %w", ErrInvalid)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d: %w", c.MaxDepth, ErrInvalid)
	}
	for ns, dir := range c.Namespaces {
		if ns == "" || strings.Contains(ns, "/") {
			return fmt.Errorf("namespace %q must be a single path segment: %w", ns, ErrInvalid)
		}
		if dir == "" {
			return fmt.Errorf("namespace %q has no directory: %w", ns, ErrInvalid)
		}
	}
	return nil
}

// WriteDefault writes a config file holding the default configuration to
// dir. It returns the file's path, and false if a config file was already
// there.
func WriteDefault(dir string) (string, bool, error) {
	path := filepath.Join(dir, FileName+"."+FileExt)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	v := newViper()
	if err := v.SafeWriteConfigAs(path); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("error writing %q: %w", path, err)
	}
	return path, true, nil
}
