// Package config loads the process configuration of the scriptor host and
// bootstraps the directories it names.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/schema"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "scriptor.yaml"

// LogFileName is the file logs are appended to when the log directory exists.
const LogFileName = "scriptor.log"

// Store drivers.
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Script loaders.
const (
	LoaderFile = "file"
	LoaderLoam = "loam"
)

// Config mirrors scriptor.yaml (or scriptor.json).
type Config struct {
	// Concurrency bounds the number of runs a batch executes at once.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	Paths Paths `yaml:"paths" json:"paths"`

	// Scripts lists the script names a batch runs. Empty means every script.
	Scripts []string `yaml:"scripts" json:"scripts"`

	// Profiles lists the profile ids a batch runs against. Empty means every stored profile.
	Profiles []string `yaml:"profiles,omitempty" json:"profiles,omitempty"`

	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	// Loader selects how scripts are read from Paths.Scripts: "file" or "loam".
	Loader string `yaml:"loader,omitempty" json:"loader,omitempty"`

	Store Store `yaml:"store" json:"store"`

	// EncryptionKey enables at-rest encryption of profiles when set.
	// It must decode (hex) to 16, 24 or 32 bytes.
	EncryptionKey string `yaml:"encryption_key,omitempty" json:"encryption_key,omitempty"`

	// ProfileSchema, when set, is enforced on every profile save.
	ProfileSchema schema.Schema `yaml:"profile_schema,omitempty" json:"profile_schema,omitempty"`

	// Tools points to the allow-list of external processes for the exec command.
	Tools string `yaml:"tools,omitempty" json:"tools,omitempty"`

	MaxCallDepth int `yaml:"max_call_depth,omitempty" json:"max_call_depth,omitempty"`

	// dir is the directory of the file the config was read from.
	dir string
}

// Paths are resolved relative to the configuration file.
type Paths struct {
	Storage string `yaml:"storage" json:"storage"`
	Scripts string `yaml:"scripts" json:"scripts"`
	Log     string `yaml:"log" json:"log"`
}

// Store selects the profile store.
type Store struct {
	Driver string `yaml:"driver" json:"driver"`
	Redis  Redis  `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// Redis configures the redis profile store and the distributed locker.
type Redis struct {
	Addr     string          `yaml:"addr" json:"addr"`
	Password string          `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int             `yaml:"db,omitempty" json:"db,omitempty"`
	Prefix   string          `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	TTL      domain.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// Default returns the configuration written by Bootstrap.
func Default() *Config {
	return &Config{
		Concurrency: 1,
		Paths: Paths{
			Storage: "./storage",
			Scripts: "./scripts",
			Log:     "./.log",
		},
		Scripts:  []string{},
		LogLevel: "info",
		Loader:   LoaderFile,
		Store:    Store{Driver: DriverFile},
		Tools:    "tools.yaml",
	}
}

// Load reads a YAML or JSON configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if isJSON(path) {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config parse error: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config parse error: %w", err)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}
	cfg.dir = filepath.Dir(abs)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault reads path when it exists. A missing file yields the
// defaults, resolved against the working directory.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}
	cfg := Default()
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg.dir = wd
	cfg.applyDefaults()
	return cfg, nil
}

// Bootstrap writes a default configuration file when path does not exist,
// loads it and creates the directories listed in Paths.
func Bootstrap(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := Write(path, Default()); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{cfg.StorageDir(), cfg.ScriptsDir(), cfg.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return cfg, nil
}

// Write serializes cfg to path, as JSON when the extension is .json.
func Write(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(cfg, "", "    ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings no component can honour.
func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	switch c.Store.Driver {
	case DriverFile, DriverMemory:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	switch c.Loader {
	case LoaderFile, LoaderLoam:
	default:
		errs = append(errs, fmt.Errorf("unknown script loader %q", c.Loader))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Concurrency == 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Paths.Storage == "" {
		c.Paths.Storage = def.Paths.Storage
	}
	if c.Paths.Scripts == "" {
		c.Paths.Scripts = def.Paths.Scripts
	}
	if c.Paths.Log == "" {
		c.Paths.Log = def.Paths.Log
	}
	if c.Loader == "" {
		c.Loader = def.Loader
	}
	if c.Store.Driver == "" {
		c.Store.Driver = def.Store.Driver
	}
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = domain.DefaultMaxCallDepth
	}
}

// StorageDir is the absolute directory of file-backed profiles.
func (c *Config) StorageDir() string { return c.resolve(c.Paths.Storage) }

// ScriptsDir is the absolute directory scripts are loaded from.
func (c *Config) ScriptsDir() string { return c.resolve(c.Paths.Scripts) }

// LogDir is the absolute directory of run logs.
func (c *Config) LogDir() string { return c.resolve(c.Paths.Log) }

// LogFile is the log file inside LogDir.
func (c *Config) LogFile() string { return filepath.Join(c.LogDir(), LogFileName) }

// ToolsFile is the absolute path of the process allow-list.
func (c *Config) ToolsFile() string {
	if c.Tools == "" {
		return ""
	}
	return c.resolve(c.Tools)
}

// Dir is the directory relative paths are resolved against.
func (c *Config) Dir() string { return c.dir }

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(c.dir, p)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
