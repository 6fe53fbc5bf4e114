package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sigtrace/internal/rules"
	"sigtrace/internal/rules/vue"
)

const (
	PresetVue  = "vue"
	PresetNone = "none"

	DefaultPath      = "sigtrace.yaml"
	DefaultDB        = "sigtrace.db"
	DefaultCacheSize = 128
)

type Config struct {
	Project struct {
		Root   string   `yaml:"root"`
		Ignore []string `yaml:"ignore"`
	} `yaml:"project"`
	Analysis struct {
		// Preset is vue or none.
		Preset string `yaml:"preset"`
		// Rules are checked before the preset.
		Rules     []rules.Declaration `yaml:"rules"`
		CacheSize int                 `yaml:"cache_size"`
		Strict    bool                `yaml:"strict"`
	} `yaml:"analysis"`
	Storage struct {
		DB string `yaml:"db"`
	} `yaml:"storage"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Analysis.Preset = PresetVue
	cfg.Analysis.CacheSize = DefaultCacheSize
	cfg.Storage.DB = DefaultDB
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("SIGTRACE_DB"); db != "" {
		cfg.Storage.DB = db
	}
	if preset := os.Getenv("SIGTRACE_PRESET"); preset != "" {
		cfg.Analysis.Preset = preset
	}
	if size := os.Getenv("SIGTRACE_CACHE_SIZE"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return nil, fmt.Errorf("invalid SIGTRACE_CACHE_SIZE %q: %w", size, err)
		}
		cfg.Analysis.CacheSize = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the preset name and compiles the declared rules.
func (c *Config) Validate() error {
	if _, err := c.RuleSet(); err != nil {
		return err
	}
	if c.Analysis.CacheSize < 0 {
		return fmt.Errorf("analysis.cache_size must not be negative")
	}
	return nil
}

// RuleSet returns the declared rules followed by the preset.
func (c *Config) RuleSet() (rules.Set, error) {
	var preset rules.Set
	switch c.Analysis.Preset {
	case PresetVue, "":
		preset = vue.Rules()
	case PresetNone:
	default:
		return nil, fmt.Errorf("unknown analysis.preset %q", c.Analysis.Preset)
	}

	declared, err := rules.CompileAll(c.Analysis.Rules)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis.rules: %w", err)
	}
	return preset.Prepend(declared...), nil
}
