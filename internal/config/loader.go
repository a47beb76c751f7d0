package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration with priority defaults -> config file ->
	// environment variables (env wins), then CLI flags layered on by
	// the caller take final precedence.
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a loader rooted at rootDir, reading
// <rootDir>/.bobbin/config.toml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".bobbin")
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("BOBBIN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("index.include", d.Index.Include)
	v.SetDefault("index.exclude", d.Index.Exclude)
	v.SetDefault("index.use_gitignore", d.Index.UseGitignore)

	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.batch_size", d.Embedding.BatchSize)
	v.SetDefault("embedding.context.context_lines", d.Embedding.Context.ContextLines)
	v.SetDefault("embedding.context.enabled_languages", d.Embedding.Context.EnabledLanguages)

	v.SetDefault("search.default_limit", d.Search.DefaultLimit)
	v.SetDefault("search.semantic_weight", d.Search.SemanticWeight)
	v.SetDefault("search.doc_demotion", d.Search.DocDemotion)
	v.SetDefault("search.rrf_k", d.Search.RRFK)
	v.SetDefault("search.recency_half_life_days", d.Search.RecencyHalfLifeDays)
	v.SetDefault("search.recency_weight", d.Search.RecencyWeight)

	v.SetDefault("git.coupling_enabled", d.Git.CouplingEnabled)
	v.SetDefault("git.coupling_depth", d.Git.CouplingDepth)
	v.SetDefault("git.coupling_threshold", d.Git.CouplingThreshold)

	v.SetDefault("hooks.threshold", d.Hooks.Threshold)
	v.SetDefault("hooks.budget", d.Hooks.Budget)
	v.SetDefault("hooks.content_mode", d.Hooks.ContentMode)
	v.SetDefault("hooks.min_prompt_length", d.Hooks.MinPromptLength)
	v.SetDefault("hooks.gate_threshold", d.Hooks.GateThreshold)
	v.SetDefault("hooks.dedup_enabled", d.Hooks.DedupEnabled)
	v.SetDefault("hooks.show_docs", d.Hooks.ShowDocs)

	v.SetDefault("access.default_allow", d.Access.DefaultAllow)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration rooted at a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// Write renders cfg as TOML to <rootDir>/.bobbin/config.toml, used by
// `bobbin init`.
func Write(rootDir string, cfg *Config) error {
	configDir := filepath.Join(rootDir, ".bobbin")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType("toml")
	b, err := marshalTOML(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.toml"), b, 0o644)
}
