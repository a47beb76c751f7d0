// Package config loads the .bobbin/config.toml document: index
// selection, the embedding model, search tunables, coupling analysis,
// hook behavior, and the optional per-role access filter.
package config

// Config is the complete TOML configuration for a repo's .bobbin/ root.
type Config struct {
	Index     IndexConfig     `toml:"index" mapstructure:"index"`
	Embedding EmbeddingConfig `toml:"embedding" mapstructure:"embedding"`
	Search    SearchConfig    `toml:"search" mapstructure:"search"`
	Git       GitConfig       `toml:"git" mapstructure:"git"`
	Hooks     HooksConfig     `toml:"hooks" mapstructure:"hooks"`
	Access    AccessConfig    `toml:"access" mapstructure:"access"`
}

// IndexConfig drives file selection.
type IndexConfig struct {
	Include      []string `toml:"include" mapstructure:"include"`
	Exclude      []string `toml:"exclude" mapstructure:"exclude"`
	UseGitignore bool     `toml:"use_gitignore" mapstructure:"use_gitignore"`
}

// ContextWindowConfig configures contextual-embedding enrichment.
type ContextWindowConfig struct {
	ContextLines     int      `toml:"context_lines" mapstructure:"context_lines"`
	EnabledLanguages []string `toml:"enabled_languages" mapstructure:"enabled_languages"`
}

// EmbeddingConfig identifies the embedding model and its batching.
type EmbeddingConfig struct {
	Model              string              `toml:"model" mapstructure:"model"`
	BatchSize          int                 `toml:"batch_size" mapstructure:"batch_size"`
	Dimension          int                 `toml:"dimension,omitempty" mapstructure:"dimension"`
	MaxSequenceLength  int                 `toml:"max_sequence_length,omitempty" mapstructure:"max_sequence_length"`
	Context            ContextWindowConfig `toml:"context" mapstructure:"context"`
}

// SearchConfig holds the retriever tunables calibrate sweeps over.
type SearchConfig struct {
	DefaultLimit         int     `toml:"default_limit" mapstructure:"default_limit"`
	SemanticWeight       float64 `toml:"semantic_weight" mapstructure:"semantic_weight"`
	DocDemotion          float64 `toml:"doc_demotion" mapstructure:"doc_demotion"`
	RRFK                 float64 `toml:"rrf_k" mapstructure:"rrf_k"`
	RecencyHalfLifeDays  float64 `toml:"recency_half_life_days" mapstructure:"recency_half_life_days"`
	RecencyWeight        float64 `toml:"recency_weight" mapstructure:"recency_weight"`
}

// GitConfig controls file-coupling analysis.
type GitConfig struct {
	CouplingEnabled   bool    `toml:"coupling_enabled" mapstructure:"coupling_enabled"`
	CouplingDepth     int     `toml:"coupling_depth" mapstructure:"coupling_depth"`
	CouplingThreshold float64 `toml:"coupling_threshold" mapstructure:"coupling_threshold"`
}

// HooksConfig controls the hook subsystem (see internal/hook).
type HooksConfig struct {
	Threshold       float64 `toml:"threshold" mapstructure:"threshold"`
	Budget          int     `toml:"budget" mapstructure:"budget"`
	ContentMode     string  `toml:"content_mode" mapstructure:"content_mode"`
	MinPromptLength int     `toml:"min_prompt_length" mapstructure:"min_prompt_length"`
	GateThreshold   float64 `toml:"gate_threshold" mapstructure:"gate_threshold"`
	DedupEnabled    bool    `toml:"dedup_enabled" mapstructure:"dedup_enabled"`
	ShowDocs        bool    `toml:"show_docs" mapstructure:"show_docs"`
}

// Role is one named entry in access.roles.
type Role struct {
	Name  string   `toml:"name" mapstructure:"name"`
	Allow []string `toml:"allow" mapstructure:"allow"`
	Deny  []string `toml:"deny" mapstructure:"deny"`
}

// AccessConfig is the optional per-role repo visibility filter applied
// to search/context results after retrieval.
type AccessConfig struct {
	DefaultAllow bool   `toml:"default_allow" mapstructure:"default_allow"`
	Roles        []Role `toml:"roles" mapstructure:"roles"`
}

// Default returns the built-in configuration a freshly `init`-ed repo
// starts from.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Include:      []string{"**/*"},
			Exclude:      []string{"node_modules/**", "vendor/**", ".git/**", "dist/**", "build/**", "target/**", "__pycache__/**"},
			UseGitignore: true,
		},
		Embedding: EmbeddingConfig{
			Model:     "bge-small-en-v1.5",
			BatchSize: 32,
			Context: ContextWindowConfig{
				ContextLines:     0,
				EnabledLanguages: nil,
			},
		},
		Search: SearchConfig{
			DefaultLimit:        20,
			SemanticWeight:      0.6,
			DocDemotion:         0.75,
			RRFK:                60,
			RecencyHalfLifeDays: 90,
			RecencyWeight:       0.1,
		},
		Git: GitConfig{
			CouplingEnabled:   true,
			CouplingDepth:     1,
			CouplingThreshold: 0.3,
		},
		Hooks: HooksConfig{
			Threshold:       0.3,
			Budget:          200,
			ContentMode:     "preview",
			MinPromptLength: 12,
			GateThreshold:   0.35,
			DedupEnabled:    true,
			ShowDocs:        true,
		},
		Access: AccessConfig{
			DefaultAllow: true,
		},
	}
}
