package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyModel         = errors.New("empty embedding model")
	ErrInvalidBatchSize   = errors.New("invalid embedding batch size")
	ErrInvalidWeight      = errors.New("invalid search weight")
	ErrInvalidRRFK        = errors.New("invalid rrf_k")
	ErrInvalidCoupling    = errors.New("invalid coupling configuration")
	ErrInvalidHookBudget  = errors.New("invalid hook budget")
	ErrInvalidContentMode = errors.New("invalid hook content_mode")
	ErrUnknownRoleRef     = errors.New("access role references unknown pattern set")
)

// Validate checks that cfg is internally consistent.
func Validate(cfg *Config) error {
	var errs []error
	errs = append(errs, validateEmbedding(&cfg.Embedding)...)
	errs = append(errs, validateSearch(&cfg.Search)...)
	errs = append(errs, validateGit(&cfg.Git)...)
	errs = append(errs, validateHooks(&cfg.Hooks)...)
	return joinErrors(errs)
}

func validateEmbedding(cfg *EmbeddingConfig) []error {
	var errs []error
	if strings.TrimSpace(cfg.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: model is required", ErrEmptyModel))
	}
	if cfg.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidBatchSize, cfg.BatchSize))
	}
	if cfg.Dimension < 0 {
		errs = append(errs, fmt.Errorf("%w: dimension cannot be negative", ErrInvalidBatchSize))
	}
	return errs
}

func validateSearch(cfg *SearchConfig) []error {
	var errs []error
	if cfg.SemanticWeight < 0 || cfg.SemanticWeight > 1 {
		errs = append(errs, fmt.Errorf("%w: semantic_weight must be in [0,1], got %v", ErrInvalidWeight, cfg.SemanticWeight))
	}
	if cfg.DocDemotion < 0 || cfg.DocDemotion > 1 {
		errs = append(errs, fmt.Errorf("%w: doc_demotion must be in [0,1], got %v", ErrInvalidWeight, cfg.DocDemotion))
	}
	if cfg.RRFK <= 0 {
		errs = append(errs, fmt.Errorf("%w: rrf_k must be positive, got %v", ErrInvalidRRFK, cfg.RRFK))
	}
	if cfg.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("invalid search.default_limit: must be positive, got %d", cfg.DefaultLimit))
	}
	return errs
}

func validateGit(cfg *GitConfig) []error {
	var errs []error
	if cfg.CouplingDepth < 0 || cfg.CouplingDepth > 3 {
		errs = append(errs, fmt.Errorf("%w: coupling_depth must be in [0,3], got %d", ErrInvalidCoupling, cfg.CouplingDepth))
	}
	if cfg.CouplingThreshold < 0 || cfg.CouplingThreshold > 1 {
		errs = append(errs, fmt.Errorf("%w: coupling_threshold must be in [0,1], got %v", ErrInvalidCoupling, cfg.CouplingThreshold))
	}
	return errs
}

var validContentModes = map[string]bool{"full": true, "preview": true, "none": true}

func validateHooks(cfg *HooksConfig) []error {
	var errs []error
	if cfg.Budget <= 0 {
		errs = append(errs, fmt.Errorf("%w: budget must be positive, got %d", ErrInvalidHookBudget, cfg.Budget))
	}
	if cfg.ContentMode != "" && !validContentModes[cfg.ContentMode] {
		errs = append(errs, fmt.Errorf("%w: got %q, want full|preview|none", ErrInvalidContentMode, cfg.ContentMode))
	}
	if cfg.GateThreshold < 0 {
		errs = append(errs, fmt.Errorf("invalid hooks.gate_threshold: cannot be negative, got %v", cfg.GateThreshold))
	}
	return errs
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
