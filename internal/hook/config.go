package hook

import "github.com/bobbin-dev/bobbin/internal/assembler"

// Config is the `[hooks]` section of the TOML configuration.
type Config struct {
	Threshold       float64 // coupling-expansion score floor for hook-driven assembly
	Budget          int     // line budget
	ContentMode     assembler.ContentMode
	MinPromptLength int
	GateThreshold   float64
	DedupEnabled    bool
	ShowDocs        bool
}

// DefaultConfig matches a freshly installed hook: tight budget, preview
// content, a conservative gate so thin or off-topic prompts stay quiet.
func DefaultConfig() Config {
	return Config{
		Threshold:       0.3,
		Budget:          200,
		ContentMode:     assembler.ContentPreview,
		MinPromptLength: 12,
		GateThreshold:   0.35,
		DedupEnabled:    true,
		ShowDocs:        true,
	}
}

// assemblerConfig maps hook settings onto the assembler knobs a hook
// invocation actually drives; depth stays at the assembler default so
// a prompt still pulls in coupled files, just trimmed to Budget.
func (c Config) assemblerConfig() assembler.Config {
	ac := assembler.DefaultConfig()
	ac.BudgetLines = c.Budget
	ac.ContentMode = c.ContentMode
	ac.ShowDocs = c.ShowDocs
	ac.CouplingThreshold = c.Threshold
	return ac
}
