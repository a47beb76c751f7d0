package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one line of the append-only metrics stream at
// .bobbin/metrics.jsonl. ID is a fresh UUID per event, not derived from
// session state, so two injections in the same second remain distinguishable
// when post-processing metrics.jsonl.
type Event struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     string         `json:"source"`
	EventType  string         `json:"event_type"`
	Command    string         `json:"command"`
	DurationMs int64          `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

const (
	EventHookInjection = "hook_injection"
	EventHookGateSkip  = "hook_gate_skip"
	EventHookDedupSkip = "hook_dedup_skip"
)

// Appender writes Events as newline-delimited JSON to a single file,
// opened and closed per call so a crashed process never leaves the
// file handle dangling.
type Appender struct {
	path string
	mu   sync.Mutex
}

// NewAppender targets path; the file and its parent directory are
// created on first Append if missing.
func NewAppender(path string) *Appender {
	return &Appender{path: path}
}

// Append writes one event. A failure here is logged by the caller and
// never propagated into the hook's stdout contract.
func (a *Appender) Append(ev Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	return enc.Encode(ev)
}

// ResolveSource implements the CLI-flag > env-var > hook session-id >
// "unknown" precedence shared by every metrics emitter.
func ResolveSource(flag, env, sessionID string) string {
	if flag != "" {
		return flag
	}
	if env != "" {
		return env
	}
	if sessionID != "" {
		return sessionID
	}
	return "unknown"
}
