package hook

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobbin-dev/bobbin/internal/assembler"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

// Runner processes one stdin event at a time against a shared
// assembler, gating, deduplicating, and formatting its output, and
// recording metrics. It never surfaces an error to its caller: any
// failure is logged to errLog and answered with an empty Output.
type Runner struct {
	assembler   *assembler.Assembler
	cfg         Config
	statePath   string
	metrics     *Appender
	errLog      *log.Logger
	sessionFn   func(assembler.ContextBundle) string // overridable in tests
}

// NewRunner wires a Runner. statePath and metricsPath point at the
// optional hook-state JSON and metrics JSONL files under .bobbin/.
func NewRunner(a *assembler.Assembler, cfg Config, statePath, metricsPath string, errLog *log.Logger) *Runner {
	if errLog == nil {
		errLog = log.Default()
	}
	return &Runner{
		assembler: a,
		cfg:       cfg,
		statePath: statePath,
		metrics:   NewAppender(metricsPath),
		errLog:    errLog,
		sessionFn: sessionID,
	}
}

// Process runs the gate -> dedup -> format -> metrics pipeline for one
// request and always returns a valid Output, per the hook's "never
// block the caller" contract.
func (r *Runner) Process(ctx context.Context, req Request) Output {
	start := time.Now()

	if len(strings.TrimSpace(req.Prompt)) < r.cfg.MinPromptLength {
		r.emit(EventHookGateSkip, req, 0, start)
		return Output{}
	}

	bundle, err := r.assembler.Assemble(ctx, req.Prompt, r.cfg.assemblerConfig(), vectorstore.Filters{})
	if err != nil {
		r.errLog.Printf("hook: assemble failed, emitting empty context: %v", err)
		return Output{}
	}

	topScore := bundle.Summary.TopSemanticScore
	if topScore < r.cfg.GateThreshold {
		r.emit(EventHookGateSkip, req, topScore, start)
		return Output{}
	}

	sid := r.sessionFn(bundle)
	var state State
	if r.cfg.DedupEnabled {
		state, err = loadState(r.statePath)
		if err != nil {
			r.errLog.Printf("hook: reading state failed, proceeding without dedup: %v", err)
			state = State{FrequencyByCaller: map[string]int{}}
		}
		if state.LastSessionID != "" && state.LastSessionID == sid {
			r.emit(EventHookDedupSkip, req, topScore, start)
			return Output{}
		}
	}

	text := formatBundle(bundle, r.cfg.ShowDocs)

	if r.cfg.DedupEnabled {
		state.LastSessionID = sid
		state.LastInjectionAt = time.Now().UTC()
		if state.FrequencyByCaller == nil {
			state.FrequencyByCaller = map[string]int{}
		}
		if req.SessionID != "" {
			state.FrequencyByCaller[req.SessionID]++
		}
		if err := saveState(r.statePath, state); err != nil {
			r.errLog.Printf("hook: writing state failed, dedup may repeat next call: %v", err)
		}
	}

	r.emit(EventHookInjection, req, topScore, start)
	return Output{HookSpecificOutput: HookSpecificOutput{AdditionalContext: text}}
}

func (r *Runner) emit(eventType string, req Request, topScore float64, start time.Time) {
	ev := Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Source:     ResolveSource("", "", req.SessionID),
		EventType:  eventType,
		Command:    "hook",
		DurationMs: time.Since(start).Milliseconds(),
		Metadata: map[string]any{
			"session_id": req.SessionID,
			"top_score":  topScore,
		},
	}
	if err := r.metrics.Append(ev); err != nil {
		r.errLog.Printf("hook: writing metrics event failed: %v", err)
	}
}
