// Package calibrate automatically tunes the retriever by sampling
// commit history, scoring candidate configurations against each
// commit's own touched-files as ground truth, and persisting the best
// point found.
package calibrate

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobbin-dev/bobbin/internal/assembler"
	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

// Config bounds the calibration run.
type Config struct {
	MaxCommits       int
	MaxFilesChanged  int // commits touching more files than this are skipped as refactors
	SemanticWeights  []float64
	DocDemotions     []float64
	RRFKs            []float64
}

// DefaultConfig is a coarse grid sized to finish quickly on a modest
// commit sample.
func DefaultConfig() Config {
	return Config{
		MaxCommits:      50,
		MaxFilesChanged: 20,
		SemanticWeights: []float64{0.4, 0.5, 0.6, 0.7, 0.8},
		DocDemotions:    []float64{0.5, 0.75, 1.0},
		RRFKs:           []float64{30, 60, 90},
	}
}

// Point is one grid coordinate and the F1 it scored.
type Point struct {
	SemanticWeight float64
	DocDemotion    float64
	RRFK           float64
	Precision      float64
	Recall         float64
	F1             float64
}

// Result is a completed calibration run: the winning point, the
// sample snapshot used to score it, and every point the grid swept.
type Result struct {
	RunID      string
	Best       Point
	SampleSize int
	AllPoints  []Point
	SampledAt  time.Time
}

type sample struct {
	query        string
	touchedFiles map[string]bool
}

// Run samples up to cfg.MaxCommits eligible commits, sweeps the grid,
// and returns the best-scoring point. Each grid point is scored by
// running the assembler with depth 0 (seed, bridge, budget-fit; no
// coupling expansion) and taking
// its bundle's file list as the prediction, per the commit's own
// touched files as ground truth.
func Run(ctx context.Context, cfg Config, git gitanalyzer.Analyzer, a *assembler.Assembler, repo string) (Result, error) {
	samples, err := collectSamples(ctx, git, cfg)
	if err != nil {
		return Result{}, err
	}
	if len(samples) == 0 {
		return Result{RunID: uuid.NewString(), SampledAt: now()}, nil
	}

	var points []Point
	var best Point
	for _, sw := range cfg.SemanticWeights {
		for _, dd := range cfg.DocDemotions {
			for _, k := range cfg.RRFKs {
				select {
				case <-ctx.Done():
					return Result{}, ctx.Err()
				default:
				}
				ac := assembler.DefaultConfig()
				ac.Retrieval.SemanticWeight = sw
				ac.Retrieval.DocDemotion = dd
				ac.Retrieval.RRFK = k
				ac.Depth = 0 // file-list scoring only needs direct hits

				precision, recall, f1, err := score(ctx, a, repo, samples, ac)
				if err != nil {
					continue
				}
				p := Point{SemanticWeight: sw, DocDemotion: dd, RRFK: k, Precision: precision, Recall: recall, F1: f1}
				points = append(points, p)
				if p.F1 > best.F1 {
					best = p
				}
			}
		}
	}

	return Result{RunID: uuid.NewString(), Best: best, SampleSize: len(samples), AllPoints: points, SampledAt: now()}, nil
}

// collectSamples walks recent history, skipping merges (already
// excluded by gitanalyzer.ListCommits), reverts, and large refactors.
func collectSamples(ctx context.Context, git gitanalyzer.Analyzer, cfg Config) ([]sample, error) {
	commits, err := git.ListCommits(ctx, cfg.MaxCommits*3)
	if err != nil {
		return nil, err
	}

	var samples []sample
	for _, c := range commits {
		if len(samples) >= cfg.MaxCommits {
			break
		}
		if isRevert(c.Message) {
			continue
		}
		files, err := git.GetCommitFiles(ctx, c.Hash)
		if err != nil || len(files) == 0 {
			continue
		}
		if cfg.MaxFilesChanged > 0 && len(files) > cfg.MaxFilesChanged {
			continue
		}
		touched := make(map[string]bool, len(files))
		for _, f := range files {
			touched[f] = true
		}
		samples = append(samples, sample{query: c.Message, touchedFiles: touched})
	}
	return samples, nil
}

func isRevert(message string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(message)), "revert")
}

// score assembles a bundle for each sample's commit message and
// averages file-level precision/recall/F1 against its touched files.
func score(ctx context.Context, a *assembler.Assembler, repo string, samples []sample, ac assembler.Config) (precision, recall, f1 float64, err error) {
	var sumP, sumR, sumF float64
	n := 0
	for _, s := range samples {
		bundle, assembleErr := a.Assemble(ctx, s.query, ac, vectorstore.Filters{Repo: repo})
		if assembleErr != nil {
			continue
		}
		predicted := make(map[string]bool, len(bundle.Files))
		for _, f := range bundle.Files {
			predicted[f.Path] = true
		}
		p, rc2, fc := fileLevelScore(predicted, s.touchedFiles)
		sumP += p
		sumR += rc2
		sumF += fc
		n++
	}
	if n == 0 {
		return 0, 0, 0, nil
	}
	return sumP / float64(n), sumR / float64(n), sumF / float64(n), nil
}

func fileLevelScore(predicted, actual map[string]bool) (precision, recall, f1 float64) {
	if len(predicted) == 0 || len(actual) == 0 {
		return 0, 0, 0
	}
	hits := 0
	for f := range predicted {
		if actual[f] {
			hits++
		}
	}
	precision = float64(hits) / float64(len(predicted))
	recall = float64(hits) / float64(len(actual))
	if precision+recall == 0 {
		return precision, recall, 0
	}
	f1 = 2 * precision * recall / (precision + recall)
	return precision, recall, f1
}

// now is a var so tests can pin calibration timestamps.
var now = func() time.Time { return time.Now().UTC() }

// Snapshot captures the inputs a calibration run scored against, so a
// later CalibrationGuard check can tell how stale it is.
type Snapshot struct {
	ChunkCount     int
	PrimaryLanguage string
	SampledAt      time.Time
}

func (s Snapshot) MarshalForStore() (string, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

// Weights is the persisted form of a winning Point.
type Weights struct {
	SemanticWeight float64 `json:"semantic_weight"`
	DocDemotion    float64 `json:"doc_demotion"`
	RRFK           float64 `json:"rrf_k"`
}

func (p Point) MarshalWeights() (string, error) {
	b, err := json.Marshal(Weights{SemanticWeight: p.SemanticWeight, DocDemotion: p.DocDemotion, RRFK: p.RRFK})
	return string(b), err
}

// Persist writes a calibration result to the metadata store.
func Persist(meta *metadatastore.Store, snapshot Snapshot, best Point) error {
	snapshotJSON, err := snapshot.MarshalForStore()
	if err != nil {
		return err
	}
	weightsJSON, err := best.MarshalWeights()
	if err != nil {
		return err
	}
	_, err = meta.InsertCalibration(snapshotJSON, weightsJSON, best.F1)
	return err
}
