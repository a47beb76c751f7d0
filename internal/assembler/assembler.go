// Package assembler builds a ContextBundle from a query or a seed list:
// hybrid search results expanded by file coupling, bridged from
// documentation to the source it describes via git blame, then packed
// into a line budget.
package assembler

import (
	"context"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
	"github.com/bobbin-dev/bobbin/internal/retriever"
	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

// fileChunksCacheSize bounds the coupling/bridge file-lookup cache. Expand
// and bridge re-fetch the same handful of hot files (coupling hubs, heavily
// blamed docs) across many seeds within a single Assemble call, and across
// calls in a long-lived `watch`/`serve` process.
const fileChunksCacheSize = 512

// ContentMode controls how much of a chunk's text the bundle carries.
type ContentMode string

const (
	ContentFull    ContentMode = "full"
	ContentPreview ContentMode = "preview"
	ContentNone    ContentMode = "none"
)

// Relevance classifies why a file made it into the bundle.
type Relevance string

const (
	RelevanceDirect  Relevance = "direct"
	RelevanceCoupled Relevance = "coupled"
	RelevanceBridged Relevance = "bridged"
)

// Config adds assembly-specific knobs to a retriever.Config.
type Config struct {
	Retrieval        retriever.Config
	BudgetLines      int
	Depth            int // 0..3
	MaxCoupledPerSeed int
	ContentMode      ContentMode
	ShowDocs         bool
	CouplingThreshold float64
}

// DefaultConfig matches a freshly configured assembler.
func DefaultConfig() Config {
	return Config{
		Retrieval:         retriever.DefaultConfig(),
		BudgetLines:       400,
		Depth:             1,
		MaxCoupledPerSeed: 5,
		ContentMode:       ContentFull,
		ShowDocs:          true,
		CouplingThreshold: 0.3,
	}
}

// SeedChunk is a search hit before expansion.
type SeedChunk struct {
	Chunk     chunk.Chunk
	Score     float64
	MatchType string // "semantic", "keyword", or "hybrid"
}

// FileEntry is one file's admitted chunks in the final bundle.
type FileEntry struct {
	Path       string
	Language   string
	Relevance  Relevance
	Score      float64
	CoupledTo  []string
	Chunks     []ChunkView
}

// ChunkView is the shaped, budget-accounted form of a chunk.
type ChunkView struct {
	Chunk   chunk.Chunk
	Content string // shaped per ContentMode
}

// Summary aggregates bundle-level counts.
type Summary struct {
	TotalFiles        int
	TotalChunks       int
	DirectHits        int
	CoupledAdditions  int
	BridgedAdditions  int
	SourceFiles       int
	DocFiles          int
	TopSemanticScore  float64
}

// Budget reports the line budget and how much was used.
type Budget struct {
	MaxLines  int
	UsedLines int
}

// ContextBundle is assemble's result.
type ContextBundle struct {
	Query   string
	Files   []FileEntry
	Budget  Budget
	Summary Summary
}

// Assembler ties together a retriever, the metadata store's coupling
// edges, and the git analyzer's blame for provenance bridging.
type Assembler struct {
	retriever *retriever.Retriever
	vecStore  *vectorstore.Store
	metaStore *metadatastore.Store
	git       gitanalyzer.Analyzer

	fileChunks *lru.Cache[string, []chunk.Chunk]
}

// New builds an Assembler.
func New(r *retriever.Retriever, vecStore *vectorstore.Store, metaStore *metadatastore.Store, git gitanalyzer.Analyzer) *Assembler {
	cache, _ := lru.New[string, []chunk.Chunk](fileChunksCacheSize)
	return &Assembler{retriever: r, vecStore: vecStore, metaStore: metaStore, git: git, fileChunks: cache}
}

// chunksForFile is GetChunksForFile with an LRU in front of it: expand and
// bridge both re-fetch the same files across seeds, and a long-lived
// watch/serve process re-fetches them across queries.
func (a *Assembler) chunksForFile(repo, filePath string) ([]chunk.Chunk, error) {
	key := repo + "|" + filePath
	if a.fileChunks != nil {
		if cached, ok := a.fileChunks.Get(key); ok {
			return cached, nil
		}
	}
	chunks, err := a.vecStore.GetChunksForFile(repo, filePath)
	if err != nil {
		return nil, err
	}
	if a.fileChunks != nil {
		a.fileChunks.Add(key, chunks)
	}
	return chunks, nil
}

// InvalidateFile evicts filePath's cached chunk list. Callers that
// reindex a file while the same Assembler stays alive (the `watch`
// subcommand) must call this or stale chunks leak into later bundles.
func (a *Assembler) InvalidateFile(repo, filePath string) {
	if a.fileChunks != nil {
		a.fileChunks.Remove(repo + "|" + filePath)
	}
}

// Assemble runs the full phase 1-4 pipeline starting from a query.
func (a *Assembler) Assemble(ctx context.Context, query string, cfg Config, filters vectorstore.Filters) (ContextBundle, error) {
	outcome, err := a.retriever.Search(ctx, query, cfg.Retrieval, filters)
	if err != nil {
		return ContextBundle{}, err
	}
	seeds := make([]SeedChunk, 0, len(outcome.Results))
	for _, res := range outcome.Results {
		seeds = append(seeds, SeedChunk{Chunk: res.Chunk, Score: res.Score, MatchType: string(cfg.Retrieval.Mode)})
	}
	return a.assembleFromSeeds(ctx, query, seeds, outcome.TopSemanticScore, cfg)
}

// AssembleFromSeeds skips Phase 1 and starts expansion from a
// caller-supplied seed list (e.g. "related to this file").
func (a *Assembler) AssembleFromSeeds(ctx context.Context, seeds []SeedChunk, cfg Config) (ContextBundle, error) {
	var top float64
	for _, s := range seeds {
		if s.Score > top {
			top = s.Score
		}
	}
	return a.assembleFromSeeds(ctx, "", seeds, top, cfg)
}

type candidate struct {
	chunk     chunk.Chunk
	score     float64
	relevance Relevance
	coupledTo []string
	bridgedBy string // commit hash, for Bridged chunks
}

func (a *Assembler) assembleFromSeeds(ctx context.Context, query string, seeds []SeedChunk, topSemanticScore float64, cfg Config) (ContextBundle, error) {
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].Score > seeds[j].Score })

	candidates := make(map[string]candidate, len(seeds))
	for _, s := range seeds {
		candidates[s.Chunk.ID] = candidate{chunk: s.Chunk, score: s.Score, relevance: RelevanceDirect}
	}
	directHits := len(candidates)

	coupledAdditions := 0
	if cfg.Depth > 0 {
		coupledAdditions = a.expand(ctx, seeds, candidates, cfg)
	}

	bridgedAdditions := a.bridge(ctx, seeds, candidates, cfg)

	bundle := a.fitBudget(candidates, cfg)
	bundle.Query = query
	bundle.Summary.TopSemanticScore = topSemanticScore
	bundle.Summary.DirectHits = directHits
	bundle.Summary.CoupledAdditions = coupledAdditions
	bundle.Summary.BridgedAdditions = bridgedAdditions
	return bundle, nil
}
