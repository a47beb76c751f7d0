// Package retriever implements hybrid vector+keyword search over the
// vector/FTS store: reciprocal rank fusion, documentation demotion, and a
// recency boost, producing a single ranked list of chunks.
package retriever

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/bobbin-dev/bobbin/internal/embedder"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

// Mode selects which signal(s) feed the fused ranking.
type Mode string

const (
	ModeHybrid  Mode = "hybrid"
	ModeSemantic Mode = "semantic"
	ModeKeyword Mode = "keyword"
)

// Config tunes one search call.
type Config struct {
	Limit               int
	Mode                Mode
	SemanticWeight      float64 // [0,1]
	RRFK                float64
	DocDemotion         float64 // (0,1]
	RecencyHalfLifeDays float64 // 0 disables
	RecencyWeight       float64 // [0,1]
}

// DefaultConfig matches the retriever tunables a fresh configuration
// file ships with, except that the recency boost is disabled here
// (half-life and weight 0).
func DefaultConfig() Config {
	return Config{
		Limit:               20,
		Mode:                ModeHybrid,
		SemanticWeight:      0.6,
		RRFK:                60,
		DocDemotion:         0.75,
		RecencyHalfLifeDays: 0,
		RecencyWeight:       0,
	}
}

// Result is one ranked chunk plus the bookkeeping the assembler and hook
// layers need on top of it.
type Result struct {
	Chunk chunk.Chunk
	Score float64
}

// FileLastCommit resolves the last-commit time for a file, used by the
// recency boost; callers back it with the git analyzer or a cache of it.
type FileLastCommit func(filePath string) (when int64, ok bool)

// Retriever runs hybrid search against one vector/FTS store.
type Retriever struct {
	store    *vectorstore.Store
	embedder embedder.Embedder
	lastCommit FileLastCommit
}

// New builds a Retriever over store, embedding queries with emb. lastCommit
// may be nil, in which case recency boosting is always zero.
func New(store *vectorstore.Store, emb embedder.Embedder, lastCommit FileLastCommit) *Retriever {
	return &Retriever{store: store, embedder: emb, lastCommit: lastCommit}
}

// TopSemanticScore is recorded alongside Search's results: the raw top
// cosine score from the vector leg, used unrenormalized by the hook
// gate.
type SearchOutcome struct {
	Results          []Result
	TopSemanticScore float64
}

// Search runs the hybrid retrieval algorithm: pre-process the query for
// keyword search, embed the raw query for vector search, fuse via RRF,
// demote documentation/config chunks, add a recency boost, then sort and
// truncate.
func (r *Retriever) Search(ctx context.Context, query string, cfg Config, filters vectorstore.Filters) (SearchOutcome, error) {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultConfig().Limit
	}
	oversample := cfg.Limit * 4

	var semanticRanks map[string]int
	var byID map[string]chunk.Chunk
	byID = make(map[string]chunk.Chunk)
	var topSemanticScore float64

	if cfg.Mode != ModeKeyword {
		select {
		case <-ctx.Done():
			return SearchOutcome{}, ctx.Err()
		default:
		}
		vec, err := r.embedder.Embed(ctx, query)
		if err != nil {
			return SearchOutcome{}, err
		}
		semanticResults, err := r.store.SearchByVector(vec, oversample, filters)
		if err != nil {
			return SearchOutcome{}, err
		}
		semanticRanks = make(map[string]int, len(semanticResults))
		for i, sr := range semanticResults {
			rank := i + 1
			if i > 0 && sr.Score == semanticResults[i-1].Score {
				rank = semanticRanks[semanticResults[i-1].Chunk.ID]
			}
			semanticRanks[sr.Chunk.ID] = rank
			byID[sr.Chunk.ID] = sr.Chunk
			if i == 0 {
				topSemanticScore = sr.Score
			}
		}
	}

	var keywordRanks map[string]int
	if cfg.Mode != ModeSemantic {
		keywordQuery := preprocessKeywordQuery(query)
		if keywordQuery != "" {
			keywordResults, err := r.store.FTS(keywordQuery, oversample, filters)
			if err != nil {
				return SearchOutcome{}, err
			}
			keywordRanks = make(map[string]int, len(keywordResults))
			for i, kr := range keywordResults {
				rank := i + 1
				if i > 0 && kr.Score == keywordResults[i-1].Score {
					rank = keywordRanks[keywordResults[i-1].Chunk.ID]
				}
				keywordRanks[kr.Chunk.ID] = rank
				if _, ok := byID[kr.Chunk.ID]; !ok {
					byID[kr.Chunk.ID] = kr.Chunk
				}
			}
		}
	}

	fused := make(map[string]float64, len(byID))
	for id := range byID {
		var score float64
		if r, ok := semanticRanks[id]; ok {
			score += cfg.SemanticWeight / (cfg.RRFK + float64(r))
		}
		if r, ok := keywordRanks[id]; ok {
			score += (1 - cfg.SemanticWeight) / (cfg.RRFK + float64(r))
		}
		fused[id] = score
	}

	results := make([]Result, 0, len(fused))
	for id, score := range fused {
		c := byID[id]
		category := chunk.ClassifyFile(c.FilePath)
		if category == chunk.CategoryDocumentation || category == chunk.CategoryConfig {
			score *= cfg.DocDemotion
		}
		if cfg.RecencyHalfLifeDays > 0 && cfg.RecencyWeight > 0 && r.lastCommit != nil {
			if when, ok := r.lastCommit(c.FilePath); ok {
				score += cfg.RecencyWeight * recencyBoost(when, cfg.RecencyHalfLifeDays)
			}
		}
		results = append(results, Result{Chunk: c, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.FilePath != results[j].Chunk.FilePath {
			return results[i].Chunk.FilePath < results[j].Chunk.FilePath
		}
		return results[i].Chunk.StartLine < results[j].Chunk.StartLine
	})

	if len(results) > cfg.Limit {
		results = results[:cfg.Limit]
	}

	return SearchOutcome{Results: results, TopSemanticScore: topSemanticScore}, nil
}

// Normalize divides every score by the maximum, for display only; ranking
// and budget math elsewhere always use the raw fused score.
func Normalize(results []Result) []Result {
	if len(results) == 0 {
		return results
	}
	max := results[0].Score
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	if max <= 0 {
		return results
	}
	out := make([]Result, len(results))
	for i, r := range results {
		r.Score = r.Score / max
		out[i] = r
	}
	return out
}

var stopPhrases = []string{
	"how do i", "how does", "what is", "what are", "where is", "where does",
	"why does", "why is", "can you", "please", "show me",
}

// preprocessKeywordQuery lowercases, strips common stop-phrases and
// interrogatives, and keeps identifiers. Used only for the keyword leg;
// the raw form is always what gets embedded.
func preprocessKeywordQuery(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, phrase := range stopPhrases {
		q = strings.ReplaceAll(q, phrase, " ")
	}
	fields := strings.FieldsFunc(q, func(r rune) bool {
		return !(r == '_' || r == '.' || r == '-' || isAlnum(r))
	})
	return strings.Join(fields, " ")
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// recencyBoost computes exp(-age_days * ln2 / half_life) from a Unix
// commit timestamp.
func recencyBoost(commitUnix int64, halfLifeDays float64) float64 {
	ageDays := float64(nowUnix()-commitUnix) / 86400
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-ageDays * math.Ln2 / halfLifeDays)
}

// nowUnix is a var so tests can pin "now" without faking a clock
// interface through every call site.
var nowUnix = func() int64 {
	return time.Now().Unix()
}
