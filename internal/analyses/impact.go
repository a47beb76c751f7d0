// Package analyses computes derived views over an indexed repository:
// blast-radius impact, churn/complexity hotspots, near-duplicate
// similarity clusters, and best-effort symbol references. Every
// analysis here is read-only over the vector/FTS and metadata stores;
// none of them touch the working tree directly.
package analyses

import (
	"sort"

	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

// ImpactMode selects which signal(s) feed impact scoring.
type ImpactMode string

const (
	ImpactCombined ImpactMode = "combined"
	ImpactCoupling ImpactMode = "coupling"
	ImpactSemantic ImpactMode = "semantic"
	ImpactDeps     ImpactMode = "deps"
)

// impactMaxDepth bounds transitive expansion of the coupling and
// dependency graphs; each hop's contribution decays by impactDecay so
// distant, indirect relationships barely move the score.
const (
	impactMaxDepth = 3
	impactDecay    = 0.5
)

// ImpactedFile is one file in an impact report, with the combined score
// and which signal(s) produced it.
type ImpactedFile struct {
	FilePath string
	Score    float64
	Via      []string // "coupling", "semantic", "deps"
}

// Impact ties the metadata store (coupling, dependencies) and the vector
// store (semantic neighbors) together to answer "what else is likely
// affected if this file changes".
type Impact struct {
	meta *metadatastore.Store
	vec  *vectorstore.Store
	deps *DependencyGraph
}

// NewImpact builds an Impact analysis over the given stores, loading the
// import-dependency graph once up front so repeated Analyze calls don't
// each re-read the whole dependencies table.
func NewImpact(meta *metadatastore.Store, vec *vectorstore.Store) (*Impact, error) {
	deps, err := BuildDependencyGraph(meta)
	if err != nil {
		return nil, err
	}
	return &Impact{meta: meta, vec: vec, deps: deps}, nil
}

// Analyze returns files impacted by changing filePath, ranked by score
// descending, using the coupling and/or dependency signals. Pass vector
// (the embedding of filePath's representative content) to also fold in
// the semantic leg; nil skips it even when mode asks for it.
func (i *Impact) Analyze(filePath string, vector []float32, mode ImpactMode, repo string, limit int) ([]ImpactedFile, error) {
	scores := make(map[string]float64)
	via := make(map[string]map[string]bool)
	touch := func(path string, delta float64, signal string) {
		if path == filePath {
			return
		}
		scores[path] += delta
		set, ok := via[path]
		if !ok {
			set = make(map[string]bool)
			via[path] = set
		}
		set[signal] = true
	}

	if mode == ImpactCombined || mode == ImpactCoupling {
		i.walkCoupling(filePath, touch)
	}
	if mode == ImpactCombined || mode == ImpactDeps {
		i.walkDependents(filePath, touch)
	}
	if (mode == ImpactCombined || mode == ImpactSemantic) && vector != nil {
		neighbors, err := i.vec.SearchByVector(vector, 20, vectorstore.Filters{Repo: repo})
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			touch(n.Chunk.FilePath, n.Score, "semantic")
		}
	}

	out := make([]ImpactedFile, 0, len(scores))
	for path, score := range scores {
		var signals []string
		for s := range via[path] {
			signals = append(signals, s)
		}
		sort.Strings(signals)
		out = append(out, ImpactedFile{FilePath: path, Score: score, Via: signals})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].FilePath < out[b].FilePath
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// walkCoupling does a decayed breadth-first walk of the coupling graph
// up to impactMaxDepth hops.
func (i *Impact) walkCoupling(filePath string, touch func(string, float64, string)) {
	visited := map[string]bool{filePath: true}
	frontier := []string{filePath}
	decay := 1.0
	for depth := 0; depth < impactMaxDepth; depth++ {
		decay *= impactDecay
		var next []string
		for _, f := range frontier {
			coupled, err := i.meta.GetCoupling(f, 20)
			if err != nil {
				continue
			}
			for _, c := range coupled {
				if visited[c.FilePath] {
					continue
				}
				visited[c.FilePath] = true
				next = append(next, c.FilePath)
				touch(c.FilePath, c.Score*decay, "coupling")
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
}

// walkDependents scores the reverse import graph one hop at a time,
// decaying by impactDecay so direct importers outweigh transitive
// ones; dependents at each hop come from the in-memory DependencyGraph
// built with dominikbraun/graph rather than a per-hop store query.
func (i *Impact) walkDependents(filePath string, touch func(string, float64, string)) {
	if i.deps == nil {
		return
	}
	visited := map[string]bool{filePath: true}
	frontier := []string{filePath}
	decay := 1.0
	for depth := 0; depth < impactMaxDepth; depth++ {
		decay *= impactDecay
		var next []string
		for _, f := range frontier {
			direct, err := i.deps.Dependents(f, 1)
			if err != nil {
				continue
			}
			for _, dep := range direct {
				if visited[dep] {
					continue
				}
				visited[dep] = true
				next = append(next, dep)
				touch(dep, decay, "deps")
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
}
