package analyses

import (
	"context"
	"sort"

	"github.com/bobbin-dev/bobbin/internal/embedder"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

// SimilarPair is one near-duplicate relationship between two chunks.
// Clusters orders each pair with IDA less than IDB so a pair is never
// reported twice; NeighborsOf puts the queried chunk's excludeID in IDA
// and leaves FilePathA empty.
type SimilarPair struct {
	IDA        string
	IDB        string
	FilePathA  string
	FilePathB  string
	Similarity float64
}

// Cluster groups chunk ids that are mutually similar, transitively
// connected through the union-find structure built from SimilarPair
// results above the configured threshold.
type Cluster struct {
	ChunkIDs []string
}

// Similarity finds near-duplicate chunks by cosine distance.
type Similarity struct {
	vec *vectorstore.Store
	emb embedder.Embedder
}

// NewSimilarity builds a Similarity analysis. emb is used to re-embed a
// chunk's content for its own KNN query; the store only persists
// vectors inside the opaque vec0 table, so querying "neighbors of chunk
// X" goes through the same embed-then-search path as a user query.
func NewSimilarity(vec *vectorstore.Store, emb embedder.Embedder) *Similarity {
	return &Similarity{vec: vec, emb: emb}
}

// NeighborsOf returns chunks similar to content, other than excludeID,
// above threshold, ordered by similarity descending.
func (s *Similarity) NeighborsOf(ctx context.Context, repo, content string, excludeID string, threshold float64, limit int) ([]SimilarPair, error) {
	vec, err := s.emb.Embed(ctx, content)
	if err != nil {
		return nil, err
	}
	results, err := s.vec.SearchByVector(vec, limit+1, vectorstore.Filters{Repo: repo})
	if err != nil {
		return nil, err
	}
	out := make([]SimilarPair, 0, len(results))
	for _, r := range results {
		if r.Chunk.ID == excludeID || r.Score < threshold {
			continue
		}
		out = append(out, SimilarPair{IDA: excludeID, IDB: r.Chunk.ID, FilePathB: r.Chunk.FilePath, Similarity: r.Score})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Clusters scans every indexed chunk in repo, finds its near neighbors
// above threshold, and unions them into clusters. This is O(n) embed
// calls plus O(n) KNN queries; fine for the repo sizes bobbin targets,
// but it is the reason Clusters takes a limit on how many chunks it will
// scan rather than guaranteeing full-corpus coverage on very large repos.
func (s *Similarity) Clusters(ctx context.Context, repo string, threshold float64, maxChunksScanned int) ([]Cluster, []SimilarPair, error) {
	paths, err := s.vec.GetAllFilePaths(repo)
	if err != nil {
		return nil, nil, err
	}

	type idChunk struct {
		id, filePath, content string
	}
	var all []idChunk
	for _, p := range paths {
		chunks, err := s.vec.GetChunksForFile(repo, p)
		if err != nil {
			continue
		}
		for _, c := range chunks {
			all = append(all, idChunk{id: c.ID, filePath: c.FilePath, content: c.Content})
			if maxChunksScanned > 0 && len(all) >= maxChunksScanned {
				break
			}
		}
		if maxChunksScanned > 0 && len(all) >= maxChunksScanned {
			break
		}
	}

	uf := newUnionFind()
	seenPairs := make(map[string]bool)
	var pairs []SimilarPair

	for _, c := range all {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}
		vec, err := s.emb.Embed(ctx, c.content)
		if err != nil {
			continue
		}
		results, err := s.vec.SearchByVector(vec, 10, vectorstore.Filters{Repo: repo})
		if err != nil {
			continue
		}
		for _, r := range results {
			if r.Chunk.ID == c.id || r.Score < threshold {
				continue
			}
			idA, idB := c.id, r.Chunk.ID
			fpA, fpB := c.filePath, r.Chunk.FilePath
			if idB < idA {
				idA, idB = idB, idA
				fpA, fpB = fpB, fpA
			}
			key := idA + "\x00" + idB
			if seenPairs[key] {
				continue
			}
			seenPairs[key] = true
			pairs = append(pairs, SimilarPair{IDA: idA, IDB: idB, FilePathA: fpA, FilePathB: fpB, Similarity: r.Score})
			uf.union(idA, idB)
		}
	}

	groups := make(map[string][]string)
	for _, c := range all {
		root := uf.find(c.id)
		groups[root] = append(groups[root], c.id)
	}
	var clusters []Cluster
	for _, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		clusters = append(clusters, Cluster{ChunkIDs: ids})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ChunkIDs[0] < clusters[j].ChunkIDs[0] })
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Similarity > pairs[j].Similarity })

	return clusters, pairs, nil
}

// unionFind is a small disjoint-set structure with path compression,
// used to group chunks transitively connected by similarity above
// threshold into clusters.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
