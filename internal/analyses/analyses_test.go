package analyses

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/bobbin-dev/bobbin/internal/embedder"
	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) (*vectorstore.Store, *metadatastore.Store) {
	t.Helper()
	vec, err := vectorstore.Open(filepath.Join(t.TempDir(), "vec.db"), 32)
	require.NoError(t, err)
	t.Cleanup(func() { vec.Close() })
	meta, err := metadatastore.Open(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })
	return vec, meta
}

func TestImpactCombinesCouplingAndDeps(t *testing.T) {
	vec, meta := openStores(t)
	require.NoError(t, meta.UpsertCoupling([]gitanalyzer.FileCoupling{
		{FileA: "a.go", FileB: "b.go", Score: 0.9, CoChanges: 9},
	}))
	require.NoError(t, meta.UpsertDependencies([]metadatastore.ImportDependency{
		{FileA: "c.go", FileB: "a.go", DepType: "import"},
	}))

	impact, err := NewImpact(meta, vec)
	require.NoError(t, err)
	results, err := impact.Analyze("a.go", nil, ImpactCombined, "r", 10)
	require.NoError(t, err)

	var paths []string
	for _, r := range results {
		paths = append(paths, r.FilePath)
	}
	assert.Contains(t, paths, "b.go")
	assert.Contains(t, paths, "c.go")
}

func TestImpactModeRestrictsSignal(t *testing.T) {
	vec, meta := openStores(t)
	require.NoError(t, meta.UpsertCoupling([]gitanalyzer.FileCoupling{
		{FileA: "a.go", FileB: "b.go", Score: 0.9, CoChanges: 9},
	}))
	require.NoError(t, meta.UpsertDependencies([]metadatastore.ImportDependency{
		{FileA: "c.go", FileB: "a.go", DepType: "import"},
	}))

	impact, err := NewImpact(meta, vec)
	require.NoError(t, err)
	results, err := impact.Analyze("a.go", nil, ImpactCoupling, "r", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b.go", results[0].FilePath)
}

func TestHotspotsScoresChurnAndComplexity(t *testing.T) {
	vec, _ := openStores(t)
	ctx := context.Background()
	mock := embedder.NewMockEmbedder(32)

	index := func(c chunk.Chunk) {
		v, err := mock.Embed(ctx, c.Content)
		require.NoError(t, err)
		require.NoError(t, vec.Upsert([]vectorstore.ChunkWithVector{{Chunk: c, Embedding: v}}))
	}
	index(chunk.Chunk{ID: "busy1", Repo: "r", FilePath: "busy.go", Language: "go", Content: "if a { } else if b { } for i := 0; i < n; i++ { }", StartLine: 1, EndLine: 1})
	index(chunk.Chunk{ID: "quiet1", Repo: "r", FilePath: "quiet.go", Language: "go", Content: "const X = 1", StartLine: 1, EndLine: 1})

	h := NewHotspots(vec)
	results, err := h.Analyze("r", map[string]int{"busy.go": 10, "quiet.go": 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "busy.go", results[0].FilePath)
}

func TestSimilarityFindsNeighborsAboveThreshold(t *testing.T) {
	vec, _ := openStores(t)
	ctx := context.Background()
	mock := embedder.NewMockEmbedder(32)

	index := func(c chunk.Chunk) {
		v, err := mock.Embed(ctx, c.Content)
		require.NoError(t, err)
		require.NoError(t, vec.Upsert([]vectorstore.ChunkWithVector{{Chunk: c, Embedding: v}}))
	}
	index(chunk.Chunk{ID: "s1", Repo: "r", FilePath: "a.go", Content: "widget builder helper", StartLine: 1, EndLine: 1})
	index(chunk.Chunk{ID: "s2", Repo: "r", FilePath: "b.go", Content: "widget builder helper", StartLine: 1, EndLine: 1})
	index(chunk.Chunk{ID: "s3", Repo: "r", FilePath: "c.go", Content: "totally unrelated database migration", StartLine: 1, EndLine: 1})

	sim := NewSimilarity(vec, mock)
	neighbors, err := sim.NeighborsOf(ctx, "r", "widget builder helper", "s1", 0.9, 10)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "s2", neighbors[0].IDB)
}

func TestSimilarityClustersGroupsTransitively(t *testing.T) {
	vec, _ := openStores(t)
	ctx := context.Background()
	mock := embedder.NewMockEmbedder(32)

	index := func(c chunk.Chunk) {
		v, err := mock.Embed(ctx, c.Content)
		require.NoError(t, err)
		require.NoError(t, vec.Upsert([]vectorstore.ChunkWithVector{{Chunk: c, Embedding: v}}))
	}
	index(chunk.Chunk{ID: "s1", Repo: "r", FilePath: "a.go", Content: "widget builder helper", StartLine: 1, EndLine: 1})
	index(chunk.Chunk{ID: "s2", Repo: "r", FilePath: "b.go", Content: "widget builder helper", StartLine: 1, EndLine: 1})
	index(chunk.Chunk{ID: "s3", Repo: "r", FilePath: "c.go", Content: "totally unrelated database migration", StartLine: 1, EndLine: 1})

	sim := NewSimilarity(vec, mock)
	clusters, pairs, err := sim.Clusters(ctx, "r", 0.9, 0)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.ElementsMatch(t, []string{"s1", "s2"}, clusters[0].ChunkIDs)
	assert.NotEmpty(t, pairs)
}

func TestDependencyGraphTraversesTransitiveDependents(t *testing.T) {
	_, meta := openStores(t)
	require.NoError(t, meta.UpsertDependencies([]metadatastore.ImportDependency{
		{FileA: "handler.go", FileB: "service.go", DepType: "import"},
		{FileA: "service.go", FileB: "repo.go", DepType: "import"},
	}))

	g, err := BuildDependencyGraph(meta)
	require.NoError(t, err)

	direct, err := g.Dependents("repo.go", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"service.go"}, direct)

	transitive, err := g.Dependents("repo.go", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"service.go", "handler.go"}, transitive)

	assert.Equal(t, []string{"handler.go", "service.go", "repo.go"}, g.ShortestPath("handler.go", "repo.go"))
}

func TestRefsClassifiesDefinitionVsUsage(t *testing.T) {
	vec, _ := openStores(t)
	ctx := context.Background()
	mock := embedder.NewMockEmbedder(32)

	index := func(c chunk.Chunk) {
		v, err := mock.Embed(ctx, c.Content)
		require.NoError(t, err)
		require.NoError(t, vec.Upsert([]vectorstore.ChunkWithVector{{Chunk: c, Embedding: v}}))
	}
	index(chunk.Chunk{ID: "def1", Repo: "r", FilePath: "auth.go", Name: "Authenticate", Content: "func Authenticate(token string) error", StartLine: 1, EndLine: 1})
	index(chunk.Chunk{ID: "use1", Repo: "r", FilePath: "main.go", Name: "main", Content: "Authenticate(token)", StartLine: 1, EndLine: 1})

	refs := NewRefs(vec)
	results, err := refs.Find("r", "Authenticate", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	kinds := map[string]RefKind{}
	for _, r := range results {
		kinds[r.Chunk.ID] = r.Kind
	}
	assert.Equal(t, RefDefinition, kinds["def1"])
	assert.Equal(t, RefUsage, kinds["use1"])
}
