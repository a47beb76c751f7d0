package metadatastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bobbin-dev/bobbin/internal/gitanalyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertCouplingCanonicalizesPairOrder(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertCoupling([]gitanalyzer.FileCoupling{
		{FileA: "b.go", FileB: "a.go", Score: 0.8, CoChanges: 4, LastCoChange: time.Now()},
	}))

	coupled, err := s.GetCoupling("a.go", 10)
	require.NoError(t, err)
	require.Len(t, coupled, 1)
	assert.Equal(t, "b.go", coupled[0].FilePath)
	assert.Equal(t, 4, coupled[0].CoChanges)
}

func TestGetCouplingOrdersByScoreDescending(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertCoupling([]gitanalyzer.FileCoupling{
		{FileA: "a.go", FileB: "b.go", Score: 0.2, CoChanges: 2},
		{FileA: "a.go", FileB: "c.go", Score: 0.9, CoChanges: 9},
	}))

	coupled, err := s.GetCoupling("a.go", 10)
	require.NoError(t, err)
	require.Len(t, coupled, 2)
	assert.Equal(t, "c.go", coupled[0].FilePath)
	assert.Equal(t, "b.go", coupled[1].FilePath)
}

func TestClearCoupling(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertCoupling([]gitanalyzer.FileCoupling{{FileA: "a.go", FileB: "b.go", Score: 0.5, CoChanges: 1}}))
	require.NoError(t, s.ClearCoupling())
	coupled, err := s.GetCoupling("a.go", 10)
	require.NoError(t, err)
	assert.Empty(t, coupled)
}

func TestDependenciesDirectedLookup(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertDependencies([]ImportDependency{
		{FileA: "main.go", FileB: "util.go", DepType: "import", Statement: `"pkg/util"`, Resolved: true},
	}))

	deps, err := s.GetDependencies("main.go")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "util.go", deps[0].FileB)

	dependents, err := s.GetDependents("util.go")
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	assert.Equal(t, "main.go", dependents[0].FileA)
}

func TestMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetMeta("embedding_model", "minilm-l6-v2"))
	v, ok, err := s.GetMeta("embedding_model")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "minilm-l6-v2", v)
}

func TestCalibrationLatest(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.LatestCalibration()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.InsertCalibration(`{"commits":5}`, `{"semantic_weight":0.6}`, 0.72)
	require.NoError(t, err)
	_, err = s.InsertCalibration(`{"commits":5}`, `{"semantic_weight":0.7}`, 0.81)
	require.NoError(t, err)

	latest, ok, err := s.LatestCalibration()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.81, latest.F1)
}
