package analyses

import (
	"github.com/dominikbraun/graph"

	"github.com/bobbin-dev/bobbin/internal/store/metadatastore"
)

// DependencyGraph is an in-memory directed graph of file-to-file import
// edges, built from the metadata store's dependency rows. It backs the
// reverse-dependency signal for impact and also offers a shortest
// dependency-path lookup (ShortestPath), which no CLI command calls.
type DependencyGraph struct {
	g graph.Graph[string, string]
}

// BuildDependencyGraph loads every import edge from meta and returns the
// graph built from them. Both endpoints of every row are added as
// vertices before any edge; an AddEdge error (such as a duplicate edge)
// is ignored rather than failing the whole build.
func BuildDependencyGraph(meta *metadatastore.Store) (*DependencyGraph, error) {
	deps, err := meta.AllDependencies()
	if err != nil {
		return nil, err
	}

	g := graph.New(graph.StringHash, graph.Directed())
	for _, d := range deps {
		_ = g.AddVertex(d.FileA)
		_ = g.AddVertex(d.FileB)
	}
	for _, d := range deps {
		_ = g.AddEdge(d.FileA, d.FileB)
	}
	return &DependencyGraph{g: g}, nil
}

// Dependents returns every file reachable by following import edges
// backwards from filePath up to maxDepth hops — "who, transitively,
// depends on this file".
func (d *DependencyGraph) Dependents(filePath string, maxDepth int) ([]string, error) {
	pred, err := d.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	return bfs(pred, filePath, maxDepth), nil
}

// Dependencies returns every file reachable by following import edges
// forwards from filePath up to maxDepth hops — "what this file,
// transitively, depends on".
func (d *DependencyGraph) Dependencies(filePath string, maxDepth int) ([]string, error) {
	adj, err := d.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	return bfs(adj, filePath, maxDepth), nil
}

// ShortestPath returns the file-to-file import path from filePath to
// target, or a nil slice if none exists.
func (d *DependencyGraph) ShortestPath(filePath, target string) []string {
	path, err := graph.ShortestPath(d.g, filePath, target)
	if err != nil {
		return nil
	}
	return path
}

func bfs(edges map[string]map[string]graph.Edge[string], start string, maxDepth int) []string {
	visited := map[string]bool{start: true}
	frontier := []string{start}
	var out []string
	for depth := 0; (maxDepth <= 0 || depth < maxDepth) && len(frontier) > 0; depth++ {
		var next []string
		for _, node := range frontier {
			for target := range edges[node] {
				if visited[target] {
					continue
				}
				visited[target] = true
				out = append(out, target)
				next = append(next, target)
			}
		}
		frontier = next
	}
	return out
}
