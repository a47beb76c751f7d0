package analyses

import (
	"strings"

	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

// RefKind classifies a reference hit as a likely definition (the chunk's
// own name matches the symbol) or a likely usage (the symbol appears in
// the body but isn't the chunk's name).
type RefKind string

const (
	RefDefinition RefKind = "definition"
	RefUsage      RefKind = "usage"
)

// Reference is one FTS hit for a symbol.
type Reference struct {
	Chunk chunk.Chunk
	Kind  RefKind
}

// Refs does a best-effort, FTS-based lookup of where a symbol is
// defined and used. It has no type information and no call graph: a
// common short identifier will over-match, and a renamed or aliased
// symbol won't be found at all. Treat results as leads, not a
// guaranteed call graph.
type Refs struct {
	vec *vectorstore.Store
}

// NewRefs builds a Refs analysis over vec.
func NewRefs(vec *vectorstore.Store) *Refs {
	return &Refs{vec: vec}
}

// Find returns every chunk whose content or name mentions symbol,
// classified as a definition or a usage.
func (r *Refs) Find(repo, symbol string, limit int) ([]Reference, error) {
	results, err := r.vec.FTS(symbol, limit, vectorstore.Filters{Repo: repo})
	if err != nil {
		return nil, err
	}
	out := make([]Reference, 0, len(results))
	for _, res := range results {
		kind := RefUsage
		if strings.EqualFold(res.Chunk.Name, symbol) {
			kind = RefDefinition
		}
		out = append(out, Reference{Chunk: res.Chunk, Kind: kind})
	}
	return out, nil
}
