package hook

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/bobbin-dev/bobbin/internal/assembler"
)

const sessionTopN = 10

// sessionID hashes the sorted identities of the top sessionTopN chunks
// in a bundle, used to detect "the same context as last time" so the
// dedup gate can suppress a repeat injection.
func sessionID(bundle assembler.ContextBundle) string {
	// bundle.Files is already ordered by relevance tier then score, so
	// the first sessionTopN chunks encountered are the top ones; sort
	// just that slice so two equal top-sets hash identically.
	var ids []string
	for _, f := range bundle.Files {
		for _, c := range f.Chunks {
			if len(ids) >= sessionTopN {
				break
			}
			ids = append(ids, c.Chunk.ID)
		}
		if len(ids) >= sessionTopN {
			break
		}
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
