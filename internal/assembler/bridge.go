package assembler

import (
	"context"

	"github.com/bobbin-dev/bobbin/internal/chunk"
)

// maxBridgeCommits bounds how many distinct commits a single Assemble
// call will inspect for provenance bridging, so a doc file with a huge
// blame history can't turn one query into hundreds of git invocations.
const maxBridgeCommits = 50

// bridge implements Phase 3: documentation chunks among the candidates
// are traced back, via git blame on their line range, to the commit(s)
// that last touched them; GetCommitFiles on those commits surfaces
// source files changed alongside the docs, which are pulled in as
// Bridged candidates. Bridging only ever adds Source-category files —
// it never bridges doc-to-doc or doc-to-config.
func (a *Assembler) bridge(ctx context.Context, seeds []SeedChunk, candidates map[string]candidate, cfg Config) int {
	if a.git == nil || a.vecStore == nil {
		return 0
	}
	repo := seedRepo(seeds)

	var docChunks []candidate
	for _, c := range candidates {
		if chunk.ClassifyFile(c.chunk.FilePath) == chunk.CategoryDocumentation {
			docChunks = append(docChunks, c)
		}
	}

	seenCommits := make(map[string]bool)
	added := 0
	commitsInspected := 0

	for _, dc := range docChunks {
		if commitsInspected >= maxBridgeCommits {
			break
		}
		select {
		case <-ctx.Done():
			return added
		default:
		}
		blameLines, err := a.git.BlameLines(ctx, dc.chunk.FilePath, dc.chunk.StartLine, dc.chunk.EndLine)
		if err != nil {
			continue
		}
		commits := make(map[string]bool)
		for _, bl := range blameLines {
			commits[bl.Commit] = true
		}
		for commitHash := range commits {
			if commitsInspected >= maxBridgeCommits {
				break
			}
			if seenCommits[commitHash] {
				continue
			}
			seenCommits[commitHash] = true
			commitsInspected++

			files, err := a.git.GetCommitFiles(ctx, commitHash)
			if err != nil {
				continue
			}
			for _, f := range files {
				if chunk.ClassifyFile(f) != chunk.CategorySource {
					continue
				}
				chunks, err := a.chunksForFile(repo, f)
				if err != nil || len(chunks) == 0 {
					continue
				}
				for _, c := range chunks {
					if _, exists := candidates[c.ID]; exists {
						continue
					}
					candidates[c.ID] = candidate{
						chunk:     c,
						score:     dc.score * 0.5,
						relevance: RelevanceBridged,
						bridgedBy: commitHash,
					}
					added++
				}
			}
		}
	}
	return added
}
