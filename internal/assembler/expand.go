package assembler

import (
	"context"
)

// expand implements Phase 2: for each seed file, pull coupled files from
// the metadata store up to cfg.Depth hops, decaying the contribution by
// 0.5 per hop and capping fan-out at cfg.MaxCoupledPerSeed per source
// file. Coupled files are pulled into the bundle at a representative
// chunk granularity: every chunk already indexed for that file.
func (a *Assembler) expand(ctx context.Context, seeds []SeedChunk, candidates map[string]candidate, cfg Config) int {
	if a.metaStore == nil {
		return 0
	}
	seedFiles := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seedFiles[s.Chunk.FilePath] = true
	}

	visited := make(map[string]bool, len(seedFiles))
	for f := range seedFiles {
		visited[f] = true
	}

	added := 0
	frontier := make([]string, 0, len(seedFiles))
	for f := range seedFiles {
		frontier = append(frontier, f)
	}
	baseScoreByFile := make(map[string]float64, len(seeds))
	for _, s := range seeds {
		if s.Score > baseScoreByFile[s.Chunk.FilePath] {
			baseScoreByFile[s.Chunk.FilePath] = s.Score
		}
	}

	decay := 1.0
	for depth := 0; depth < cfg.Depth; depth++ {
		decay *= 0.5
		var next []string
		for _, file := range frontier {
			select {
			case <-ctx.Done():
				return added
			default:
			}
			coupled, err := a.metaStore.GetCoupling(file, cfg.MaxCoupledPerSeed)
			if err != nil {
				continue
			}
			for _, cf := range coupled {
				if cf.Score < cfg.CouplingThreshold {
					continue
				}
				if visited[cf.FilePath] {
					continue
				}
				visited[cf.FilePath] = true
				next = append(next, cf.FilePath)

				chunks, err := a.chunksForFile(seedRepo(seeds), cf.FilePath)
				if err != nil || len(chunks) == 0 {
					continue
				}
				score := baseScoreByFile[file] * cf.Score * decay
				for _, c := range chunks {
					if _, exists := candidates[c.ID]; exists {
						continue
					}
					candidates[c.ID] = candidate{
						chunk:     c,
						score:     score,
						relevance: RelevanceCoupled,
						coupledTo: []string{file},
					}
					added++
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return added
}

func seedRepo(seeds []SeedChunk) string {
	for _, s := range seeds {
		if s.Chunk.Repo != "" {
			return s.Chunk.Repo
		}
	}
	return ""
}
