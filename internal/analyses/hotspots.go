package analyses

import (
	"math"
	"sort"
	"strings"

	"github.com/bobbin-dev/bobbin/internal/chunk"
	"github.com/bobbin-dev/bobbin/internal/store/vectorstore"
)

// Hotspot is one file ranked by how much it combines frequent change
// with structural complexity.
type Hotspot struct {
	FilePath   string
	Churn      int
	Complexity float64
	Score      float64
}

// controlFlowTokens are counted per chunk as a lightweight, language-
// agnostic stand-in for cyclomatic complexity: each occurrence is one
// more independent path through the code.
var controlFlowTokens = []string{
	"if ", "if(", "else", "for ", "for(", "while ", "while(", "case ",
	"catch ", "except ", "switch ", "&&", "||", "?", "match ",
}

// chunkComplexity counts control-flow tokens in content, normalized by
// line count so a long, simple chunk doesn't outscore a short, dense one.
func chunkComplexity(c chunk.Chunk) float64 {
	lines := c.LineCount()
	if lines == 0 {
		return 0
	}
	count := 0
	for _, tok := range controlFlowTokens {
		count += strings.Count(c.Content, tok)
	}
	return float64(count) / float64(lines)
}

// Hotspots ranks source files by churn and structural complexity.
type Hotspots struct {
	vec *vectorstore.Store
}

// NewHotspots builds a Hotspots analysis over vec, whose chunk rows
// supply per-file complexity.
func NewHotspots(vec *vectorstore.Store) *Hotspots {
	return &Hotspots{vec: vec}
}

// Analyze scores every Source-category file that has indexed chunks:
// score = sqrt(churn_norm * complexity_norm), so a file with no churn
// count scores 0.
// Test, Documentation and Config files are excluded; churn-only noise
// (a renamed file with one commit) without any accompanying complexity
// scores near zero rather than topping the list.
func (h *Hotspots) Analyze(repo string, churn map[string]int, limit int) ([]Hotspot, error) {
	paths, err := h.vec.GetAllFilePaths(repo)
	if err != nil {
		return nil, err
	}

	complexities := make(map[string]float64, len(paths))
	maxComplexity := 0.0
	maxChurn := 0
	for _, p := range paths {
		if chunk.ClassifyFile(p) != chunk.CategorySource {
			continue
		}
		chunks, err := h.vec.GetChunksForFile(repo, p)
		if err != nil {
			continue
		}
		var total float64
		for _, c := range chunks {
			total += chunkComplexity(c)
		}
		if len(chunks) > 0 {
			total /= float64(len(chunks))
		}
		complexities[p] = total
		if total > maxComplexity {
			maxComplexity = total
		}
		if churn[p] > maxChurn {
			maxChurn = churn[p]
		}
	}

	out := make([]Hotspot, 0, len(complexities))
	for p, complexity := range complexities {
		churnNorm := 0.0
		if maxChurn > 0 {
			churnNorm = float64(churn[p]) / float64(maxChurn)
		}
		complexityNorm := 0.0
		if maxComplexity > 0 {
			complexityNorm = complexity / maxComplexity
		}
		score := math.Sqrt(churnNorm * complexityNorm)
		out = append(out, Hotspot{FilePath: p, Churn: churn[p], Complexity: complexity, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].FilePath < out[j].FilePath
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
