package assembler

import (
	"sort"
	"strings"

	"github.com/bobbin-dev/bobbin/internal/chunk"
)

// previewLines is how many lines of a chunk ContentPreview keeps before
// the ellipsis.
const previewLines = 3

func relevanceRank(r Relevance) int {
	switch r {
	case RelevanceDirect:
		return 0
	case RelevanceBridged:
		return 1
	case RelevanceCoupled:
		return 2
	default:
		return 3
	}
}

// fitBudget implements Phase 4: candidates are grouped by file, ordered
// direct-before-bridged-before-coupled and by score within a tier, and
// packed into cfg.BudgetLines. A chunk whose own line count exceeds half
// the budget is dropped outright, never truncated; a chunk that would
// merely overflow the *remaining* budget is also dropped rather than
// cut short, and packing continues with the next, smaller chunk.
func (a *Assembler) fitBudget(candidates map[string]candidate, cfg Config) ContextBundle {
	maxLines := cfg.BudgetLines
	if maxLines <= 0 {
		maxLines = DefaultConfig().BudgetLines
	}
	perChunkCap := maxLines / 2
	if perChunkCap < 1 {
		perChunkCap = 1
	}

	byFile := make(map[string][]candidate)
	fileScore := make(map[string]float64)
	fileRelevance := make(map[string]Relevance)
	fileCoupledTo := make(map[string]map[string]bool)

	for _, c := range candidates {
		category := chunk.ClassifyFile(c.chunk.FilePath)
		if !cfg.ShowDocs && category == chunk.CategoryDocumentation {
			continue
		}
		path := c.chunk.FilePath
		byFile[path] = append(byFile[path], c)
		if c.score > fileScore[path] {
			fileScore[path] = c.score
		}
		if existing, ok := fileRelevance[path]; !ok || relevanceRank(c.relevance) < relevanceRank(existing) {
			fileRelevance[path] = c.relevance
		}
		if len(c.coupledTo) > 0 {
			set, ok := fileCoupledTo[path]
			if !ok {
				set = make(map[string]bool)
				fileCoupledTo[path] = set
			}
			for _, ct := range c.coupledTo {
				set[ct] = true
			}
		}
	}

	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	isDoc := func(p string) bool { return chunk.ClassifyFile(p) == chunk.CategoryDocumentation }
	sort.Slice(paths, func(i, j int) bool {
		ri, rj := relevanceRank(fileRelevance[paths[i]]), relevanceRank(fileRelevance[paths[j]])
		if ri != rj {
			return ri < rj
		}
		di, dj := isDoc(paths[i]), isDoc(paths[j])
		if di != dj {
			return !di
		}
		if fileScore[paths[i]] != fileScore[paths[j]] {
			return fileScore[paths[i]] > fileScore[paths[j]]
		}
		return paths[i] < paths[j]
	})

	var files []FileEntry
	usedLines := 0
	totalChunks := 0
	sourceFiles, docFiles := 0, 0

	for _, path := range paths {
		chunks := byFile[path]
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].chunk.StartLine < chunks[j].chunk.StartLine })

		var views []ChunkView
		for _, c := range chunks {
			if usedLines >= maxLines {
				break
			}
			lines := c.chunk.LineCount()
			if lines > perChunkCap {
				// Exceeds the per-chunk cap: omitted outright, not truncated.
				continue
			}
			if usedLines+lines > maxLines {
				// Would overflow the remaining budget: dropped, not cut short.
				continue
			}

			content := c.chunk.Content
			switch cfg.ContentMode {
			case ContentNone:
				content = ""
			case ContentPreview:
				content = previewOf(content, previewLines)
			}

			views = append(views, ChunkView{Chunk: c.chunk, Content: content})
			usedLines += lines
			totalChunks++
		}
		if len(views) == 0 {
			continue
		}

		var coupledTo []string
		for ct := range fileCoupledTo[path] {
			coupledTo = append(coupledTo, ct)
		}
		sort.Strings(coupledTo)

		entry := FileEntry{
			Path:      path,
			Language:  chunks[0].chunk.Language,
			Relevance: fileRelevance[path],
			Score:     fileScore[path],
			CoupledTo: coupledTo,
			Chunks:    views,
		}
		files = append(files, entry)

		if chunk.ClassifyFile(path) == chunk.CategoryDocumentation {
			docFiles++
		} else {
			sourceFiles++
		}

		if usedLines >= maxLines {
			break
		}
	}

	return ContextBundle{
		Files:  files,
		Budget: Budget{MaxLines: maxLines, UsedLines: usedLines},
		Summary: Summary{
			TotalFiles:  len(files),
			TotalChunks: totalChunks,
			SourceFiles: sourceFiles,
			DocFiles:    docFiles,
		},
	}
}

// previewOf keeps the first n lines of s and appends an ellipsis marker
// if anything was cut.
func previewOf(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}
