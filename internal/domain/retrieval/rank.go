package retrieval

import (
	"sort"
	"strings"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
)

// DefaultTopK is the number of candidates returned when topK <= 0.
const DefaultTopK = 3

// Vectorize maps free text into the index's space using the IDF weights
// fitted at build time. Out-of-vocabulary tokens contribute nothing.
func (idx *Index) Vectorize(text string) SparseVector {
	if idx == nil {
		return nil
	}
	return idx.weigh(termCounts(Tokenize(text)))
}

// Retrieve scores query against every entry and returns at most topK
// results ordered by descending cosine similarity, ties in corpus order.
// Entries scoring <= 0 are never returned. minScore is advisory only:
// entries below it are still returned, relevance is thresholded by the gate.
// A nil index and a blank query both yield no results.
func (idx *Index) Retrieve(query string, topK int, minScore float64) []entities.RetrievalResult {
	if idx.Len() == 0 || strings.TrimSpace(query) == "" {
		return nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	qv := idx.Vectorize(query)
	if len(qv) == 0 {
		return nil
	}

	type scored struct {
		pos   int
		score float64
	}

	candidates := make([]scored, 0, len(idx.vectors))
	for i, vec := range idx.vectors {
		score := clamp(qv.Dot(vec))
		if score <= 0 {
			continue
		}
		candidates = append(candidates, scored{pos: i, score: score})
	}

	// Stable so equal scores keep corpus order
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]entities.RetrievalResult, len(candidates))
	for i, c := range candidates {
		results[i] = entities.RetrievalResult{
			Entry: idx.entries[c.pos],
			Score: c.score,
		}
	}
	return results
}

// clamp absorbs floating-point drift so scores stay within [0,1].
func clamp(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
