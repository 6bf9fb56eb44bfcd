// Package retrieval implements the TF-IDF corpus index and query ranker.
// An Index is built once from the knowledge base and is read-only afterwards,
// so a single *Index may be shared by any number of goroutines.
package retrieval

import (
	"fmt"
	"math"
	"sort"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
)

// Term is one non-zero dimension of a sparse vector.
type Term struct {
	Column int
	Weight float64
}

// SparseVector holds non-zero weights sorted by column.
type SparseVector []Term

// Dot returns the inner product of two column-sorted vectors.
func (v SparseVector) Dot(other SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v) && j < len(other) {
		switch {
		case v[i].Column == other[j].Column:
			sum += v[i].Weight * other[j].Weight
			i++
			j++
		case v[i].Column < other[j].Column:
			i++
		default:
			j++
		}
	}
	return sum
}

// Index is the immutable TF-IDF representation of the knowledge base.
// Vector i always corresponds to entry i.
type Index struct {
	entries    []entities.KnowledgeEntry
	vocabulary map[string]int
	idf        []float64
	vectors    []SparseVector
}

// Build fits the vocabulary and IDF weights on every entry's question and
// vectorizes each question. It fails with entities.ErrEmptyCorpus when
// entries is empty. The result depends only on the entry sequence.
func Build(entries []entities.KnowledgeEntry) (*Index, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("building index: %w", entities.ErrEmptyCorpus)
	}

	docs := make([]map[string]int, len(entries))
	df := make(map[string]int)
	for i, e := range entries {
		docs[i] = termCounts(Tokenize(e.Question))
		for term := range docs[i] {
			df[term]++
		}
	}

	// Columns follow sorted term order so rebuilding never reshuffles them.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(entries))
	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for col, term := range terms {
		vocabulary[term] = col
		idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	idx := &Index{
		entries:    append([]entities.KnowledgeEntry(nil), entries...),
		vocabulary: vocabulary,
		idf:        idf,
		vectors:    make([]SparseVector, len(entries)),
	}
	for i, counts := range docs {
		idx.vectors[i] = idx.weigh(counts)
	}
	return idx, nil
}

// weigh turns raw counts into an L2-normalized tf*idf vector. Terms outside
// the vocabulary are ignored. An all-zero result is returned as nil.
func (idx *Index) weigh(counts map[string]int) SparseVector {
	vec := make(SparseVector, 0, len(counts))
	var norm float64
	for term, tf := range counts {
		col, ok := idx.vocabulary[term]
		if !ok {
			continue
		}
		w := float64(tf) * idx.idf[col]
		vec = append(vec, Term{Column: col, Weight: w})
		norm += w * w
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].Weight /= norm
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Column < vec[j].Column })
	return vec
}

// Len returns the number of indexed entries. A nil index is empty.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Entry returns the i-th entry in corpus order.
func (idx *Index) Entry(i int) entities.KnowledgeEntry {
	return idx.entries[i]
}

// Vector returns a copy of the i-th entry vector.
func (idx *Index) Vector(i int) SparseVector {
	return append(SparseVector(nil), idx.vectors[i]...)
}

// Vocabulary returns a copy of the term -> column mapping.
func (idx *Index) Vocabulary() map[string]int {
	out := make(map[string]int, len(idx.vocabulary))
	for k, v := range idx.vocabulary {
		out[k] = v
	}
	return out
}

// IDF returns the fitted inverse document frequency of term, or 0 when the
// term is not in the vocabulary.
func (idx *Index) IDF(term string) float64 {
	col, ok := idx.vocabulary[term]
	if !ok {
		return 0
	}
	return idx.idf[col]
}
