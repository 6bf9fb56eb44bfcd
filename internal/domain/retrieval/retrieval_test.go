package retrieval

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
)

func feeCorpus() []entities.KnowledgeEntry {
	return []entities.KnowledgeEntry{
		{Question: "What is the fee?", Answer: "₹50,000/year"},
		{Question: "What is the hostel fee?", Answer: "₹80,000/year"},
		{Question: "Where is the library?", Answer: "Block C"},
	}
}

func mustBuild(t *testing.T, entries []entities.KnowledgeEntry) *Index {
	t.Helper()
	idx, err := Build(entries)
	require.NoError(t, err)
	return idx
}

func TestTokenize_DropsStopwordsAndShortTokens(t *testing.T) {
	tokens := Tokenize("What's the B.Tech fee for 2024?")
	assert.Equal(t, []string{"tech", "fee", "2024"}, tokens)
}

func TestTokenize_KeepsDuplicates(t *testing.T) {
	assert.Equal(t, []string{"fee", "fee"}, Tokenize("fee FEE"))
}

func TestTokenize_Unicode(t *testing.T) {
	assert.Equal(t, []string{"café", "menü"}, Tokenize("Café, Menü!"))
}

func TestTokenize_Blank(t *testing.T) {
	assert.Empty(t, Tokenize("   "))
	assert.Empty(t, Tokenize("?!"))
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("what"))
	assert.False(t, IsStopword("fee"))
}

func TestBuild_EmptyCorpus(t *testing.T) {
	idx, err := Build(nil)
	assert.Nil(t, idx)
	assert.True(t, errors.Is(err, entities.ErrEmptyCorpus))
}

func TestBuild_VocabularyAndIDF(t *testing.T) {
	idx := mustBuild(t, feeCorpus())

	assert.Equal(t, map[string]int{"fee": 0, "hostel": 1, "library": 2}, idx.Vocabulary())
	assert.InDelta(t, math.Log(4.0/3.0)+1, idx.IDF("fee"), 1e-12)
	assert.InDelta(t, math.Log(2)+1, idx.IDF("hostel"), 1e-12)
	assert.Zero(t, idx.IDF("weather"))
	assert.Equal(t, 3, idx.Len())
}

func TestBuild_VectorsAreNormalized(t *testing.T) {
	idx := mustBuild(t, feeCorpus())
	for i := 0; i < idx.Len(); i++ {
		v := idx.Vector(i)
		assert.InDelta(t, 1.0, v.Dot(v), 1e-9, "vector %d", i)
	}
}

func TestBuild_AlignsVectorsWithEntries(t *testing.T) {
	entries := feeCorpus()
	idx := mustBuild(t, entries)
	for i, e := range entries {
		assert.Equal(t, e, idx.Entry(i))
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := mustBuild(t, feeCorpus())
	b := mustBuild(t, feeCorpus())

	assert.Equal(t, a.Vocabulary(), b.Vocabulary())
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, a.Vector(i), b.Vector(i))
	}
}

func TestBuild_StopwordOnlyQuestionNeverMatches(t *testing.T) {
	idx := mustBuild(t, []entities.KnowledgeEntry{
		{Question: "What is it?", Answer: "nothing"},
		{Question: "Library hours", Answer: "9 to 5"},
	})
	assert.Empty(t, idx.Vector(0))

	results := idx.Retrieve("what is it", 3, 0)
	assert.Empty(t, results)
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	entries := feeCorpus()
	idx := mustBuild(t, entries)
	entries[0].Answer = "changed"
	assert.Equal(t, "₹50,000/year", idx.Entry(0).Answer)
}

func TestSparseVector_Dot(t *testing.T) {
	a := SparseVector{{Column: 0, Weight: 1}, {Column: 3, Weight: 2}}
	b := SparseVector{{Column: 1, Weight: 5}, {Column: 3, Weight: 4}}
	assert.Equal(t, 8.0, a.Dot(b))
	assert.Zero(t, a.Dot(nil))
}

func TestRetrieve_RanksBySimilarity(t *testing.T) {
	idx := mustBuild(t, feeCorpus())

	results := idx.Retrieve("fee", 3, 0)
	require.Len(t, results, 2)
	assert.Equal(t, "What is the fee?", results[0].Entry.Question)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "What is the hostel fee?", results[1].Entry.Question)

	wf, wh := math.Log(4.0/3.0)+1, math.Log(2)+1
	assert.InDelta(t, wf/math.Sqrt(wf*wf+wh*wh), results[1].Score, 1e-9)
}

func TestRetrieve_SelfSimilarity(t *testing.T) {
	entries := feeCorpus()
	idx := mustBuild(t, entries)

	for _, e := range entries {
		results := idx.Retrieve(e.Question, 3, 0)
		require.NotEmpty(t, results, e.Question)
		assert.Equal(t, e, results[0].Entry)
		assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	}
}

func TestRetrieve_StableOnTies(t *testing.T) {
	idx := mustBuild(t, []entities.KnowledgeEntry{
		{Question: "Library timings", Answer: "first"},
		{Question: "Library timings", Answer: "second"},
		{Question: "Library", Answer: "exact"},
	})

	results := idx.Retrieve("library", 3, 0)
	require.Len(t, results, 3)
	assert.Equal(t, "exact", results[0].Entry.Answer)
	assert.Equal(t, "first", results[1].Entry.Answer)
	assert.Equal(t, "second", results[2].Entry.Answer)
	assert.Equal(t, results[1].Score, results[2].Score)
}

func TestRetrieve_RespectsTopK(t *testing.T) {
	var entries []entities.KnowledgeEntry
	for _, q := range []string{"fee", "fee refund", "fee deadline", "fee waiver", "fee receipt"} {
		entries = append(entries, entities.KnowledgeEntry{Question: q, Answer: q})
	}
	idx := mustBuild(t, entries)

	assert.Len(t, idx.Retrieve("fee", 2, 0), 2)
	assert.Len(t, idx.Retrieve("fee", 0, 0), DefaultTopK)
	assert.Len(t, idx.Retrieve("fee", 10, 0), 5)
}

func TestRetrieve_PropertiesHold(t *testing.T) {
	idx := mustBuild(t, feeCorpus())
	queries := []string{"fee", "hostel", "library fee", "hostel library fee", "where"}

	for _, q := range queries {
		results := idx.Retrieve(q, 2, 0)
		assert.LessOrEqual(t, len(results), 2, q)
		for i, r := range results {
			assert.Greater(t, r.Score, 0.0, q)
			assert.LessOrEqual(t, r.Score, 1.0, q)
			if i > 0 {
				assert.GreaterOrEqual(t, results[i-1].Score, r.Score, q)
			}
		}
	}
}

func TestRetrieve_MinScoreDoesNotFilter(t *testing.T) {
	idx := mustBuild(t, feeCorpus())

	unfloored := idx.Retrieve("fee", 3, 0)
	floored := idx.Retrieve("fee", 3, 0.9)

	require.Len(t, unfloored, 2)
	assert.Equal(t, unfloored, floored)
	assert.Less(t, floored[1].Score, 0.9)
}

func TestRetrieve_BlankQuery(t *testing.T) {
	idx := mustBuild(t, feeCorpus())
	assert.Empty(t, idx.Retrieve("", 3, 0))
	assert.Empty(t, idx.Retrieve("   ", 3, 0))
	assert.Empty(t, idx.Retrieve("\t\n", 3, 0))
}

func TestRetrieve_OutOfVocabulary(t *testing.T) {
	idx := mustBuild(t, []entities.KnowledgeEntry{{Question: "What is the fee?", Answer: "₹50,000/year"}})
	assert.Empty(t, idx.Retrieve("What is the weather today", 3, 0))
}

func TestRetrieve_SingleEntryScenario(t *testing.T) {
	idx := mustBuild(t, []entities.KnowledgeEntry{{Question: "What is the fee?", Answer: "₹50,000/year"}})

	results := idx.Retrieve("What is the fee", 3, 0)
	require.Len(t, results, 1)
	assert.Equal(t, "₹50,000/year", results[0].Entry.Answer)
	assert.Greater(t, results[0].Score, 0.25)
}

func TestRetrieve_NilIndex(t *testing.T) {
	var idx *Index
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Retrieve("What is the fee", 3, 0))
	assert.Nil(t, idx.Vectorize("fee"))
}
