package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
	"github.com/0xcro3dile/faqbot-go/internal/domain/ports"
	"github.com/0xcro3dile/faqbot-go/internal/domain/retrieval"
)

// mockLLM implements ports.CompletionService for testing
type mockLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	block    bool // wait for ctx to end, like a hung backend
	requests []ports.CompletionRequest
}

func (m *mockLLM) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", &entities.GenerationError{Provider: "mock", Model: req.Model, Err: ctx.Err()}
	}
	if m.err != nil {
		return "", m.err
	}
	if m.reply != "" {
		return m.reply, nil
	}
	return "mocked answer", nil
}

func (m *mockLLM) Name() string { return "mock" }

func (m *mockLLM) calls() []ports.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.CompletionRequest(nil), m.requests...)
}

// mockStore implements ports.InteractionStore for testing
type mockStore struct {
	mu      sync.Mutex
	entries []entities.InteractionLogEntry
	warning *entities.LogCorruptionWarning
	err     error
}

func (m *mockStore) Append(ctx context.Context, entry entities.InteractionLogEntry) (*entities.LogCorruptionWarning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.warning, m.err
	}
	m.entries = append(m.entries, entry)
	return m.warning, nil
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) recorded() []entities.InteractionLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.InteractionLogEntry(nil), m.entries...)
}

// countingMetrics implements ports.Metrics for testing
type countingMetrics struct {
	mu          sync.Mutex
	outcomes    map[string]int
	genFailures int
	chatlog     map[string]int
	corpus      int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: map[string]int{}, chatlog: map[string]int{}}
}

func (m *countingMetrics) ObserveChat(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *countingMetrics) ObserveGeneration(_ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.genFailures++
	}
}

func (m *countingMetrics) ObserveChatlogFailure(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatlog[kind]++
}

func (m *countingMetrics) SetCorpusEntries(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corpus = n
}

func feeIndex(t *testing.T) *retrieval.Index {
	t.Helper()
	idx, err := retrieval.Build([]entities.KnowledgeEntry{
		{Question: "What is the fee?", Answer: "₹50,000/year"},
	})
	require.NoError(t, err)
	return idx
}

func newChat(t *testing.T, llm *mockLLM, store *mockStore, cfg ChatConfig) (*ChatUseCase, *countingMetrics) {
	t.Helper()
	metrics := newCountingMetrics()
	composer := NewComposer(llm, DefaultPersona(), DefaultGenerationParams())
	recorder := NewRecorder(store, nil, metrics)
	return NewChatUseCase(feeIndex(t), composer, recorder, cfg, nil, metrics), metrics
}

func TestChatUseCase_GroundedPath(t *testing.T) {
	llm := &mockLLM{reply: "The fee is ₹50,000/year 🎓"}
	store := &mockStore{}
	uc, metrics := newChat(t, llm, store, DefaultChatConfig())

	resp := uc.Chat(context.Background(), &entities.ChatRequest{Message: "What is the fee"})

	assert.Equal(t, "The fee is ₹50,000/year 🎓", resp.Reply)
	assert.True(t, resp.Grounded)
	assert.Greater(t, resp.TopScore, DefaultThreshold)
	require.Len(t, resp.Sources, 1)

	calls := llm.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Messages[1].Content, "Q: What is the fee?\nA: ₹50,000/year")
	assert.Equal(t, "llama-3.1-8b-instant", calls[0].Model)
	assert.Equal(t, float32(0.7), calls[0].Temperature)
	assert.Equal(t, 500, calls[0].MaxTokens)

	assert.Equal(t, 1, metrics.outcomes[ports.OutcomeGrounded])
	assert.Equal(t, 1, metrics.corpus)
}

func TestChatUseCase_UngroundedPath(t *testing.T) {
	llm := &mockLLM{}
	store := &mockStore{}
	uc, metrics := newChat(t, llm, store, DefaultChatConfig())

	resp := uc.Chat(context.Background(), &entities.ChatRequest{Message: "What is the weather today"})

	assert.False(t, resp.Grounded)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, resp.TopScore)

	calls := llm.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "What is the weather today", calls[0].Messages[1].Content)
	assert.NotContains(t, calls[0].Messages[1].Content, "Context:")
	assert.Equal(t, 1, metrics.outcomes[ports.OutcomeUngrounded])
}

func TestChatUseCase_EmptyMessage(t *testing.T) {
	llm := &mockLLM{}
	store := &mockStore{}
	uc, metrics := newChat(t, llm, store, DefaultChatConfig())

	for _, msg := range []string{"", "   ", "\n\t"} {
		resp := uc.Chat(context.Background(), &entities.ChatRequest{Message: msg})
		assert.Equal(t, EmptyMessageReply, resp.Reply)
	}

	assert.Empty(t, llm.calls(), "empty input must not reach the completion service")
	assert.Empty(t, store.recorded(), "empty input must not be recorded")
	assert.Equal(t, 3, metrics.outcomes[ports.OutcomeEmpty])
}

func TestChatUseCase_TrimsMessage(t *testing.T) {
	llm := &mockLLM{}
	store := &mockStore{}
	uc, _ := newChat(t, llm, store, DefaultChatConfig())

	uc.Chat(context.Background(), &entities.ChatRequest{Message: "  What is the fee  "})

	entries := store.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, "What is the fee", entries[0].UserText)
	assert.Equal(t, "mocked answer", entries[0].BotText)
	_, err := time.Parse(time.RFC3339Nano, entries[0].Timestamp)
	assert.NoError(t, err)
}

func TestChatUseCase_GenerationTimeout(t *testing.T) {
	llm := &mockLLM{block: true}
	store := &mockStore{}
	cfg := DefaultChatConfig()
	cfg.GenerationTimeout = 20 * time.Millisecond
	uc, metrics := newChat(t, llm, store, cfg)

	done := make(chan *entities.ChatResponse, 1)
	go func() {
		done <- uc.Chat(context.Background(), &entities.ChatRequest{Message: "What is the fee"})
	}()

	select {
	case resp := <-done:
		assert.Equal(t, GenerationFailureReply, resp.Reply)
	case <-time.After(2 * time.Second):
		t.Fatal("chat did not honor the generation timeout")
	}

	entries := store.recorded()
	require.Len(t, entries, 1, "fallback reply should still be recorded")
	assert.Equal(t, GenerationFailureReply, entries[0].BotText)
	assert.Equal(t, 1, metrics.genFailures)
}

func TestChatUseCase_GenerationError(t *testing.T) {
	llm := &mockLLM{err: &entities.GenerationError{Provider: "mock", Err: errors.New("quota exceeded")}}
	store := &mockStore{}
	uc, _ := newChat(t, llm, store, DefaultChatConfig())

	resp := uc.Chat(context.Background(), &entities.ChatRequest{Message: "What is the fee"})

	assert.Equal(t, GenerationFailureReply, resp.Reply)
	assert.True(t, resp.Grounded)
}

func TestChatUseCase_EmptyReplyFallsBack(t *testing.T) {
	llm := &mockLLM{reply: "   "}
	uc, _ := newChat(t, llm, &mockStore{}, DefaultChatConfig())

	resp := uc.Chat(context.Background(), &entities.ChatRequest{Message: "What is the fee"})
	assert.Equal(t, GenerationFailureReply, resp.Reply)
}

func TestChatUseCase_RecordFailureDoesNotAffectReply(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	store := &mockStore{err: errors.New("disk full")}
	uc, metrics := newChat(t, llm, store, DefaultChatConfig())

	resp := uc.Chat(context.Background(), &entities.ChatRequest{Message: "What is the fee"})

	assert.Equal(t, "ok", resp.Reply)
	assert.Equal(t, 1, metrics.chatlog[ports.ChatlogWrite])
}

func TestChatUseCase_NilRecorder(t *testing.T) {
	composer := NewComposer(&mockLLM{}, DefaultPersona(), DefaultGenerationParams())
	uc := NewChatUseCase(feeIndex(t), composer, nil, DefaultChatConfig(), nil, nil)

	resp := uc.Chat(context.Background(), &entities.ChatRequest{Message: "What is the fee"})
	assert.Equal(t, "mocked answer", resp.Reply)
}

func TestChatUseCase_EmptyCorpusNeverGrounds(t *testing.T) {
	llm := &mockLLM{}
	composer := NewComposer(llm, DefaultPersona(), DefaultGenerationParams())
	uc := NewChatUseCase(nil, composer, nil, DefaultChatConfig(), nil, nil)

	resp := uc.Chat(context.Background(), &entities.ChatRequest{Message: "What is the fee"})

	assert.False(t, resp.Grounded)
	assert.Zero(t, uc.CorpusSize())
}

func TestChatUseCase_SwapIndex(t *testing.T) {
	uc, metrics := newChat(t, &mockLLM{}, &mockStore{}, DefaultChatConfig())

	_, grounded := uc.Search("library hours")
	assert.False(t, grounded)

	idx, err := retrieval.Build([]entities.KnowledgeEntry{
		{Question: "What are the library hours?", Answer: "9 to 5"},
		{Question: "What is the fee?", Answer: "₹50,000/year"},
	})
	require.NoError(t, err)
	uc.SwapIndex(idx)

	results, grounded := uc.Search("library hours")
	assert.True(t, grounded)
	assert.Equal(t, "9 to 5", results[0].Entry.Answer)
	assert.Equal(t, 2, uc.CorpusSize())
	assert.Equal(t, 2, metrics.corpus)
}

func TestChatUseCase_ConcurrentRequests(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	store := &mockStore{}
	uc, _ := newChat(t, llm, store, DefaultChatConfig())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uc.Chat(context.Background(), &entities.ChatRequest{Message: "What is the fee"})
		}()
	}
	wg.Wait()

	assert.Len(t, store.recorded(), 50)
}

func TestDefaultChatConfig(t *testing.T) {
	cfg := DefaultChatConfig()
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 0.25, cfg.Threshold)
	assert.Positive(t, cfg.GenerationTimeout)
}
