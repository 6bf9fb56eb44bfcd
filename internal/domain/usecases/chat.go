package usecases

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
	"github.com/0xcro3dile/faqbot-go/internal/domain/ports"
	"github.com/0xcro3dile/faqbot-go/internal/domain/retrieval"
)

// Fixed replies that never involve the completion service.
const (
	EmptyMessageReply      = "Please type something so I can help you."
	GenerationFailureReply = "Sorry, I'm having trouble answering right now. Please try again in a moment."
)

// ChatConfig tunes retrieval and generation for every request.
type ChatConfig struct {
	TopK              int
	Threshold         float64
	GenerationTimeout time.Duration
}

// DefaultChatConfig returns the production retrieval settings.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		TopK:              retrieval.DefaultTopK,
		Threshold:         DefaultThreshold,
		GenerationTimeout: 30 * time.Second,
	}
}

// ChatUseCase answers one question: rank, gate, compose, record.
// It is safe for concurrent use; the index is swapped atomically and never
// mutated in place.
type ChatUseCase struct {
	index    atomic.Pointer[retrieval.Index]
	composer *Composer
	recorder *Recorder
	config   ChatConfig
	logger   *zap.Logger
	metrics  ports.Metrics
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
func NewChatUseCase(
	index *retrieval.Index,
	composer *Composer,
	recorder *Recorder,
	config ChatConfig,
	logger *zap.Logger,
	metrics ports.Metrics,
) *ChatUseCase {
	d := DefaultChatConfig()
	if config.TopK <= 0 {
		config.TopK = d.TopK
	}
	if config.GenerationTimeout <= 0 {
		config.GenerationTimeout = d.GenerationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	uc := &ChatUseCase{
		composer: composer,
		recorder: recorder,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
	uc.SwapIndex(index)
	return uc
}

// SwapIndex replaces the live index. Requests already ranking keep the
// index they started with.
func (uc *ChatUseCase) SwapIndex(idx *retrieval.Index) {
	uc.index.Store(idx)
	uc.metrics.SetCorpusEntries(idx.Len())
}

// CorpusSize reports how many entries the live index holds.
func (uc *ChatUseCase) CorpusSize() int {
	return uc.index.Load().Len()
}

// Threshold reports the configured grounding threshold.
func (uc *ChatUseCase) Threshold() float64 {
	return uc.config.Threshold
}

// Search ranks query against the live index and applies the relevance gate.
func (uc *ChatUseCase) Search(query string) ([]entities.RetrievalResult, bool) {
	results := uc.index.Load().Retrieve(query, uc.config.TopK, 0)
	return results, IsGrounded(results, uc.config.Threshold)
}

// Chat produces a reply for req. It never fails: generation errors become
// a fixed apology and recording errors are only logged.
func (uc *ChatUseCase) Chat(ctx context.Context, req *entities.ChatRequest) *entities.ChatResponse {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		uc.metrics.ObserveChat(ports.OutcomeEmpty)
		return &entities.ChatResponse{Reply: EmptyMessageReply}
	}

	results, grounded := uc.Search(message)
	resp := &entities.ChatResponse{
		Grounded: grounded,
		TopScore: TopScore(results),
		Sources:  results,
	}
	if grounded {
		uc.metrics.ObserveChat(ports.OutcomeGrounded)
	} else {
		uc.metrics.ObserveChat(ports.OutcomeUngrounded)
	}

	resp.Reply = uc.generate(ctx, message, grounded, results)

	if uc.recorder != nil {
		_ = uc.recorder.Record(ctx, uc.recorder.Entry(message, resp.Reply))
	}
	return resp
}

// generate bounds the completion call by the configured timeout.
func (uc *ChatUseCase) generate(ctx context.Context, message string, grounded bool, results []entities.RetrievalResult) string {
	ctx, cancel := context.WithTimeout(ctx, uc.config.GenerationTimeout)
	defer cancel()

	start := time.Now()
	reply, err := uc.composer.Generate(ctx, message, grounded, results)
	uc.metrics.ObserveGeneration(time.Since(start), err)

	if err != nil {
		uc.logger.Error("generation failed",
			zap.Bool("grounded", grounded),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return GenerationFailureReply
	}
	if reply == "" {
		uc.logger.Warn("completion service returned an empty reply", zap.Bool("grounded", grounded))
		return GenerationFailureReply
	}

	uc.logger.Debug("reply generated",
		zap.Bool("grounded", grounded),
		zap.Float64("top_score", TopScore(results)),
		zap.Int("sources", len(results)),
	)
	return reply
}
