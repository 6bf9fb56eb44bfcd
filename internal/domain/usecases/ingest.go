package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/faqbot-go/internal/domain/ports"
	"github.com/0xcro3dile/faqbot-go/internal/domain/retrieval"
)

// IndexTarget receives freshly built indexes.
type IndexTarget interface {
	SwapIndex(idx *retrieval.Index)
}

// IngestUseCase loads the knowledge base and builds the corpus index.
type IngestUseCase struct {
	loader ports.KnowledgeLoader
	logger *zap.Logger
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(loader ports.KnowledgeLoader, logger *zap.Logger) *IngestUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{loader: loader, logger: logger}
}

// Build loads every entry and fits a new index. Any load or validation
// error is returned as is; at startup such errors are fatal.
func (uc *IngestUseCase) Build(ctx context.Context) (*retrieval.Index, error) {
	entries, err := uc.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base %s: %w", uc.loader.Path(), err)
	}
	idx, err := retrieval.Build(entries)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("corpus index built",
		zap.String("path", uc.loader.Path()),
		zap.Int("entries", idx.Len()),
		zap.Int("vocabulary", len(idx.Vocabulary())),
	)
	return idx, nil
}

// Watch rebuilds the index whenever the knowledge file changes and hands
// it to target. A failed rebuild keeps the previous index serving.
// Watch blocks until ctx is done or the event stream closes.
func (uc *IngestUseCase) Watch(ctx context.Context, watcher ports.FileWatcher, target IndexTarget) error {
	events, err := watcher.Watch(ctx, uc.loader.Path())
	if err != nil {
		return fmt.Errorf("watching %s: %w", uc.loader.Path(), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Operation == ports.FileDeleted {
				uc.logger.Warn("knowledge base removed, keeping current index", zap.String("path", ev.Path))
				continue
			}
			idx, err := uc.Build(ctx)
			if err != nil {
				uc.logger.Error("knowledge base reload failed, keeping current index",
					zap.String("op", ev.Operation.String()),
					zap.Error(err),
				)
				continue
			}
			target.SwapIndex(idx)
		}
	}
}
