package usecases

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
	"github.com/0xcro3dile/faqbot-go/internal/domain/ports"
)

// Recorder appends interactions to the store on a best-effort basis.
// Nothing it does can fail a chat response.
type Recorder struct {
	store   ports.InteractionStore
	logger  *zap.Logger
	metrics ports.Metrics
	now     func() time.Time
}

// NewRecorder wraps store. A nil store records nothing.
func NewRecorder(store ports.InteractionStore, logger *zap.Logger, metrics ports.Metrics) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Recorder{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Entry stamps a user/bot pair with the current time.
func (r *Recorder) Entry(user, bot string) entities.InteractionLogEntry {
	return entities.InteractionLogEntry{
		Timestamp: r.now().Format(time.RFC3339Nano),
		UserText:  user,
		BotText:   bot,
	}
}

// Record appends entry. A discarded corrupt history is logged and counted
// but is not an error; the returned error is the write failure, if any.
func (r *Recorder) Record(ctx context.Context, entry entities.InteractionLogEntry) error {
	if r == nil || r.store == nil {
		return nil
	}

	// The request may already be finished; the append should still land.
	ctx = context.WithoutCancel(ctx)

	warning, err := r.store.Append(ctx, entry)
	if warning != nil {
		r.metrics.ObserveChatlogFailure(ports.ChatlogCorrupt)
		r.logger.Warn("interaction log history discarded",
			zap.String("path", warning.Path),
			zap.String("backup", warning.BackupPath),
			zap.Error(warning.Err),
		)
	}
	if err != nil {
		r.metrics.ObserveChatlogFailure(ports.ChatlogWrite)
		var writeErr *entities.LogWriteError
		if !errors.As(err, &writeErr) {
			err = &entities.LogWriteError{Err: err}
		}
		r.logger.Error("interaction not recorded", zap.Error(err))
		return err
	}
	return nil
}
