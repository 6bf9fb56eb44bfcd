// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"
	"time"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
)

// CompletionRequest is everything a completion service needs for one reply.
type CompletionRequest struct {
	Messages    []entities.ChatMessage
	Model       string // Empty means the adapter's configured model
	Temperature float32
	MaxTokens   int
}

// CompletionService turns an ordered message sequence into a single reply.
// Failures are reported as *entities.GenerationError.
type CompletionService interface {
	// Complete blocks until the reply arrives, ctx is done, or the
	// adapter's own timeout expires.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}

// InteractionStore persists query/response pairs in append order.
// Implementations must serialize concurrent appends.
type InteractionStore interface {
	// Append adds one entry. A non-nil warning means prior history was
	// unreadable and has been discarded; the entry itself was still written
	// unless err is non-nil. Write failures are *entities.LogWriteError.
	Append(ctx context.Context, entry entities.InteractionLogEntry) (*entities.LogCorruptionWarning, error)

	// Close releases underlying resources.
	Close() error
}

// KnowledgeLoader reads the curated knowledge base.
type KnowledgeLoader interface {
	// Load returns the validated entries in source order.
	Load(ctx context.Context) ([]entities.KnowledgeEntry, error)

	// Path reports where entries are loaded from.
	Path() string
}

// FileWatcher monitors a single file for changes.
type FileWatcher interface {
	// Watch emits an event whenever path is written, created or replaced.
	Watch(ctx context.Context, path string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
	At        time.Time
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Chat outcomes reported to Metrics.
const (
	OutcomeGrounded   = "grounded"
	OutcomeUngrounded = "ungrounded"
	OutcomeEmpty      = "empty"
)

// Interaction log failure kinds reported to Metrics.
const (
	ChatlogCorrupt = "corrupt"
	ChatlogWrite   = "write"
)

// Metrics receives pipeline observations. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveChat(outcome string)
	ObserveGeneration(elapsed time.Duration, err error)
	ObserveChatlogFailure(kind string)
	SetCorpusEntries(n int)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveChat(string)                     {}
func (NopMetrics) ObserveGeneration(time.Duration, error) {}
func (NopMetrics) ObserveChatlogFailure(string)           {}
func (NopMetrics) SetCorpusEntries(int)                   {}
