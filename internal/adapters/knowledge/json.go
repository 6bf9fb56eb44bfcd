// Package knowledge provides knowledge base adapters.
// Clean Architecture: Adapters implementing ports.KnowledgeLoader and ports.FileWatcher.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
)

// JSONLoader loads a knowledge base stored as a JSON array of
// {"question", "answer"} objects.
type JSONLoader struct {
	path string
}

// NewJSONLoader creates a loader for the file at path.
func NewJSONLoader(path string) *JSONLoader {
	return &JSONLoader{path: path}
}

// Path returns the file this loader reads.
func (l *JSONLoader) Path() string { return l.path }

// Load reads and validates every entry. Entries keep file order.
func (l *JSONLoader) Load(ctx context.Context) ([]entities.KnowledgeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []entities.KnowledgeEntry
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", l.path, err)
	}
	if len(entries) == 0 {
		return nil, entities.ErrEmptyCorpus
	}

	for i := range entries {
		entries[i].Question = strings.TrimSpace(entries[i].Question)
		entries[i].Answer = strings.TrimSpace(entries[i].Answer)
		if entries[i].Question == "" || entries[i].Answer == "" {
			return nil, fmt.Errorf("entry %d: %w", i, entities.ErrInvalidEntry)
		}
	}
	return entries, nil
}
