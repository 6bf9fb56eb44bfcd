package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faqs.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestJSONLoader_Load(t *testing.T) {
	path := writeFile(t, `[
		{"question": "What is the fee?", "answer": "₹50,000 per year"},
		{"question": "  Hostel?  ", "answer": "Available", "source": "handbook"}
	]`)

	entries, err := NewJSONLoader(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "What is the fee?", entries[0].Question)
	assert.Equal(t, "Hostel?", entries[1].Question)
	assert.Equal(t, "handbook", entries[1].Source)
}

func TestJSONLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"empty array", `[]`, entities.ErrEmptyCorpus},
		{"blank question", `[{"question": " ", "answer": "x"}]`, entities.ErrInvalidEntry},
		{"missing answer", `[{"question": "q"}]`, entities.ErrInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONLoader(writeFile(t, tt.content)).Load(context.Background())
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestJSONLoader_InvalidEntryIndex(t *testing.T) {
	path := writeFile(t, `[{"question": "a", "answer": "b"}, {"question": "", "answer": "c"}]`)

	_, err := NewJSONLoader(path).Load(context.Background())
	assert.ErrorContains(t, err, "entry 1")
}

func TestJSONLoader_Malformed(t *testing.T) {
	_, err := NewJSONLoader(writeFile(t, `{not json`)).Load(context.Background())
	assert.Error(t, err)
}

func TestJSONLoader_MissingFile(t *testing.T) {
	_, err := NewJSONLoader(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestJSONLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewJSONLoader(writeFile(t, `[]`)).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
