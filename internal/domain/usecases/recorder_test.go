package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/faqbot-go/internal/domain/entities"
	"github.com/0xcro3dile/faqbot-go/internal/domain/ports"
)

func TestRecorder_Entry(t *testing.T) {
	r := NewRecorder(&mockStore{}, nil, nil)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	entry := r.Entry("hi", "hello")
	assert.Equal(t, "2026-01-02T03:04:05Z", entry.Timestamp)
	assert.Equal(t, "hi", entry.UserText)
	assert.Equal(t, "hello", entry.BotText)
}

func TestRecorder_Record(t *testing.T) {
	store := &mockStore{}
	r := NewRecorder(store, nil, nil)

	require.NoError(t, r.Record(context.Background(), r.Entry("a", "b")))
	assert.Len(t, store.recorded(), 1)
}

func TestRecorder_CorruptionIsNotAnError(t *testing.T) {
	store := &mockStore{warning: &entities.LogCorruptionWarning{Path: "x", Err: errors.New("bad json")}}
	metrics := newCountingMetrics()
	r := NewRecorder(store, nil, metrics)

	err := r.Record(context.Background(), r.Entry("a", "b"))

	assert.NoError(t, err)
	assert.Len(t, store.recorded(), 1)
	assert.Equal(t, 1, metrics.chatlog[ports.ChatlogCorrupt])
}

func TestRecorder_WriteFailure(t *testing.T) {
	store := &mockStore{err: errors.New("read-only fs")}
	metrics := newCountingMetrics()
	r := NewRecorder(store, nil, metrics)

	err := r.Record(context.Background(), r.Entry("a", "b"))

	var writeErr *entities.LogWriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, 1, metrics.chatlog[ports.ChatlogWrite])
}

func TestRecorder_CancelledContextStillRecords(t *testing.T) {
	store := &mockStore{}
	r := NewRecorder(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Record(ctx, r.Entry("a", "b")))
	assert.Len(t, store.recorded(), 1)
}

func TestRecorder_NilStore(t *testing.T) {
	r := NewRecorder(nil, nil, nil)
	assert.NoError(t, r.Record(context.Background(), r.Entry("a", "b")))

	var nilRecorder *Recorder
	assert.NoError(t, nilRecorder.Record(context.Background(), entities.InteractionLogEntry{}))
}
