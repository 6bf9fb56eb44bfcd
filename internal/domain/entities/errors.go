package entities

import (
	"errors"
	"fmt"
)

// ErrEmptyCorpus is returned when there is nothing to retrieve against.
var ErrEmptyCorpus = errors.New("knowledge base is empty")

// ErrInvalidEntry marks a knowledge record rejected at load time.
var ErrInvalidEntry = errors.New("invalid knowledge entry")

// GenerationError wraps any failure of the external completion service.
type GenerationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s/%s): %v", e.Provider, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// LogCorruptionWarning reports that prior interaction history could not be
// parsed and was discarded. It is never fatal.
type LogCorruptionWarning struct {
	Path       string
	BackupPath string // Where the unreadable file was moved, if anywhere
	Err        error
}

func (w *LogCorruptionWarning) Error() string {
	if w.BackupPath != "" {
		return fmt.Sprintf("interaction log %s corrupted (kept as %s): %v", w.Path, w.BackupPath, w.Err)
	}
	return fmt.Sprintf("interaction log %s corrupted: %v", w.Path, w.Err)
}

func (w *LogCorruptionWarning) Unwrap() error { return w.Err }

// LogWriteError reports that an interaction could not be persisted.
type LogWriteError struct {
	Path string
	Err  error
}

func (e *LogWriteError) Error() string {
	return fmt.Sprintf("writing interaction log %s: %v", e.Path, e.Err)
}

func (e *LogWriteError) Unwrap() error { return e.Err }
