package database

import (
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

var (
	ErrNotOpen  = errors.New("database: not open")
	ErrNotFound = errors.New("database: not found")
)

// TransitionStep identifies how far ChangeSecret got before failing. Cleanup
// is decided from the step that was reached, not from nested error handlers.
type TransitionStep string

const (
	StepSnapshot   TransitionStep = "snapshot"
	StepCheckpoint TransitionStep = "checkpoint"
	StepExport     TransitionStep = "export"
	StepSwap       TransitionStep = "swap"
	StepRekey      TransitionStep = "rekey"
	StepReopen     TransitionStep = "reopen"
)

// TransitionError wraps the original cause of a failed secret change. By the
// time it is returned the store has been restored to its pre-change state.
type TransitionError struct {
	Step TransitionStep
	Err  error
}

func (e *TransitionError) Error() string {
	if e == nil || e.Err == nil {
		return "change secret failed"
	}
	return fmt.Sprintf("change secret: %s: %v", e.Step, e.Err)
}

func (e *TransitionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// isBusy reports whether err is the engine's transient busy/locked condition.
// Only these errors are retried, and only during initialization.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
