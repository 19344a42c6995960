package service

import (
	"errors"
	"fmt"

	"github.com/aliskhannn/quiz-engine/internal/domain/entities"
)

var (
	ErrInvalidConfig       = errors.New("invalid quiz configuration")
	ErrInsufficientPool    = errors.New("insufficient question pool")
	ErrEmptyPool           = errors.New("no questions available")
	ErrInvalidTransition   = errors.New("invalid session transition")
	ErrInvalidOption       = errors.New("invalid option index")
	ErrPersistence         = errors.New("progression persistence failed")
	ErrDuplicateCompletion = errors.New("session already completed")
	ErrMissingToken        = errors.New("missing completion token")
	ErrCommitInProgress    = errors.New("session commit already in progress")
)

// ConfigurationError reports an invalid QuizConfig rejected at Start.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid quiz configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrInvalidConfig }

// InsufficientPoolError reports that fewer questions than requested could be selected.
// A session started with this error still runs with the reduced count.
type InsufficientPoolError struct {
	Requested int
	Available int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("insufficient question pool: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientPoolError) Is(target error) bool { return target == ErrInsufficientPool }

// InvalidTransitionError reports an operation called in the wrong state.
// The session is left unchanged.
type InvalidTransitionError struct {
	Op     string
	Status entities.SessionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid session transition: %s while %s", e.Op, e.Status)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// PersistenceError reports a failed stats save. The merge was not applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("progression %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// validateConfig rejects configurations a session cannot run with.
func validateConfig(cfg entities.QuizConfig) error {
	if cfg.QuestionCount <= 0 {
		return &ConfigurationError{Field: "question_count", Reason: "must be positive"}
	}
	if cfg.TimePerQuestionSeconds <= 0 {
		return &ConfigurationError{Field: "time_per_question", Reason: "must be positive"}
	}
	if cfg.Category != "" && !cfg.Category.Valid() {
		return &ConfigurationError{Field: "category", Reason: fmt.Sprintf("unknown value %q", cfg.Category)}
	}
	if cfg.Difficulty != "" && !cfg.Difficulty.Valid() {
		return &ConfigurationError{Field: "difficulty", Reason: fmt.Sprintf("unknown value %q", cfg.Difficulty)}
	}
	return nil
}
