package usecase

import (
	"errors"
	"fmt"

	"fitness-booking/pkg/utils"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrSlotConflict      = errors.New("slot conflict")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	// ErrNotDurable marks a change that was applied in memory but not saved.
	ErrNotDurable = errors.New("change applied but not persisted")

	ErrMessagingDisabled = fmt.Errorf("%w: messaging is disabled for this booking", ErrInvalidTransition)
)

// SlotConflictError carries the refreshed slot list so the caller can re-prompt.
type SlotConflictError struct {
	CoachID   string
	Date      string
	Time      string
	Available []string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot %s %s for coach %s is no longer available", e.Date, e.Time, e.CoachID)
}

func (e *SlotConflictError) Unwrap() error {
	return ErrSlotConflict
}

// ValidationError maps field names to human-readable problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + utils.FormatValidationErrors(e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

func fieldError(field, msg string) error {
	return newValidationError(map[string]string{field: msg})
}

// scheduleError turns an EndClock failure into a field error.
func scheduleError(err error) error {
	if errors.Is(err, utils.ErrPastMidnight) {
		return fieldError("Duration", "Must end by midnight")
	}
	return fieldError("Time", "Must match layout "+utils.ClockLayout)
}

// validate runs struct tags and wraps failures as a ValidationError.
func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return newValidationError(errs)
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func notDurable(err error) error {
	return fmt.Errorf("%w: %w", ErrNotDurable, err)
}
