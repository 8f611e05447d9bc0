package services

import (
	"errors"
	"fmt"

	"github.com/sjperalta/studio-finance-api/internal/finance"
	"github.com/sjperalta/studio-finance-api/internal/models"
	"github.com/sjperalta/studio-finance-api/internal/repository"
	"github.com/sjperalta/studio-finance-api/internal/statemachine"
	"gorm.io/gorm"
)

// ErrorKind classifies a service failure for the transport layer
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindExternal     ErrorKind = "external"
	KindInternal     ErrorKind = "internal"
)

// Common service errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("conflicting write")
)

// Error is the structured failure every service method returns
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind against the package sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidState:
		return e.Kind == KindInvalidState
	case ErrConflict:
		return e.Kind == KindConflict
	}
	return false
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(entity string, id uint) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s #%d not found", entity, id)}
}

func externalError(message string, err error) *Error {
	return &Error{Kind: KindExternal, Message: message, Err: err}
}

func internalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err; unclassified errors are internal
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// classify maps repository, state machine and engine errors onto a kinded
// Error. message describes the failed operation.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}

	var enumErr *models.EnumError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: message + ": not found", Err: err}
	case errors.Is(err, statemachine.ErrInvalidTransition):
		return &Error{Kind: KindInvalidState, Message: err.Error(), Err: err}
	case errors.Is(err, repository.ErrDuplicateReceiptNumber):
		return &Error{Kind: KindConflict, Message: message, Err: err}
	case errors.As(err, &enumErr),
		errors.Is(err, finance.ErrMissingRange),
		errors.Is(err, finance.ErrInvertedRange),
		errors.Is(err, finance.ErrRecurringMonths),
		errors.Is(err, finance.ErrNegativeAmount):
		return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	return internalError(message, err)
}
