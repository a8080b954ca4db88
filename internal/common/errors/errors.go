package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"

	// Giveaway errors
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeNotEligible           ErrorCode = "NOT_ELIGIBLE"
	ErrCodeExpired               ErrorCode = "EXPIRED"
	ErrCodeAlreadyEnded          ErrorCode = "ALREADY_ENDED"
	ErrCodeNotEnded              ErrorCode = "NOT_ENDED"
	ErrCodeNotEnoughParticipants ErrorCode = "NOT_ENOUGH_PARTICIPANTS"
	ErrCodeNotAuthorized         ErrorCode = "NOT_AUTHORIZED"
	ErrCodeSessionExpired        ErrorCode = "SESSION_EXPIRED"

	// Infrastructure errors
	ErrCodeDatabase  ErrorCode = "DATABASE_ERROR"
	ErrCodeMessaging ErrorCode = "MESSAGING_ERROR"
)

// AppError is the typed error carried across service boundaries. The Message
// is safe to surface to the end user; Cause is not.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is makes AppError comparable by code through errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsNotFound reports whether the error represents an absent record or message.
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound
}

// IsUserFacing reports whether the error should be relayed to the caller
// verbatim instead of being logged as an internal failure.
func (e *AppError) IsUserFacing() bool {
	switch e.Code {
	case ErrCodeDatabase, ErrCodeMessaging, ErrCodeInternal:
		return false
	}
	return true
}

// WithDetail attaches structured detail to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with an application code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Constructors for the errors surfaced by giveaway operations.

func NewNotFoundError(resource, id string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewGiveawayNotFoundError(messageID string) *AppError {
	return New(ErrCodeNotFound, "I couldn't find a giveaway associated with that message ID! Please try again.").
		WithDetail("message_id", messageID)
}

func NewInvalidInputError(reason string) *AppError {
	return New(ErrCodeInvalidInput, reason)
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("validation failed for %s: %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotEligibleError(roleIDs []string) *AppError {
	return New(ErrCodeNotEligible, "You need to have one of the allowed roles to join this giveaway.").
		WithDetail("allowed_roles", roleIDs)
}

func NewExpiredError(giveawayID string) *AppError {
	return New(ErrCodeExpired, "This giveaway doesn't accept participants anymore!").
		WithDetail("giveaway_id", giveawayID)
}

func NewAlreadyEndedError(giveawayID string) *AppError {
	return New(ErrCodeAlreadyEnded, "This giveaway has already ended.").
		WithDetail("giveaway_id", giveawayID)
}

func NewNotEndedError(giveawayID string) *AppError {
	return New(ErrCodeNotEnded, "This giveaway hasn't ended yet!").
		WithDetail("giveaway_id", giveawayID)
}

func NewNotEnoughParticipantsError(giveawayID string) *AppError {
	return New(ErrCodeNotEnoughParticipants, "There are not enough participants to reroll this giveaway.").
		WithDetail("giveaway_id", giveawayID)
}

func NewNotAuthorizedError(userID string) *AppError {
	return New(ErrCodeNotAuthorized, "You are not allowed to use this component!").
		WithDetail("user_id", userID)
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, fmt.Sprintf("store operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewMessagingError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeMessaging, fmt.Sprintf("messaging operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError extracts an AppError if err is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
