package entity

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes workflow errors so callers (and the HTTP layer)
// can branch without string matching.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a referenced entity is absent.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodePermissionDenied indicates the actor is not the owner/author.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrCodeInvalidState indicates the operation is illegal for the
	// entity's current state machine state.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrCodeAlreadyResolved indicates ResolvePost hit a resolved post.
	ErrCodeAlreadyResolved ErrorCode = "ALREADY_RESOLVED"

	// ErrCodeValidation indicates a required field was empty or malformed.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrCodeAborted indicates the transaction retry budget was exhausted.
	ErrCodeAborted ErrorCode = "ABORTED"
)

// Error is the structured error returned by every workflow operation.
//
// Errors carry a code plus the entity they refer to so the UI can render a
// generic failure surface without the engine knowing about presentation.
type Error struct {
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Collection and ID identify the entity involved, when known.
	Collection string
	ID         string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Collection != "" && e.ID != "" {
		return fmt.Sprintf("%s: %s (%s/%s)", e.Code, e.Message, e.Collection, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the error code from err, unwrapping as needed.
// Returns "" if err carries no *Error.
func CodeOf(err error) ErrorCode {
	var we *Error
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND workflow error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsPermissionDenied reports whether err is a PERMISSION_DENIED workflow error.
func IsPermissionDenied(err error) bool { return CodeOf(err) == ErrCodePermissionDenied }

// IsInvalidState reports whether err is an INVALID_STATE workflow error.
func IsInvalidState(err error) bool { return CodeOf(err) == ErrCodeInvalidState }

// IsAlreadyResolved reports whether err is an ALREADY_RESOLVED workflow error.
func IsAlreadyResolved(err error) bool { return CodeOf(err) == ErrCodeAlreadyResolved }

// IsValidation reports whether err is a VALIDATION_ERROR workflow error.
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsAborted reports whether err is an ABORTED workflow error.
func IsAborted(err error) bool { return CodeOf(err) == ErrCodeAborted }

// NewNotFound creates a NOT_FOUND error for collection/id.
func NewNotFound(collection, id string) *Error {
	return &Error{
		Code:       ErrCodeNotFound,
		Message:    "entity not found",
		Collection: collection,
		ID:         id,
	}
}

// NewPermissionDenied creates a PERMISSION_DENIED error.
func NewPermissionDenied(collection, id, msg string) *Error {
	return &Error{
		Code:       ErrCodePermissionDenied,
		Message:    msg,
		Collection: collection,
		ID:         id,
	}
}

// NewInvalidState creates an INVALID_STATE error.
func NewInvalidState(collection, id, msg string) *Error {
	return &Error{
		Code:       ErrCodeInvalidState,
		Message:    msg,
		Collection: collection,
		ID:         id,
	}
}

// NewAlreadyResolved creates an ALREADY_RESOLVED error for a post.
func NewAlreadyResolved(postID string) *Error {
	return &Error{
		Code:       ErrCodeAlreadyResolved,
		Message:    "post is already resolved",
		Collection: CollectionPosts,
		ID:         postID,
	}
}

// NewValidation creates a VALIDATION_ERROR with the given message.
func NewValidation(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// NewAborted creates an ABORTED error wrapping the terminal conflict.
func NewAborted(attempts int) *Error {
	return &Error{
		Code:    ErrCodeAborted,
		Message: fmt.Sprintf("transaction aborted after %d attempts", attempts),
	}
}
