// Package apperr defines the error taxonomy shared by storage, domain and
// transport layers. HTTP handlers translate these into status codes; nothing
// below the handlers knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

// ErrLockTimeout is the cause carried by a StorageError when a per-file
// write lock could not be acquired within the configured bound.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// ValidationError reports malformed caller input (bad shape or range).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConflictError reports a uniqueness violation (duplicate budget category,
// duplicate user email).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// UnauthorizedError reports a failed authentication.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string { return e.Msg }

func Unauthorized(msg string) error {
	return &UnauthorizedError{Msg: msg}
}

func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}

// StorageError reports an I/O or corrupt-file failure. It carries the file
// identifier and the underlying cause; callers must not assume partial
// success after receiving one.
type StorageError struct {
	File string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.File, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
