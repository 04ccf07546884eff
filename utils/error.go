package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError is a malformed or missing request field. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError rejects an operation the current data forbids (product in use, duplicate identity).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// DataStoreError is a store failure distinct from "no rows"; the store message is passed through.
type DataStoreError struct {
	Op  string
	Err error
}

func (e *DataStoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DataStoreError) Unwrap() error {
	return e.Err
}

// StoreError wraps err as a DataStoreError unless it is nil or already classified.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrorRecordNotFound) {
		return err
	}
	var dsErr *DataStoreError
	if errors.As(err, &dsErr) {
		return err
	}
	return &DataStoreError{Op: op, Err: err}
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsConflictError(err error) bool {
	var cErr *ConflictError
	return errors.As(err, &cErr)
}

func IsDataStoreError(err error) bool {
	var dsErr *DataStoreError
	return errors.As(err, &dsErr)
}
