package model

import (
	"fmt"
)

// NotFoundError is an error signaling that something was not found in the
// database
type NotFoundError string

// Error implements the error interface
func (e NotFoundError) Error() string {
	return string(e)
}

// NotFoundErrorFmt returns a NotFoundError from the passed format string and parameters
func NotFoundErrorFmt(format string, params ...any) NotFoundError {
	return NotFoundError(fmt.Sprintf(format, params...))
}

// TooLongError signals that a value exceeds the width of its column
type TooLongError struct {
	Field string
	Max   int
	Len   int
}

// Error implements the error interface
func (e TooLongError) Error() string {
	return fmt.Sprintf("%s should have at most %d chars, got %d", e.Field, e.Max, e.Len)
}
