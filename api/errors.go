// Package api holds types shared by the HTTP APIs
package api

import (
	"github.com/gofiber/fiber/v2"
)

// Error is the JSON body of all API error responses
type Error struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Error codes
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeUnauthorized   = "unauthorized"
	ErrorCodeForbidden      = "forbidden"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeServerError    = "server_error"
)

// ErrorInvalidRequest returns an invalid_request Error
func ErrorInvalidRequest(description string) Error {
	return Error{
		Error:            ErrorCodeInvalidRequest,
		ErrorDescription: description,
	}
}

// ErrorUnauthorized returns an unauthorized Error
func ErrorUnauthorized(description string) Error {
	return Error{
		Error:            ErrorCodeUnauthorized,
		ErrorDescription: description,
	}
}

// ErrorForbidden returns a forbidden Error
func ErrorForbidden(description string) Error {
	return Error{
		Error:            ErrorCodeForbidden,
		ErrorDescription: description,
	}
}

// ErrorNotFound returns a not_found Error
func ErrorNotFound(description string) Error {
	return Error{
		Error:            ErrorCodeNotFound,
		ErrorDescription: description,
	}
}

// ErrorServerError returns a server_error Error
func ErrorServerError(description string) Error {
	return Error{
		Error:            ErrorCodeServerError,
		ErrorDescription: description,
	}
}

// ErrorFromFiber converts a *fiber.Error into an Error
func ErrorFromFiber(e *fiber.Error) Error {
	switch e.Code {
	case fiber.StatusBadRequest:
		return ErrorInvalidRequest(e.Message)
	case fiber.StatusUnauthorized:
		return ErrorUnauthorized(e.Message)
	case fiber.StatusForbidden:
		return ErrorForbidden(e.Message)
	case fiber.StatusNotFound:
		return ErrorNotFound(e.Message)
	default:
		return ErrorServerError(e.Message)
	}
}
