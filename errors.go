// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error categories for server operations.
type ErrorCode int

const (
	// ErrProtocol indicates a client broke the RFB protocol.
	ErrProtocol ErrorCode = iota
	// ErrEncoding indicates a rectangle encoding error.
	ErrEncoding
	// ErrNetwork indicates a network-related error.
	ErrNetwork
	// ErrConfiguration indicates a configuration error.
	ErrConfiguration
	// ErrValidation indicates input validation failure.
	ErrValidation
	// ErrStorage indicates a persisted-state (stats or history) error.
	ErrStorage
	// ErrGame indicates a game-logic failure, such as an entropy source error.
	ErrGame
)

// String returns the string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrProtocol:
		return "protocol"
	case ErrEncoding:
		return "encoding"
	case ErrNetwork:
		return "network"
	case ErrConfiguration:
		return "configuration"
	case ErrValidation:
		return "validation"
	case ErrStorage:
		return "storage"
	case ErrGame:
		return "game"
	default:
		return "unknown"
	}
}

// ServerError provides structured error information with operation context,
// error codes, and message wrapping.
type ServerError struct {
	Op      string
	Code    ErrorCode
	Message string
	Err     error
}

// Error returns the formatted error message.
func (e *ServerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vncslots %s: %s: %s: %v", e.Code.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("vncslots %s: %s: %s", e.Code.String(), e.Op, e.Message)
}

// Unwrap returns the underlying error for error chain unwrapping.
func (e *ServerError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target error.
func (e *ServerError) Is(target error) bool {
	var srvErr *ServerError
	if errors.As(target, &srvErr) {
		return e.Code == srvErr.Code && e.Op == srvErr.Op
	}
	return false
}

// NewServerError creates a new ServerError with the specified parameters.
func NewServerError(op string, code ErrorCode, message string, err error) *ServerError {
	return &ServerError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsServerError checks if an error is a ServerError and optionally matches
// specific error codes. If no codes are provided, returns true for any
// ServerError.
func IsServerError(err error, code ...ErrorCode) bool {
	var srvErr *ServerError
	if !errors.As(err, &srvErr) {
		return false
	}

	if len(code) == 0 {
		return true
	}

	for _, c := range code {
		if srvErr.Code == c {
			return true
		}
	}
	return false
}

// protocolError creates a new protocol error.
func protocolError(op, message string, err error) error {
	return NewServerError(op, ErrProtocol, message, err)
}

// encodingError creates a new encoding error.
func encodingError(op, message string, err error) error {
	return NewServerError(op, ErrEncoding, message, err)
}

// networkError creates a new network error.
func networkError(op, message string, err error) error {
	return NewServerError(op, ErrNetwork, message, err)
}

// configurationError creates a new configuration error.
func configurationError(op, message string, err error) error {
	return NewServerError(op, ErrConfiguration, message, err)
}

// validationError creates a new validation error.
func validationError(op, message string, err error) error {
	return NewServerError(op, ErrValidation, message, err)
}

// storageError creates a new storage error.
func storageError(op, message string, err error) error {
	return NewServerError(op, ErrStorage, message, err)
}

// gameError creates a new game error.
func gameError(op, message string, err error) error {
	return NewServerError(op, ErrGame, message, err)
}
