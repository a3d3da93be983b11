package types

import (
	"errors"
)

type ErrorCode string

func (e ErrorCode) String() string {
	return string(e)
}

const (
	InternalError     ErrorCode = "INTERNAL"
	TransientRPC      ErrorCode = "TRANSIENT_RPC"
	BridgeTimeout     ErrorCode = "BRIDGE_TIMEOUT"
	ChunkFailure      ErrorCode = "CHUNK_FAILURE"
	AddressResolution ErrorCode = "ADDRESS_RESOLUTION"
	EventMissing      ErrorCode = "EVENT_MISSING"
)

var (
	// ErrBridgeTimeout is terminal for the current run only. The source chain
	// transfer is already committed, the next run re-observes the chain.
	ErrBridgeTimeout = errors.New("waiting for bridge transfer timed out")
	// ErrEventNotFound is returned when a receipt lacks an event the contract must emit.
	ErrEventNotFound = errors.New("expected event not found in receipt")
	// ErrAddressResolution is fatal at startup.
	ErrAddressResolution = errors.New("contract address resolution failed")
)

// Error represents an error tagged with an application-specific error code.
type Error struct {
	Err       error
	ErrorCode ErrorCode
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the provided error code and underlying error.
// If the error code is empty, it defaults to INTERNAL.
func NewError(errorCode ErrorCode, err error) *Error {
	if errorCode == "" {
		errorCode = InternalError
	}
	return &Error{
		ErrorCode: errorCode,
		Err:       err,
	}
}

func NewErrorWithMsg(errorCode ErrorCode, msg string) *Error {
	return NewError(errorCode, errors.New(msg))
}

func NewInternalError(err error) *Error {
	return &Error{
		ErrorCode: InternalError,
		Err:       err,
	}
}

// CodeOf returns the code of the outermost *Error in the chain, or INTERNAL
// when the error was never classified.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.ErrorCode
	}
	if errors.Is(err, ErrBridgeTimeout) {
		return BridgeTimeout
	}
	return InternalError
}
