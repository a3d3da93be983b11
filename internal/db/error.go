package db

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// DuplicateKeyError is an error type for duplicate key errors
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return e.Message
}

func IsDuplicateKeyError(err error) bool {
	var dupErr *DuplicateKeyError
	return errors.As(err, &dupErr)
}

// InvalidPaginationTokenError is an error type for invalid pagination token errors
type InvalidPaginationTokenError struct {
	Message string
}

func (e *InvalidPaginationTokenError) Error() string {
	return e.Message
}

func IsInvalidPaginationTokenError(err error) bool {
	var tokenErr *InvalidPaginationTokenError
	return errors.As(err, &tokenErr)
}

// Not found Error
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// Error code references: https://www.mongodb.com/docs/manual/reference/error-codes/
func IsWriteConflictError(err error) bool {
	return hasCommandErrorCode(err, 112)
}

func IsTransactionAbortedError(err error) bool {
	return hasCommandErrorCode(err, 251)
}

func hasCommandErrorCode(err error, code int32) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == code
	}
	var cmdErrPtr *mongo.CommandError
	if errors.As(err, &cmdErrPtr) && cmdErrPtr != nil {
		return cmdErrPtr.Code == code
	}
	return false
}

func toDuplicateKeyError(err error, key, message string) error {
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{Key: key, Message: message}
	}
	return err
}
