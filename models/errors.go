package models

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrWriteConflict marks an optimistic version mismatch; the posting
// transaction is rolled back and run again.
var ErrWriteConflict = errors.New("write conflict")

func NewUnauthenticatedError(format string, args ...any) error {
	return status.Errorf(codes.Unauthenticated, format, args...)
}

func NewInvalidArgumentError(format string, args ...any) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

func NewNotFoundError(format string, args ...any) error {
	return status.Errorf(codes.NotFound, format, args...)
}

func NewFailedPreconditionError(format string, args ...any) error {
	return status.Errorf(codes.FailedPrecondition, format, args...)
}

func NewInternalError(format string, args ...any) error {
	return status.Errorf(codes.Internal, format, args...)
}

func NewAbortedError(format string, args ...any) error {
	return status.Errorf(codes.Aborted, format, args...)
}

// ErrorCode returns the taxonomy code of err; codes.Unknown for plain errors, codes.OK for nil.
func ErrorCode(err error) codes.Code {
	return status.Code(err)
}

// IsTypedError reports whether err already carries a taxonomy code.
func IsTypedError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := status.FromError(err)
	return ok
}
