package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/zone-sharing/internal/errs"
)

var errCodes = []struct {
	err  error
	code codes.Code
}{
	{errs.ErrNotFound, codes.NotFound},
	{errs.ErrAlreadyExists, codes.AlreadyExists},
	{errs.ErrUnauthorized, codes.Unauthenticated},
	{errs.ErrRateLimited, codes.ResourceExhausted},
	{errs.ErrPermissionDenied, codes.PermissionDenied},
	{errs.ErrNotGrant, codes.FailedPrecondition},
	{errs.ErrForeignToken, codes.InvalidArgument},
	{errs.ErrValidation, codes.InvalidArgument},
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

// toStatus maps service errors onto gRPC status codes. Unknown errors become
// Internal without leaking their text.
func toStatus(op string, err error) error {
	for _, c := range errCodes {
		if errors.Is(err, c.err) {
			return status.Error(c.code, err.Error())
		}
	}
	return status.Errorf(codes.Internal, "%s failed", op)
}
