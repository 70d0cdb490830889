package grpcserver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/zone-sharing/internal/errs"
)

func TestToStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want codes.Code
	}{
		{errs.ErrNotFound, codes.NotFound},
		{errs.ErrAlreadyExists, codes.AlreadyExists},
		{errs.ErrUnauthorized, codes.Unauthenticated},
		{errs.ErrRateLimited, codes.ResourceExhausted},
		{errs.ErrPermissionDenied, codes.PermissionDenied},
		{errs.ErrNotGrant, codes.FailedPrecondition},
		{errs.ErrForeignToken, codes.InvalidArgument},
		{fmt.Errorf("%w: zone name", errs.ErrValidation), codes.InvalidArgument},
		{errors.New("connection reset"), codes.Internal},
	}
	for _, c := range cases {
		require.Equal(t, c.want, status.Code(toStatus("op", c.err)), c.err.Error())
	}

	st, _ := status.FromError(toStatus("save record", errors.New("password=hunter2")))
	require.NotContains(t, st.Message(), "hunter2")
}
