package common

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewAppError("DB_ERROR", "query failed", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("AppError does not unwrap to cause: %v", err)
	}
	if got := err.Error(); got != "DB_ERROR: query failed: boom" {
		t.Fatalf("unexpected error string: %q", got)
	}
}

func TestWrapErrorNil(t *testing.T) {
	if err := WrapError(nil, "context"); err != nil {
		t.Fatalf("WrapError(nil) = %v, want nil", err)
	}
}

func TestGRPCStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("%w: filename is required", ErrValidation), codes.InvalidArgument},
		{fmt.Errorf("%w: bad style", ErrInvalidInput), codes.InvalidArgument},
		{fmt.Errorf("job x: %w", ErrNotFound), codes.NotFound},
		{fmt.Errorf("job x is already terminal: %w", ErrConflict), codes.FailedPrecondition},
		{fmt.Errorf("disk full: %w", ErrStorage), codes.Internal},
		{errors.New("plain"), codes.Internal},
	}
	for _, c := range cases {
		mapped := GRPCStatus(c.err)
		st, ok := status.FromError(mapped)
		if !ok {
			t.Fatalf("GRPCStatus(%v) did not produce a status error", c.err)
		}
		if st.Code() != c.code {
			t.Fatalf("GRPCStatus(%v) = %s, want %s", c.err, st.Code(), c.code)
		}
	}
	if GRPCStatus(nil) != nil {
		t.Fatal("GRPCStatus(nil) should be nil")
	}
}
