package grpcjson

import (
	"errors"

	"github.com/Domenick1991/fitbooking/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error converts a service error into a gRPC status. Faults lose their
// cause; callers log it before converting.
func Error(err error) error {
	if err == nil {
		return nil
	}
	switch domain.KindOf(err) {
	case domain.ErrValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.ErrNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.ErrConflict:
		if errors.Is(err, domain.ErrDuplicateBooking) {
			return status.Error(codes.AlreadyExists, err.Error())
		}
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// UpcomingOnly resolves an optional flag that defaults to true.
func UpcomingOnly(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
