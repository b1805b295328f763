package rpc

import (
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/redmonkez12/go-auth-service/internal/auth"
	"github.com/redmonkez12/go-auth-service/internal/httputil"
)

// errorDomain is reported in ErrorInfo details
const errorDomain = "auth.v1"

// grpcCode maps an error kind to its gRPC code
func grpcCode(kind auth.Kind) codes.Code {
	switch kind {
	case auth.KindValidation, auth.KindDuplicateIdentity, auth.KindInvalidCredentials:
		return codes.InvalidArgument
	case auth.KindInvalidToken:
		return codes.Unauthenticated
	case auth.KindStoreUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// toStatus converts a service error into a gRPC status carrying the
// sanctioned message. ErrorInfo holds the machine code and HTTP-style status.
func toStatus(err error) error {
	e := auth.Classify(err)
	return withInfo(grpcCode(e.Kind), e.Message, e.Kind.Code(), e.Status())
}

func rateLimitedStatus() error {
	return withInfo(codes.ResourceExhausted, "too many requests, please try again later", httputil.CodeTooManyRequests, 429)
}

func withInfo(code codes.Code, message, reason string, httpStatus int) error {
	st := status.New(code, message)

	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   errorDomain,
		Metadata: map[string]string{"status": strconv.Itoa(httpStatus)},
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}
