package auth

import (
	"errors"
	"net/http"

	"github.com/redmonkez12/go-auth-service/internal/httputil"
)

// Kind classifies every error the service reports to callers
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateIdentity
	KindInvalidCredentials
	KindInvalidToken
	KindStoreUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateIdentity:
		return "duplicate_identity"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalidToken:
		return "invalid_token"
	case KindStoreUnavailable:
		return "store_unavailable"
	default:
		return "internal"
	}
}

// Status returns the HTTP status reported for the kind
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicateIdentity, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindInvalidToken:
		return http.StatusUnauthorized
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine-readable error code for the kind
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return httputil.CodeValidationFailed
	case KindDuplicateIdentity:
		return httputil.CodeEmailAlreadyExists
	case KindInvalidCredentials:
		return httputil.CodeInvalidCredentials
	case KindInvalidToken:
		return httputil.CodeInvalidToken
	case KindStoreUnavailable:
		return httputil.CodeStoreUnavailable
	default:
		return httputil.CodeInternalError
	}
}

// Error is a classified service error. Message is safe to show to clients;
// the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidToken)
// holds regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Status returns the HTTP status for the error
func (e *Error) Status() int {
	return e.Kind.Status()
}

var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "invalid request"}
	ErrDuplicateIdentity  = &Error{Kind: KindDuplicateIdentity, Message: "User already exists"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Credenciales invalidas"}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken, Message: "token invalido"}
	ErrStoreUnavailable   = &Error{Kind: KindStoreUnavailable, Message: "service temporarily unavailable"}
	ErrInternal           = &Error{Kind: KindInternal, Message: "internal error"}
)

// wrap attaches a cause to a sentinel while keeping its kind and public message
func wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, cause: cause}
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Classify converts any error into a client-facing *Error.
// Unclassified errors become ErrInternal so raw causes never reach callers.
func Classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return wrap(ErrInternal, err)
}
