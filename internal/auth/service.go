package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/metrics"
	"github.com/redmonkez12/go-auth-service/internal/user"
)

// Operation names used for metrics and logs
const (
	OpRegister    = "register"
	OpLogin       = "login"
	OpVerifyToken = "verify_token"
)

// dummyPassword is hashed at construction and compared against when a login
// names an unknown email, so both failure paths pay for one hash comparison.
const dummyPassword = "dummy-password-for-timing"

// Session is what every successful operation returns
type Session struct {
	User  user.Profile `json:"user"`
	Token string       `json:"token"`
}

// Service handles authentication business logic
type Service struct {
	users   UserStore
	tokens  TokenService
	hasher  PasswordHasher
	metrics metrics.Recorder
	logger  *logging.Logger

	dummyHash string
}

// NewService fails when the hasher cannot produce the dummy hash used for
// unknown-email logins.
func NewService(
	users UserStore,
	tokens TokenService,
	hasher PasswordHasher,
	recorder metrics.Recorder,
	logger *logging.Logger,
) (*Service, error) {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy password hash: %w", err)
	}

	return &Service{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		metrics:   recorder,
		logger:    logger.WithComponent("auth"),
		dummyHash: dummyHash,
	}, nil
}

// Register creates a new user account and returns it with a fresh token
func (s *Service) Register(ctx context.Context, req RegisterRequest) (session *Session, err error) {
	defer s.observe(OpRegister, time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	_, err = s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, ErrDuplicateIdentity
	case !errors.Is(err, user.ErrNotFound):
		return nil, wrap(ErrStoreUnavailable, err)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, wrap(ErrInternal, err)
	}

	// The store's unique index settles races between concurrent registrations
	newUser, err := s.users.Create(ctx, req.Name, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, wrap(ErrDuplicateIdentity, err)
		}
		return nil, wrap(ErrStoreUnavailable, err)
	}

	return s.issue(newUser.Profile())
}

// Login authenticates a user by email and password
func (s *Service) Login(ctx context.Context, req LoginRequest) (session *Session, err error) {
	defer s.observe(OpLogin, time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	existingUser, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Compare(s.dummyHash, req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, wrap(ErrStoreUnavailable, err)
	}

	if !s.hasher.Compare(existingUser.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(existingUser.Profile())
}

// VerifyToken validates a token and rotates it
func (s *Service) VerifyToken(ctx context.Context, token string) (session *Session, err error) {
	defer s.observe(OpVerifyToken, time.Now(), &err)

	if err := (VerifyTokenRequest{Token: token}).Validate(); err != nil {
		return nil, err
	}

	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, err
		}
		return nil, wrap(ErrInvalidToken, err)
	}

	return s.issue(claims.Profile())
}

// issue mints a token over the profile
func (s *Service) issue(profile user.Profile) (*Session, error) {
	token, err := s.tokens.CreateToken(Claims{
		UserID: profile.ID,
		Email:  profile.Email,
		Name:   profile.Name,
	})
	if err != nil {
		return nil, wrap(ErrInternal, err)
	}

	return &Session{User: profile, Token: token}, nil
}

// observe records the outcome of an operation. Expected client failures are
// logged at debug; store and internal failures at error with their cause.
func (s *Service) observe(op string, start time.Time, errp *error) {
	outcome := metrics.OutcomeSuccess
	if err := *errp; err != nil {
		classified := Classify(err)
		outcome = classified.Kind.String()

		switch classified.Kind {
		case KindStoreUnavailable, KindInternal:
			s.logger.Error("operation failed", "operation", op, "kind", outcome, "error", err)
		default:
			s.logger.Debug("operation rejected", "operation", op, "kind", outcome)
		}
	}

	s.metrics.ObserveOperation(op, outcome, time.Since(start))
}
