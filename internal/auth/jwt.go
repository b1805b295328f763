package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// jwtClaims is the wire form of Claims inside an HS256 token
type jwtClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// JWTService handles JWT (HS256) token creation and validation
type JWTService struct {
	secret   []byte
	issuer   string
	duration time.Duration
	now      func() time.Time
}

func NewJWTService(secret []byte, issuer string, duration time.Duration) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", duration)
	}

	return &JWTService{
		secret:   secret,
		issuer:   issuer,
		duration: duration,
		now:      time.Now,
	}, nil
}

// CreateToken signs the claims. Every token gets a fresh jti, so two tokens
// minted for the same user within one second still differ.
func (s *JWTService) CreateToken(claims Claims) (string, error) {
	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// VerifyToken validates signature, algorithm, issuer and expiry
func (s *JWTService) VerifyToken(tokenStr string) (*Claims, error) {
	parsed := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, parsed,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, wrap(ErrInvalidToken, err)
	}
	if !token.Valid || parsed.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID: parsed.UserID,
		Email:  parsed.Email,
		Name:   parsed.Name,
	}, nil
}
