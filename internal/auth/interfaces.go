package auth

import (
	"context"

	"github.com/redmonkez12/go-auth-service/internal/user"
)

// Claims is the domain payload carried by a session token.
// Token-format fields (sub, iat, exp, jti, ...) are owned by the TokenService
// and never appear here.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Profile returns the claims as a user profile
func (c *Claims) Profile() user.Profile {
	return user.Profile{ID: c.UserID, Name: c.Name, Email: c.Email}
}

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(claims Claims) (string, error)
	// VerifyToken returns ErrInvalidToken for any malformed, forged or expired token
	VerifyToken(token string) (*Claims, error)
}

// PasswordHasher hashes and checks passwords with a one-way salted function
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// UserStore is the persistence the service needs
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*user.User, error)
}
