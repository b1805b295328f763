package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// PasetoService handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	issuer       string
	duration     time.Duration
	now          func() time.Time
}

func NewPasetoService(symmetricKey []byte, issuer string, duration time.Duration) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", duration)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
		issuer:       issuer,
		duration:     duration,
		now:          time.Now,
	}, nil
}

// CreateToken generates a new PASETO v4.local token for the claims
func (s *PasetoService) CreateToken(claims Claims) (string, error) {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(s.issuer)
	token.SetSubject(claims.UserID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.duration))
	token.SetJti(uuid.NewString())
	token.SetString("id", claims.UserID)
	token.SetString("email", claims.Email)
	token.SetString("name", claims.Name)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// VerifyToken decrypts the token and checks issuer and expiry
func (s *PasetoService) VerifyToken(tokenStr string) (*Claims, error) {
	// NewParser checks expiration by default
	parser := paseto.NewParser()
	parser.AddRule(paseto.IssuedBy(s.issuer))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, wrap(ErrInvalidToken, err)
	}

	var claims Claims
	for key, dst := range map[string]*string{"id": &claims.UserID, "email": &claims.Email, "name": &claims.Name} {
		v, err := token.GetString(key)
		if err != nil {
			return nil, wrap(ErrInvalidToken, err)
		}
		*dst = v
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}
