package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/go-auth-service/internal/metrics"
	"github.com/redmonkez12/go-auth-service/internal/user"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testIssuer = "auth-ms-test"
)

// memStore is an in-memory UserStore with the same uniqueness rule as the real stores
type memStore struct {
	mu      sync.Mutex
	users   map[string]*user.User
	nextID  int
	findErr error
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*user.User)}
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return nil, s.findErr
	}
	u, ok := s.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) Create(_ context.Context, name, email, passwordHash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return nil, s.saveErr
	}
	if _, ok := s.users[email]; ok {
		return nil, user.ErrDuplicateEmail
	}

	s.nextID++
	now := time.Now().UTC()
	u := &user.User{
		ID:           "user-" + strconv.Itoa(s.nextID),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[email] = u

	cp := *u
	return &cp, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// countingHasher counts Compare calls and keeps the last hash compared against
type countingHasher struct {
	PasswordHasher
	compares atomic.Int32
	lastHash atomic.Value
}

func (h *countingHasher) Compare(hash, password string) bool {
	h.compares.Add(1)
	h.lastHash.Store(hash)
	return h.PasswordHasher.Compare(hash, password)
}

// failingHasher cannot hash anything
type failingHasher struct{ PasswordHasher }

func (failingHasher) Hash(string) (string, error) {
	return "", errors.New("entropy source unavailable")
}

// failingTokens fails every mint
type failingTokens struct{ TokenService }

func (failingTokens) CreateToken(Claims) (string, error) {
	return "", errors.New("signer offline")
}

// recorder captures metric observations
type recorder struct {
	mu       sync.Mutex
	outcomes map[string][]string
	limited  []string
}

func newRecorder() *recorder {
	return &recorder{outcomes: make(map[string][]string)}
}

func (r *recorder) ObserveOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[op] = append(r.outcomes[op], outcome)
}

func (r *recorder) RecordRateLimited(purpose string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limited = append(r.limited, purpose)
}

func newTestJWT(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService([]byte(testSecret), testIssuer, time.Hour)
	require.NoError(t, err)
	return svc
}

func newTestService(t *testing.T, store UserStore) *Service {
	t.Helper()
	return mustNewService(t, store, newTestJWT(t), NewBcryptHasher(bcrypt.MinCost), nil)
}

func mustNewService(t *testing.T, store UserStore, tokens TokenService, hasher PasswordHasher, rec metrics.Recorder) *Service {
	t.Helper()
	svc, err := NewService(store, tokens, hasher, rec, nil)
	require.NoError(t, err)
	return svc
}

// tamper replaces the character at i with a different one
func tamper(s string, i int) string {
	c := byte('A')
	if s[i] == 'A' {
		c = 'B'
	}
	return s[:i] + string(c) + s[i+1:]
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
