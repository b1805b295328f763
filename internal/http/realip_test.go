package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/go-auth-service/internal/auth"
	"github.com/redmonkez12/go-auth-service/internal/config"
	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/ratelimit"
	"github.com/redmonkez12/go-auth-service/internal/user"
)

func TestTrustedRealIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		header  http.Header
		want    string
	}{
		{
			name:   "no trusted proxies ignores headers",
			remote: "10.0.0.5:1234",
			header: http.Header{"X-Forwarded-For": {"203.0.113.7"}},
			want:   "10.0.0.5:1234",
		},
		{
			name:    "untrusted peer ignores headers",
			trusted: proxies,
			remote:  "198.51.100.1:1234",
			header:  http.Header{"X-Forwarded-For": {"203.0.113.7"}, "X-Real-Ip": {"203.0.113.8"}},
			want:    "198.51.100.1:1234",
		},
		{
			name:    "trusted peer uses forwarded client",
			trusted: proxies,
			remote:  "10.0.0.5:1234",
			header:  http.Header{"X-Forwarded-For": {"203.0.113.7"}},
			want:    "203.0.113.7",
		},
		{
			name:    "client-supplied hops left of the real client are skipped",
			trusted: proxies,
			remote:  "10.0.0.5:1234",
			header:  http.Header{"X-Forwarded-For": {"1.2.3.4, 203.0.113.7, 10.0.0.9"}},
			want:    "203.0.113.7",
		},
		{
			name:    "real ip when no forwarded hop",
			trusted: proxies,
			remote:  "10.0.0.5:1234",
			header:  http.Header{"X-Real-Ip": {"203.0.113.8"}},
			want:    "203.0.113.8",
		},
		{
			name:    "malformed forwarded hop falls back to peer",
			trusted: proxies,
			remote:  "10.0.0.5:1234",
			header:  http.Header{"X-Forwarded-For": {"not-an-ip"}},
			want:    "10.0.0.5:1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header[k] = v
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func newRateLimitedServer(t *testing.T, trusted []netip.Prefix) string {
	t.Helper()

	tokens, err := auth.NewJWTService([]byte("0123456789abcdef0123456789abcdef"), "test", time.Hour)
	require.NoError(t, err)
	svc, err := auth.NewService(&fakeStore{users: map[string]*user.User{}}, tokens, auth.NewBcryptHasher(bcrypt.MinCost), nil, nil)
	require.NoError(t, err)

	limiter := ratelimit.NewMemoryLimiter(1, time.Hour)
	t.Cleanup(limiter.Close)

	router := NewRouter(config.ServerConfig{Env: "prod", TrustedProxies: trusted}, Deps{
		AuthHandler:    auth.NewHandler(svc, limiter, nil),
		AuthMiddleware: auth.NewMiddleware(tokens),
		Health:         func(context.Context) error { return nil },
		Logger:         logging.NewNop(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func countLimited(t *testing.T, url string) int {
	t.Helper()
	limited := 0
	for i := range 5 {
		resp, _ := postJSON(t, url+"/auth/login", `{"email":"ghost@x.com","password":"x"}`,
			http.Header{"X-Forwarded-For": {fmt.Sprintf("198.51.100.%d", i)}})
		if resp.StatusCode == http.StatusTooManyRequests {
			limited++
		}
	}
	return limited
}

func TestRouter_RateLimitKeyIgnoresSpoofedHeaders(t *testing.T) {
	url := newRateLimitedServer(t, nil)
	assert.Equal(t, 4, countLimited(t, url))
}

func TestRouter_RateLimitKeyFollowsTrustedProxy(t *testing.T) {
	url := newRateLimitedServer(t, []netip.Prefix{netip.MustParsePrefix("127.0.0.0/8")})
	assert.Equal(t, 0, countLimited(t, url))
}
