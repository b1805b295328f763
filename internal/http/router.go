package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/go-auth-service/internal/auth"
	"github.com/redmonkez12/go-auth-service/internal/config"
	"github.com/redmonkez12/go-auth-service/internal/httputil"
	"github.com/redmonkez12/go-auth-service/internal/logging"
)

// HealthFunc reports whether a dependency is reachable
type HealthFunc func(ctx context.Context) error

// Deps are the handlers the router mounts
type Deps struct {
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
	Metrics        http.Handler
	Health         HealthFunc
	Logger         *logging.Logger
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg config.ServerConfig, deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)                    // Security headers on all responses
	r.Use(middleware.Recoverer)               // Recover from panics
	r.Use(middleware.RequestID)               // Add request ID
	r.Use(TrustedRealIP(cfg.TrustedProxies))  // Set RemoteAddr to the client behind a trusted proxy
	r.Use(logging.RequestLogger(deps.Logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))             // Compress responses

	// Public routes
	r.Get("/health", handleHealth(deps.Health))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	// Swagger UI - only in development
	if cfg.IsDevelopment() {
		deps.Logger.Info("swagger UI enabled", "path", "/swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", deps.AuthHandler.Register)
		r.Post("/login", deps.AuthHandler.Login)
		r.Post("/verify", deps.AuthHandler.VerifyToken)

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/me", deps.AuthHandler.Me)
		})
	})

	return r
}

// handleHealth reports the service and user store state
// @Summary      Health check
// @Description  Check if the API and its user store are reachable
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func handleHealth(check HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check == nil {
			httputil.RespondJSON(w, HealthResponse{Status: "ok", Store: "unknown"}, http.StatusOK)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := check(ctx); err != nil {
			logging.GetLoggerFromContext(r.Context()).Warn("health check failed", "error", err.Error())
			httputil.RespondJSON(w, HealthResponse{Status: "degraded", Store: "unreachable"}, http.StatusServiceUnavailable)
			return
		}

		httputil.RespondJSON(w, HealthResponse{Status: "ok", Store: "ok"}, http.StatusOK)
	}
}
