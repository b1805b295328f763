package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/redmonkez12/go-auth-service/internal/httputil"
	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/metrics"
	"github.com/redmonkez12/go-auth-service/internal/ratelimit"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter ratelimit.Limiter
	metrics     metrics.Recorder
}

func NewHandler(service *Service, rateLimiter ratelimit.Limiter, recorder metrics.Recorder) *Handler {
	if rateLimiter == nil {
		rateLimiter = ratelimit.Noop{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		metrics:     recorder,
	}
}

// MeResponse represents the authenticated caller
type MeResponse struct {
	User Claims `json:"user"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} Session
// @Failure      400 {object} httputil.ErrorResponse "Validation error or email already registered"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      503 {object} httputil.ErrorResponse "User store unavailable"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.rateLimited(w, r, logger, ip, OpRegister) {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, OpRegister); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, logger, "registration failed", err)
		return
	}

	logger.Info("user registered successfully", "user_id", session.User.ID)

	respondJSON(w, session, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} Session
// @Failure      400 {object} httputil.ErrorResponse "Validation error or invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      503 {object} httputil.ErrorResponse "User store unavailable"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.rateLimited(w, r, logger, ip, OpLogin) {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, OpLogin); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, logger, "login failed", err)
		return
	}

	logger.Info("user logged in successfully", "user_id", session.User.ID)

	respondJSON(w, session, http.StatusOK)
}

// VerifyToken handles token verification and rotation
// @Summary      Verify a session token
// @Description  Validate a token from the body or the Authorization header and receive the user with a fresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyTokenRequest false "Token (optional when sent as Bearer)"
// @Success      200 {object} Session
// @Failure      400 {object} httputil.ErrorResponse "Token missing"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Security     BearerAuth
// @Router       /auth/verify [post]
func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Priority 1: JSON body, an empty body is allowed
	var req VerifyTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid verify request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	// Priority 2: Authorization header
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token, _ = bearerToken(r)
	}

	session, err := h.service.VerifyToken(r.Context(), token)
	if err != nil {
		respondServiceError(w, logger, "token verification failed", err)
		return
	}

	logger.Debug("token verified", "user_id", session.User.ID)

	respondJSON(w, session, http.StatusOK)
}

// Me returns the claims of the authenticated caller
// @Summary      Current user
// @Description  Return the user carried by the bearer token
// @Tags         auth
// @Produce      json
// @Success      200 {object} MeResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid token"
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	respondJSON(w, MeResponse{User: *claims}, http.StatusOK)
}

// rateLimited writes a 429 and returns true when ip is over its allowance.
// Limiter failures are logged and the request is let through.
func (h *Handler) rateLimited(w http.ResponseWriter, r *http.Request, logger *logging.Logger, ip, purpose string) bool {
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if !exceeded {
		return false
	}

	logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
	h.metrics.RecordRateLimited(purpose)
	respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
	return true
}

// respondServiceError writes the sanctioned message for err. The raw cause
// only goes to the log.
func respondServiceError(w http.ResponseWriter, logger *logging.Logger, msg string, err error) {
	e := Classify(err)

	switch e.Kind {
	case KindStoreUnavailable, KindInternal:
		logger.Error(msg, "kind", e.Kind.String(), "error", err.Error())
	default:
		logger.Warn(msg, "kind", e.Kind.String(), "error", e.Message)
	}

	respondError(w, e.Message, e.Kind.Code(), e.Status())
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP returns the rate limit key for the request: the host part of
// RemoteAddr. Forwarding headers are only honoured by the router's trusted
// proxy middleware, which rewrites RemoteAddr before this runs.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
