package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false).WithComponent("auth").WithFields(map[string]any{"user_id": "u1"})

	logger.Debug("hidden")
	logger.Info("visible")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "visible", record["msg"])
	assert.Equal(t, "auth", record["component"])
	assert.Equal(t, "u1", record["user_id"])
}

func TestLevelForStatus(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelForStatus(http.StatusOK))
	assert.Equal(t, slog.LevelWarn, LevelForStatus(http.StatusUnauthorized))
	assert.Equal(t, slog.LevelError, LevelForStatus(http.StatusServiceUnavailable))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	var fromCtx *Logger
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetLoggerFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, fromCtx)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "request completed", record["msg"])
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, float64(http.StatusTeapot), record["status"])
	assert.Equal(t, "/health", record["path"])
}

func TestGetLoggerFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, GetLoggerFromContext(context.Background()))

	logger := NewNop()
	assert.Same(t, logger, GetLoggerFromContext(WithLogger(context.Background(), logger)))
}
