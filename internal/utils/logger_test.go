package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		c.Next()
	})
	router.Use(ContextLogger(logger), LoggerMiddleware(logger))
	router.GET("/ok", func(c *gin.Context) {
		FromContext(c.Request.Context(), nil).Info("inside handler")
		c.Status(http.StatusOK)
	})
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var entries []map[string]any
	for _, line := range lines {
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		entries = append(entries, e)
	}
	assert.Equal(t, "inside handler", entries[0]["msg"])
	assert.Equal(t, "req-1", entries[0]["request_id"])
	assert.Equal(t, "Request completed", entries[1]["msg"])
	assert.Equal(t, float64(200), entries[1]["status"])
	assert.Equal(t, "WARN", entries[2]["level"])
	assert.Equal(t, "/missing", entries[2]["path"])
}

func TestFromContextFallback(t *testing.T) {
	fallback := NewSlogLogger(nil)
	assert.Same(t, fallback, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context(), fallback))
}
