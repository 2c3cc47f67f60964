package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(storageErr error) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	storage := PingFunc(func(context.Context) error { return storageErr })
	relay := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	return NewRouter(logger, storage, relay)
}

func serve(router http.Handler, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))

	return recorder
}

func TestRouter_Ping(t *testing.T) {
	resp := serve(newTestRouter(nil), "/ping")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "pong", resp.Body.String())
}

func TestRouter_Health(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		resp := serve(newTestRouter(nil), "/healthz")

		require.Equal(t, http.StatusOK, resp.Code)

		var body healthResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "ok", body.Checks["redis"])
	})

	t.Run("Redis is down", func(t *testing.T) {
		resp := serve(newTestRouter(errors.New("connection refused")), "/healthz")

		require.Equal(t, http.StatusServiceUnavailable, resp.Code)

		var body healthResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "connection refused", body.Checks["redis"])
	})
}

func TestRouter_MetricsAndRelay(t *testing.T) {
	router := newTestRouter(nil)

	metrics := serve(router, "/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)

	relay := serve(router, "/ws?client=abc")
	assert.Equal(t, http.StatusTeapot, relay.Code)
}

func TestStart_StopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Start(ctx, logger, "0", newTestRouter(nil))

	require.NoError(t, err)
}
