// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cargomap/internal/config"
	"github.com/tomtom215/cargomap/internal/middleware"
	ws "github.com/tomtom215/cargomap/internal/websocket"
)

func TestRouter_SecurityHeaders(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Cache: &fakeCache{snap: snapshotOf()}})
	router := NewRouter(h, &ChiMiddlewareConfig{RateLimitDisabled: true}).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/containers", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=")
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_NoHSTSOverPlainHTTP(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Cache: &fakeCache{}})
	rec := httptest.NewRecorder()
	NewRouter(h, &ChiMiddlewareConfig{RateLimitDisabled: true}).Setup().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))

	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Cache: &fakeCache{}})

	rec, env := serve(t, h, http.MethodGet, "/api/v1/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeNotFound, env.Error.Code)

	rec, env = serve(t, h, http.MethodDelete, "/api/v1/containers")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.NotNil(t, env.Error)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Cache: &fakeCache{}})
	rec := httptest.NewRecorder()
	NewRouter(h, nil).Setup().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestRouter_GzipOnAPI(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Cache: &fakeCache{snap: snapshotOf(pacificRecord(), testRecord(8, "X"), testRecord(9, "Y"))}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/containers", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	NewRouter(h, &ChiMiddlewareConfig{RateLimitDisabled: true}).Setup().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})
	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/containers", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		if rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, rec.Body.String(), ErrCodeTooManyRequests)
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
	handler := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Security: config.SecurityConfig{CORSOrigins: []string{"https://map.example.com"}}}

	tests := []struct {
		name   string
		cfg    *config.Config
		origin string
		want   bool
	}{
		{"missing origin", cfg, "", false},
		{"allowed origin", cfg, "https://map.example.com", true},
		{"other origin", cfg, "https://evil.example.com", false},
		{"wildcard", &config.Config{Security: config.SecurityConfig{CORSOrigins: []string{"*"}}}, "https://any.example.com", true},
		{"no config", nil, "https://any.example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHandler(Deps{Cache: &fakeCache{}, Config: tt.cfg})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, h.checkWebSocketOrigin(req))
		})
	}
}

func TestWebSocket_ReceivesBroadcast(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := ws.NewHub()
	go func() { _ = hub.RunWithContext(ctx) }()

	h := NewHandler(Deps{Cache: &fakeCache{}, Hub: hub})
	srv := httptest.NewServer(NewRouter(h, &ChiMiddlewareConfig{RateLimitDisabled: true}).Setup())
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Origin", "https://map.example.com")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastRefreshCompleted(ws.RefreshCompletedData{Count: 3})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.MessageTypeRefreshCompleted, msg.Type)
}

func TestWebSocket_NoHub(t *testing.T) {
	t.Parallel()

	h := NewHandler(Deps{Cache: &fakeCache{}})
	rec, env := serve(t, h, http.MethodGet, "/api/v1/ws")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.Error)
}
