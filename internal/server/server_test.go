package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugclabs/innova/internal/config"
	"github.com/ugclabs/innova/internal/events"
	"github.com/ugclabs/innova/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	log := zerolog.Nop()
	cfg := &config.Config{
		DataDir:  t.TempDir(),
		Port:     0,
		Timezone: "UTC",
		Location: time.UTC,
	}

	return New(Config{
		Log:      log,
		Config:   cfg,
		Port:     0,
		Bus:      events.NewBus(log),
		Sessions: session.NewManager(time.Hour, log),
	})
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestSystemInfo(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/info", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "innova", body["name"])
	assert.Equal(t, "UTC", body["timezone"])
	assert.EqualValues(t, 0, body["sessions"])
}

func TestSessionMiddlewareIssuesID(t *testing.T) {
	s := newTestServer(t)

	var seen *session.Session
	handler := s.sessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = session.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/scoring/tables", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	issued := rec.Header().Get("X-Session-ID")
	require.NotEmpty(t, issued)
	assert.Equal(t, seen.ID, issued)

	// A second request with the issued id resolves the same session
	req2 := httptest.NewRequest(http.MethodGet, "/api/scoring/tables", nil)
	req2.Header.Set("X-Session-ID", issued)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	assert.Equal(t, issued, rec2.Header().Get("X-Session-ID"))
	assert.Equal(t, 1, s.sessions.Count())
}

func TestEventsStreamDeliversEvents(t *testing.T) {
	log := zerolog.Nop()
	bus := events.NewBus(log)
	handler := NewEventsStreamHandler(bus, log)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	go func() {
		time.Sleep(50 * time.Millisecond)
		bus.Publish(&events.PortfolioReplacedData{Rows: 3, Source: "seed"})
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, `"type":"connected"`)
	assert.Contains(t, body, "event: portfolio_replaced")
	assert.Contains(t, body, `"rows":3`)
}

func TestEventsStreamTypeFilter(t *testing.T) {
	log := zerolog.Nop()
	bus := events.NewBus(log)
	handler := NewEventsStreamHandler(bus, log)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events/stream?types=ebct_saved", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	go func() {
		time.Sleep(50 * time.Millisecond)
		bus.Publish(&events.PortfolioReplacedData{Rows: 1})
		bus.Publish(&events.EBCTSavedData{ProjectID: 4, Characteristics: 34})
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.NotContains(t, body, "portfolio_replaced")
	assert.Contains(t, body, "event: ebct_saved")
}

func TestParseTypeFilter(t *testing.T) {
	assert.Nil(t, parseTypeFilter(""))
	assert.Nil(t, parseTypeFilter(" , "))

	filter := parseTypeFilter("ebct_saved, maturity_saved")
	require.Len(t, filter, 2)
	assert.True(t, filter[events.EBCTSaved])
	assert.True(t, filter[events.MaturitySaved])
	assert.False(t, filter[events.RankingCalculated])
}

func TestSystemHealthReportsDatabases(t *testing.T) {
	log := zerolog.Nop()
	cfg := &config.Config{DataDir: t.TempDir(), Timezone: "UTC", Location: time.UTC}
	handlers := NewSystemHandlers(cfg, nil, nil, session.NewManager(time.Hour, log), log)

	req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
	rec := httptest.NewRecorder()
	handlers.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "cpu_percent")
	assert.Contains(t, body, "mem_percent")
}

func TestRouteRegistration(t *testing.T) {
	s := newTestServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/system/health"},
		{http.MethodGet, "/api/system/info"},
		{http.MethodGet, "/api/events/stream"},
		{http.MethodGet, "/api/portfolio/"},
		{http.MethodGet, "/api/scoring/tables"},
		{http.MethodGet, "/api/maturity/catalog"},
		{http.MethodGet, "/api/ebct/catalog"},
		{http.MethodGet, "/api/dashboard/summary"},
	}

	for _, rt := range routes {
		t.Run(strings.TrimPrefix(rt.path, "/api/"), func(t *testing.T) {
			defer func() {
				// Nil module dependencies may panic; the route existing is
				// what this test checks.
				recover()
			}()

			req := httptest.NewRequest(rt.method, rt.path, nil)
			if rt.path == "/api/events/stream" {
				ctx, cancel := context.WithTimeout(req.Context(), 10*time.Millisecond)
				defer cancel()
				req = req.WithContext(ctx)
			}
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)

			assert.NotEqual(t, http.StatusNotFound, rec.Code)
		})
	}
}
