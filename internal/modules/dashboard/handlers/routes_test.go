package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoutes(t *testing.T) {
	handler := NewHandler(nil, zerolog.Nop())

	router := chi.NewRouter()
	require.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	})

	testCases := []struct {
		method string
		path   string
		name   string
	}{
		{"GET", "/dashboard/radar/1", "Radar"},
		{"GET", "/dashboard/heatmap", "Heatmap"},
		{"GET", "/dashboard/summary", "Summary"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()

			var panicked bool
			func() {
				defer func() {
					if r := recover(); r != nil {
						panicked = true
					}
				}()
				router.ServeHTTP(rec, req)
			}()

			if !panicked {
				assert.NotEqual(t, http.StatusNotFound, rec.Code, "Route %s %s should be registered", tc.method, tc.path)
			}
		})
	}
}
