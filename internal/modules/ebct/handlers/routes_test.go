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
	handler := NewHandler(nil, nil, nil, nil, zerolog.Nop())

	router := chi.NewRouter()
	require.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	})

	testCases := []struct {
		method string
		path   string
		name   string
	}{
		{"GET", "/ebct/catalog", "Catalog"},
		{"GET", "/ebct/responses", "GetResponses"},
		{"PUT", "/ebct/responses/3", "PutResponse"},
		{"POST", "/ebct/reset", "Reset"},
		{"GET", "/ebct/panel", "Panel"},
		{"POST", "/ebct/save", "Save"},
		{"GET", "/ebct/history/1", "History"},
		{"GET", "/ebct/latest/1", "Latest"},
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
