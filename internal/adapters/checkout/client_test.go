package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldhouse/internal/domain/apperr"
)

func TestClient_LinkFor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req linkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "performance-lab", req.ProductID)
		json.NewEncoder(w).Encode(linkResponse{URL: "https://pay.example.com/s/abc"})
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, time.Second).LinkFor(context.Background(), "performance-lab")
	require.NoError(t, err)
	require.Equal(t, "https://pay.example.com/s/abc", got)
}

func TestClient_LinkForFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("nope")) }},
		{"relative url", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"url":"/s/abc"}`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewClient(srv.URL, time.Second).LinkFor(context.Background(), "p")
			require.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
		})
	}
}
