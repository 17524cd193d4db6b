package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldhouse/internal/domain/apperr"
	"fieldhouse/internal/domain/intake"
)

func TestClient_Forward(t *testing.T) {
	var got intake.Envelope
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/leads", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", time.Second)
	lead := intake.Lead{Name: "Jo", Email: "jo@example.com", AthleteAge: "7"}
	require.NoError(t, c.Forward(context.Background(), lead.Envelope()))
	require.Equal(t, "Bearer secret", auth)
	require.Equal(t, "jo@example.com", got.Email)
	require.Equal(t, intake.ProgramLittleMovers, got.RecommendedProgram)
}

func TestClient_Non2xxIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", time.Second).Unsubscribe(context.Background(), "jo@example.com")
	var ue *apperr.UpstreamUnavailableError
	require.True(t, errors.As(err, &ue))
	require.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	err := NewClient(srv.URL, "", 50*time.Millisecond).Forward(context.Background(), intake.Envelope{Email: "a@b.com"})
	require.Error(t, err)
	require.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}
