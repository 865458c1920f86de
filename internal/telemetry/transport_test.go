package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransport_passesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := &http.Client{Transport: Transport(http.DefaultTransport)}

	resp, err := client.Get(srv.URL + "/api/auth/user/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetMetrics_singleton(t *testing.T) {
	require.Same(t, GetMetrics(), GetMetrics())
	require.NotNil(t, GetMetrics().APIRequestsTotal)
}
