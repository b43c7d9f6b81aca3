package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeAPI(t *testing.T) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/check-device", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"activated":false}`))
	})
	mux.HandleFunc("/api/v1/activate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Application activated successfully!","data":{"phone":"+221771234567","deviceId":"x","activatedAt":"2026-03-10T18:30:00Z","profile":{"phone":"+221771234567","name":"Aminata Diallo","firstName":"Aminata","email":null}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("ACTIVATION_API_URL", srv.URL+"/api/v1")
	t.Setenv("ACTIVATION_CACHE_PATH", filepath.Join(t.TempDir(), "activation.json"))
}

func TestRunCommands(t *testing.T) {
	newFakeAPI(t)

	var out bytes.Buffer
	require.NoError(t, run([]string{"status"}, &out))
	assert.Contains(t, out.String(), "state:    not_activated")

	out.Reset()
	require.NoError(t, run([]string{"activate", "+221771234567"}, &out))
	assert.Contains(t, out.String(), "Activated +221771234567")
	assert.Contains(t, out.String(), "welcome:  Aminata")

	// the cached activation is trusted on the next start
	out.Reset()
	require.NoError(t, run([]string{"status"}, &out))
	assert.Contains(t, out.String(), "state:    activated")

	out.Reset()
	require.NoError(t, run([]string{"logout"}, &out))
	require.NoError(t, run([]string{"status"}, &out))
	assert.Contains(t, out.String(), "state:    not_activated")
}

func TestRunUsage(t *testing.T) {
	newFakeAPI(t)

	assert.Error(t, run(nil, &bytes.Buffer{}))
	assert.Error(t, run([]string{"activate"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"transfer"}, &bytes.Buffer{}))
}
