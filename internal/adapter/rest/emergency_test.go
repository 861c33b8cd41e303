package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/simulator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPEmergencySwitch(t *testing.T) {

	require := require.New(t)

	sim := simulator.New(1, zap.NewNop())
	e := echo.New()
	sim.RegisterRoutes(e)
	server := httptest.NewServer(e)
	defer server.Close()

	sw := NewHTTPEmergencySwitch(server.URL, time.Second, zap.NewNop())

	state, err := sw.SetEmergencyMode(context.Background(), true)
	require.NoError(err)
	require.True(state)
	require.True(sim.EmergencyState())

	state, err = sw.SetEmergencyMode(context.Background(), false)
	require.NoError(err)
	require.False(state)
	require.False(sim.EmergencyState())
}

func TestHTTPEmergencySwitchErrors(t *testing.T) {

	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/on" {
			w.Write([]byte("unexpected"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sw := NewHTTPEmergencySwitch(server.URL, time.Second, zap.NewNop())

	_, err := sw.SetEmergencyMode(context.Background(), true)
	assert.ErrorIs(err, ErrUnknownEmergencyState)

	_, err = sw.SetEmergencyMode(context.Background(), false)
	assert.Error(err)
}

func TestHTTPEmergencySwitchHost(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("http://askoheat.local", NewHTTPEmergencySwitch("askoheat.local", time.Second, zap.NewNop()).baseURL)
	assert.Equal("http://10.0.0.2", NewHTTPEmergencySwitch("http://10.0.0.2/", time.Second, zap.NewNop()).baseURL)
}
