package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalquiz/quiz-portal/config"
)

func testAppConfig(services string) *config.AppConfig {
	cfg := &config.AppConfig{
		Services: services,
		HTTP:     config.HTTPConfig{Addr: "127.0.0.1:0"},
		Storage:  config.StorageConfig{Driver: config.StorageDriverMemory},
		Backend:  config.BackendConfig{BaseURL: "http://127.0.0.1:1/api"},
	}
	cfg.Sanitize()
	return cfg
}

func TestNewServices_Memory(t *testing.T) {
	svc, err := NewServices(&ServiceDeps{Config: testAppConfig("http")})
	require.NoError(t, err)

	assert.NotNil(t, svc.Sessions)
	assert.NotNil(t, svc.Backend)
	assert.NotNil(t, svc.Auth)
	assert.NotNil(t, svc.Metrics)
	assert.False(t, svc.Metrics.Enabled())
	assert.Nil(t, svc.Sweeper)
}

func TestNewServices_SweeperNeedsPurger(t *testing.T) {
	_, err := NewServices(&ServiceDeps{Config: testAppConfig("http,sweeper")})
	require.Error(t, err)
}

func TestNewServices_InvalidBackendURL(t *testing.T) {
	cfg := testAppConfig("http")
	cfg.Backend.BaseURL = "not a url"

	_, err := NewServices(&ServiceDeps{Config: cfg})
	require.Error(t, err)
}

func TestNewServices_RequiresConfig(t *testing.T) {
	_, err := NewServices(nil)
	require.Error(t, err)
	_, err = NewServices(&ServiceDeps{})
	require.Error(t, err)
}

func TestNewHTTPServer_ServesHealth(t *testing.T) {
	cfg := testAppConfig("http")
	svc, err := NewServices(&ServiceDeps{Config: cfg})
	require.NoError(t, err)

	server, err := NewHTTPServer(&HTTPServerConfig{Config: cfg, Services: svc})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", server.Addr)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunServicesWithShutdown_StopsOnCancel(t *testing.T) {
	cfg := testAppConfig("http")
	svc, err := NewServices(&ServiceDeps{Config: cfg})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- RunServicesWithShutdown(ctx, &ServiceOrchestrationConfig{Config: cfg, Services: svc})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("services did not stop after cancellation")
	}
}

func TestRunServicesWithShutdown_SweeperNotBuilt(t *testing.T) {
	cfg := testAppConfig("sweeper")

	err := RunServicesWithShutdown(t.Context(), &ServiceOrchestrationConfig{Config: cfg})
	require.Error(t, err)
}

func TestShutdownHTTPServer_Nil(t *testing.T) {
	require.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}
