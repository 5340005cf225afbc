package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "http://localhost:5000", cfg.Backend.URL)
	assert.Equal(t, 3, cfg.Backend.RetryMax)
	assert.Equal(t, 15*time.Second, cfg.Backend.ArtifactTimeout)
	assert.Equal(t, 10*time.Second, cfg.Polling.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.False(t, cfg.Kubernetes.Enabled)
	assert.False(t, cfg.Prometheus.Enabled)
	assert.False(t, cfg.Features.ModelServing)
	assert.True(t, cfg.Features.Monitoring)
	assert.True(t, cfg.Features.TransitionRequests)
	assert.Equal(t, "mlflow.monitoring.", cfg.Features.MonitoringTagPrefix)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("BACKEND_URL", "http://registry:5000")
	t.Setenv("POLL_INTERVAL", "3s")
	t.Setenv("K8S_ENABLED", "true")
	t.Setenv("K8S_NAMESPACE", "model-serving")
	t.Setenv("FEATURE_MODEL_SERVING", "true")
	t.Setenv("FEATURE_TRANSITION_REQUESTS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "http://registry:5000", cfg.Backend.URL)
	assert.Equal(t, 3*time.Second, cfg.Polling.Interval)
	assert.True(t, cfg.Kubernetes.Enabled)
	assert.Equal(t, "model-serving", cfg.Kubernetes.Namespace)
	assert.True(t, cfg.Features.ModelServing)
	assert.False(t, cfg.Features.TransitionRequests)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "soon")
	t.Setenv("ARTIFACT_TIMEOUT", "-1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Polling.Interval)
	assert.Equal(t, 15*time.Second, cfg.Backend.ArtifactTimeout)
}
