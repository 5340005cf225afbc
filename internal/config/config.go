package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Backend    BackendConfig
	Polling    PollingConfig
	Session    SessionConfig
	Logger     LoggerConfig
	Kubernetes KubernetesConfig
	Prometheus PrometheusConfig
	Features   FeaturesConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// BackendConfig points at the registry backend REST API.
type BackendConfig struct {
	URL             string
	RetryMax        int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	ArtifactTimeout time.Duration
}

type PollingConfig struct {
	Interval time.Duration
}

type SessionConfig struct {
	IdleTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type KubernetesConfig struct {
	Enabled        bool
	InCluster      bool
	KubeConfigPath string
	Namespace      string
}

type PrometheusConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// FeaturesConfig holds the named feature switches.
type FeaturesConfig struct {
	ModelServing        bool
	Monitoring          bool
	TransitionRequests  bool
	MonitoringTagPrefix string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("Ignoring unreadable .env file")
	}

	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("BACKEND_URL", "http://localhost:5000")
	v.SetDefault("BACKEND_RETRY_MAX", 3)
	v.SetDefault("BACKEND_RETRY_WAIT_MIN", "200ms")
	v.SetDefault("BACKEND_RETRY_WAIT_MAX", "2s")
	v.SetDefault("ARTIFACT_TIMEOUT", "15s")
	v.SetDefault("POLL_INTERVAL", "10s")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")
	v.SetDefault("K8S_ENABLED", false)
	v.SetDefault("K8S_IN_CLUSTER", false)
	v.SetDefault("K8S_KUBECONFIG", "")
	v.SetDefault("K8S_NAMESPACE", "")
	v.SetDefault("PROMETHEUS_ENABLED", false)
	v.SetDefault("PROMETHEUS_URL", "http://localhost:9090")
	v.SetDefault("PROMETHEUS_TIMEOUT", "30s")
	v.SetDefault("FEATURE_MODEL_SERVING", false)
	v.SetDefault("FEATURE_MONITORING", true)
	v.SetDefault("FEATURE_TRANSITION_REQUESTS", true)
	v.SetDefault("MONITORING_TAG_PREFIX", "mlflow.monitoring.")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ShutdownTimeout: duration(v, "SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Backend: BackendConfig{
			URL:             v.GetString("BACKEND_URL"),
			RetryMax:        v.GetInt("BACKEND_RETRY_MAX"),
			RetryWaitMin:    duration(v, "BACKEND_RETRY_WAIT_MIN", 200*time.Millisecond),
			RetryWaitMax:    duration(v, "BACKEND_RETRY_WAIT_MAX", 2*time.Second),
			ArtifactTimeout: duration(v, "ARTIFACT_TIMEOUT", 15*time.Second),
		},
		Polling: PollingConfig{
			Interval: duration(v, "POLL_INTERVAL", 10*time.Second),
		},
		Session: SessionConfig{
			IdleTimeout: duration(v, "SESSION_IDLE_TIMEOUT", 30*time.Minute),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Kubernetes: KubernetesConfig{
			Enabled:        v.GetBool("K8S_ENABLED"),
			InCluster:      v.GetBool("K8S_IN_CLUSTER"),
			KubeConfigPath: v.GetString("K8S_KUBECONFIG"),
			Namespace:      v.GetString("K8S_NAMESPACE"),
		},
		Prometheus: PrometheusConfig{
			Enabled: v.GetBool("PROMETHEUS_ENABLED"),
			URL:     v.GetString("PROMETHEUS_URL"),
			Timeout: duration(v, "PROMETHEUS_TIMEOUT", 30*time.Second),
		},
		Features: FeaturesConfig{
			ModelServing:        v.GetBool("FEATURE_MODEL_SERVING"),
			Monitoring:          v.GetBool("FEATURE_MONITORING"),
			TransitionRequests:  v.GetBool("FEATURE_TRANSITION_REQUESTS"),
			MonitoringTagPrefix: v.GetString("MONITORING_TAG_PREFIX"),
		},
	}

	if cfg.Backend.URL == "" {
		return nil, errors.New("BACKEND_URL is required")
	}

	return cfg, nil
}

// duration parses key, falling back to def on a malformed or non-positive value.
func duration(v *viper.Viper, key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		log.WithField("key", key).Warnf("Invalid duration %q, using %s", v.GetString(key), def)
		return def
	}
	return d
}
