package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"model-registry-service/internal/adapters/primary/http/handlers"
	"model-registry-service/internal/adapters/primary/http/middleware"
	"model-registry-service/internal/adapters/secondary/kserve"
	"model-registry-service/internal/adapters/secondary/prometheus"
	"model-registry-service/internal/adapters/secondary/registryapi"
	"model-registry-service/internal/config"
	output "model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/services"
	"model-registry-service/internal/core/session"
	"model-registry-service/internal/metrics"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.Warnf("set GOMAXPROCS: %v", err)
	}

	// Secondary adapters
	registry := registryapi.NewClient(registryapi.Config{
		BaseURL:      cfg.Backend.URL,
		RetryMax:     cfg.Backend.RetryMax,
		RetryWaitMin: cfg.Backend.RetryWaitMin,
		RetryWaitMax: cfg.Backend.RetryWaitMax,
	})
	log.WithField("url", cfg.Backend.URL).Info("Registry backend client initialized")

	m := metrics.NewMetrics(promclient.DefaultRegisterer)

	sessions := session.NewManager(session.Config{
		Clients: func(userID string) output.RegistryClient {
			return registry.ForUser(userID)
		},
		KServe:     servingClient(cfg),
		Prometheus: trafficClient(cfg),
		Options: services.Options{
			Features: services.Features{
				ModelServing:        cfg.Features.ModelServing,
				Monitoring:          cfg.Features.Monitoring,
				TransitionRequests:  cfg.Features.TransitionRequests,
				MonitoringTagPrefix: cfg.Features.MonitoringTagPrefix,
			},
			PollInterval:    cfg.Polling.Interval,
			ArtifactTimeout: cfg.Backend.ArtifactTimeout,
		},
		Instrumentation: m,
		IdleTimeout:     cfg.Session.IdleTimeout,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.Run(sweepCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: newRouter(sessions, m),
	}

	go func() {
		log.Infof("console listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.WithField("signal", sig.String()).Info("Shutting down console")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server forced shutdown: %v", err)
	}

	// Pollers stop before their sessions are dropped.
	stopSweep()
	sessions.CloseAll()
	log.Info("Console stopped")
}

func newRouter(sessions *session.Manager, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), middleware.Metrics(m), gin.Recovery())

	handlers.New(sessions).RegisterRoutes(router.Group("/api/v1/console"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": sessions.Count()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// servingClient returns nil when KServe is off or unreachable; the serving
// pane then reports itself unavailable.
func servingClient(cfg *config.Config) output.KServeClient {
	if !cfg.Kubernetes.Enabled {
		log.Info("KServe integration disabled")
		return nil
	}
	client, err := kserve.NewKServeClient(&cfg.Kubernetes)
	if err != nil {
		log.Warnf("KServe client init failed, serving pane disabled: %v", err)
		return nil
	}
	log.WithField("namespace", cfg.Kubernetes.Namespace).Info("KServe client initialized")
	return client
}

func trafficClient(cfg *config.Config) output.PrometheusClient {
	if !cfg.Prometheus.Enabled {
		log.Info("Prometheus integration disabled")
		return nil
	}
	log.WithField("url", cfg.Prometheus.URL).Info("Prometheus client initialized")
	return prometheus.NewPrometheusClient(&cfg.Prometheus)
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
