package services

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/store"
	"model-registry-service/internal/core/tracker"
)

// trafficWindow is how far back the serving pane looks for endpoint traffic.
const trafficWindow = time.Hour

// ServingService backs the serving pane of a registered model. Endpoint state
// comes from the registry backend when model serving is enabled there, else
// from KServe InferenceServices; Prometheus adds recent traffic when enabled.
type ServingService struct {
	client     ports.RegistryClient
	kserve     ports.KServeClient
	prometheus ports.PrometheusClient
	d          *Dispatcher
	features   Features
	now        func() time.Time
}

func NewServingService(
	client ports.RegistryClient,
	kserve ports.KServeClient,
	prometheus ports.PrometheusClient,
	d *Dispatcher,
	features Features,
) *ServingService {
	return &ServingService{
		client:     client,
		kserve:     kserve,
		prometheus: prometheus,
		d:          d,
		features:   features,
		now:        time.Now,
	}
}

// Available reports whether any serving status source is configured.
func (s *ServingService) Available() bool {
	return s.features.ModelServing || (s.kserve != nil && s.kserve.IsAvailable())
}

func (s *ServingService) Endpoints(ctx context.Context, modelName string) ([]domain.ServingEndpoint, error) {
	if modelName == "" {
		return nil, domain.ErrInvalidModelName
	}
	if !s.Available() {
		return nil, domain.ErrServingNotAvailable
	}

	return Do(s.d, "getEndpointStatus", tracker.KindInitial,
		func() ([]domain.ServingEndpoint, error) {
			endpoints, err := s.list(ctx, modelName)
			if err != nil {
				return nil, err
			}
			s.enrich(ctx, endpoints)
			return endpoints, nil
		},
		func(eps []domain.ServingEndpoint) []store.Command {
			return []store.Command{store.EndpointsFetched{ModelName: modelName, Endpoints: eps}}
		})
}

func (s *ServingService) list(ctx context.Context, modelName string) ([]domain.ServingEndpoint, error) {
	if s.features.ModelServing {
		return s.client.GetEndpointStatus(ctx, modelName)
	}
	return s.kserve.ListEndpoints(ctx, modelName)
}

// enrich attaches traffic to ready endpoints. Query failures leave the
// endpoint without traffic.
func (s *ServingService) enrich(ctx context.Context, endpoints []domain.ServingEndpoint) {
	if s.prometheus == nil || !s.prometheus.IsAvailable() {
		return
	}

	end := s.now()
	tr := ports.TimeRange{Start: end.Add(-trafficWindow), End: end, Step: time.Minute}

	for i := range endpoints {
		ep := &endpoints[i]
		if ep.State != domain.EndpointStateReady {
			continue
		}

		rate, err := s.prometheus.QueryRequestRate(ctx, ep.Name, tr)
		if err != nil {
			log.WithError(err).WithField("endpoint", ep.Name).Debug("Request rate query failed")
			continue
		}
		errRate, err := s.prometheus.QueryErrorRate(ctx, ep.Name, tr)
		if err != nil {
			log.WithError(err).WithField("endpoint", ep.Name).Debug("Error rate query failed")
			continue
		}
		latency, _ := s.prometheus.QueryLatencyP99(ctx, ep.Name, tr)

		ep.Traffic = &domain.EndpointTraffic{
			RequestsPerSecond: lastValue(rate),
			ErrorRatePercent:  lastValue(errRate) * 100,
			LatencyP99Ms:      lastValue(latency) * 1000,
		}
	}
}

func lastValue(points []ports.DataPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Value
}
