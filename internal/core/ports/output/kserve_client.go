package ports

import (
	"context"

	"model-registry-service/internal/core/domain"
)

// KServeClient lists the serving endpoints a cluster runs for a registered model.
type KServeClient interface {
	ListEndpoints(ctx context.Context, modelName string) ([]domain.ServingEndpoint, error)
	IsAvailable() bool
}
