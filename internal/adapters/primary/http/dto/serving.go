package dto

import (
	"model-registry-service/internal/core/domain"
)

type ServingEndpointsResponse struct {
	ModelName string                   `json:"model_name"`
	Items     []domain.ServingEndpoint `json:"items"`
}

type MonitoringResponse struct {
	Enabled bool                     `json:"enabled"`
	Items   []domain.MonitoringEntry `json:"items"`
}
