package ports

import (
	"context"
	"time"
)

// TimeRange is the window and resolution of a range query.
type TimeRange struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PrometheusClient reads traffic of a serving endpoint. Queries match every
// revision whose name starts with the endpoint name.
type PrometheusClient interface {
	// QueryRequestRate is requests per second.
	QueryRequestRate(ctx context.Context, endpoint string, tr TimeRange) ([]DataPoint, error)
	// QueryErrorRate is the non-2xx share of requests, in [0,1].
	QueryErrorRate(ctx context.Context, endpoint string, tr TimeRange) ([]DataPoint, error)
	// QueryLatencyP99 is in seconds.
	QueryLatencyP99(ctx context.Context, endpoint string, tr TimeRange) ([]DataPoint, error)

	IsAvailable() bool
}
