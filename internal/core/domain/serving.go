package domain

// ============================================================================
// Value Objects
// ============================================================================

// EndpointState is the rolled-up state of a serving endpoint
type EndpointState string

const (
	EndpointStateReady    EndpointState = "READY"
	EndpointStatePending  EndpointState = "PENDING"
	EndpointStateFailed   EndpointState = "FAILED"
	EndpointStateNotFound EndpointState = "NOT_FOUND"
)

// IsValid checks if the state is valid
func (s EndpointState) IsValid() bool {
	switch s {
	case EndpointStateReady, EndpointStatePending, EndpointStateFailed, EndpointStateNotFound:
		return true
	}
	return false
}

// EndpointSource tells where an endpoint's status was read from
type EndpointSource string

const (
	EndpointSourceBackend EndpointSource = "backend"
	EndpointSourceKServe  EndpointSource = "kserve"
)

// ============================================================================
// Entities
// ============================================================================

// ServingEndpoint is a deployment serving one or more versions of a model
type ServingEndpoint struct {
	Name         string           `json:"name"`
	ModelName    string           `json:"model_name"`
	ModelVersion string           `json:"model_version,omitempty"`
	Stage        Stage            `json:"stage,omitempty"`
	State        EndpointState    `json:"state"`
	URL          string           `json:"url,omitempty"`
	Message      string           `json:"message,omitempty"`
	Source       EndpointSource   `json:"source"`
	Traffic      *EndpointTraffic `json:"traffic,omitempty"`
}

// EndpointTraffic summarizes recent load on an endpoint
type EndpointTraffic struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	ErrorRatePercent  float64 `json:"error_rate_percent"`
	LatencyP99Ms      float64 `json:"latency_p99_ms"`
}
