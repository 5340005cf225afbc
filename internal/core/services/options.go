package services

import (
	"time"

	"model-registry-service/internal/core/domain"
)

// Features are the named switches resolved once from configuration and handed
// to every session.
type Features struct {
	ModelServing        bool
	Monitoring          bool
	TransitionRequests  bool
	MonitoringTagPrefix string
}

func DefaultFeatures() Features {
	return Features{
		Monitoring:          true,
		TransitionRequests:  true,
		MonitoringTagPrefix: domain.DefaultMonitoringTagPrefix,
	}
}

// Options configure the services of a session.
type Options struct {
	Features        Features
	PollInterval    time.Duration
	ArtifactTimeout time.Duration
}

const (
	DefaultPollInterval    = 10 * time.Second
	DefaultArtifactTimeout = 15 * time.Second
)

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ArtifactTimeout <= 0 {
		o.ArtifactTimeout = DefaultArtifactTimeout
	}
	if o.Features.MonitoringTagPrefix == "" {
		o.Features.MonitoringTagPrefix = domain.DefaultMonitoringTagPrefix
	}
	return o
}

// Instrumentation receives counters the services produce.
type Instrumentation interface {
	PollTick(page, outcome string)
	MonitoringTagsDropped(n int)
}

// Poll tick outcomes
const (
	PollFetched        = "fetched"
	PollSkippedHidden  = "skipped_hidden"
	PollSkippedPending = "skipped_pending"
	PollStoppedMissing = "stopped_not_found"
)

type noInstrumentation struct{}

func (noInstrumentation) PollTick(string, string)  {}
func (noInstrumentation) MonitoringTagsDropped(int) {}
