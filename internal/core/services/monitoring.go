package services

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/core/domain"
)

// MonitoringService derives the monitoring pane of a version from its
// prefixed tags.
type MonitoringService struct {
	d        *Dispatcher
	features Features
	inst     Instrumentation

	mu      sync.Mutex
	counted map[string]struct{}
}

func NewMonitoringService(d *Dispatcher, features Features, inst Instrumentation) *MonitoringService {
	if inst == nil {
		inst = noInstrumentation{}
	}
	return &MonitoringService{
		d:        d,
		features: features,
		inst:     inst,
		counted:  make(map[string]struct{}),
	}
}

// Entries returns the decoded monitoring tags of a cached version. Malformed
// values are left out; each distinct one is logged and counted once.
func (s *MonitoringService) Entries(key domain.VersionKey) []domain.MonitoringEntry {
	if !s.features.Monitoring {
		return nil
	}
	tags, _ := s.d.Store().VersionTags(key)
	entries, dropped := domain.ParseMonitoringTags(s.features.MonitoringTagPrefix, tags)
	if len(dropped) > 0 {
		s.countDropped(key, dropped)
	}
	return entries
}

func (s *MonitoringService) countDropped(key domain.VersionKey, dropped []domain.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range dropped {
		id := key.String() + "\x00" + t.Key + "\x00" + t.Value
		if _, seen := s.counted[id]; seen {
			continue
		}
		s.counted[id] = struct{}{}
		n++
		log.WithFields(log.Fields{
			"version": key.String(),
			"tag":     t.Key,
		}).Debug("Dropped monitoring tag with malformed value")
	}
	s.inst.MonitoringTagsDropped(n)
}
