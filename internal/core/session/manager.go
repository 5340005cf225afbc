package session

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/services"
	"model-registry-service/internal/core/store"
	"model-registry-service/internal/core/tracker"
)

// DefaultIdleTimeout closes sessions whose browser stopped calling in.
const DefaultIdleTimeout = 30 * time.Minute

// ClientFactory returns the registry client acting for a caller.
type ClientFactory func(userID string) ports.RegistryClient

// Instrumentation is everything a session reports to.
type Instrumentation interface {
	tracker.Observer
	services.Instrumentation
	SessionOpened()
	SessionClosed()
}

type Config struct {
	Clients         ClientFactory
	KServe          ports.KServeClient
	Prometheus      ports.PrometheusClient
	Options         services.Options
	Instrumentation Instrumentation
	IdleTimeout     time.Duration
}

// Manager owns the open sessions.
type Manager struct {
	cfg Config
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(cfg Config) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Instrumentation == nil {
		cfg.Instrumentation = nopInstrumentation{}
	}
	return &Manager{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session for userID. The session's pages poll until it is
// closed, independent of the request that opened it.
func (m *Manager) Open(userID string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := m.now()

	s := &Session{
		ID:         newID(),
		UserID:     userID,
		Created:    now,
		visibility: &visibility{},
		navigator:  &navigator{},
		notifier:   &notifier{now: m.now},
		ctx:        ctx,
		cancel:     cancel,
		pages:      make(map[string]services.Page),
		lastSeen:   now,
	}
	s.visibility.visible.Store(true)

	d := services.NewDispatcher(tracker.New(m.cfg.Instrumentation), store.New(), s.notifier)
	s.Services = services.NewServices(d,
		services.Deps{
			Registry:        m.cfg.Clients(userID),
			KServe:          m.cfg.KServe,
			Prometheus:      m.cfg.Prometheus,
			Instrumentation: m.cfg.Instrumentation,
		},
		services.Env{Visibility: s.visibility, Navigator: s.navigator},
		m.cfg.Options)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.cfg.Instrumentation.SessionOpened()
	log.WithFields(log.Fields{"session": s.ID, "user": userID}).Info("Session opened")
	return s
}

// Get returns an open session and marks it as seen.
func (m *Manager) Get(id string) (*Session, error) {
	if id == "" {
		return nil, domain.ErrMissingSessionID
	}
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	m.closeSession(s, "closed")
	return nil
}

// CloseAll closes every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		m.closeSession(s, "shutdown")
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns how
// many it closed.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.cfg.IdleTimeout {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.closeSession(s, "idle")
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.WithField("count", n).Info("Closed idle sessions")
			}
		}
	}
}

func (m *Manager) closeSession(s *Session, reason string) {
	s.close()
	m.cfg.Instrumentation.SessionClosed()
	log.WithFields(log.Fields{"session": s.ID, "reason": reason}).Info("Session closed")
}

type nopInstrumentation struct{}

func (nopInstrumentation) RequestStarted(tracker.Kind)                                {}
func (nopInstrumentation) RequestFinished(tracker.Kind, tracker.Status, time.Duration) {}
func (nopInstrumentation) PollTick(string, string)                                    {}
func (nopInstrumentation) MonitoringTagsDropped(int)                                  {}
func (nopInstrumentation) SessionOpened()                                             {}
func (nopInstrumentation) SessionClosed()                                             {}
