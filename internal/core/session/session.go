package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/services"
)

// maxNotifications bounds the undelivered notifications kept per session.
const maxNotifications = 50

// Session is the console state of one browser tab: its own entity store,
// request tracker, services and mounted pages.
type Session struct {
	ID       string
	UserID   string
	Created  time.Time
	Services *services.Services

	visibility *visibility
	navigator  *navigator
	notifier   *notifier

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	pages    map[string]services.Page
	lastSeen time.Time
	closed   bool
}

// PageInfo describes a mounted page.
type PageInfo struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Notification is a message waiting to be shown in the browser.
type Notification struct {
	Level   ports.NotificationLevel `json:"level"`
	Message string                  `json:"message"`
	Time    time.Time               `json:"time"`
}

func (s *Session) SetVisible(visible bool) {
	s.visibility.visible.Store(visible)
}

func (s *Session) Visible() bool {
	return s.visibility.Visible()
}

// Redirects lists every route the session was sent to, oldest first.
func (s *Session) Redirects() []string {
	return s.navigator.routes()
}

// DrainNotifications returns the pending notifications and clears them.
func (s *Session) DrainNotifications() []Notification {
	return s.notifier.drain()
}

// Mount creates and mounts a page. name is required; version is required for
// version pages.
func (s *Session) Mount(kind, name, version string) (services.Page, error) {
	if name == "" {
		return nil, domain.ErrInvalidModelName
	}

	var page services.Page
	switch kind {
	case services.PageKindModel:
		page = s.Services.ModelPage(name)
	case services.PageKindModelVersion, services.PageKindPendingRequests:
		if err := domain.ValidateVersionKey(domain.VersionKey{Name: name, Version: version}); err != nil {
			return nil, err
		}
		if kind == services.PageKindModelVersion {
			page = s.Services.ModelVersionPage(name, version)
		} else {
			page = s.Services.PendingRequestsPage(name, version)
		}
	default:
		return nil, domain.ErrUnknownPageKind
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	s.pages[page.ID()] = page
	s.mu.Unlock()

	page.Mount(s.ctx)
	log.WithFields(log.Fields{
		"session": s.ID,
		"page":    page.ID(),
		"kind":    kind,
		"model":   name,
		"version": version,
	}).Debug("Page mounted")
	return page, nil
}

func (s *Session) Page(id string) (services.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[id]
	if !ok {
		return nil, domain.ErrPageNotFound
	}
	return page, nil
}

func (s *Session) Pages() []PageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PageInfo, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, PageInfo{ID: p.ID(), Kind: p.Kind()})
	}
	return out
}

// Unmount stops a page's polling and forgets it.
func (s *Session) Unmount(id string) error {
	s.mu.Lock()
	page, ok := s.pages[id]
	delete(s.pages, id)
	s.mu.Unlock()

	if !ok {
		return domain.ErrPageNotFound
	}
	page.Unmount()
	return nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// close unmounts every page and cancels the session context.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pages := s.pages
	s.pages = make(map[string]services.Page)
	s.mu.Unlock()

	s.cancel()
	for _, p := range pages {
		p.Unmount()
	}
}

// ============================================================================
// Browser-facing ports
// ============================================================================

type visibility struct {
	visible atomic.Bool
}

func (v *visibility) Visible() bool { return v.visible.Load() }

type navigator struct {
	mu      sync.Mutex
	visited []string
}

func (n *navigator) Navigate(route string) {
	n.mu.Lock()
	n.visited = append(n.visited, route)
	n.mu.Unlock()
}

func (n *navigator) routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.visited...)
}

type notifier struct {
	mu      sync.Mutex
	pending []Notification
	now     func() time.Time
}

func (n *notifier) Notify(level ports.NotificationLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = append(n.pending, Notification{Level: level, Message: message, Time: n.now()})
	if len(n.pending) > maxNotifications {
		n.pending = n.pending[len(n.pending)-maxNotifications:]
	}
}

func (n *notifier) drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

func newID() string {
	return uuid.NewString()
}
