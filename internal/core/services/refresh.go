package services

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/store"
	"model-registry-service/internal/core/tracker"
)

// Load is one read a page issues on mount and again on every poll tick.
type Load struct {
	Op string
	// Root marks the read of the page's own entity. A not-found on it ends
	// the page.
	Root  bool
	Fetch func(ctx context.Context, req Request) error
}

type RefreshConfig struct {
	Page        string
	Interval    time.Duration
	Loads       []Load
	Visibility  ports.Visibility
	Navigator   ports.Navigator
	ParentRoute string
	// Cleanup is the local-only delete applied when the root entity is gone.
	Cleanup         store.Command
	Instrumentation Instrumentation
}

// RefreshController polls a page's loads on a fixed interval. A tick is
// skipped while the tab is hidden or while any fetch from the previous tick
// is still pending. Polling ends on Stop or once the root entity is gone.
type RefreshController struct {
	cfg RefreshConfig
	d   *Dispatcher

	mu        sync.Mutex
	inflight  []string
	navigated bool
	stopped   bool
	cancel    context.CancelFunc
	done      chan struct{}
	fetches   sync.WaitGroup
}

func NewRefreshController(d *Dispatcher, cfg RefreshConfig) *RefreshController {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Instrumentation == nil {
		cfg.Instrumentation = noInstrumentation{}
	}
	return &RefreshController{cfg: cfg, d: d}
}

// Start begins polling in its own goroutine. It is a no-op when already
// started or stopped.
func (c *RefreshController) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil || c.stopped {
		c.mu.Unlock()
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.run(ctx, done)
}

func (c *RefreshController) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick runs one polling round and reports whether fetches were issued.
func (c *RefreshController) Tick(ctx context.Context) bool {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return false
	}
	if c.cfg.Visibility != nil && !c.cfg.Visibility.Visible() {
		c.mu.Unlock()
		c.cfg.Instrumentation.PollTick(c.cfg.Page, PollSkippedHidden)
		return false
	}
	if c.d.Tracker().AnyPending(c.inflight...) {
		c.mu.Unlock()
		c.cfg.Instrumentation.PollTick(c.cfg.Page, PollSkippedPending)
		log.WithField("page", c.cfg.Page).Debug("Skipping poll tick, previous fetch still pending")
		return false
	}

	c.d.Tracker().Forget(c.inflight...)
	reqs := make([]Request, len(c.cfg.Loads))
	ids := make([]string, len(c.cfg.Loads))
	for i, l := range c.cfg.Loads {
		reqs[i] = c.d.Track(l.Op, tracker.KindBackground)
		ids[i] = reqs[i].ID
	}
	c.inflight = ids
	c.fetches.Add(len(reqs))
	c.mu.Unlock()

	c.cfg.Instrumentation.PollTick(c.cfg.Page, PollFetched)
	for i, l := range c.cfg.Loads {
		go func(l Load, req Request) {
			defer c.fetches.Done()
			if err := l.Fetch(ctx, req); err != nil {
				c.handleError(l, err)
			}
		}(l, reqs[i])
	}
	return true
}

func (c *RefreshController) handleError(l Load, err error) {
	if l.Root && domain.IsNotFound(err) {
		c.NotFound()
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	log.WithError(err).WithFields(log.Fields{
		"page": c.cfg.Page,
		"op":   l.Op,
	}).Debug("Background refresh failed")
}

// NotFound handles the disappearance of the page's root entity: the local
// cache entry is dropped, the navigator is sent to the parent route once, and
// polling stops.
func (c *RefreshController) NotFound() {
	c.mu.Lock()
	if c.navigated {
		c.mu.Unlock()
		return
	}
	c.navigated = true
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()

	if c.cfg.Cleanup != nil {
		c.d.Store().Dispatch(c.cfg.Cleanup)
	}
	if c.cfg.Navigator != nil {
		c.cfg.Navigator.Navigate(c.cfg.ParentRoute)
	}
	c.cfg.Instrumentation.PollTick(c.cfg.Page, PollStoppedMissing)
	log.WithFields(log.Fields{
		"page":     c.cfg.Page,
		"redirect": c.cfg.ParentRoute,
	}).Info("Page entity no longer exists")

	if cancel != nil {
		cancel()
	}
}

// Stop ends polling and waits for the polling goroutine and its fetches.
func (c *RefreshController) Stop() {
	c.mu.Lock()
	c.stopped = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	c.fetches.Wait()

	c.mu.Lock()
	c.d.Tracker().Forget(c.inflight...)
	c.inflight = nil
	c.mu.Unlock()
}

// Navigated reports whether the controller redirected to the parent route.
func (c *RefreshController) Navigated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navigated
}

func (c *RefreshController) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *RefreshController) ParentRoute() string {
	return c.cfg.ParentRoute
}
