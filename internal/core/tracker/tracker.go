// Package tracker records the lifecycle of every backend call a session makes,
// so pages can tell a blocking initial load from a background refresh and
// polling can avoid overlapping fetches.
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind separates the critical first load of a page from background refreshes.
type Kind string

const (
	KindInitial    Kind = "initial"
	KindBackground Kind = "background"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

// Request is a snapshot of one tracked call.
type Request struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Status     Status    `json:"status"`
	Err        error     `json:"-"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Observer is notified of request lifecycle events.
type Observer interface {
	RequestStarted(kind Kind)
	RequestFinished(kind Kind, status Status, elapsed time.Duration)
}

type Tracker struct {
	mu       sync.RWMutex
	requests map[string]*Request
	observer Observer
	now      func() time.Time
}

func New(observer Observer) *Tracker {
	return &Tracker{
		requests: make(map[string]*Request),
		observer: observer,
		now:      time.Now,
	}
}

// NewID builds a request id for an operation. Ids are unique per call site so
// that the initial and background fetch of the same resource never collide.
func NewID(operation string, kind Kind) string {
	return fmt.Sprintf("%s:%s:%s", operation, kind, uuid.NewString())
}

// Begin marks id as pending, replacing any earlier record with the same id.
func (t *Tracker) Begin(id string, kind Kind) {
	t.mu.Lock()
	t.requests[id] = &Request{
		ID:        id,
		Kind:      kind,
		Status:    StatusPending,
		StartedAt: t.now(),
	}
	t.mu.Unlock()

	if t.observer != nil {
		t.observer.RequestStarted(kind)
	}
}

func (t *Tracker) Fulfill(id string) {
	t.finish(id, StatusFulfilled, nil)
}

func (t *Tracker) Reject(id string, err error) {
	t.finish(id, StatusRejected, err)
}

func (t *Tracker) finish(id string, status Status, err error) {
	t.mu.Lock()
	req, ok := t.requests[id]
	if !ok || req.Status != StatusPending {
		t.mu.Unlock()
		return
	}
	req.Status = status
	req.Err = err
	req.FinishedAt = t.now()
	kind, elapsed := req.Kind, req.FinishedAt.Sub(req.StartedAt)
	t.mu.Unlock()

	if t.observer != nil {
		t.observer.RequestFinished(kind, status, elapsed)
	}
}

// Get returns a copy of the request record.
func (t *Tracker) Get(id string) (Request, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	req, ok := t.requests[id]
	if !ok {
		return Request{}, false
	}
	return *req, true
}

func (t *Tracker) IsPending(id string) bool {
	req, ok := t.Get(id)
	return ok && req.Status == StatusPending
}

// AnyPending reports whether at least one of ids is still in flight.
func (t *Tracker) AnyPending(ids ...string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range ids {
		if req, ok := t.requests[id]; ok && req.Status == StatusPending {
			return true
		}
	}
	return false
}

// Forget drops finished records for ids. Pending records are kept.
func (t *Tracker) Forget(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if req, ok := t.requests[id]; ok && req.Status != StatusPending {
			delete(t.requests, id)
		}
	}
}

// Len returns the number of records held, settled ones included.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.requests)
}

// Pending returns the number of requests in flight.
func (t *Tracker) Pending() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, req := range t.requests {
		if req.Status == StatusPending {
			n++
		}
	}
	return n
}
