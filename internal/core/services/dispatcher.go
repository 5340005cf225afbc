package services

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/store"
	"model-registry-service/internal/core/tracker"
)

// Request is a tracked backend call that has been begun but not completed.
type Request struct {
	ID   string
	Op   string
	Kind tracker.Kind
}

// Dispatcher correlates backend calls with tracker records and turns
// successful results into store commands. One Dispatcher serves one session.
type Dispatcher struct {
	tracker  *tracker.Tracker
	store    *store.Store
	notifier ports.Notifier
}

func NewDispatcher(t *tracker.Tracker, s *store.Store, notifier ports.Notifier) *Dispatcher {
	return &Dispatcher{tracker: t, store: s, notifier: notifier}
}

func (d *Dispatcher) Store() *store.Store       { return d.store }
func (d *Dispatcher) Tracker() *tracker.Tracker { return d.tracker }

// Track begins a tracked request for op. Every Track must be paired with
// Complete, and with Release once nothing reads the record any more.
func (d *Dispatcher) Track(op string, kind tracker.Kind) Request {
	req := Request{ID: tracker.NewID(op, kind), Op: op, Kind: kind}
	d.tracker.Begin(req.ID, kind)
	return req
}

// Complete settles req. On success the commands built from result are applied
// before the request is marked fulfilled.
func Complete[T any](d *Dispatcher, req Request, result T, err error, commands func(T) []store.Command) (T, error) {
	if err != nil {
		d.tracker.Reject(req.ID, err)
		return result, fmt.Errorf("%s: %w", req.Op, err)
	}
	if commands != nil {
		for _, cmd := range commands(result) {
			d.store.Dispatch(cmd)
		}
	}
	d.tracker.Fulfill(req.ID)
	return result, nil
}

// Release drops the settled records of reqs from the tracker.
func (d *Dispatcher) Release(reqs ...Request) {
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	d.tracker.Forget(ids...)
}

// Do runs call as one tracked request and releases it once settled.
func Do[T any](d *Dispatcher, op string, kind tracker.Kind, call func() (T, error), commands func(T) []store.Command) (T, error) {
	req := d.Track(op, kind)
	defer d.Release(req)
	result, err := call()
	return Complete(d, req, result, err, commands)
}

// Fail logs a failed user action and surfaces it as a notification. The error
// is returned unchanged so callers can hand it back to the HTTP caller.
func (d *Dispatcher) Fail(action string, err error) error {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return err
	}
	log.WithError(err).WithField("action", action).Error("Registry action failed")
	if d.notifier != nil {
		d.notifier.Notify(ports.NotifyError, fmt.Sprintf("%s failed: %s", action, userMessage(err)))
	}
	return err
}

// Notify surfaces a success message.
func (d *Dispatcher) Notify(message string) {
	if d.notifier != nil {
		d.notifier.Notify(ports.NotifyInfo, message)
	}
}

func userMessage(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}
