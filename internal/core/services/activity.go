package services

import (
	"context"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/store"
	"model-registry-service/internal/core/tracker"
)

// ActivityService reads the audit log and the pending transition requests of
// a model version.
type ActivityService struct {
	client ports.RegistryClient
	d      *Dispatcher
}

func NewActivityService(client ports.RegistryClient, d *Dispatcher) *ActivityService {
	return &ActivityService{client: client, d: d}
}

func (s *ActivityService) ListActivities(ctx context.Context, key domain.VersionKey) ([]domain.Activity, error) {
	req := s.d.Track("listActivities", tracker.KindInitial)
	defer s.d.Release(req)
	if _, err := s.fetchActivities(ctx, req, key); err != nil {
		return nil, err
	}
	return s.d.Store().Activities(key), nil
}

func (s *ActivityService) fetchActivities(ctx context.Context, req Request, key domain.VersionKey) ([]domain.Activity, error) {
	acts, err := s.client.ListActivities(ctx, key.Name, key.Version)
	return Complete(s.d, req, acts, err, func(a []domain.Activity) []store.Command {
		return []store.Command{store.ActivitiesListed{Key: key, Activities: a}}
	})
}

func (s *ActivityService) ListTransitionRequests(ctx context.Context, key domain.VersionKey) ([]domain.TransitionRequest, error) {
	req := s.d.Track("listTransitionRequests", tracker.KindInitial)
	defer s.d.Release(req)
	return s.fetchTransitionRequests(ctx, req, key)
}

func (s *ActivityService) fetchTransitionRequests(ctx context.Context, req Request, key domain.VersionKey) ([]domain.TransitionRequest, error) {
	reqs, err := s.client.ListTransitionRequests(ctx, key.Name, key.Version)
	return Complete(s.d, req, reqs, err, func(r []domain.TransitionRequest) []store.Command {
		return []store.Command{store.TransitionRequestsListed{Key: key, Requests: r}}
	})
}
