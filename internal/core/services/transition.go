package services

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/tracker"
)

// TransitionService drives stage changes. It never writes a stage into the
// store itself: every flow is one backend call followed by a reload of the
// version, its activities and its pending requests.
type TransitionService struct {
	client     ports.RegistryClient
	d          *Dispatcher
	models     *RegisteredModelService
	versions   *ModelVersionService
	activities *ActivityService
	features   Features
}

func NewTransitionService(client ports.RegistryClient, d *Dispatcher, models *RegisteredModelService, versions *ModelVersionService, activities *ActivityService, features Features) *TransitionService {
	return &TransitionService{
		client:     client,
		d:          d,
		models:     models,
		versions:   versions,
		activities: activities,
		features:   features,
	}
}

// Apply moves a version to another stage directly.
func (s *TransitionService) Apply(ctx context.Context, name, version string, to domain.Stage, form domain.TransitionForm) (*domain.ModelVersion, error) {
	key := domain.VersionKey{Name: name, Version: version}
	current, err := s.prepare(ctx, key, to, form)
	if err != nil {
		return nil, err
	}
	level, err := s.callerLevel(ctx, key)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionToStage(level, current.CurrentStage, to) {
		return nil, domain.ErrPermissionDenied
	}

	cmd := domain.TransitionCommand{
		Kind:                    domain.TransitionApply,
		Name:                    name,
		Version:                 version,
		ToStage:                 to,
		ArchiveExistingVersions: domain.ResolveArchive(domain.TransitionApply, to, form),
		Comment:                 form.Comment,
	}
	updated, err := Do(s.d, "transitionModelVersionStage", tracker.KindInitial,
		func() (*domain.ModelVersion, error) { return s.client.TransitionStage(ctx, cmd) },
		versionFetched)
	if err != nil {
		return nil, s.d.Fail(domain.TransitionApply.Description(to), err)
	}

	log.WithFields(log.Fields{
		"model":   name,
		"version": version,
		"to":      to,
		"archive": cmd.ArchiveExistingVersions,
	}).Info("Applied stage transition")
	s.Reload(ctx, key)
	return updated, nil
}

// Request asks for a transition the caller cannot apply directly.
func (s *TransitionService) Request(ctx context.Context, name, version string, to domain.Stage, form domain.TransitionForm) (*domain.TransitionRequest, error) {
	if !s.features.TransitionRequests {
		return nil, domain.ErrActionNotAvailable
	}
	key := domain.VersionKey{Name: name, Version: version}
	if _, err := s.prepare(ctx, key, to, form); err != nil {
		return nil, err
	}
	level, err := s.callerLevel(ctx, key)
	if err != nil {
		return nil, err
	}
	if level != "" && !domain.CanRead(level) {
		return nil, domain.ErrPermissionDenied
	}

	cmd := domain.TransitionCommand{
		Kind:    domain.TransitionRequested,
		Name:    name,
		Version: version,
		ToStage: to,
		Comment: form.Comment,
	}
	created, err := Do(s.d, "createTransitionRequest", tracker.KindInitial,
		func() (*domain.TransitionRequest, error) { return s.client.CreateTransitionRequest(ctx, cmd) },
		nil)
	if err != nil {
		return nil, s.d.Fail(domain.TransitionRequested.Description(to), err)
	}
	s.Reload(ctx, key)
	return created, nil
}

func (s *TransitionService) Approve(ctx context.Context, name, version, requestID string, form domain.TransitionForm) error {
	return s.resolve(ctx, domain.TransitionApprove, domain.VersionKey{Name: name, Version: version}, requestID, form)
}

func (s *TransitionService) Reject(ctx context.Context, name, version, requestID string, form domain.TransitionForm) error {
	return s.resolve(ctx, domain.TransitionReject, domain.VersionKey{Name: name, Version: version}, requestID, form)
}

func (s *TransitionService) Cancel(ctx context.Context, name, version, requestID string, form domain.TransitionForm) error {
	return s.resolve(ctx, domain.TransitionCancel, domain.VersionKey{Name: name, Version: version}, requestID, form)
}

// Resolve dispatches approve, reject or cancel by kind.
func (s *TransitionService) Resolve(ctx context.Context, kind domain.TransitionKind, key domain.VersionKey, requestID string, form domain.TransitionForm) error {
	return s.resolve(ctx, kind, key, requestID, form)
}

func (s *TransitionService) resolve(ctx context.Context, kind domain.TransitionKind, key domain.VersionKey, requestID string, form domain.TransitionForm) error {
	action, ok := kind.RequiredAction()
	if !ok {
		return domain.ErrActionNotAvailable
	}
	if err := domain.ValidateForm(form); err != nil {
		return err
	}

	pending, ok := s.d.Store().TransitionRequest(key, requestID)
	if !ok {
		if _, err := s.activities.ListTransitionRequests(ctx, key); err != nil {
			return err
		}
		if pending, ok = s.d.Store().TransitionRequest(key, requestID); !ok {
			return domain.ErrRequestNotFound
		}
	}
	if !pending.Allows(action) {
		return domain.ErrActionNotAvailable
	}

	cmd := domain.TransitionCommand{
		Kind:                    kind,
		Name:                    key.Name,
		Version:                 key.Version,
		ToStage:                 pending.ToStage,
		ArchiveExistingVersions: domain.ResolveArchive(kind, pending.ToStage, form),
		Comment:                 form.Comment,
		Creator:                 pending.UserID,
	}

	call := s.client.ApproveTransitionRequest
	switch kind {
	case domain.TransitionReject:
		call = s.client.RejectTransitionRequest
	case domain.TransitionCancel:
		call = s.client.CancelTransitionRequest
	}

	_, err := Do(s.d, string(kind)+"TransitionRequest", tracker.KindInitial,
		func() (*domain.Activity, error) { return call(ctx, cmd) },
		nil)
	if err != nil {
		return s.d.Fail(kind.Description(pending.ToStage), err)
	}

	log.WithFields(log.Fields{
		"model":   key.Name,
		"version": key.Version,
		"request": requestID,
		"kind":    kind,
	}).Info("Resolved transition request")
	s.Reload(ctx, key)
	return nil
}

// prepare validates the form and target and returns the cached version,
// fetching it when needed.
func (s *TransitionService) prepare(ctx context.Context, key domain.VersionKey, to domain.Stage, form domain.TransitionForm) (domain.ModelVersion, error) {
	if err := domain.ValidateForm(form); err != nil {
		return domain.ModelVersion{}, err
	}
	if !to.IsValid() {
		return domain.ModelVersion{}, domain.ErrInvalidStage
	}
	current, ok := s.d.Store().Version(key)
	if !ok {
		fetched, err := s.versions.Get(ctx, key.Name, key.Version)
		if err != nil {
			return domain.ModelVersion{}, err
		}
		current = *fetched
	}
	if current.CurrentStage == to {
		return domain.ModelVersion{}, domain.ErrSelfTransition
	}
	return current, nil
}

// callerLevel resolves the caller's permission level on key. Versions usually
// carry no level of their own, so the registered model is fetched when it is
// not cached yet.
func (s *TransitionService) callerLevel(ctx context.Context, key domain.VersionKey) (domain.PermissionLevel, error) {
	if level := PermissionLevel(s.d.Store(), key); level != "" {
		return level, nil
	}
	if _, ok := s.d.Store().Model(key.Name); ok {
		return "", nil
	}
	if _, err := s.models.Get(ctx, key.Name); err != nil {
		return "", err
	}
	return PermissionLevel(s.d.Store(), key), nil
}

// Reload refetches the version, its activities and its pending requests after
// a mutation. Failures are logged; the next poll retries.
func (s *TransitionService) Reload(ctx context.Context, key domain.VersionKey) {
	reloads := []struct {
		op  string
		run func(Request) error
	}{
		{"getModelVersion", func(r Request) error {
			_, err := s.versions.fetch(ctx, r, key.Name, key.Version)
			return err
		}},
		{"listActivities", func(r Request) error {
			_, err := s.activities.fetchActivities(ctx, r, key)
			return err
		}},
		{"listTransitionRequests", func(r Request) error {
			_, err := s.activities.fetchTransitionRequests(ctx, r, key)
			return err
		}},
	}

	var wg sync.WaitGroup
	for _, rl := range reloads {
		req := s.d.Track(rl.op, tracker.KindBackground)
		wg.Add(1)
		go func(run func(Request) error) {
			defer wg.Done()
			defer s.d.Release(req)
			if err := run(req); err != nil {
				logReloadFailure(err, key)
			}
		}(rl.run)
	}
	wg.Wait()
}

func logReloadFailure(err error, key domain.VersionKey) {
	log.WithError(err).WithField("version", key.String()).Warn("Reload after mutation failed")
}
