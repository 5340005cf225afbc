package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/store"
	"model-registry-service/internal/core/tracker"
)

type ModelVersionService struct {
	client          ports.RegistryClient
	d               *Dispatcher
	artifactTimeout time.Duration
}

func NewModelVersionService(client ports.RegistryClient, d *Dispatcher, artifactTimeout time.Duration) *ModelVersionService {
	if artifactTimeout <= 0 {
		artifactTimeout = DefaultArtifactTimeout
	}
	return &ModelVersionService{client: client, d: d, artifactTimeout: artifactTimeout}
}

func (s *ModelVersionService) Create(ctx context.Context, form domain.CreateVersionForm) (*domain.ModelVersion, error) {
	if err := domain.ValidateForm(form); err != nil {
		return nil, err
	}
	version, err := Do(s.d, "createModelVersion", tracker.KindInitial,
		func() (*domain.ModelVersion, error) { return s.client.CreateModelVersion(ctx, form) },
		versionFetched)
	if err != nil {
		return nil, s.d.Fail("Register model version", err)
	}
	s.d.Notify(fmt.Sprintf("Version %s of %s registered", version.Version, version.Name))
	return version, nil
}

func (s *ModelVersionService) Search(ctx context.Context, filter domain.SearchFilter) (domain.Page[domain.ModelVersion], error) {
	req := s.d.Track("searchModelVersions", tracker.KindInitial)
	defer s.d.Release(req)
	return s.search(ctx, req, filter)
}

// ListForModel searches the versions of one registered model.
func (s *ModelVersionService) ListForModel(ctx context.Context, name string) (domain.Page[domain.ModelVersion], error) {
	return s.Search(ctx, VersionsOf(name))
}

func (s *ModelVersionService) search(ctx context.Context, req Request, filter domain.SearchFilter) (domain.Page[domain.ModelVersion], error) {
	filter = filter.Normalize()
	page, err := s.client.SearchModelVersions(ctx, filter)
	return Complete(s.d, req, page, err, func(p domain.Page[domain.ModelVersion]) []store.Command {
		return []store.Command{store.VersionsListed{Versions: p.Items}}
	})
}

// VersionsOf is the search filter selecting every version of a model.
func VersionsOf(name string) domain.SearchFilter {
	return domain.SearchFilter{
		Filter:     fmt.Sprintf("name='%s'", name),
		MaxResults: domain.MaxMaxResults,
	}
}

func (s *ModelVersionService) Get(ctx context.Context, name, version string) (*domain.ModelVersion, error) {
	if err := domain.ValidateVersionKey(domain.VersionKey{Name: name, Version: version}); err != nil {
		return nil, err
	}
	req := s.d.Track("getModelVersion", tracker.KindInitial)
	defer s.d.Release(req)
	return s.fetch(ctx, req, name, version)
}

func (s *ModelVersionService) fetch(ctx context.Context, req Request, name, version string) (*domain.ModelVersion, error) {
	v, err := s.client.GetModelVersion(ctx, name, version)
	return Complete(s.d, req, v, err, versionFetched)
}

func (s *ModelVersionService) UpdateDescription(ctx context.Context, name, version, description string) (*domain.ModelVersion, error) {
	if err := s.requireEdit(name, version); err != nil {
		return nil, err
	}
	v, err := Do(s.d, "updateModelVersion", tracker.KindInitial,
		func() (*domain.ModelVersion, error) {
			return s.client.UpdateModelVersion(ctx, name, version, description)
		},
		versionFetched)
	if err != nil {
		return nil, s.d.Fail("Update version description", err)
	}
	return v, nil
}

// Delete removes a version. Versions in an active stage cannot be deleted.
func (s *ModelVersionService) Delete(ctx context.Context, name, version string) error {
	key := domain.VersionKey{Name: name, Version: version}
	v, ok := s.d.Store().Version(key)
	if !ok {
		fetched, err := s.Get(ctx, name, version)
		if err != nil {
			return err
		}
		v = *fetched
	}
	level := PermissionLevel(s.d.Store(), key)
	if !domain.CanManage(level) {
		return domain.ErrPermissionDenied
	}
	if !domain.CanDeleteVersion(level, &v) {
		return domain.ErrCannotDeleteVersion
	}

	_, err := Do(s.d, "deleteModelVersion", tracker.KindInitial,
		func() (struct{}, error) { return struct{}{}, s.client.DeleteModelVersion(ctx, name, version) },
		func(struct{}) []store.Command { return []store.Command{store.VersionDeleted{Key: key}} })
	if err != nil {
		return s.d.Fail("Delete version", err)
	}
	s.d.Notify(fmt.Sprintf("Version %s of %s deleted", version, name))
	return nil
}

func (s *ModelVersionService) SetTag(ctx context.Context, name, version string, form domain.TagForm) error {
	if err := domain.ValidateForm(form); err != nil {
		return err
	}
	if err := s.requireEdit(name, version); err != nil {
		return err
	}
	key := domain.VersionKey{Name: name, Version: version}
	tag := domain.Tag{Key: form.Key, Value: form.Value}
	_, err := Do(s.d, "setModelVersionTag", tracker.KindInitial,
		func() (struct{}, error) { return struct{}{}, s.client.SetModelVersionTag(ctx, name, version, tag) },
		func(struct{}) []store.Command { return []store.Command{store.VersionTagSet{Key: key, Tag: tag}} })
	if err != nil {
		return s.d.Fail("Set version tag", err)
	}
	return nil
}

func (s *ModelVersionService) DeleteTag(ctx context.Context, name, version, tagKey string) error {
	if err := s.requireEdit(name, version); err != nil {
		return err
	}
	key := domain.VersionKey{Name: name, Version: version}
	_, err := Do(s.d, "deleteModelVersionTag", tracker.KindInitial,
		func() (struct{}, error) {
			return struct{}{}, s.client.DeleteModelVersionTag(ctx, name, version, tagKey)
		},
		func(struct{}) []store.Command { return []store.Command{store.VersionTagDeleted{Key: key, TagKey: tagKey}} })
	if err != nil {
		return s.d.Fail("Delete version tag", err)
	}
	return nil
}

// GetArtifact reads the MLmodel file of a version. The read is bounded by the
// artifact timeout regardless of the caller's deadline.
func (s *ModelVersionService) GetArtifact(ctx context.Context, v domain.ModelVersion) ([]byte, error) {
	req := s.d.Track("getModelVersionArtifact", tracker.KindInitial)
	defer s.d.Release(req)
	return s.fetchArtifact(ctx, req, v)
}

func (s *ModelVersionService) fetchArtifact(ctx context.Context, req Request, v domain.ModelVersion) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.artifactTimeout)
	defer cancel()

	content, err := s.client.GetArtifact(ctx, v.RunID, v.ArtifactPath())
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %v", domain.ErrArtifactReadTimedOut, s.artifactTimeout, err)
	}
	key := v.Key()
	return Complete(s.d, req, content, err, func(b []byte) []store.Command {
		return []store.Command{store.ArtifactFetched{Key: key, Content: b}}
	})
}

func (s *ModelVersionService) requireEdit(name, version string) error {
	key := domain.VersionKey{Name: name, Version: version}
	if err := domain.ValidateVersionKey(key); err != nil {
		return err
	}
	level := PermissionLevel(s.d.Store(), key)
	if level != "" && !domain.CanEdit(level) {
		return domain.ErrPermissionDenied
	}
	return nil
}

// PermissionLevel is the caller's level on a version: the version's own level
// when the backend sent one, else the level on its registered model. Empty
// when neither is cached.
func PermissionLevel(st *store.Store, key domain.VersionKey) domain.PermissionLevel {
	if v, ok := st.Version(key); ok && v.PermissionLevel != "" {
		return v.PermissionLevel
	}
	if m, ok := st.Model(key.Name); ok {
		return m.PermissionLevel
	}
	return ""
}

func versionFetched(v *domain.ModelVersion) []store.Command {
	if v == nil {
		return nil
	}
	return []store.Command{store.VersionFetched{Version: *v}}
}
