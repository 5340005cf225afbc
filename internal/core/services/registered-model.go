package services

import (
	"context"
	"fmt"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/store"
	"model-registry-service/internal/core/tracker"
)

type RegisteredModelService struct {
	client ports.RegistryClient
	d      *Dispatcher
}

func NewRegisteredModelService(client ports.RegistryClient, d *Dispatcher) *RegisteredModelService {
	return &RegisteredModelService{client: client, d: d}
}

func (s *RegisteredModelService) Search(ctx context.Context, filter domain.SearchFilter) (domain.Page[domain.RegisteredModel], error) {
	filter = filter.Normalize()
	return Do(s.d, "searchRegisteredModels", tracker.KindInitial,
		func() (domain.Page[domain.RegisteredModel], error) {
			return s.client.SearchRegisteredModels(ctx, filter)
		},
		func(p domain.Page[domain.RegisteredModel]) []store.Command {
			return []store.Command{store.ModelsListed{Models: p.Items}}
		})
}

func (s *RegisteredModelService) Get(ctx context.Context, name string) (*domain.RegisteredModel, error) {
	if name == "" {
		return nil, domain.ErrInvalidModelName
	}
	req := s.d.Track("getRegisteredModel", tracker.KindInitial)
	defer s.d.Release(req)
	return s.fetch(ctx, req, name)
}

func (s *RegisteredModelService) fetch(ctx context.Context, req Request, name string) (*domain.RegisteredModel, error) {
	model, err := s.client.GetRegisteredModel(ctx, name)
	return Complete(s.d, req, model, err, modelFetched)
}

func (s *RegisteredModelService) Create(ctx context.Context, form domain.CreateModelForm) (*domain.RegisteredModel, error) {
	if err := domain.ValidateForm(form); err != nil {
		return nil, err
	}
	model, err := Do(s.d, "createRegisteredModel", tracker.KindInitial,
		func() (*domain.RegisteredModel, error) { return s.client.CreateRegisteredModel(ctx, form) },
		modelFetched)
	if err != nil {
		return nil, s.d.Fail("Create model", err)
	}
	s.d.Notify(fmt.Sprintf("Model %s created", model.Name))
	return model, nil
}

func (s *RegisteredModelService) UpdateDescription(ctx context.Context, name, description string) (*domain.RegisteredModel, error) {
	if err := s.requireEdit(name); err != nil {
		return nil, err
	}
	model, err := Do(s.d, "updateRegisteredModel", tracker.KindInitial,
		func() (*domain.RegisteredModel, error) { return s.client.UpdateRegisteredModel(ctx, name, description) },
		modelFetched)
	if err != nil {
		return nil, s.d.Fail("Update model description", err)
	}
	return model, nil
}

// Delete removes a model. It is refused while any cached version of the model
// sits in an active stage.
func (s *RegisteredModelService) Delete(ctx context.Context, name string) error {
	model, ok := s.d.Store().Model(name)
	if !ok {
		fetched, err := s.Get(ctx, name)
		if err != nil {
			return err
		}
		model = *fetched
	}
	if !domain.CanManage(model.PermissionLevel) {
		return domain.ErrPermissionDenied
	}

	versions := s.d.Store().Versions(name)
	ptrs := make([]*domain.ModelVersion, 0, len(versions))
	for i := range versions {
		ptrs = append(ptrs, &versions[i])
	}
	if !domain.CanDeleteModel(model.PermissionLevel, ptrs) {
		return domain.ErrCannotDeleteModel
	}

	_, err := Do(s.d, "deleteRegisteredModel", tracker.KindInitial,
		func() (struct{}, error) { return struct{}{}, s.client.DeleteRegisteredModel(ctx, name) },
		func(struct{}) []store.Command { return []store.Command{store.ModelDeleted{Name: name}} })
	if err != nil {
		return s.d.Fail("Delete model", err)
	}
	s.d.Notify(fmt.Sprintf("Model %s deleted", name))
	return nil
}

func (s *RegisteredModelService) SetTag(ctx context.Context, name string, form domain.TagForm) error {
	if err := domain.ValidateForm(form); err != nil {
		return err
	}
	if err := s.requireEdit(name); err != nil {
		return err
	}
	tag := domain.Tag{Key: form.Key, Value: form.Value}
	_, err := Do(s.d, "setRegisteredModelTag", tracker.KindInitial,
		func() (struct{}, error) { return struct{}{}, s.client.SetRegisteredModelTag(ctx, name, tag) },
		func(struct{}) []store.Command { return []store.Command{store.ModelTagSet{Name: name, Tag: tag}} })
	if err != nil {
		return s.d.Fail("Set model tag", err)
	}
	return nil
}

func (s *RegisteredModelService) DeleteTag(ctx context.Context, name, key string) error {
	if err := s.requireEdit(name); err != nil {
		return err
	}
	_, err := Do(s.d, "deleteRegisteredModelTag", tracker.KindInitial,
		func() (struct{}, error) { return struct{}{}, s.client.DeleteRegisteredModelTag(ctx, name, key) },
		func(struct{}) []store.Command { return []store.Command{store.ModelTagDeleted{Name: name, Key: key}} })
	if err != nil {
		return s.d.Fail("Delete model tag", err)
	}
	return nil
}

// requireEdit refuses edits on a cached model the caller cannot edit. Uncached
// models are left to the backend to reject.
func (s *RegisteredModelService) requireEdit(name string) error {
	if name == "" {
		return domain.ErrInvalidModelName
	}
	if model, ok := s.d.Store().Model(name); ok && !domain.CanEdit(model.PermissionLevel) {
		return domain.ErrPermissionDenied
	}
	return nil
}

func modelFetched(m *domain.RegisteredModel) []store.Command {
	if m == nil {
		return nil
	}
	return []store.Command{store.ModelFetched{Model: *m}}
}
