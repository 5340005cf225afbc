package services

import (
	"context"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
	"model-registry-service/internal/core/tracker"
)

// CommentService manages NEW_COMMENT activities. Every change is followed by
// a reload of the version's activities.
type CommentService struct {
	client     ports.RegistryClient
	d          *Dispatcher
	activities *ActivityService
}

func NewCommentService(client ports.RegistryClient, d *Dispatcher, activities *ActivityService) *CommentService {
	return &CommentService{client: client, d: d, activities: activities}
}

func (s *CommentService) Create(ctx context.Context, key domain.VersionKey, form domain.CommentForm) (*domain.Activity, error) {
	if err := domain.ValidateForm(form); err != nil {
		return nil, err
	}
	act, err := Do(s.d, "createComment", tracker.KindInitial,
		func() (*domain.Activity, error) {
			return s.client.CreateComment(ctx, key.Name, key.Version, form.Comment)
		}, nil)
	if err != nil {
		return nil, s.d.Fail("Add comment", err)
	}
	s.reload(ctx, key)
	return act, nil
}

func (s *CommentService) Update(ctx context.Context, key domain.VersionKey, id string, form domain.CommentForm) (*domain.Activity, error) {
	if err := domain.ValidateForm(form); err != nil {
		return nil, err
	}
	if err := s.require(ctx, key, id, domain.ActionEditComment); err != nil {
		return nil, err
	}
	act, err := Do(s.d, "updateComment", tracker.KindInitial,
		func() (*domain.Activity, error) { return s.client.UpdateComment(ctx, id, form.Comment) },
		nil)
	if err != nil {
		return nil, s.d.Fail("Edit comment", err)
	}
	s.reload(ctx, key)
	return act, nil
}

func (s *CommentService) Delete(ctx context.Context, key domain.VersionKey, id string) error {
	if err := s.require(ctx, key, id, domain.ActionDeleteComment); err != nil {
		return err
	}
	_, err := Do(s.d, "deleteComment", tracker.KindInitial,
		func() (struct{}, error) { return struct{}{}, s.client.DeleteComment(ctx, id) },
		nil)
	if err != nil {
		return s.d.Fail("Delete comment", err)
	}
	s.reload(ctx, key)
	return nil
}

// require refetches the activities once when id is not cached yet.
func (s *CommentService) require(ctx context.Context, key domain.VersionKey, id string, action domain.Action) error {
	act, ok := s.d.Store().Activity(key, id)
	if !ok {
		if _, err := s.activities.ListActivities(ctx, key); err != nil {
			return err
		}
		if act, ok = s.d.Store().Activity(key, id); !ok {
			return domain.ErrActivityNotFound
		}
	}
	if act.Type != domain.ActivityNewComment || !act.Allows(action) {
		return domain.ErrActionNotAvailable
	}
	return nil
}

func (s *CommentService) reload(ctx context.Context, key domain.VersionKey) {
	req := s.d.Track("listActivities", tracker.KindBackground)
	defer s.d.Release(req)
	if _, err := s.activities.fetchActivities(ctx, req, key); err != nil {
		logReloadFailure(err, key)
	}
}
