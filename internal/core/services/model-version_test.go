package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/store"
)

func TestModelVersionService_Create(t *testing.T) {
	f := newFixture(t)
	form := domain.CreateVersionForm{Name: "fraud", Source: "runs:/run-1/model", RunID: "run-1"}
	f.client.On("CreateModelVersion", mock.Anything, form).Return(&domain.ModelVersion{
		Name: "fraud", Version: "4", CurrentStage: domain.StageNone, Source: form.Source,
	}, nil)

	v, err := f.svc.Versions.Create(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "4", v.Version)

	_, ok := f.d.Store().Version(domain.VersionKey{Name: "fraud", Version: "4"})
	assert.True(t, ok)

	notes := f.notifier.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, "Version 4 of fraud registered", notes[0].Message)
}

func TestModelVersionService_Create_MissingSource(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Versions.Create(context.Background(), domain.CreateVersionForm{Name: "fraud"})

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "source")
	f.client.AssertNotCalled(t, "CreateModelVersion", mock.Anything, mock.Anything)
}

func TestModelVersionService_ListForModel(t *testing.T) {
	f := newFixture(t)
	f.client.On("SearchModelVersions", mock.Anything, domain.SearchFilter{
		Filter: "name='fraud'", MaxResults: domain.MaxMaxResults,
	}).Return(domain.Page[domain.ModelVersion]{Items: []domain.ModelVersion{
		{Name: "fraud", Version: "1", CreationTimestamp: 10},
		{Name: "fraud", Version: "2", CreationTimestamp: 20},
	}}, nil)

	_, err := f.svc.Versions.ListForModel(context.Background(), "fraud")
	require.NoError(t, err)

	versions := f.d.Store().Versions("fraud")
	require.Len(t, versions, 2)
	assert.Equal(t, "2", versions[0].Version)
}

func TestModelVersionService_Get_RequiresKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Versions.Get(context.Background(), "", "1")
	assert.ErrorIs(t, err, domain.ErrInvalidModelName)

	_, err = f.svc.Versions.Get(context.Background(), "fraud", "")
	assert.ErrorIs(t, err, domain.ErrInvalidVersion)
	assert.Equal(t, 0, f.d.Tracker().Pending())
}

func TestModelVersionService_Delete_ActiveStageRefused(t *testing.T) {
	f := newFixture(t)
	f.seedVersion(versionAt(domain.StageProduction, domain.PermissionCanManage))

	err := f.svc.Versions.Delete(context.Background(), "fraud", "1")
	assert.ErrorIs(t, err, domain.ErrCannotDeleteVersion)
	f.client.AssertNotCalled(t, "DeleteModelVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestModelVersionService_Delete_NeedsManage(t *testing.T) {
	f := newFixture(t)
	f.seedVersion(versionAt(domain.StageArchived, domain.PermissionCanEdit))

	err := f.svc.Versions.Delete(context.Background(), "fraud", "1")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestModelVersionService_Delete(t *testing.T) {
	f := newFixture(t)
	v := versionAt(domain.StageArchived, domain.PermissionCanManage)
	f.seedVersion(v)
	f.client.On("DeleteModelVersion", mock.Anything, "fraud", "1").Return(nil)

	require.NoError(t, f.svc.Versions.Delete(context.Background(), "fraud", "1"))

	_, ok := f.d.Store().Version(v.Key())
	assert.False(t, ok)
}

func TestModelVersionService_Delete_FetchesUncachedVersion(t *testing.T) {
	f := newFixture(t)
	v := versionAt(domain.StageNone, domain.PermissionCanManage)
	f.client.On("GetModelVersion", mock.Anything, "fraud", "1").Return(&v, nil)
	f.client.On("DeleteModelVersion", mock.Anything, "fraud", "1").Return(nil)

	require.NoError(t, f.svc.Versions.Delete(context.Background(), "fraud", "1"))
	f.client.AssertExpectations(t)
}

func TestModelVersionService_UpdateDescription_InheritsModelLevel(t *testing.T) {
	f := newFixture(t)
	f.d.Store().Dispatch(store.ModelFetched{Model: domain.RegisteredModel{
		Name: "fraud", PermissionLevel: domain.PermissionCanRead,
	}})
	f.seedVersion(versionAt(domain.StageNone, ""))

	_, err := f.svc.Versions.UpdateDescription(context.Background(), "fraud", "1", "new")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	f.client.AssertNotCalled(t, "UpdateModelVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestModelVersionService_UpdateDescription(t *testing.T) {
	f := newFixture(t)
	v := versionAt(domain.StageNone, domain.PermissionCanEdit)
	f.seedVersion(v)

	updated := v
	updated.Description = "new"
	updated.LastUpdatedTimestamp = 300
	f.client.On("UpdateModelVersion", mock.Anything, "fraud", "1", "new").Return(&updated, nil)

	_, err := f.svc.Versions.UpdateDescription(context.Background(), "fraud", "1", "new")
	require.NoError(t, err)

	cached, _ := f.d.Store().Version(v.Key())
	assert.Equal(t, "new", cached.Description)
}

func TestModelVersionService_TagRoundTrip(t *testing.T) {
	f := newFixture(t)
	v := versionAt(domain.StageNone, domain.PermissionCanEdit)
	f.seedVersion(v)
	f.client.On("SetModelVersionTag", mock.Anything, "fraud", "1", domain.Tag{Key: "owner", Value: "risk"}).Return(nil)
	f.client.On("DeleteModelVersionTag", mock.Anything, "fraud", "1", "owner").Return(nil)

	ctx := context.Background()
	require.NoError(t, f.svc.Versions.SetTag(ctx, "fraud", "1", domain.TagForm{Key: "owner", Value: "risk"}))
	tags, _ := f.d.Store().VersionTags(v.Key())
	assert.Equal(t, []domain.Tag{{Key: "owner", Value: "risk"}}, tags)

	require.NoError(t, f.svc.Versions.DeleteTag(ctx, "fraud", "1", "owner"))
	tags, _ = f.d.Store().VersionTags(v.Key())
	assert.Empty(t, tags)
}

func TestModelVersionService_GetArtifact(t *testing.T) {
	f := newFixture(t)
	v := domain.ModelVersion{Name: "fraud", Version: "1", RunID: "run-1", Source: "runs:/run-1/model"}
	f.client.On("GetArtifact", mock.Anything, "run-1", "model/MLmodel").Return([]byte("flavors: {}"), nil)

	content, err := f.svc.Versions.GetArtifact(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, "flavors: {}", string(content))

	cached, ok := f.d.Store().Artifact(v.Key())
	require.True(t, ok)
	assert.Equal(t, content, cached)
}

func TestModelVersionService_GetArtifact_NotTimeout(t *testing.T) {
	f := newFixture(t)
	f.client.On("GetArtifact", mock.Anything, "run-1", "MLmodel").Return(nil, errors.New("no such file"))

	_, err := f.svc.Versions.GetArtifact(context.Background(), domain.ModelVersion{Name: "fraud", Version: "1", RunID: "run-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrArtifactReadTimedOut)
}

func TestPermissionLevel(t *testing.T) {
	st := store.New()
	key := domain.VersionKey{Name: "fraud", Version: "1"}
	assert.Equal(t, domain.PermissionLevel(""), PermissionLevel(st, key))

	st.Dispatch(store.ModelFetched{Model: domain.RegisteredModel{Name: "fraud", PermissionLevel: domain.PermissionCanEdit}})
	assert.Equal(t, domain.PermissionCanEdit, PermissionLevel(st, key))

	st.Dispatch(store.VersionFetched{Version: domain.ModelVersion{
		Name: "fraud", Version: "1", PermissionLevel: domain.PermissionCanManage,
	}})
	assert.Equal(t, domain.PermissionCanManage, PermissionLevel(st, key))
}
