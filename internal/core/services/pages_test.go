package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"model-registry-service/internal/core/domain"
)

func waitLoaded(t *testing.T, p Page) {
	t.Helper()
	select {
	case <-p.Loaded():
	case <-time.After(2 * time.Second):
		t.Fatal("page did not finish loading")
	}
}

func mountedVersion() *domain.ModelVersion {
	return &domain.ModelVersion{
		Name:            "fraud",
		Version:         "1",
		CurrentStage:    domain.StageStaging,
		Source:          "runs:/run-1/model",
		RunID:           "run-1",
		PermissionLevel: domain.PermissionCanManageStagingVersions,
		Tags: []domain.Tag{
			{Key: "mlflow.monitoring.drift", Value: `{"type":"drift"}`},
			{Key: "mlflow.monitoring.bad", Value: `not json`},
		},
	}
}

func TestModelVersionPage_Mount(t *testing.T) {
	f := newFixture(t)
	v := mountedVersion()
	f.client.On("GetModelVersion", mock.Anything, "fraud", "1").Return(v, nil)
	f.client.On("GetRegisteredModel", mock.Anything, "fraud").
		Return(&domain.RegisteredModel{Name: "fraud", PermissionLevel: domain.PermissionCanManage}, nil)
	f.client.On("ListActivities", mock.Anything, "fraud", "1").Return([]domain.Activity{
		{ID: "b", CreationTimestamp: 20},
		{ID: "a", CreationTimestamp: 10},
	}, nil)
	f.client.On("ListTransitionRequests", mock.Anything, "fraud", "1").Return([]domain.TransitionRequest{
		{ID: "r1", ToStage: domain.StageProduction, AvailableActions: []domain.Action{domain.ActionCancelTransitionRequest}},
	}, nil)
	f.client.On("GetArtifact", mock.Anything, "run-1", "model/MLmodel").Return([]byte("flavors: {}"), nil)

	page := f.svc.ModelVersionPage("fraud", "1")
	page.Mount(context.Background())
	waitLoaded(t, page)
	defer page.Unmount()

	view := page.View().(ModelVersionPageView)
	assert.Equal(t, PageReady, view.Status)
	require.NotNil(t, view.Version)
	assert.Equal(t, "flavors: {}", view.Artifact)
	require.Len(t, view.Activities, 2)
	assert.Equal(t, "a", view.Activities[0].ID)
	require.Len(t, view.PendingRequests, 1)
	assert.Equal(t, []domain.Action{domain.ActionCancelTransitionRequest}, view.PendingRequests[0].Actions)
	require.Len(t, view.Monitoring, 1)
	assert.Equal(t, "drift", view.Monitoring[0].Kind)
	assert.False(t, view.CanDelete)

	// staging managers apply None/Archived directly and request Production
	var kinds = map[domain.Stage]domain.TransitionKind{}
	for _, item := range view.StageMenu {
		kinds[item.ToStage] = item.Kind
		if item.Kind == domain.TransitionRequested {
			assert.False(t, item.ShowArchiveCheckbox)
		}
	}
	assert.Equal(t, domain.TransitionApply, kinds[domain.StageNone])
	assert.Equal(t, domain.TransitionApply, kinds[domain.StageArchived])
	assert.Equal(t, domain.TransitionRequested, kinds[domain.StageProduction])
	_, hasSelf := kinds[domain.StageStaging]
	assert.False(t, hasSelf)
}

func TestModelVersionPage_ArtifactTimeoutDoesNotBlockPage(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.ArtifactTimeout = 20 * time.Millisecond })
	v := mountedVersion()
	f.client.On("GetModelVersion", mock.Anything, "fraud", "1").Return(v, nil)
	f.client.On("GetRegisteredModel", mock.Anything, "fraud").Return(&domain.RegisteredModel{Name: "fraud"}, nil)
	f.client.On("ListActivities", mock.Anything, "fraud", "1").Return([]domain.Activity{}, nil)
	f.client.On("ListTransitionRequests", mock.Anything, "fraud", "1").Return([]domain.TransitionRequest{}, nil)
	f.client.On("GetArtifact", mock.Anything, "run-1", "model/MLmodel").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	page := f.svc.ModelVersionPage("fraud", "1")
	page.Mount(context.Background())
	waitLoaded(t, page)
	defer page.Unmount()

	view := page.View().(ModelVersionPageView)
	assert.Equal(t, PageReady, view.Status)
	assert.Empty(t, view.Artifact)
}

func TestModelVersionService_GetArtifact_TimesOut(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.ArtifactTimeout = 10 * time.Millisecond })
	f.client.On("GetArtifact", mock.Anything, "run-1", "MLmodel").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	_, err := f.svc.Versions.GetArtifact(context.Background(), domain.ModelVersion{Name: "fraud", Version: "1", RunID: "run-1"})
	assert.ErrorIs(t, err, domain.ErrArtifactReadTimedOut)
}

func TestModelVersionPage_RootMissingOnMount(t *testing.T) {
	f := newFixture(t)
	f.client.On("GetModelVersion", mock.Anything, "fraud", "9").Return(nil, notFound())
	f.client.On("GetRegisteredModel", mock.Anything, "fraud").Return(&domain.RegisteredModel{Name: "fraud"}, nil)
	f.client.On("ListActivities", mock.Anything, "fraud", "9").Return(nil, notFound())
	f.client.On("ListTransitionRequests", mock.Anything, "fraud", "9").Return(nil, notFound())

	page := f.svc.ModelVersionPage("fraud", "9")
	page.Mount(context.Background())
	waitLoaded(t, page)
	defer page.Unmount()

	view := page.View().(ModelVersionPageView)
	assert.Equal(t, PageNotFound, view.Status)
	assert.Equal(t, "/models/fraud", view.Redirect)
	assert.Equal(t, []string{"/models/fraud"}, f.nav.Routes())
	f.client.AssertNotCalled(t, "GetArtifact", mock.Anything, mock.Anything, mock.Anything)
}

func TestModelPage_CriticalFailure(t *testing.T) {
	f := newFixture(t)
	f.client.On("GetRegisteredModel", mock.Anything, "fraud").Return(nil, errors.New("502 bad gateway"))
	f.client.On("SearchModelVersions", mock.Anything, VersionsOf("fraud")).
		Return(domain.Page[domain.ModelVersion]{}, nil)

	page := f.svc.ModelPage("fraud")
	page.Mount(context.Background())
	waitLoaded(t, page)
	defer page.Unmount()

	view := page.View().(ModelPageView)
	assert.Equal(t, PageError, view.Status)
	assert.Contains(t, view.Error, "502 bad gateway")
	assert.Empty(t, f.nav.Routes())
}

func TestModelPage_Mount(t *testing.T) {
	f := newFixture(t)
	f.client.On("GetRegisteredModel", mock.Anything, "fraud").Return(&domain.RegisteredModel{
		Name: "fraud", PermissionLevel: domain.PermissionCanManage,
	}, nil)
	f.client.On("SearchModelVersions", mock.Anything, VersionsOf("fraud")).Return(domain.Page[domain.ModelVersion]{
		Items: []domain.ModelVersion{
			{Name: "fraud", Version: "1", CreationTimestamp: 1, CurrentStage: domain.StageArchived},
			{Name: "fraud", Version: "2", CreationTimestamp: 2, CurrentStage: domain.StageNone},
		},
	}, nil)

	page := f.svc.ModelPage("fraud")
	page.Mount(context.Background())
	waitLoaded(t, page)
	defer page.Unmount()

	view := page.View().(ModelPageView)
	assert.Equal(t, PageReady, view.Status)
	require.Len(t, view.Versions, 2)
	assert.Equal(t, "2", view.Versions[0].Version)
	assert.True(t, view.CanDelete)
}

func TestPendingRequestsPage_Mount(t *testing.T) {
	f := newFixture(t)
	f.client.On("ListTransitionRequests", mock.Anything, "fraud", "1").Return([]domain.TransitionRequest{
		{ID: "r1", ToStage: domain.StageStaging, AvailableActions: []domain.Action{
			domain.ActionApproveTransitionRequest, domain.ActionRejectTransitionRequest,
		}},
	}, nil)

	page := f.svc.PendingRequestsPage("fraud", "1")
	page.Mount(context.Background())
	waitLoaded(t, page)
	defer page.Unmount()

	view := page.View().(PendingRequestsPageView)
	assert.Equal(t, PageReady, view.Status)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, []domain.Action{domain.ActionApproveTransitionRequest, domain.ActionRejectTransitionRequest}, view.Rows[0].Actions)
}

func TestMonitoringService_CountsMalformedOnce(t *testing.T) {
	f := newFixture(t)
	f.seedVersion(*mountedVersion())
	key := domain.VersionKey{Name: "fraud", Version: "1"}

	assert.Len(t, f.svc.Monitoring.Entries(key), 1)
	assert.Len(t, f.svc.Monitoring.Entries(key), 1)
	assert.Equal(t, 1, f.inst.droppedTotal())
}

func TestMonitoringService_Disabled(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Features.Monitoring = false })
	f.seedVersion(*mountedVersion())

	assert.Empty(t, f.svc.Monitoring.Entries(domain.VersionKey{Name: "fraud", Version: "1"}))
	assert.Equal(t, 0, f.inst.droppedTotal())
}
