package services

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/store"
	"model-registry-service/internal/core/tracker"
	"model-registry-service/internal/testutil"
)

type fixture struct {
	client   *testutil.MockRegistryClient
	kserve   *testutil.MockKServeClient
	prom     *testutil.MockPrometheusClient
	nav      *testutil.RecordingNavigator
	notifier *testutil.RecordingNotifier
	vis      *testutil.FakeVisibility
	inst     *recordingInstrumentation
	d        *Dispatcher
	svc      *Services
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{
		client:   new(testutil.MockRegistryClient),
		kserve:   new(testutil.MockKServeClient),
		prom:     new(testutil.MockPrometheusClient),
		nav:      &testutil.RecordingNavigator{},
		notifier: &testutil.RecordingNotifier{},
		vis:      testutil.NewFakeVisibility(true),
		inst:     newRecordingInstrumentation(),
	}
	opts := Options{
		Features:        DefaultFeatures(),
		PollInterval:    time.Hour,
		ArtifactTimeout: time.Second,
	}
	for _, m := range mutate {
		m(&opts)
	}
	f.d = NewDispatcher(tracker.New(nil), store.New(), f.notifier)
	f.svc = NewServices(f.d,
		Deps{Registry: f.client, KServe: f.kserve, Prometheus: f.prom, Instrumentation: f.inst},
		Env{Visibility: f.vis, Navigator: f.nav},
		opts)
	return f
}

func (f *fixture) seedVersion(v domain.ModelVersion) {
	f.d.Store().Dispatch(store.VersionFetched{Version: v})
}

func (f *fixture) seedRequests(key domain.VersionKey, reqs ...domain.TransitionRequest) {
	f.d.Store().Dispatch(store.TransitionRequestsListed{Key: key, Requests: reqs})
}

// expectReload allows the reload that follows every mutation.
func (f *fixture) expectReload(v *domain.ModelVersion) {
	f.client.On("GetModelVersion", mock.Anything, v.Name, v.Version).Return(v, nil).Maybe()
	f.client.On("ListActivities", mock.Anything, v.Name, v.Version).Return([]domain.Activity{}, nil).Maybe()
	f.client.On("ListTransitionRequests", mock.Anything, v.Name, v.Version).Return([]domain.TransitionRequest{}, nil).Maybe()
}

func notFound() error {
	return &domain.APIError{
		StatusCode: http.StatusNotFound,
		Code:       domain.ErrorCodeResourceDoesNotExist,
		Message:    "Model Version (name=fraud, version=1) not found",
	}
}

type recordingInstrumentation struct {
	mu      sync.Mutex
	ticks   map[string]int
	dropped int
}

func newRecordingInstrumentation() *recordingInstrumentation {
	return &recordingInstrumentation{ticks: make(map[string]int)}
}

func (r *recordingInstrumentation) PollTick(page, outcome string) {
	r.mu.Lock()
	r.ticks[outcome]++
	r.mu.Unlock()
}

func (r *recordingInstrumentation) MonitoringTagsDropped(n int) {
	r.mu.Lock()
	r.dropped += n
	r.mu.Unlock()
}

func (r *recordingInstrumentation) count(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks[outcome]
}

func (r *recordingInstrumentation) droppedTotal() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
