package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/ports/output"
)

var _ ports.RegistryClient = (*MockRegistryClient)(nil)

// MockRegistryClient is a mock of RegistryClient.
type MockRegistryClient struct {
	mock.Mock
}

// ============================================================================
// Registered models
// ============================================================================

func (m *MockRegistryClient) SearchRegisteredModels(ctx context.Context, filter domain.SearchFilter) (domain.Page[domain.RegisteredModel], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.Page[domain.RegisteredModel]), args.Error(1)
}

func (m *MockRegistryClient) GetRegisteredModel(ctx context.Context, name string) (*domain.RegisteredModel, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegisteredModel), args.Error(1)
}

func (m *MockRegistryClient) CreateRegisteredModel(ctx context.Context, form domain.CreateModelForm) (*domain.RegisteredModel, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegisteredModel), args.Error(1)
}

func (m *MockRegistryClient) UpdateRegisteredModel(ctx context.Context, name, description string) (*domain.RegisteredModel, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegisteredModel), args.Error(1)
}

func (m *MockRegistryClient) DeleteRegisteredModel(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockRegistryClient) SetRegisteredModelTag(ctx context.Context, name string, tag domain.Tag) error {
	args := m.Called(ctx, name, tag)
	return args.Error(0)
}

func (m *MockRegistryClient) DeleteRegisteredModelTag(ctx context.Context, name, key string) error {
	args := m.Called(ctx, name, key)
	return args.Error(0)
}

// ============================================================================
// Model versions
// ============================================================================

func (m *MockRegistryClient) CreateModelVersion(ctx context.Context, form domain.CreateVersionForm) (*domain.ModelVersion, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockRegistryClient) SearchModelVersions(ctx context.Context, filter domain.SearchFilter) (domain.Page[domain.ModelVersion], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.Page[domain.ModelVersion]), args.Error(1)
}

func (m *MockRegistryClient) GetModelVersion(ctx context.Context, name, version string) (*domain.ModelVersion, error) {
	args := m.Called(ctx, name, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockRegistryClient) UpdateModelVersion(ctx context.Context, name, version, description string) (*domain.ModelVersion, error) {
	args := m.Called(ctx, name, version, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockRegistryClient) DeleteModelVersion(ctx context.Context, name, version string) error {
	args := m.Called(ctx, name, version)
	return args.Error(0)
}

func (m *MockRegistryClient) SetModelVersionTag(ctx context.Context, name, version string, tag domain.Tag) error {
	args := m.Called(ctx, name, version, tag)
	return args.Error(0)
}

func (m *MockRegistryClient) DeleteModelVersionTag(ctx context.Context, name, version, key string) error {
	args := m.Called(ctx, name, version, key)
	return args.Error(0)
}

func (m *MockRegistryClient) GetArtifact(ctx context.Context, runID, path string) ([]byte, error) {
	args := m.Called(ctx, runID, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// ============================================================================
// Stage transitions
// ============================================================================

func (m *MockRegistryClient) TransitionStage(ctx context.Context, cmd domain.TransitionCommand) (*domain.ModelVersion, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersion), args.Error(1)
}

func (m *MockRegistryClient) CreateTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.TransitionRequest, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransitionRequest), args.Error(1)
}

func (m *MockRegistryClient) ApproveTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.Activity, error) {
	return m.activity(m.Called(ctx, cmd))
}

func (m *MockRegistryClient) RejectTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.Activity, error) {
	return m.activity(m.Called(ctx, cmd))
}

func (m *MockRegistryClient) CancelTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.Activity, error) {
	return m.activity(m.Called(ctx, cmd))
}

func (m *MockRegistryClient) ListTransitionRequests(ctx context.Context, name, version string) ([]domain.TransitionRequest, error) {
	args := m.Called(ctx, name, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransitionRequest), args.Error(1)
}

// ============================================================================
// Comments and activities
// ============================================================================

func (m *MockRegistryClient) CreateComment(ctx context.Context, name, version, comment string) (*domain.Activity, error) {
	return m.activity(m.Called(ctx, name, version, comment))
}

func (m *MockRegistryClient) UpdateComment(ctx context.Context, id, comment string) (*domain.Activity, error) {
	return m.activity(m.Called(ctx, id, comment))
}

func (m *MockRegistryClient) DeleteComment(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRegistryClient) ListActivities(ctx context.Context, name, version string) ([]domain.Activity, error) {
	args := m.Called(ctx, name, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Activity), args.Error(1)
}

// ============================================================================
// Serving
// ============================================================================

func (m *MockRegistryClient) GetEndpointStatus(ctx context.Context, modelName string) ([]domain.ServingEndpoint, error) {
	args := m.Called(ctx, modelName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServingEndpoint), args.Error(1)
}

func (m *MockRegistryClient) activity(args mock.Arguments) (*domain.Activity, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Activity), args.Error(1)
}

// MockKServeClient is a mock of KServeClient.
type MockKServeClient struct {
	mock.Mock
}

func (m *MockKServeClient) ListEndpoints(ctx context.Context, modelName string) ([]domain.ServingEndpoint, error) {
	args := m.Called(ctx, modelName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServingEndpoint), args.Error(1)
}

func (m *MockKServeClient) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockPrometheusClient is a mock of PrometheusClient.
type MockPrometheusClient struct {
	mock.Mock
}

func (m *MockPrometheusClient) QueryRequestRate(ctx context.Context, endpoint string, tr ports.TimeRange) ([]ports.DataPoint, error) {
	return m.points(m.Called(ctx, endpoint, tr))
}

func (m *MockPrometheusClient) QueryErrorRate(ctx context.Context, endpoint string, tr ports.TimeRange) ([]ports.DataPoint, error) {
	return m.points(m.Called(ctx, endpoint, tr))
}

func (m *MockPrometheusClient) QueryLatencyP99(ctx context.Context, endpoint string, tr ports.TimeRange) ([]ports.DataPoint, error) {
	return m.points(m.Called(ctx, endpoint, tr))
}

func (m *MockPrometheusClient) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPrometheusClient) points(args mock.Arguments) ([]ports.DataPoint, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.DataPoint), args.Error(1)
}

// ============================================================================
// Browser fakes
// ============================================================================

// FakeVisibility is a settable tab visibility.
type FakeVisibility struct {
	mu      sync.Mutex
	visible bool
}

func NewFakeVisibility(visible bool) *FakeVisibility {
	return &FakeVisibility{visible: visible}
}

func (v *FakeVisibility) Visible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible
}

func (v *FakeVisibility) Set(visible bool) {
	v.mu.Lock()
	v.visible = visible
	v.mu.Unlock()
}

// RecordingNavigator records every route it is sent to.
type RecordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *RecordingNavigator) Navigate(route string) {
	n.mu.Lock()
	n.routes = append(n.routes, route)
	n.mu.Unlock()
}

func (n *RecordingNavigator) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

// Notification is one message recorded by RecordingNotifier.
type Notification struct {
	Level   ports.NotificationLevel
	Message string
}

type RecordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
}

func (n *RecordingNotifier) Notify(level ports.NotificationLevel, message string) {
	n.mu.Lock()
	n.notifications = append(n.notifications, Notification{Level: level, Message: message})
	n.mu.Unlock()
}

func (n *RecordingNotifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notifications...)
}
