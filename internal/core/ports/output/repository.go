package ports

import (
	"context"

	"model-registry-service/internal/core/domain"
)

// ============================================================================
// Registry Backend
// ============================================================================

// RegistryClient is the contract of the registry backend. The backend owns
// persistence and the authoritative workflow; every call here is a round trip.
type RegistryClient interface {
	// Registered models
	SearchRegisteredModels(ctx context.Context, filter domain.SearchFilter) (domain.Page[domain.RegisteredModel], error)
	GetRegisteredModel(ctx context.Context, name string) (*domain.RegisteredModel, error)
	CreateRegisteredModel(ctx context.Context, form domain.CreateModelForm) (*domain.RegisteredModel, error)
	UpdateRegisteredModel(ctx context.Context, name, description string) (*domain.RegisteredModel, error)
	DeleteRegisteredModel(ctx context.Context, name string) error
	SetRegisteredModelTag(ctx context.Context, name string, tag domain.Tag) error
	DeleteRegisteredModelTag(ctx context.Context, name, key string) error

	// Model versions
	CreateModelVersion(ctx context.Context, form domain.CreateVersionForm) (*domain.ModelVersion, error)
	SearchModelVersions(ctx context.Context, filter domain.SearchFilter) (domain.Page[domain.ModelVersion], error)
	GetModelVersion(ctx context.Context, name, version string) (*domain.ModelVersion, error)
	UpdateModelVersion(ctx context.Context, name, version, description string) (*domain.ModelVersion, error)
	DeleteModelVersion(ctx context.Context, name, version string) error
	SetModelVersionTag(ctx context.Context, name, version string, tag domain.Tag) error
	DeleteModelVersionTag(ctx context.Context, name, version, key string) error
	GetArtifact(ctx context.Context, runID, path string) ([]byte, error)

	// Stage transitions
	TransitionStage(ctx context.Context, cmd domain.TransitionCommand) (*domain.ModelVersion, error)
	CreateTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.TransitionRequest, error)
	ApproveTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.Activity, error)
	RejectTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.Activity, error)
	CancelTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.Activity, error)
	ListTransitionRequests(ctx context.Context, name, version string) ([]domain.TransitionRequest, error)

	// Comments and audit log
	CreateComment(ctx context.Context, name, version, comment string) (*domain.Activity, error)
	UpdateComment(ctx context.Context, id, comment string) (*domain.Activity, error)
	DeleteComment(ctx context.Context, id string) error
	ListActivities(ctx context.Context, name, version string) ([]domain.Activity, error)

	// Serving
	GetEndpointStatus(ctx context.Context, modelName string) ([]domain.ServingEndpoint, error)
}
