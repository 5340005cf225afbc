package dto

import (
	"model-registry-service/internal/core/domain"
)

type CreateRegisteredModelRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateDescriptionRequest struct {
	Description string `json:"description"`
}

type SetTagRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

type RegisteredModelResponse struct {
	domain.RegisteredModel
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func ToRegisteredModelResponse(m *domain.RegisteredModel) RegisteredModelResponse {
	latest := make([]*domain.ModelVersion, 0, len(m.LatestVersions))
	for i := range m.LatestVersions {
		latest = append(latest, &m.LatestVersions[i])
	}
	return RegisteredModelResponse{
		RegisteredModel: *m,
		CanEdit:         domain.CanEdit(m.PermissionLevel),
		CanDelete:       domain.CanDeleteModel(m.PermissionLevel, latest),
	}
}

// ListResponse is one page of a search.
type ListResponse[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"next_page_token,omitempty"`
	HasNext       bool   `json:"has_next"`
}

func ToListResponse[T any](page domain.Page[T]) ListResponse[T] {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items:         items,
		NextPageToken: page.NextPageToken,
		HasNext:       page.HasNext(),
	}
}
