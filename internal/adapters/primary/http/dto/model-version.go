package dto

import (
	"model-registry-service/internal/core/domain"
)

type CreateModelVersionRequest struct {
	Source      string       `json:"source" binding:"required"`
	RunID       string       `json:"run_id"`
	RunLink     string       `json:"run_link"`
	Description string       `json:"description"`
	Tags        []domain.Tag `json:"tags"`
}

func (r CreateModelVersionRequest) Form(name string) domain.CreateVersionForm {
	return domain.CreateVersionForm{
		Name:        name,
		Source:      r.Source,
		RunID:       r.RunID,
		RunLink:     r.RunLink,
		Description: r.Description,
		Tags:        r.Tags,
	}
}

// ModelVersionResponse adds what the caller may do with the version.
type ModelVersionResponse struct {
	domain.ModelVersion
	CanEdit           bool           `json:"can_edit"`
	CanDelete         bool           `json:"can_delete"`
	TransitionTargets []domain.Stage `json:"transition_targets"`
	RequestTargets    []domain.Stage `json:"request_targets"`
}

// ToModelVersionResponse gates on level, which is the version's own level or,
// when the backend left it out, the level on its registered model.
func ToModelVersionResponse(v *domain.ModelVersion, level domain.PermissionLevel) ModelVersionResponse {
	return ModelVersionResponse{
		ModelVersion:      *v,
		CanEdit:           domain.CanEdit(level),
		CanDelete:         domain.CanDeleteVersion(level, v),
		TransitionTargets: domain.TransitionTargets(level, v.CurrentStage),
		RequestTargets:    domain.RequestTargets(level, v.CurrentStage),
	}
}

type ActivitiesResponse struct {
	Items []domain.Activity `json:"items"`
}

type ArtifactResponse struct {
	RunID   string `json:"run_id"`
	Path    string `json:"path"`
	Content string `json:"content"`
}
