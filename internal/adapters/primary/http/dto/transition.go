package dto

import (
	"model-registry-service/internal/core/domain"
)

type TransitionStageRequest struct {
	ToStage                 string `json:"to_stage" binding:"required" validate:"stage"`
	Comment                 string `json:"comment"`
	ArchiveExistingVersions *bool  `json:"archive_existing_versions"`
}

func (r TransitionStageRequest) Form() domain.TransitionForm {
	return domain.TransitionForm{Comment: r.Comment, ArchiveExistingVersions: r.ArchiveExistingVersions}
}

// ResolveRequest is the body of approve, reject, cancel and dialog confirm.
type ResolveRequest struct {
	Comment                 string `json:"comment"`
	ArchiveExistingVersions *bool  `json:"archive_existing_versions"`
}

func (r ResolveRequest) Form() domain.TransitionForm {
	return domain.TransitionForm{Comment: r.Comment, ArchiveExistingVersions: r.ArchiveExistingVersions}
}

type OpenDialogRequest struct {
	Action string `json:"action" binding:"required"`
}

type TransitionRequestsResponse struct {
	Items []domain.TransitionRequest `json:"items"`
}

type CommentRequest struct {
	Comment string `json:"comment"`
}
