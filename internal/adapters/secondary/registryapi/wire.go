package registryapi

import (
	"fmt"

	"model-registry-service/internal/core/domain"
)

type modelEnvelope struct {
	RegisteredModel domain.RegisteredModel `json:"registered_model"`
}

func (e *modelEnvelope) model() *domain.RegisteredModel {
	m := normalizeModel(e.RegisteredModel)
	return &m
}

type versionEnvelope struct {
	ModelVersion domain.ModelVersion `json:"model_version"`
}

func (e *versionEnvelope) version() *domain.ModelVersion {
	v := normalizeVersion(e.ModelVersion)
	return &v
}

// Missing arrays decode as nil; the console treats them as empty.

func normalizeModel(m domain.RegisteredModel) domain.RegisteredModel {
	m.Tags = nonNil(m.Tags)
	for i := range m.LatestVersions {
		m.LatestVersions[i] = normalizeVersion(m.LatestVersions[i])
	}
	if m.LatestVersions == nil {
		m.LatestVersions = []domain.ModelVersion{}
	}
	return m
}

func normalizeVersion(v domain.ModelVersion) domain.ModelVersion {
	if v.CurrentStage == "" {
		v.CurrentStage = domain.StageNone
	}
	v.Tags = nonNil(v.Tags)
	for i := range v.OpenRequests {
		v.OpenRequests[i] = normalizeRequest(v.OpenRequests[i])
	}
	return v
}

// normalizeRequest fills in an id for backends that identify a pending
// request by stage, creator and time only.
func normalizeRequest(r domain.TransitionRequest) domain.TransitionRequest {
	if r.ID == "" {
		r.ID = fmt.Sprintf("%s-%s-%d", r.ToStage, r.UserID, r.CreationTimestamp)
	}
	return r
}

func nonNil(tags []domain.Tag) []domain.Tag {
	if tags == nil {
		return []domain.Tag{}
	}
	return tags
}
