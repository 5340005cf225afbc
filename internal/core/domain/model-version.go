package domain

import (
	"fmt"
	"path"
	"strings"
)

type VersionStatus string

const (
	VersionStatusReady               VersionStatus = "READY"
	VersionStatusPendingRegistration VersionStatus = "PENDING_REGISTRATION"
	VersionStatusFailedRegistration  VersionStatus = "FAILED_REGISTRATION"
)

type ModelVersion struct {
	Name                 string              `json:"name"`
	Version              string              `json:"version"`
	CreationTimestamp    int64               `json:"creation_timestamp"`
	LastUpdatedTimestamp int64               `json:"last_updated_timestamp"`
	UserID               string              `json:"user_id"`
	CurrentStage         Stage               `json:"current_stage"`
	Description          string              `json:"description"`
	Source               string              `json:"source"`
	RunID                string              `json:"run_id"`
	RunLink              string              `json:"run_link"`
	Status               VersionStatus       `json:"status"`
	StatusMessage        string              `json:"status_message"`
	Tags                 []Tag               `json:"tags"`
	OpenRequests         []TransitionRequest `json:"open_requests"`
	PermissionLevel      PermissionLevel     `json:"permission_level"`
}

// VersionKey identifies a model version in the store.
type VersionKey struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version" validate:"required,positiveInteger"`
}

func (k VersionKey) String() string {
	return fmt.Sprintf("%s/%s", k.Name, k.Version)
}

func (v *ModelVersion) Key() VersionKey {
	return VersionKey{Name: v.Name, Version: v.Version}
}

// CreateVersionForm registers a new version against a run artifact.
type CreateVersionForm struct {
	Name        string `json:"name" validate:"required,max=256"`
	Source      string `json:"source" validate:"required"`
	RunID       string `json:"run_id"`
	RunLink     string `json:"run_link"`
	Description string `json:"description" validate:"max=65535"`
	Tags        []Tag  `json:"tags"`
}

// MLModelArtifactPath is the artifact the version page reads for its schema pane.
const MLModelArtifactPath = "MLmodel"

// ArtifactPath is the run-relative path of the version's MLmodel file. Sources
// of the form runs:/<run_id>/<dir> resolve under <dir>; anything else is read
// from the run root.
func (v *ModelVersion) ArtifactPath() string {
	rest, ok := strings.CutPrefix(v.Source, "runs:/")
	if !ok {
		return MLModelArtifactPath
	}
	_, dir, found := strings.Cut(rest, "/")
	if !found || dir == "" {
		return MLModelArtifactPath
	}
	return path.Join(dir, MLModelArtifactPath)
}
