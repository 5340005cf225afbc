package domain

import "strings"

// Stage is the lifecycle state of a model version.
type Stage string

const (
	StageNone       Stage = "None"
	StageStaging    Stage = "Staging"
	StageProduction Stage = "Production"
	StageArchived   Stage = "Archived"
)

// Stages lists every stage in menu order.
var Stages = []Stage{StageNone, StageStaging, StageProduction, StageArchived}

// IsValid checks if the stage is one of the known stages
func (s Stage) IsValid() bool {
	switch s {
	case StageNone, StageStaging, StageProduction, StageArchived:
		return true
	}
	return false
}

// IsActive reports whether versions in this stage are considered live.
// Only Staging and Production are active.
func (s Stage) IsActive() bool {
	return s == StageStaging || s == StageProduction
}

// ParseStage accepts stage names case-insensitively. An empty string is None.
func ParseStage(s string) (Stage, error) {
	if s == "" {
		return StageNone, nil
	}
	for _, st := range Stages {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", ErrInvalidStage
}
