package domain

// PermissionLevel is the caller's capability tier on a registered model, as
// granted by the backend. It only decides which actions are offered; the
// backend re-validates every mutating call.
type PermissionLevel string

const (
	PermissionCanManage                   PermissionLevel = "CAN_MANAGE"
	PermissionCanManageProductionVersions PermissionLevel = "CAN_MANAGE_PRODUCTION_VERSIONS"
	PermissionCanManageStagingVersions    PermissionLevel = "CAN_MANAGE_STAGING_VERSIONS"
	PermissionCanEdit                     PermissionLevel = "CAN_EDIT"
	PermissionCanRead                     PermissionLevel = "CAN_READ"
	PermissionCanCreateRegisteredModel    PermissionLevel = "CAN_CREATE_REGISTERED_MODEL"
)

// IsValid checks if the permission level is known
func (p PermissionLevel) IsValid() bool {
	switch p {
	case PermissionCanManage, PermissionCanManageProductionVersions,
		PermissionCanManageStagingVersions, PermissionCanEdit,
		PermissionCanRead, PermissionCanCreateRegisteredModel:
		return true
	}
	return false
}

func CanManage(level PermissionLevel) bool {
	return level == PermissionCanManage
}

func CanEdit(level PermissionLevel) bool {
	switch level {
	case PermissionCanManage, PermissionCanManageProductionVersions,
		PermissionCanManageStagingVersions, PermissionCanEdit:
		return true
	}
	return false
}

func CanRead(level PermissionLevel) bool {
	return CanEdit(level) || level == PermissionCanRead
}

func CanTransitionProductionStage(level PermissionLevel) bool {
	return level == PermissionCanManage || level == PermissionCanManageProductionVersions
}

func CanTransitionStagingStage(level PermissionLevel) bool {
	return CanTransitionProductionStage(level) || level == PermissionCanManageStagingVersions
}

func CanTransitionAnyStage(level PermissionLevel) bool {
	return CanTransitionStagingStage(level)
}

// CanTransitionToStage decides whether a caller may move a version from
// current to to without going through a request. Self-transitions are never
// allowed; anything touching Production needs production rights.
func CanTransitionToStage(level PermissionLevel, current, to Stage) bool {
	if current == to {
		return false
	}
	if current == StageProduction || to == StageProduction {
		return CanTransitionProductionStage(level)
	}
	return CanTransitionStagingStage(level)
}

// TransitionTargets returns the stages the caller may apply directly from
// current, in menu order.
func TransitionTargets(level PermissionLevel, current Stage) []Stage {
	targets := make([]Stage, 0, len(Stages))
	for _, s := range Stages {
		if CanTransitionToStage(level, current, s) {
			targets = append(targets, s)
		}
	}
	return targets
}

// RequestTargets returns the stages a caller may request a transition to.
func RequestTargets(level PermissionLevel, current Stage) []Stage {
	if !CanRead(level) {
		return nil
	}
	targets := make([]Stage, 0, len(Stages))
	for _, s := range Stages {
		if s != current {
			targets = append(targets, s)
		}
	}
	return targets
}

// CanDeleteVersion mirrors the backend rule that versions in an active stage
// cannot be deleted.
func CanDeleteVersion(level PermissionLevel, v *ModelVersion) bool {
	return CanManage(level) && !v.CurrentStage.IsActive()
}

// CanDeleteModel is false while any known version is in an active stage.
func CanDeleteModel(level PermissionLevel, versions []*ModelVersion) bool {
	if !CanManage(level) {
		return false
	}
	for _, v := range versions {
		if v.CurrentStage.IsActive() {
			return false
		}
	}
	return true
}
