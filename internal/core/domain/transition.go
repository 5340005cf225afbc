package domain

import "fmt"

// TransitionRequest is a pending REQUESTED_TRANSITION activity awaiting
// approval, rejection or cancellation.
type TransitionRequest struct {
	ID                string   `json:"id"`
	ToStage           Stage    `json:"to_stage"`
	UserID            string   `json:"user_id"`
	Comment           string   `json:"comment,omitempty"`
	CreationTimestamp int64    `json:"creation_timestamp"`
	AvailableActions  []Action `json:"available_actions,omitempty"`
}

// Allows reports whether the viewer may perform action on this request. The
// request's own action list is authoritative, not the viewer's permission level.
func (r *TransitionRequest) Allows(action Action) bool {
	return hasAction(r.AvailableActions, action)
}

// TransitionKind is one of the ways a stage change is driven.
type TransitionKind string

const (
	TransitionApply     TransitionKind = "apply"
	TransitionRequested TransitionKind = "request"
	TransitionApprove   TransitionKind = "approve"
	TransitionReject    TransitionKind = "reject"
	TransitionCancel    TransitionKind = "cancel"
)

func (k TransitionKind) IsValid() bool {
	switch k {
	case TransitionApply, TransitionRequested, TransitionApprove, TransitionReject, TransitionCancel:
		return true
	}
	return false
}

// ActivityType is the audit entry the backend appends for this kind.
func (k TransitionKind) ActivityType() ActivityType {
	switch k {
	case TransitionApply:
		return ActivityAppliedTransition
	case TransitionRequested:
		return ActivityRequestedTransition
	case TransitionApprove:
		return ActivityApprovedRequest
	case TransitionReject:
		return ActivityRejectedRequest
	default:
		return ActivityCancelledRequest
	}
}

// RequiredAction is the available action a request must carry for this kind
// to be offered. Apply and Request are not resolutions and need none.
func (k TransitionKind) RequiredAction() (Action, bool) {
	switch k {
	case TransitionApprove:
		return ActionApproveTransitionRequest, true
	case TransitionReject:
		return ActionRejectTransitionRequest, true
	case TransitionCancel:
		return ActionCancelTransitionRequest, true
	}
	return "", false
}

// KindForAction maps a pending-request action to the transition it drives.
func KindForAction(a Action) (TransitionKind, bool) {
	switch a {
	case ActionApproveTransitionRequest:
		return TransitionApprove, true
	case ActionRejectTransitionRequest:
		return TransitionReject, true
	case ActionCancelTransitionRequest:
		return TransitionCancel, true
	}
	return "", false
}

// Description is the confirmation dialog text for a transition of this kind.
func (k TransitionKind) Description(to Stage) string {
	switch k {
	case TransitionRequested:
		return fmt.Sprintf("Request transition to %s", to)
	case TransitionReject:
		return fmt.Sprintf("Reject request to transition to %s", to)
	case TransitionCancel:
		return fmt.Sprintf("Cancel request to transition to %s", to)
	default:
		return fmt.Sprintf("Transition to %s", to)
	}
}

// TransitionForm is what the confirmation dialog collects. A nil
// ArchiveExistingVersions means the checkbox was never touched or never shown.
type TransitionForm struct {
	Comment                 string `json:"comment" validate:"max=65535"`
	ArchiveExistingVersions *bool  `json:"archive_existing_versions"`
}

// ArchiveOffered reports whether the archive-existing-versions checkbox is
// shown. Only flows that change the stage right away offer it, and only for
// active targets.
func ArchiveOffered(kind TransitionKind, to Stage) bool {
	return (kind == TransitionApply || kind == TransitionApprove) && to.IsActive()
}

// ResolveArchive returns the strict boolean sent to the backend: the checkbox
// value when offered (checked when untouched), false when not offered.
func ResolveArchive(kind TransitionKind, to Stage, form TransitionForm) bool {
	if !ArchiveOffered(kind, to) {
		return false
	}
	if form.ArchiveExistingVersions == nil {
		return true
	}
	return *form.ArchiveExistingVersions
}

// TransitionCommand is a fully resolved transition ready for the backend.
type TransitionCommand struct {
	Kind                    TransitionKind
	Name                    string
	Version                 string
	ToStage                 Stage
	ArchiveExistingVersions bool
	Comment                 string
	Creator                 string
}
