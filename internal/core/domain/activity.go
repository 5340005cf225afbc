package domain

import "sort"

type ActivityType string

const (
	ActivityRequestedTransition ActivityType = "REQUESTED_TRANSITION"
	ActivityApprovedRequest     ActivityType = "APPROVED_REQUEST"
	ActivityRejectedRequest     ActivityType = "REJECTED_REQUEST"
	ActivityCancelledRequest    ActivityType = "CANCELLED_REQUEST"
	ActivityAppliedTransition   ActivityType = "APPLIED_TRANSITION"
	ActivitySystemTransition    ActivityType = "SYSTEM_TRANSITION"
	ActivityNewComment          ActivityType = "NEW_COMMENT"
)

// Action is something the current viewer may do to an activity or a pending
// request. The backend computes these per viewer.
type Action string

const (
	ActionApproveTransitionRequest Action = "APPROVE_TRANSITION_REQUEST"
	ActionRejectTransitionRequest  Action = "REJECT_TRANSITION_REQUEST"
	ActionCancelTransitionRequest  Action = "CANCEL_TRANSITION_REQUEST"
	ActionEditComment              Action = "EDIT_COMMENT"
	ActionDeleteComment            Action = "DELETE_COMMENT"
)

// Activity is an append-only audit log entry on a model version.
type Activity struct {
	ID                   string       `json:"id"`
	Type                 ActivityType `json:"activity_type"`
	FromStage            Stage        `json:"from_stage,omitempty"`
	ToStage              Stage        `json:"to_stage,omitempty"`
	Comment              string       `json:"comment,omitempty"`
	SystemComment        string       `json:"system_comment,omitempty"`
	UserID               string       `json:"user_id"`
	CreationTimestamp    int64        `json:"creation_timestamp"`
	LastUpdatedTimestamp int64        `json:"last_updated_timestamp"`
	AvailableActions     []Action     `json:"available_actions,omitempty"`
}

func (a *Activity) Allows(action Action) bool {
	return hasAction(a.AvailableActions, action)
}

// SortActivities orders activities ascending by creation time. Entries with
// equal timestamps keep their relative order.
func SortActivities(activities []Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].CreationTimestamp < activities[j].CreationTimestamp
	})
}

// CommentForm creates or edits a comment on a model version.
type CommentForm struct {
	Comment string `json:"comment" validate:"required,max=65535"`
}

func hasAction(actions []Action, want Action) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}
