package services

import (
	"context"
	"sync"

	"model-registry-service/internal/core/domain"
)

// rowActions is the order actions are offered in on a row.
var rowActions = []domain.Action{
	domain.ActionApproveTransitionRequest,
	domain.ActionRejectTransitionRequest,
	domain.ActionCancelTransitionRequest,
}

type PendingRequestRow struct {
	ID                string          `json:"id"`
	ToStage           domain.Stage    `json:"to_stage"`
	UserID            string          `json:"user_id"`
	Comment           string          `json:"comment,omitempty"`
	CreationTimestamp int64           `json:"creation_timestamp"`
	Actions           []domain.Action `json:"actions"`
}

// ConfirmationDialog is the open approve/reject/cancel dialog of a table.
type ConfirmationDialog struct {
	RequestID           string                `json:"request_id"`
	Action              domain.Action         `json:"action"`
	Kind                domain.TransitionKind `json:"kind"`
	ToStage             domain.Stage          `json:"to_stage"`
	Title               string                `json:"title"`
	Description         string                `json:"description"`
	ShowArchiveCheckbox bool                  `json:"show_archive_checkbox"`
	ArchiveDefault      bool                  `json:"archive_default"`
}

// PendingRequestTable is the view over one version's pending transition
// requests. The actions of a row come from that request alone.
type PendingRequestTable struct {
	key         domain.VersionKey
	d           *Dispatcher
	transitions *TransitionService

	mu     sync.Mutex
	dialog *ConfirmationDialog
}

func NewPendingRequestTable(key domain.VersionKey, d *Dispatcher, transitions *TransitionService) *PendingRequestTable {
	return &PendingRequestTable{key: key, d: d, transitions: transitions}
}

func (t *PendingRequestTable) Rows() []PendingRequestRow {
	reqs := t.d.Store().TransitionRequests(t.key)
	rows := make([]PendingRequestRow, 0, len(reqs))
	for i := range reqs {
		r := &reqs[i]
		actions := make([]domain.Action, 0, len(rowActions))
		for _, a := range rowActions {
			if r.Allows(a) {
				actions = append(actions, a)
			}
		}
		rows = append(rows, PendingRequestRow{
			ID:                r.ID,
			ToStage:           r.ToStage,
			UserID:            r.UserID,
			Comment:           r.Comment,
			CreationTimestamp: r.CreationTimestamp,
			Actions:           actions,
		})
	}
	return rows
}

// OpenDialog opens the confirmation dialog for action on a request, replacing
// any dialog already open.
func (t *PendingRequestTable) OpenDialog(requestID string, action domain.Action) (*ConfirmationDialog, error) {
	kind, ok := domain.KindForAction(action)
	if !ok {
		return nil, domain.ErrActionNotAvailable
	}
	req, ok := t.d.Store().TransitionRequest(t.key, requestID)
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if !req.Allows(action) {
		return nil, domain.ErrActionNotAvailable
	}

	offered := domain.ArchiveOffered(kind, req.ToStage)
	dlg := &ConfirmationDialog{
		RequestID:           requestID,
		Action:              action,
		Kind:                kind,
		ToStage:             req.ToStage,
		Title:               dialogTitle(kind),
		Description:         kind.Description(req.ToStage),
		ShowArchiveCheckbox: offered,
		ArchiveDefault:      offered,
	}

	t.mu.Lock()
	t.dialog = dlg
	t.mu.Unlock()

	out := *dlg
	return &out, nil
}

func (t *PendingRequestTable) Dialog() *ConfirmationDialog {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dialog == nil {
		return nil
	}
	out := *t.dialog
	return &out
}

func (t *PendingRequestTable) CloseDialog() {
	t.mu.Lock()
	t.dialog = nil
	t.mu.Unlock()
}

// Confirm closes the open dialog and dispatches its transition with the
// submitted comment and checkbox. The archive flag sent is always a strict
// boolean.
func (t *PendingRequestTable) Confirm(ctx context.Context, form domain.TransitionForm) error {
	t.mu.Lock()
	dlg := t.dialog
	t.dialog = nil
	t.mu.Unlock()

	if dlg == nil {
		return domain.ErrNoOpenDialog
	}

	submitted := domain.TransitionForm{Comment: form.Comment}
	if dlg.ShowArchiveCheckbox {
		archive := domain.ResolveArchive(dlg.Kind, dlg.ToStage, form)
		submitted.ArchiveExistingVersions = &archive
	}
	return t.transitions.Resolve(ctx, dlg.Kind, t.key, dlg.RequestID, submitted)
}

func dialogTitle(kind domain.TransitionKind) string {
	switch kind {
	case domain.TransitionApprove:
		return "Approve pending request"
	case domain.TransitionReject:
		return "Reject pending request"
	default:
		return "Cancel pending request"
	}
}
