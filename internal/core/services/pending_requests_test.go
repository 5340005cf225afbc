package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"model-registry-service/internal/core/domain"
)

func newTable(f *fixture) (*PendingRequestTable, domain.ModelVersion) {
	v := versionAt(domain.StageStaging, domain.PermissionCanManage)
	f.seedVersion(v)
	f.expectReload(&v)
	f.seedRequests(v.Key(),
		domain.TransitionRequest{
			ID:               "cancel-only",
			ToStage:          domain.StageProduction,
			UserID:           "alice",
			AvailableActions: []domain.Action{domain.ActionCancelTransitionRequest},
		},
		domain.TransitionRequest{
			ID:      "reviewable",
			ToStage: domain.StageProduction,
			UserID:  "bob",
			AvailableActions: []domain.Action{
				domain.ActionRejectTransitionRequest,
				domain.ActionApproveTransitionRequest,
			},
		},
	)
	return f.svc.ModelVersionPage("fraud", "1").Table, v
}

func TestPendingRequestTable_RowActionsComeFromRequest(t *testing.T) {
	f := newFixture(t)
	table, _ := newTable(f)

	rows := table.Rows()
	require.Len(t, rows, 2)

	byID := map[string]PendingRequestRow{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	// a manager still only sees cancel on a request that only allows cancel
	assert.Equal(t, []domain.Action{domain.ActionCancelTransitionRequest}, byID["cancel-only"].Actions)
	assert.Equal(t,
		[]domain.Action{domain.ActionApproveTransitionRequest, domain.ActionRejectTransitionRequest},
		byID["reviewable"].Actions)
}

func TestPendingRequestTable_ApproveDialog(t *testing.T) {
	f := newFixture(t)
	table, _ := newTable(f)

	dlg, err := table.OpenDialog("reviewable", domain.ActionApproveTransitionRequest)
	require.NoError(t, err)
	assert.Equal(t, "Approve pending request", dlg.Title)
	assert.Equal(t, "Transition to Production", dlg.Description)
	assert.True(t, dlg.ShowArchiveCheckbox)
	assert.True(t, dlg.ArchiveDefault)
	assert.Equal(t, dlg, table.Dialog())
}

func TestPendingRequestTable_RejectDialog(t *testing.T) {
	f := newFixture(t)
	table, _ := newTable(f)

	dlg, err := table.OpenDialog("reviewable", domain.ActionRejectTransitionRequest)
	require.NoError(t, err)
	assert.Equal(t, "Reject request to transition to Production", dlg.Description)
	assert.False(t, dlg.ShowArchiveCheckbox)
}

func TestPendingRequestTable_OpenDialog_Errors(t *testing.T) {
	f := newFixture(t)
	table, _ := newTable(f)

	_, err := table.OpenDialog("cancel-only", domain.ActionApproveTransitionRequest)
	assert.ErrorIs(t, err, domain.ErrActionNotAvailable)

	_, err = table.OpenDialog("missing", domain.ActionCancelTransitionRequest)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)

	_, err = table.OpenDialog("reviewable", domain.Action("DELETE_EVERYTHING"))
	assert.ErrorIs(t, err, domain.ErrActionNotAvailable)
	assert.Nil(t, table.Dialog())
}

func TestPendingRequestTable_ConfirmWithoutDialog(t *testing.T) {
	f := newFixture(t)
	table, _ := newTable(f)

	err := table.Confirm(context.Background(), domain.TransitionForm{})
	assert.ErrorIs(t, err, domain.ErrNoOpenDialog)
}

func TestPendingRequestTable_ConfirmApproveSendsStrictArchive(t *testing.T) {
	f := newFixture(t)
	table, _ := newTable(f)

	f.client.On("ApproveTransitionRequest", mock.Anything, mock.MatchedBy(func(cmd domain.TransitionCommand) bool {
		return cmd.Kind == domain.TransitionApprove &&
			cmd.ToStage == domain.StageProduction &&
			cmd.ArchiveExistingVersions &&
			cmd.Creator == "bob" &&
			cmd.Comment == "lgtm"
	})).Return(&domain.Activity{Type: domain.ActivityAppliedTransition}, nil).Once()

	_, err := table.OpenDialog("reviewable", domain.ActionApproveTransitionRequest)
	require.NoError(t, err)
	require.NoError(t, table.Confirm(context.Background(), domain.TransitionForm{Comment: "lgtm"}))

	assert.Nil(t, table.Dialog())
	f.client.AssertExpectations(t)
}

func TestPendingRequestTable_ConfirmRejectIgnoresCheckbox(t *testing.T) {
	f := newFixture(t)
	table, _ := newTable(f)

	f.client.On("RejectTransitionRequest", mock.Anything, mock.MatchedBy(func(cmd domain.TransitionCommand) bool {
		return cmd.Kind == domain.TransitionReject && !cmd.ArchiveExistingVersions
	})).Return(&domain.Activity{Type: domain.ActivityRejectedRequest}, nil).Once()

	checked := true
	_, err := table.OpenDialog("reviewable", domain.ActionRejectTransitionRequest)
	require.NoError(t, err)
	require.NoError(t, table.Confirm(context.Background(), domain.TransitionForm{ArchiveExistingVersions: &checked}))
	f.client.AssertExpectations(t)
}

func TestPendingRequestTable_CloseDialog(t *testing.T) {
	f := newFixture(t)
	table, _ := newTable(f)

	_, err := table.OpenDialog("cancel-only", domain.ActionCancelTransitionRequest)
	require.NoError(t, err)
	table.CloseDialog()
	assert.Nil(t, table.Dialog())
}
