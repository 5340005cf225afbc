package registryapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-registry-service/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:      srv.URL + "/",
		RetryMax:     2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_GetModelVersion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/2.0/mlflow/model-versions/get", r.URL.Path)
		assert.Equal(t, "fraud", r.URL.Query().Get("name"))
		assert.Equal(t, "3", r.URL.Query().Get("version"))
		writeJSON(w, http.StatusOK, `{"model_version": {
			"name": "fraud", "version": "3", "current_stage": "Staging",
			"source": "runs:/abc/model", "run_id": "abc",
			"last_updated_timestamp": 1700000000000,
			"permission_level": "CAN_MANAGE_STAGING_VERSIONS"
		}}`)
	})

	v, err := c.GetModelVersion(context.Background(), "fraud", "3")
	require.NoError(t, err)
	assert.Equal(t, domain.StageStaging, v.CurrentStage)
	assert.Equal(t, int64(1700000000000), v.LastUpdatedTimestamp)
	assert.Equal(t, domain.PermissionCanManageStagingVersions, v.PermissionLevel)
	assert.NotNil(t, v.Tags)
}

func TestClient_SearchRegisteredModels_MissingFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "25", q.Get("max_results"))
		assert.Equal(t, []string{"name ASC", "last_updated_timestamp DESC"}, q["order_by"])
		assert.Empty(t, q.Get("page_token"))
		writeJSON(w, http.StatusOK, `{}`)
	})

	page, err := c.SearchRegisteredModels(context.Background(), domain.SearchFilter{
		MaxResults: 25,
		OrderBy:    []string{"name ASC", "last_updated_timestamp DESC"},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasNext())
}

func TestClient_SearchModelVersions_DefaultsStage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "name='fraud'", r.URL.Query().Get("filter"))
		writeJSON(w, http.StatusOK, `{"model_versions": [{"name": "fraud", "version": "1"}], "next_page_token": "n2"}`)
	})

	page, err := c.SearchModelVersions(context.Background(), domain.SearchFilter{Filter: "name='fraud'"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.StageNone, page.Items[0].CurrentStage)
	assert.Equal(t, "n2", page.NextPageToken)
}

func TestClient_ErrorPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error_code": "RESOURCE_DOES_NOT_EXIST", "message": "Registered Model with name=fraud not found"}`)
	})

	_, err := c.GetRegisteredModel(context.Background(), "fraud")
	require.Error(t, err)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, domain.ErrorCodeResourceDoesNotExist, apiErr.Code)
	assert.Equal(t, "Registered Model with name=fraud not found", apiErr.Message)
	assert.True(t, domain.IsNotFound(err))
}

func TestClient_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "<html>denied</html>")
	})

	err := c.DeleteRegisteredModel(context.Background(), "fraud")

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, domain.ErrorCodePermissionDenied, apiErr.Code)
	assert.Equal(t, "Forbidden", apiErr.Message)
}

func TestClient_RetriesReadsOnly(t *testing.T) {
	var gets, posts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if gets.Add(1) == 1 {
				writeJSON(w, http.StatusServiceUnavailable, `{"error_code": "TEMPORARILY_UNAVAILABLE"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"requests": []}`)
			return
		}
		posts.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, `{"error_code": "TEMPORARILY_UNAVAILABLE"}`)
	})

	_, err := c.ListTransitionRequests(context.Background(), "fraud", "1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), gets.Load())

	_, err = c.TransitionStage(context.Background(), domain.TransitionCommand{
		Name: "fraud", Version: "1", ToStage: domain.StageProduction,
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), posts.Load())
}

func TestClient_TransitionStageBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/model-versions/transition-stage", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Production", body["stage"])
		assert.Equal(t, false, body["archive_existing_versions"])
		assert.Equal(t, "ship", body["comment"])
		writeJSON(w, http.StatusOK, `{"model_version": {"name": "fraud", "version": "1", "current_stage": "Production"}}`)
	})

	v, err := c.TransitionStage(context.Background(), domain.TransitionCommand{
		Kind: domain.TransitionApply, Name: "fraud", Version: "1",
		ToStage: domain.StageProduction, Comment: "ship",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageProduction, v.CurrentStage)
}

func TestClient_CancelSendsCreator(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/2.0/mlflow/transition-requests/delete", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["creator"])
		assert.Equal(t, "Staging", body["stage"])
		writeJSON(w, http.StatusOK, `{"activity": {"id": "a9", "activity_type": "CANCELLED_REQUEST"}}`)
	})

	act, err := c.CancelTransitionRequest(context.Background(), domain.TransitionCommand{
		Kind: domain.TransitionCancel, Name: "fraud", Version: "1",
		ToStage: domain.StageStaging, Creator: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityCancelledRequest, act.Type)
}

func TestClient_ListTransitionRequests_FillsIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"requests": [
			{"to_stage": "Production", "user_id": "alice", "creation_timestamp": 5,
			 "available_actions": ["CANCEL_TRANSITION_REQUEST"]},
			{"id": "r2", "to_stage": "Staging", "user_id": "bob", "creation_timestamp": 6}
		]}`)
	})

	reqs, err := c.ListTransitionRequests(context.Background(), "fraud", "1")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "Production-alice-5", reqs[0].ID)
	assert.Equal(t, []domain.Action{domain.ActionCancelTransitionRequest}, reqs[0].AvailableActions)
	assert.Equal(t, "r2", reqs[1].ID)
}

func TestClient_ListActivities_MissingArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	acts, err := c.ListActivities(context.Background(), "fraud", "1")
	require.NoError(t, err)
	assert.NotNil(t, acts)
	assert.Empty(t, acts)
}

func TestClient_ForUserForwardsIdentity(t *testing.T) {
	var seen atomic.Value
	base := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get(UserHeader))
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := base.ForUser("alice").ListActivities(context.Background(), "fraud", "1")
	require.NoError(t, err)
	assert.Equal(t, "alice", seen.Load())

	_, err = base.ListActivities(context.Background(), "fraud", "1")
	require.NoError(t, err)
	assert.Equal(t, "", seen.Load())
}

func TestClient_GetArtifact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-artifact", r.URL.Path)
		assert.Equal(t, "abc", r.URL.Query().Get("run_id"))
		assert.Equal(t, "model/MLmodel", r.URL.Query().Get("path"))
		_, _ = io.WriteString(w, "artifact_path: model\nflavors: {}\n")
	})

	b, err := c.GetArtifact(context.Background(), "abc", "model/MLmodel")
	require.NoError(t, err)
	assert.Contains(t, string(b), "flavors")
}

func TestClient_GetEndpointStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fraud", r.URL.Query().Get("registered_model_name"))
		writeJSON(w, http.StatusOK, `{"endpoints": [
			{"name": "fraud-prod", "state": "READY", "model_version": "3"},
			{"name": "fraud-old", "state": "WEIRD"}
		]}`)
	})

	eps, err := c.GetEndpointStatus(context.Background(), "fraud")
	require.NoError(t, err)
	require.Len(t, eps, 2)
	assert.Equal(t, "fraud", eps[0].ModelName)
	assert.Equal(t, domain.EndpointSourceBackend, eps[0].Source)
	assert.Equal(t, domain.EndpointStatePending, eps[1].State)
}

func TestClient_CreateCommentDefaultsType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/comments/create", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"comment": {"id": "c1", "comment": "hi"}}`)
	})

	act, err := c.CreateComment(context.Background(), "fraud", "1", "hi")
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityNewComment, act.Type)
}
