package registryapi

import (
	"context"
	"net/http"
	"net/url"

	"model-registry-service/internal/core/domain"
)

// ============================================================================
// Stage transitions
// ============================================================================

func (c *Client) TransitionStage(ctx context.Context, cmd domain.TransitionCommand) (*domain.ModelVersion, error) {
	var out versionEnvelope
	body := map[string]interface{}{
		"name":                      cmd.Name,
		"version":                   cmd.Version,
		"stage":                     cmd.ToStage,
		"archive_existing_versions": cmd.ArchiveExistingVersions,
		"comment":                   cmd.Comment,
	}
	if err := c.send(ctx, http.MethodPost, "/model-versions/transition-stage", body, &out); err != nil {
		return nil, err
	}
	return out.version(), nil
}

func (c *Client) CreateTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.TransitionRequest, error) {
	var out struct {
		Request domain.TransitionRequest `json:"request"`
	}
	body := map[string]interface{}{
		"name":    cmd.Name,
		"version": cmd.Version,
		"stage":   cmd.ToStage,
		"comment": cmd.Comment,
	}
	if err := c.send(ctx, http.MethodPost, "/transition-requests/create", body, &out); err != nil {
		return nil, err
	}
	r := normalizeRequest(out.Request)
	return &r, nil
}

func (c *Client) ApproveTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.Activity, error) {
	body := map[string]interface{}{
		"name":                      cmd.Name,
		"version":                   cmd.Version,
		"stage":                     cmd.ToStage,
		"archive_existing_versions": cmd.ArchiveExistingVersions,
		"comment":                   cmd.Comment,
	}
	return c.activityCall(ctx, http.MethodPost, "/transition-requests/approve", body)
}

func (c *Client) RejectTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.Activity, error) {
	body := map[string]interface{}{
		"name":    cmd.Name,
		"version": cmd.Version,
		"stage":   cmd.ToStage,
		"comment": cmd.Comment,
	}
	return c.activityCall(ctx, http.MethodPost, "/transition-requests/reject", body)
}

// CancelTransitionRequest deletes a pending request. The backend identifies
// it by stage and creator.
func (c *Client) CancelTransitionRequest(ctx context.Context, cmd domain.TransitionCommand) (*domain.Activity, error) {
	body := map[string]interface{}{
		"name":    cmd.Name,
		"version": cmd.Version,
		"stage":   cmd.ToStage,
		"creator": cmd.Creator,
		"comment": cmd.Comment,
	}
	return c.activityCall(ctx, http.MethodDelete, "/transition-requests/delete", body)
}

func (c *Client) ListTransitionRequests(ctx context.Context, name, version string) ([]domain.TransitionRequest, error) {
	var out struct {
		Requests []domain.TransitionRequest `json:"requests"`
	}
	if err := c.get(ctx, "/transition-requests/list", versionQuery(name, version), &out); err != nil {
		return nil, err
	}
	reqs := make([]domain.TransitionRequest, 0, len(out.Requests))
	for _, r := range out.Requests {
		reqs = append(reqs, normalizeRequest(r))
	}
	return reqs, nil
}

// ============================================================================
// Comments and activities
// ============================================================================

func (c *Client) CreateComment(ctx context.Context, name, version, comment string) (*domain.Activity, error) {
	body := map[string]interface{}{"name": name, "version": version, "comment": comment}
	return c.commentCall(ctx, http.MethodPost, "/comments/create", body)
}

func (c *Client) UpdateComment(ctx context.Context, id, comment string) (*domain.Activity, error) {
	body := map[string]interface{}{"id": id, "comment": comment}
	return c.commentCall(ctx, http.MethodPatch, "/comments/update", body)
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/comments/delete", map[string]interface{}{"id": id}, nil)
}

func (c *Client) ListActivities(ctx context.Context, name, version string) ([]domain.Activity, error) {
	var out struct {
		Activities []domain.Activity `json:"activities"`
	}
	if err := c.get(ctx, "/activities/list", versionQuery(name, version), &out); err != nil {
		return nil, err
	}
	if out.Activities == nil {
		return []domain.Activity{}, nil
	}
	return out.Activities, nil
}

// ============================================================================
// Serving
// ============================================================================

func (c *Client) GetEndpointStatus(ctx context.Context, modelName string) ([]domain.ServingEndpoint, error) {
	var out struct {
		Endpoints []domain.ServingEndpoint `json:"endpoints"`
	}
	query := url.Values{"registered_model_name": {modelName}}
	if err := c.get(ctx, "/endpoints/get-status", query, &out); err != nil {
		return nil, err
	}
	eps := make([]domain.ServingEndpoint, 0, len(out.Endpoints))
	for _, ep := range out.Endpoints {
		if ep.ModelName == "" {
			ep.ModelName = modelName
		}
		if !ep.State.IsValid() {
			ep.State = domain.EndpointStatePending
		}
		ep.Source = domain.EndpointSourceBackend
		eps = append(eps, ep)
	}
	return eps, nil
}

func (c *Client) activityCall(ctx context.Context, method, path string, body interface{}) (*domain.Activity, error) {
	var out struct {
		Activity domain.Activity `json:"activity"`
	}
	if err := c.send(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out.Activity, nil
}

func (c *Client) commentCall(ctx context.Context, method, path string, body interface{}) (*domain.Activity, error) {
	var out struct {
		Comment domain.Activity `json:"comment"`
	}
	if err := c.send(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	act := out.Comment
	if act.Type == "" {
		act.Type = domain.ActivityNewComment
	}
	return &act, nil
}
