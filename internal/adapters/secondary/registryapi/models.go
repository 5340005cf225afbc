package registryapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"model-registry-service/internal/core/domain"
)

// ============================================================================
// Registered models
// ============================================================================

func (c *Client) SearchRegisteredModels(ctx context.Context, filter domain.SearchFilter) (domain.Page[domain.RegisteredModel], error) {
	var out struct {
		RegisteredModels []domain.RegisteredModel `json:"registered_models"`
		NextPageToken    string                   `json:"next_page_token"`
	}
	if err := c.get(ctx, "/registered-models/search", searchQuery(filter), &out); err != nil {
		return domain.Page[domain.RegisteredModel]{}, err
	}
	items := make([]domain.RegisteredModel, 0, len(out.RegisteredModels))
	for i := range out.RegisteredModels {
		items = append(items, normalizeModel(out.RegisteredModels[i]))
	}
	return domain.Page[domain.RegisteredModel]{Items: items, NextPageToken: out.NextPageToken}, nil
}

func (c *Client) GetRegisteredModel(ctx context.Context, name string) (*domain.RegisteredModel, error) {
	var out modelEnvelope
	if err := c.get(ctx, "/registered-models/get", url.Values{"name": {name}}, &out); err != nil {
		return nil, err
	}
	return out.model(), nil
}

func (c *Client) CreateRegisteredModel(ctx context.Context, form domain.CreateModelForm) (*domain.RegisteredModel, error) {
	var out modelEnvelope
	body := map[string]interface{}{"name": form.Name, "description": form.Description}
	if err := c.send(ctx, http.MethodPost, "/registered-models/create", body, &out); err != nil {
		return nil, err
	}
	return out.model(), nil
}

func (c *Client) UpdateRegisteredModel(ctx context.Context, name, description string) (*domain.RegisteredModel, error) {
	var out modelEnvelope
	body := map[string]interface{}{"name": name, "description": description}
	if err := c.send(ctx, http.MethodPatch, "/registered-models/update", body, &out); err != nil {
		return nil, err
	}
	return out.model(), nil
}

func (c *Client) DeleteRegisteredModel(ctx context.Context, name string) error {
	return c.send(ctx, http.MethodDelete, "/registered-models/delete", map[string]interface{}{"name": name}, nil)
}

func (c *Client) SetRegisteredModelTag(ctx context.Context, name string, tag domain.Tag) error {
	body := map[string]interface{}{"name": name, "key": tag.Key, "value": tag.Value}
	return c.send(ctx, http.MethodPost, "/registered-models/set-tag", body, nil)
}

func (c *Client) DeleteRegisteredModelTag(ctx context.Context, name, key string) error {
	body := map[string]interface{}{"name": name, "key": key}
	return c.send(ctx, http.MethodDelete, "/registered-models/delete-tag", body, nil)
}

// ============================================================================
// Model versions
// ============================================================================

func (c *Client) CreateModelVersion(ctx context.Context, form domain.CreateVersionForm) (*domain.ModelVersion, error) {
	var out versionEnvelope
	body := map[string]interface{}{
		"name":        form.Name,
		"source":      form.Source,
		"run_id":      form.RunID,
		"run_link":    form.RunLink,
		"description": form.Description,
		"tags":        nonNil(form.Tags),
	}
	if err := c.send(ctx, http.MethodPost, "/model-versions/create", body, &out); err != nil {
		return nil, err
	}
	return out.version(), nil
}

func (c *Client) SearchModelVersions(ctx context.Context, filter domain.SearchFilter) (domain.Page[domain.ModelVersion], error) {
	var out struct {
		ModelVersions []domain.ModelVersion `json:"model_versions"`
		NextPageToken string                `json:"next_page_token"`
	}
	if err := c.get(ctx, "/model-versions/search", searchQuery(filter), &out); err != nil {
		return domain.Page[domain.ModelVersion]{}, err
	}
	items := make([]domain.ModelVersion, 0, len(out.ModelVersions))
	for i := range out.ModelVersions {
		items = append(items, normalizeVersion(out.ModelVersions[i]))
	}
	return domain.Page[domain.ModelVersion]{Items: items, NextPageToken: out.NextPageToken}, nil
}

func (c *Client) GetModelVersion(ctx context.Context, name, version string) (*domain.ModelVersion, error) {
	var out versionEnvelope
	if err := c.get(ctx, "/model-versions/get", versionQuery(name, version), &out); err != nil {
		return nil, err
	}
	return out.version(), nil
}

func (c *Client) UpdateModelVersion(ctx context.Context, name, version, description string) (*domain.ModelVersion, error) {
	var out versionEnvelope
	body := map[string]interface{}{"name": name, "version": version, "description": description}
	if err := c.send(ctx, http.MethodPatch, "/model-versions/update", body, &out); err != nil {
		return nil, err
	}
	return out.version(), nil
}

func (c *Client) DeleteModelVersion(ctx context.Context, name, version string) error {
	body := map[string]interface{}{"name": name, "version": version}
	return c.send(ctx, http.MethodDelete, "/model-versions/delete", body, nil)
}

func (c *Client) SetModelVersionTag(ctx context.Context, name, version string, tag domain.Tag) error {
	body := map[string]interface{}{"name": name, "version": version, "key": tag.Key, "value": tag.Value}
	return c.send(ctx, http.MethodPost, "/model-versions/set-tag", body, nil)
}

func (c *Client) DeleteModelVersionTag(ctx context.Context, name, version, key string) error {
	body := map[string]interface{}{"name": name, "version": version, "key": key}
	return c.send(ctx, http.MethodDelete, "/model-versions/delete-tag", body, nil)
}

// GetArtifact downloads one file of a run's artifacts. The endpoint lives
// outside the versioned API prefix.
func (c *Client) GetArtifact(ctx context.Context, runID, path string) ([]byte, error) {
	query := url.Values{"run_id": {runID}, "path": {path}}
	return c.roundTrip(ctx, http.MethodGet, "/get-artifact", query, nil)
}

func searchQuery(f domain.SearchFilter) url.Values {
	q := url.Values{}
	if f.Filter != "" {
		q.Set("filter", f.Filter)
	}
	if f.MaxResults > 0 {
		q.Set("max_results", strconv.Itoa(f.MaxResults))
	}
	for _, o := range f.OrderBy {
		q.Add("order_by", o)
	}
	if f.PageToken != "" {
		q.Set("page_token", f.PageToken)
	}
	return q
}

func versionQuery(name, version string) url.Values {
	return url.Values{"name": {name}, "version": {version}}
}
