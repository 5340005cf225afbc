package domain

// Tag is a key/value pair on a registered model or model version. Keys are
// unique per entity.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type RegisteredModel struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	CreationTimestamp    int64           `json:"creation_timestamp"`
	LastUpdatedTimestamp int64           `json:"last_updated_timestamp"`
	Description          string          `json:"description"`
	Tags                 []Tag           `json:"tags"`
	PermissionLevel      PermissionLevel `json:"permission_level"`
	LatestVersions       []ModelVersion  `json:"latest_versions"`
}

// Page is one page of a list call. An empty NextPageToken means there is no
// next page.
type Page[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

// HasNext reports whether another page can be requested.
func (p Page[T]) HasNext() bool {
	return p.NextPageToken != ""
}

type SearchFilter struct {
	Filter     string
	MaxResults int
	OrderBy    []string
	PageToken  string
}

const (
	DefaultMaxResults = 25
	MaxMaxResults     = 1000
)

// Normalize clamps MaxResults into the range the backend accepts.
func (f SearchFilter) Normalize() SearchFilter {
	if f.MaxResults <= 0 {
		f.MaxResults = DefaultMaxResults
	}
	if f.MaxResults > MaxMaxResults {
		f.MaxResults = MaxMaxResults
	}
	return f
}

// CreateModelForm is the "create registered model" form.
type CreateModelForm struct {
	Name        string `json:"name" validate:"required,max=256"`
	Description string `json:"description" validate:"max=65535"`
}

// TagForm is the "add tag" form shared by models and versions.
type TagForm struct {
	Key   string `json:"key" validate:"required,max=250"`
	Value string `json:"value" validate:"max=5000"`
}
