package store

import (
	"model-registry-service/internal/core/domain"
)

// Command is a store mutation. The set of commands is closed: only types in
// this package implement it.
type Command interface {
	apply(s *Store) bool
}

// ============================================================================
// Registered models
// ============================================================================

// ModelsListed replaces the cached search listing and merges each model.
type ModelsListed struct {
	Models []domain.RegisteredModel
}

type ModelFetched struct {
	Model domain.RegisteredModel
}

// ModelDeleted removes a model and everything cached under it. It never calls
// the backend, so it doubles as the local cleanup after a not-found read.
type ModelDeleted struct {
	Name string
}

type ModelTagSet struct {
	Name string
	Tag  domain.Tag
}

type ModelTagDeleted struct {
	Name string
	Key  string
}

func (c ModelsListed) apply(s *Store) bool {
	names := make([]string, 0, len(c.Models))
	for i := range c.Models {
		s.mergeModel(c.Models[i])
		names = append(names, c.Models[i].Name)
	}
	s.listing = names
	return true
}

func (c ModelFetched) apply(s *Store) bool {
	return s.mergeModel(c.Model)
}

func (c ModelDeleted) apply(s *Store) bool {
	_, existed := s.models[c.Name]
	delete(s.models, c.Name)
	delete(s.modelTags, c.Name)
	delete(s.endpoints, c.Name)
	for key := range s.versions {
		if key.Name == c.Name {
			s.dropVersion(key)
		}
	}
	return existed
}

func (c ModelTagSet) apply(s *Store) bool {
	if _, ok := s.models[c.Name]; !ok {
		return false
	}
	s.modelTags[c.Name] = setTag(s.modelTags[c.Name], c.Tag)
	return true
}

func (c ModelTagDeleted) apply(s *Store) bool {
	tags, ok := s.modelTags[c.Name]
	if !ok {
		return false
	}
	if rest := deleteTag(tags, c.Key); len(rest) > 0 {
		s.modelTags[c.Name] = rest
	} else {
		delete(s.modelTags, c.Name)
	}
	return true
}

// ============================================================================
// Model versions
// ============================================================================

type VersionsListed struct {
	Versions []domain.ModelVersion
}

type VersionFetched struct {
	Version domain.ModelVersion
}

// VersionDeleted is the local-only removal of a version and its activities,
// pending requests and artifact.
type VersionDeleted struct {
	Key domain.VersionKey
}

type VersionTagSet struct {
	Key domain.VersionKey
	Tag domain.Tag
}

type VersionTagDeleted struct {
	Key    domain.VersionKey
	TagKey string
}

type ArtifactFetched struct {
	Key     domain.VersionKey
	Content []byte
}

func (c VersionsListed) apply(s *Store) bool {
	changed := false
	for i := range c.Versions {
		if s.mergeVersion(c.Versions[i]) {
			changed = true
		}
	}
	return changed
}

func (c VersionFetched) apply(s *Store) bool {
	return s.mergeVersion(c.Version)
}

func (c VersionDeleted) apply(s *Store) bool {
	_, existed := s.versions[c.Key]
	s.dropVersion(c.Key)
	return existed
}

func (c VersionTagSet) apply(s *Store) bool {
	if _, ok := s.versions[c.Key]; !ok {
		return false
	}
	s.versionTags[c.Key] = setTag(s.versionTags[c.Key], c.Tag)
	return true
}

func (c VersionTagDeleted) apply(s *Store) bool {
	tags, ok := s.versionTags[c.Key]
	if !ok {
		return false
	}
	if rest := deleteTag(tags, c.TagKey); len(rest) > 0 {
		s.versionTags[c.Key] = rest
	} else {
		delete(s.versionTags, c.Key)
	}
	return true
}

func (c ArtifactFetched) apply(s *Store) bool {
	s.artifacts[c.Key] = append([]byte(nil), c.Content...)
	return true
}

// ============================================================================
// Activities, transition requests, serving
// ============================================================================

// ActivitiesListed replaces the audit log of one version with server data.
type ActivitiesListed struct {
	Key        domain.VersionKey
	Activities []domain.Activity
}

// TransitionRequestsListed replaces the pending requests of one version.
type TransitionRequestsListed struct {
	Key      domain.VersionKey
	Requests []domain.TransitionRequest
}

type EndpointsFetched struct {
	ModelName string
	Endpoints []domain.ServingEndpoint
}

func (c ActivitiesListed) apply(s *Store) bool {
	s.activities[c.Key] = append([]domain.Activity(nil), c.Activities...)
	return true
}

func (c TransitionRequestsListed) apply(s *Store) bool {
	s.requests[c.Key] = append([]domain.TransitionRequest(nil), c.Requests...)
	if v, ok := s.versions[c.Key]; ok {
		v.OpenRequests = append([]domain.TransitionRequest(nil), c.Requests...)
	}
	return true
}

func (c EndpointsFetched) apply(s *Store) bool {
	s.endpoints[c.ModelName] = append([]domain.ServingEndpoint(nil), c.Endpoints...)
	return true
}

// ----------------------------------------------------------------------------
// helpers, called under the write lock
// ----------------------------------------------------------------------------

// mergeModel stores m unless the cached copy is newer. Latest versions are
// merged into the version cache.
func (s *Store) mergeModel(m domain.RegisteredModel) bool {
	if cached, ok := s.models[m.Name]; ok && cached.LastUpdatedTimestamp > m.LastUpdatedTimestamp {
		return false
	}
	tags, latest := m.Tags, m.LatestVersions
	m.Tags = nil
	m.LatestVersions = nil
	s.models[m.Name] = &m
	replaceTags(s.modelTags, m.Name, tags)
	for i := range latest {
		s.mergeVersion(latest[i])
	}
	return true
}

// mergeVersion stores v unless the cached copy is newer.
func (s *Store) mergeVersion(v domain.ModelVersion) bool {
	key := v.Key()
	if cached, ok := s.versions[key]; ok && cached.LastUpdatedTimestamp > v.LastUpdatedTimestamp {
		return false
	}
	tags := v.Tags
	v.Tags = nil
	s.versions[key] = &v
	replaceTags(s.versionTags, key, tags)
	if v.OpenRequests != nil {
		s.requests[key] = append([]domain.TransitionRequest(nil), v.OpenRequests...)
	}
	return true
}

func (s *Store) dropVersion(key domain.VersionKey) {
	delete(s.versions, key)
	delete(s.versionTags, key)
	delete(s.activities, key)
	delete(s.requests, key)
	delete(s.artifacts, key)
}
