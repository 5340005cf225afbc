// Package store is the per-session entity cache. It is keyed by model name and
// (name, version) and only ever changes through Dispatch.
package store

import (
	"sort"
	"sync"

	"model-registry-service/internal/core/domain"
)

type Store struct {
	mu sync.RWMutex

	listing     []string
	models      map[string]*domain.RegisteredModel
	modelTags   map[string][]domain.Tag
	versions    map[domain.VersionKey]*domain.ModelVersion
	versionTags map[domain.VersionKey][]domain.Tag
	activities  map[domain.VersionKey][]domain.Activity
	requests    map[domain.VersionKey][]domain.TransitionRequest
	artifacts   map[domain.VersionKey][]byte
	endpoints   map[string][]domain.ServingEndpoint

	revision uint64
}

func New() *Store {
	return &Store{
		models:      make(map[string]*domain.RegisteredModel),
		modelTags:   make(map[string][]domain.Tag),
		versions:    make(map[domain.VersionKey]*domain.ModelVersion),
		versionTags: make(map[domain.VersionKey][]domain.Tag),
		activities:  make(map[domain.VersionKey][]domain.Activity),
		requests:    make(map[domain.VersionKey][]domain.TransitionRequest),
		artifacts:   make(map[domain.VersionKey][]byte),
		endpoints:   make(map[string][]domain.ServingEndpoint),
	}
}

// Dispatch applies cmd atomically and reports whether it changed the cache.
// Fetched entities older than the cached copy are ignored.
func (s *Store) Dispatch(cmd Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := cmd.apply(s)
	if changed {
		s.revision++
	}
	return changed
}

// Revision increases every time a command changes the cache.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// ============================================================================
// Reads. Every read returns a copy.
// ============================================================================

// Models returns the models of the last search listing, in listing order.
func (s *Store) Models() []domain.RegisteredModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RegisteredModel, 0, len(s.listing))
	for _, name := range s.listing {
		if m, ok := s.models[name]; ok {
			out = append(out, s.modelCopy(m))
		}
	}
	return out
}

func (s *Store) Model(name string) (domain.RegisteredModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[name]
	if !ok {
		return domain.RegisteredModel{}, false
	}
	return s.modelCopy(m), true
}

// ModelTags returns the tags of a model. ok is false when the model has no
// tag entry at all.
func (s *Store) ModelTags(name string) ([]domain.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags, ok := s.modelTags[name]
	return cloneTags(tags), ok
}

func (s *Store) Version(key domain.VersionKey) (domain.ModelVersion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[key]
	if !ok {
		return domain.ModelVersion{}, false
	}
	return s.versionCopy(v), true
}

// Versions returns the cached versions of a model, newest first.
func (s *Store) Versions(name string) []domain.ModelVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ModelVersion
	for key, v := range s.versions {
		if key.Name == name {
			out = append(out, s.versionCopy(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreationTimestamp > out[j].CreationTimestamp
	})
	return out
}

func (s *Store) VersionTags(key domain.VersionKey) ([]domain.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags, ok := s.versionTags[key]
	return cloneTags(tags), ok
}

// Activities returns the audit log of a version ordered by creation time.
func (s *Store) Activities(key domain.VersionKey) []domain.Activity {
	s.mu.RLock()
	out := append([]domain.Activity(nil), s.activities[key]...)
	s.mu.RUnlock()
	domain.SortActivities(out)
	return out
}

func (s *Store) Activity(key domain.VersionKey, id string) (domain.Activity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.activities[key] {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Activity{}, false
}

func (s *Store) TransitionRequests(key domain.VersionKey) []domain.TransitionRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TransitionRequest(nil), s.requests[key]...)
}

func (s *Store) TransitionRequest(key domain.VersionKey, id string) (domain.TransitionRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests[key] {
		if r.ID == id {
			return r, true
		}
	}
	return domain.TransitionRequest{}, false
}

func (s *Store) Artifact(key domain.VersionKey) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.artifacts[key]
	return append([]byte(nil), b...), ok
}

func (s *Store) Endpoints(modelName string) []domain.ServingEndpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ServingEndpoint(nil), s.endpoints[modelName]...)
}

func (s *Store) modelCopy(m *domain.RegisteredModel) domain.RegisteredModel {
	out := *m
	out.Tags = cloneTags(s.modelTags[m.Name])
	return out
}

func (s *Store) versionCopy(v *domain.ModelVersion) domain.ModelVersion {
	out := *v
	out.Tags = cloneTags(s.versionTags[v.Key()])
	out.OpenRequests = append([]domain.TransitionRequest(nil), v.OpenRequests...)
	return out
}

// ----------------------------------------------------------------------------
// tag helpers
// ----------------------------------------------------------------------------

// setTag replaces the value of an existing key in place or appends a new tag.
func setTag(tags []domain.Tag, tag domain.Tag) []domain.Tag {
	for i := range tags {
		if tags[i].Key == tag.Key {
			tags[i].Value = tag.Value
			return tags
		}
	}
	return append(tags, tag)
}

func deleteTag(tags []domain.Tag, key string) []domain.Tag {
	out := tags[:0]
	for _, t := range tags {
		if t.Key != key {
			out = append(out, t)
		}
	}
	return out
}

// replaceTags stores server tags for an entity, dropping the entry when empty.
func replaceTags[K comparable](m map[K][]domain.Tag, key K, tags []domain.Tag) {
	if len(tags) == 0 {
		delete(m, key)
		return
	}
	var merged []domain.Tag
	for _, t := range tags {
		merged = setTag(merged, t)
	}
	m[key] = merged
}

func cloneTags(tags []domain.Tag) []domain.Tag {
	if tags == nil {
		return nil
	}
	return append([]domain.Tag(nil), tags...)
}
