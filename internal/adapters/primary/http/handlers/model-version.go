package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/adapters/primary/http/dto"
	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/services"
	"model-registry-service/internal/core/session"
)

func versionKey(c *gin.Context) domain.VersionKey {
	return domain.VersionKey{Name: c.Param("name"), Version: c.Param("version")}
}

func versionResponse(s *session.Session, v *domain.ModelVersion) dto.ModelVersionResponse {
	level := services.PermissionLevel(s.Services.Dispatcher.Store(), v.Key())
	return dto.ToModelVersionResponse(v, level)
}

func (h *Handler) SearchModelVersions(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	page, err := s.Services.Versions.Search(c.Request.Context(), searchFilter(c))
	if err != nil {
		log.WithError(err).Error("search model versions failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListResponse(page))
}

func (h *Handler) ListModelVersions(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	page, err := s.Services.Versions.ListForModel(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListResponse(page))
}

func (h *Handler) GetModelVersion(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	key := versionKey(c)
	v, err := s.Services.Versions.Get(c.Request.Context(), key.Name, key.Version)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, versionResponse(s, v))
}

func (h *Handler) CreateModelVersion(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.CreateModelVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := s.Services.Versions.Create(c.Request.Context(), req.Form(c.Param("name")))
	if err != nil {
		log.WithError(err).WithField("model", c.Param("name")).Error("create model version failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, versionResponse(s, v))
}

func (h *Handler) UpdateModelVersion(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.UpdateDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := versionKey(c)
	v, err := s.Services.Versions.UpdateDescription(c.Request.Context(), key.Name, key.Version, req.Description)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, versionResponse(s, v))
}

func (h *Handler) DeleteModelVersion(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	key := versionKey(c)
	if err := s.Services.Versions.Delete(c.Request.Context(), key.Name, key.Version); err != nil {
		mapDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) SetModelVersionTag(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.SetTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := versionKey(c)
	err := s.Services.Versions.SetTag(c.Request.Context(), key.Name, key.Version, domain.TagForm{Key: req.Key, Value: req.Value})
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteModelVersionTag(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	key := versionKey(c)
	if err := s.Services.Versions.DeleteTag(c.Request.Context(), key.Name, key.Version, c.Param("key")); err != nil {
		mapDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetArtifact returns the version's MLmodel file as text.
func (h *Handler) GetArtifact(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	key := versionKey(c)
	v, err := s.Services.Versions.Get(c.Request.Context(), key.Name, key.Version)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	content, err := s.Services.Versions.GetArtifact(c.Request.Context(), *v)
	if err != nil {
		log.WithError(err).WithField("version", key.String()).Warn("read model artifact failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ArtifactResponse{RunID: v.RunID, Path: v.ArtifactPath(), Content: string(content)})
}
