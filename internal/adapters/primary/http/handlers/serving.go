package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/adapters/primary/http/dto"
	"model-registry-service/internal/core/domain"
)

func (h *Handler) ListServingEndpoints(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	name := c.Param("name")
	eps, err := s.Services.Serving.Endpoints(c.Request.Context(), name)
	if err != nil {
		log.WithError(err).WithField("model", name).Warn("list serving endpoints failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ServingEndpointsResponse{ModelName: name, Items: eps})
}

// GetMonitoring decodes the version's monitoring tags. The version is
// fetched first so the tags are current.
func (h *Handler) GetMonitoring(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	if !s.Services.Features().Monitoring {
		c.JSON(http.StatusOK, dto.MonitoringResponse{Enabled: false})
		return
	}

	key := versionKey(c)
	if _, err := s.Services.Versions.Get(c.Request.Context(), key.Name, key.Version); err != nil {
		mapDomainError(c, err)
		return
	}

	entries := s.Services.Monitoring.Entries(key)
	if entries == nil {
		entries = []domain.MonitoringEntry{}
	}
	c.JSON(http.StatusOK, dto.MonitoringResponse{Enabled: true, Items: entries})
}
