package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/adapters/primary/http/dto"
	"model-registry-service/internal/core/domain"
)

func (h *Handler) SearchModels(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	page, err := s.Services.Models.Search(c.Request.Context(), searchFilter(c))
	if err != nil {
		log.WithError(err).Error("search registered models failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.RegisteredModelResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.ToRegisteredModelResponse(&page.Items[i]))
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.RegisteredModelResponse]{
		Items:         items,
		NextPageToken: page.NextPageToken,
		HasNext:       page.HasNext(),
	})
}

func (h *Handler) GetModel(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	model, err := s.Services.Models.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRegisteredModelResponse(model))
}

func (h *Handler) CreateModel(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.CreateRegisteredModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model, err := s.Services.Models.Create(c.Request.Context(), domain.CreateModelForm{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		log.WithError(err).WithField("model", req.Name).Error("create registered model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRegisteredModelResponse(model))
}

func (h *Handler) UpdateModel(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.UpdateDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model, err := s.Services.Models.UpdateDescription(c.Request.Context(), c.Param("name"), req.Description)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRegisteredModelResponse(model))
}

func (h *Handler) DeleteModel(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	if err := s.Services.Models.Delete(c.Request.Context(), c.Param("name")); err != nil {
		mapDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) SetModelTag(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.SetTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.Services.Models.SetTag(c.Request.Context(), c.Param("name"), domain.TagForm{Key: req.Key, Value: req.Value})
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteModelTag(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	if err := s.Services.Models.DeleteTag(c.Request.Context(), c.Param("name"), c.Param("key")); err != nil {
		mapDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// searchFilter reads filter, max_results, order_by (repeatable) and
// page_token. Out-of-range page sizes are clamped by the service.
func searchFilter(c *gin.Context) domain.SearchFilter {
	maxResults, _ := strconv.Atoi(c.DefaultQuery("max_results", strconv.Itoa(domain.DefaultMaxResults)))
	return domain.SearchFilter{
		Filter:     c.Query("filter"),
		MaxResults: maxResults,
		OrderBy:    c.QueryArray("order_by"),
		PageToken:  c.Query("page_token"),
	}
}
