package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"model-registry-service/internal/adapters/primary/http/dto"
	"model-registry-service/internal/core/domain"
)

func (h *Handler) ListActivities(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	acts, err := s.Services.Activities.ListActivities(c.Request.Context(), versionKey(c))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ActivitiesResponse{Items: acts})
}

func (h *Handler) CreateComment(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	act, err := s.Services.Comments.Create(c.Request.Context(), versionKey(c), domain.CommentForm{Comment: req.Comment})
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, act)
}

func (h *Handler) UpdateComment(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	act, err := s.Services.Comments.Update(c.Request.Context(), versionKey(c), c.Param("comment_id"), domain.CommentForm{Comment: req.Comment})
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, act)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	if err := s.Services.Comments.Delete(c.Request.Context(), versionKey(c), c.Param("comment_id")); err != nil {
		mapDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
