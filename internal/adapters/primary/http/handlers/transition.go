package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/adapters/primary/http/dto"
	"model-registry-service/internal/core/domain"
)

// ApplyTransition moves a version to another stage directly.
func (h *Handler) ApplyTransition(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	req, to, ok := bindTransition(c)
	if !ok {
		return
	}

	key := versionKey(c)
	v, err := s.Services.Transitions.Apply(c.Request.Context(), key.Name, key.Version, to, req.Form())
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"version": key.String(), "to": to}).Warn("apply transition failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, versionResponse(s, v))
}

func (h *Handler) ListTransitionRequests(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	reqs, err := s.Services.Activities.ListTransitionRequests(c.Request.Context(), versionKey(c))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransitionRequestsResponse{Items: reqs})
}

func (h *Handler) RequestTransition(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	req, to, ok := bindTransition(c)
	if !ok {
		return
	}

	key := versionKey(c)
	created, err := s.Services.Transitions.Request(c.Request.Context(), key.Name, key.Version, to, req.Form())
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"version": key.String(), "to": to}).Warn("request transition failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ApproveRequest(c *gin.Context) {
	h.resolveRequest(c, domain.TransitionApprove)
}

func (h *Handler) RejectRequest(c *gin.Context) {
	h.resolveRequest(c, domain.TransitionReject)
}

func (h *Handler) CancelRequest(c *gin.Context) {
	h.resolveRequest(c, domain.TransitionCancel)
}

func (h *Handler) resolveRequest(c *gin.Context, kind domain.TransitionKind) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.ResolveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := versionKey(c)
	requestID := c.Param("request_id")
	if err := s.Services.Transitions.Resolve(c.Request.Context(), kind, key, requestID, req.Form()); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"version": key.String(),
			"request": requestID,
			"kind":    kind,
		}).Warn("resolve transition request failed")
		mapDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bindTransition reads a transition body and resolves its target stage.
func bindTransition(c *gin.Context) (dto.TransitionStageRequest, domain.Stage, bool) {
	var req dto.TransitionStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, "", false
	}
	if err := domain.ValidateForm(req); err != nil {
		mapDomainError(c, err)
		return req, "", false
	}
	to, err := domain.ParseStage(req.ToStage)
	if err != nil {
		mapDomainError(c, err)
		return req, "", false
	}
	return req, to, true
}
