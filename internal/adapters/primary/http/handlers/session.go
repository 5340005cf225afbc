package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/adapters/primary/http/dto"
	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/services"
)

func (h *Handler) OpenSession(c *gin.Context) {
	s := h.sessions.Open(c.GetHeader(HeaderUserID))
	c.Header(HeaderSessionID, s.ID)
	c.JSON(http.StatusCreated, dto.ToSessionResponse(s))
}

func (h *Handler) GetSession(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToSessionResponse(s))
}

func (h *Handler) CloseSession(c *gin.Context) {
	id := c.GetHeader(HeaderSessionID)
	if id == "" {
		mapDomainError(c, domain.ErrMissingSessionID)
		return
	}
	if err := h.sessions.Close(id); err != nil {
		mapDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetVisibility records whether the browser tab is visible. Hidden sessions
// skip polling.
func (h *Handler) SetVisibility(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.SetVisible(*req.Visible)
	c.JSON(http.StatusOK, dto.ToSessionResponse(s))
}

func (h *Handler) DrainNotifications(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}
	items := s.DrainNotifications()
	redirects := s.Redirects()
	if redirects == nil {
		redirects = []string{}
	}
	c.JSON(http.StatusOK, dto.NotificationsResponse{Items: items, Redirects: redirects})
}

// ============================================================================
// Pages
// ============================================================================

func (h *Handler) MountPage(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req dto.MountPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := s.Mount(req.Kind, req.Name, req.Version)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, page.View())
}

func (h *Handler) ViewPage(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}
	page, err := s.Page(c.Param("page_id"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, page.View())
}

func (h *Handler) UnmountPage(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}
	if err := s.Unmount(c.Param("page_id")); err != nil {
		mapDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ============================================================================
// Confirmation dialog
// ============================================================================

// pageTable returns the pending-request table of the addressed page.
func (h *Handler) pageTable(c *gin.Context) (*services.PendingRequestTable, bool) {
	s, ok := h.currentSession(c)
	if !ok {
		return nil, false
	}
	page, err := s.Page(c.Param("page_id"))
	if err != nil {
		mapDomainError(c, err)
		return nil, false
	}
	table, ok := services.Table(page)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page has no pending requests"})
		return nil, false
	}
	return table, true
}

func (h *Handler) OpenDialog(c *gin.Context) {
	table, ok := h.pageTable(c)
	if !ok {
		return
	}

	var req dto.OpenDialogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dlg, err := table.OpenDialog(c.Param("request_id"), domain.Action(req.Action))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dlg)
}

func (h *Handler) GetDialog(c *gin.Context) {
	table, ok := h.pageTable(c)
	if !ok {
		return
	}
	dlg := table.Dialog()
	if dlg == nil {
		mapDomainError(c, domain.ErrNoOpenDialog)
		return
	}
	c.JSON(http.StatusOK, dlg)
}

func (h *Handler) ConfirmDialog(c *gin.Context) {
	table, ok := h.pageTable(c)
	if !ok {
		return
	}

	var req dto.ResolveRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := table.Confirm(c.Request.Context(), req.Form()); err != nil {
		log.WithError(err).WithField("page", c.Param("page_id")).Warn("confirm transition dialog failed")
		mapDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CloseDialog(c *gin.Context) {
	table, ok := h.pageTable(c)
	if !ok {
		return
	}
	table.CloseDialog()
	c.Status(http.StatusNoContent)
}
