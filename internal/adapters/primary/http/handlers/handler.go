package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"model-registry-service/internal/core/session"
)

const (
	HeaderSessionID = "X-Session-ID"
	HeaderUserID    = "X-User-ID"
)

type Handler struct {
	sessions *session.Manager
}

func New(sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Sessions
	r.POST("/sessions", h.OpenSession)
	r.GET("/session", h.GetSession)
	r.DELETE("/session", h.CloseSession)
	r.PUT("/session/visibility", h.SetVisibility)
	r.GET("/session/notifications", h.DrainNotifications)

	// Pages
	r.POST("/pages", h.MountPage)
	r.GET("/pages/:page_id", h.ViewPage)
	r.DELETE("/pages/:page_id", h.UnmountPage)

	// Pending-request confirmation dialog
	r.POST("/pages/:page_id/requests/:request_id/dialog", h.OpenDialog)
	r.GET("/pages/:page_id/dialog", h.GetDialog)
	r.POST("/pages/:page_id/dialog/confirm", h.ConfirmDialog)
	r.DELETE("/pages/:page_id/dialog", h.CloseDialog)

	// Registered Models
	r.GET("/models", h.SearchModels)
	r.POST("/models", h.CreateModel)
	r.GET("/models/:name", h.GetModel)
	r.PATCH("/models/:name", h.UpdateModel)
	r.DELETE("/models/:name", h.DeleteModel)
	r.PUT("/models/:name/tags", h.SetModelTag)
	r.DELETE("/models/:name/tags/:key", h.DeleteModelTag)

	// Model Versions
	r.GET("/model_versions", h.SearchModelVersions)
	r.GET("/models/:name/versions", h.ListModelVersions)
	r.POST("/models/:name/versions", h.CreateModelVersion)
	r.GET("/models/:name/versions/:version", h.GetModelVersion)
	r.PATCH("/models/:name/versions/:version", h.UpdateModelVersion)
	r.DELETE("/models/:name/versions/:version", h.DeleteModelVersion)
	r.PUT("/models/:name/versions/:version/tags", h.SetModelVersionTag)
	r.DELETE("/models/:name/versions/:version/tags/:key", h.DeleteModelVersionTag)
	r.GET("/models/:name/versions/:version/artifact", h.GetArtifact)

	// Stage transitions
	r.POST("/models/:name/versions/:version/transitions", h.ApplyTransition)
	r.GET("/models/:name/versions/:version/requests", h.ListTransitionRequests)
	r.POST("/models/:name/versions/:version/requests", h.RequestTransition)
	r.POST("/models/:name/versions/:version/requests/:request_id/approve", h.ApproveRequest)
	r.POST("/models/:name/versions/:version/requests/:request_id/reject", h.RejectRequest)
	r.POST("/models/:name/versions/:version/requests/:request_id/cancel", h.CancelRequest)

	// Activities and comments
	r.GET("/models/:name/versions/:version/activities", h.ListActivities)
	r.POST("/models/:name/versions/:version/comments", h.CreateComment)
	r.PATCH("/models/:name/versions/:version/comments/:comment_id", h.UpdateComment)
	r.DELETE("/models/:name/versions/:version/comments/:comment_id", h.DeleteComment)

	// Serving and monitoring
	r.GET("/models/:name/serving", h.ListServingEndpoints)
	r.GET("/models/:name/versions/:version/monitoring", h.GetMonitoring)
}

// currentSession resolves the caller's session, writing the error response
// when there is none.
func (h *Handler) currentSession(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.GetHeader(HeaderSessionID))
	if err != nil {
		mapDomainError(c, err)
		return nil, false
	}
	return s, true
}

// bindOptionalJSON binds a body that may be empty or absent.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
