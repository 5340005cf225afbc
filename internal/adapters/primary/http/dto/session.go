package dto

import (
	"time"

	"model-registry-service/internal/core/session"
)

type SessionResponse struct {
	SessionID string             `json:"session_id"`
	UserID    string             `json:"user_id,omitempty"`
	Created   time.Time          `json:"created"`
	Visible   bool               `json:"visible"`
	Pages     []session.PageInfo `json:"pages"`
}

func ToSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		SessionID: s.ID,
		UserID:    s.UserID,
		Created:   s.Created,
		Visible:   s.Visible(),
		Pages:     s.Pages(),
	}
}

type VisibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

type MountPageRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Version string `json:"version"`
}

type NotificationsResponse struct {
	Items     []session.Notification `json:"items"`
	Redirects []string               `json:"redirects"`
}
