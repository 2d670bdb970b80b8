package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skysafe/backend/db"
	"skysafe/backend/server/api"
)

// Notifications lists the caller's notifications, newest first.
func (s *Server) Notifications(c *gin.Context) {
	p := principal(c)
	notifications, err := db.ListNotifications(s.db, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, api.NotificationsResponse{Notifications: notifications})
}

// UnreadCount serves the badge counter.
func (s *Server) UnreadCount(c *gin.Context) {
	p := principal(c)
	count, err := db.UnreadCount(s.db, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to count notifications"})
		return
	}
	c.JSON(http.StatusOK, api.UnreadCountResponse{Count: count})
}

// OpenNotification marks a notification read and points the client at
// the linked report, or back to the list when there is none. Scoped
// to the owner, so foreign IDs read as not found.
func (s *Server) OpenNotification(c *gin.Context) {
	p := principal(c)
	id := c.Param("id")

	n, err := db.GetNotification(s.db, id, p.ID)
	if err != nil {
		respondError(c, err, EndPointNotifications)
		return
	}
	if err := db.MarkRead(s.db, id, p.ID); err != nil {
		respondError(c, err, EndPointNotifications)
		return
	}
	n.IsRead = true

	redirect := EndPointNotifications
	if n.ReportID != "" {
		redirect = strings.Replace(EndPointReport, ":id", n.ReportID, 1)
	}
	c.JSON(http.StatusOK, api.OpenNotificationResponse{
		Notification: *n,
		Redirect:     redirect,
	})
}

// MarkAllRead flips every unread notification of the caller.
func (s *Server) MarkAllRead(c *gin.Context) {
	p := principal(c)
	if err := db.MarkAllRead(s.db, p.ID); err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to mark notifications read"})
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "all notifications marked read"})
}
