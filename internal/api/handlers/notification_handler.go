// server/internal/api/handlers/notification_handler.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"waste-collection-api-server/internal/api/middleware"
	"waste-collection-api-server/internal/database"
	"waste-collection-api-server/internal/models"
)

// NotificationInbox reads and acknowledges a user's notifications.
type NotificationInbox interface {
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type NotificationHandler struct {
	Inbox  NotificationInbox
	Logger *slog.Logger
}

// GetMyNotifications lists the caller's notifications; ?unread=true
// restricts it to unread ones.
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID := c.GetString(middleware.KeyUserID)
	unread, _ := strconv.ParseBool(c.Query("unread"))
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)

	notes, err := h.Inbox.ListForUser(c.Request.Context(), userID, unread, limit)
	if err != nil {
		h.Logger.Error("list notifications failed", "userId", userID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query notifications"})
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString(middleware.KeyUserID)
	if err := h.Inbox.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		h.Logger.Error("mark notification read failed", "userId", userID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
