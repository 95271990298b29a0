package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estatehub/marketplace/internal/errs"
	"estatehub/marketplace/internal/models"
	"estatehub/marketplace/internal/services"
	"estatehub/marketplace/internal/utils"
)

// Thread mutation types accepted by POST /notification/update.
const (
	UpdateMarkAsRead    = "mark_as_read"
	UpdateMarkAllAsRead = "mark_all_as_read"
	UpdateRemove        = "remove"
	UpdateDelete        = "delete"
)

// NotificationHandler serves the /notification routes.
type NotificationHandler struct {
	bookingService      services.IBookingService
	notificationService services.INotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(bookingService services.IBookingService, notificationService services.INotificationService) *NotificationHandler {
	return &NotificationHandler{
		bookingService:      bookingService,
		notificationService: notificationService,
	}
}

type chatRequest struct {
	Message  string `json:"message" binding:"required,max=2000"`
	Property string `json:"property" binding:"required,sixid"`
}

type replyRequest struct {
	NotificationID string `json:"notificationId" binding:"required,sixid"`
	Message        string `json:"message" binding:"required,max=2000"`
}

type updateRequest struct {
	NotificationID string `json:"notificationId" binding:"omitempty,sixid"`
	Type           string `json:"type" binding:"required,oneof=mark_as_read mark_all_as_read remove delete"`
}

// Chat handles POST /notification/chat
func (h *NotificationHandler) Chat(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	thread, err := h.bookingService.MessageAgent(c.Request.Context(), callerID, utils.MustParseSixID(req.Property), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully", "notification": thread.ViewFor(callerID)})
}

// Message handles POST /notification/message
func (h *NotificationHandler) Message(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	var req replyRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	thread, err := h.notificationService.Reply(c.Request.Context(), utils.MustParseSixID(req.NotificationID), callerID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully", "notification": thread.ViewFor(callerID)})
}

// List handles GET /notification/list
func (h *NotificationHandler) List(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	views, err := h.notificationService.List(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	if views == nil {
		views = []models.NotificationView{}
	}
	c.JSON(http.StatusOK, views)
}

// Update handles POST /notification/update
func (h *NotificationHandler) Update(c *gin.Context) {
	callerID, ok := requireCaller(c)
	if !ok {
		return
	}
	var req updateRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	switch req.Type {
	case UpdateMarkAsRead, UpdateRemove:
		if req.NotificationID == "" {
			respondError(c, errs.NewValidationError("Invalid input: notificationId is required").
				WithDetail("fields", []string{"notificationId"}))
			return
		}
		threadID := utils.MustParseSixID(req.NotificationID)

		if req.Type == UpdateMarkAsRead {
			isRead, err := h.notificationService.ToggleRead(ctx, threadID, callerID)
			if err != nil {
				respondError(c, err)
				return
			}
			message := "Notification marked as unread"
			if isRead {
				message = "Notification marked as read"
			}
			c.JSON(http.StatusOK, gin.H{"message": message, "isRead": isRead})
			return
		}

		if err := h.notificationService.Hide(ctx, threadID, callerID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Notification removed successfully"})

	case UpdateMarkAllAsRead:
		updated, err := h.notificationService.MarkAllRead(ctx, callerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": updated})

	case UpdateDelete:
		updated, err := h.notificationService.HideAll(ctx, callerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All notifications deleted for the user/agent", "updated": updated})
	}
}
