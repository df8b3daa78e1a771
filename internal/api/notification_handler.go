package api

import (
	"net/http"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type SendNotificationRequest struct {
	RecipientID string                  `json:"recipientId"` // empty broadcasts to the gym
	Title       string                  `json:"title" binding:"required"`
	Message     string                  `json:"message" binding:"required"`
	Type        domain.NotificationType `json:"type" binding:"omitempty,oneof=general subscription_expired class"`
}

// List godoc
// @Summary My notifications
// @Description Own notifications plus gym broadcasts, newest first.
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Notification
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	items, err := h.notificationService.ListForRecipient(c.Request.Context(), principalFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	c.JSON(http.StatusOK, items)
}

// Send godoc
// @Summary Send a notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param notification body SendNotificationRequest true "Notification"
// @Success 201 {object} domain.Notification
// @Router /notifications [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	var req SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err)
		return
	}
	recipientID, err := optionalID(req.RecipientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid recipientId format.")
		return
	}
	n, err := h.notificationService.Send(c.Request.Context(), principalFrom(c), recipientID, req.Title, req.Message, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ObjectID Hex"
// @Success 204 "No Content"
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), principalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
