package dto

import (
	"github.com/dyilmaz/schoolhub/internal/app/models"
)

// CreateNotificationRequest sends a manual notification to a set of
// recipients.
type CreateNotificationRequest struct {
	Recipients []int64                     `json:"recipients" binding:"required,min=1"`
	Type       models.NotificationType     `json:"type" binding:"required"`
	Title      string                      `json:"title" binding:"required"`
	Message    string                      `json:"message" binding:"required"`
	Priority   models.NotificationPriority `json:"priority"`
}
