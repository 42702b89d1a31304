package models

import (
	"time"
)

// Notification defines one notification row based on the 'notifications'
// table. Persisted rows are the source of truth; realtime delivery is an
// advisory push on top.
type Notification struct {
	ID          int64                `json:"id" db:"id"`
	RecipientID int64                `json:"recipientId" db:"recipient_id"`
	SenderID    *int64               `json:"senderId,omitempty" db:"sender_id"`
	Type        NotificationType     `json:"type" db:"type"`
	Title       string               `json:"title" db:"title"`
	Message     string               `json:"message" db:"message"`
	RelatedType string               `json:"relatedType,omitempty" db:"related_type"`
	RelatedID   *int64               `json:"relatedId,omitempty" db:"related_id"`
	IsRead      bool                 `json:"isRead" db:"is_read"`
	ReadAt      *time.Time           `json:"readAt,omitempty" db:"read_at"`
	Priority    NotificationPriority `json:"priority" db:"priority"`
	CreatedAt   time.Time            `json:"createdAt" db:"created_at"`
}
