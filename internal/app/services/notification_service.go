package services

import (
	"context"
	"net/url"

	"github.com/dyilmaz/schoolhub/internal/app/auth"
	"github.com/dyilmaz/schoolhub/internal/app/effects"
	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
)

// notificationSchema is the public projection of the notifications table.
var notificationSchema = query.Schema{
	Columns: map[string]string{
		"id":        "id",
		"type":      "type",
		"isRead":    "is_read",
		"priority":  "priority",
		"createdAt": "created_at",
	},
	DefaultSort: "-createdAt",
}

// NotificationStore is the subset of the notification store the service
// needs.
type NotificationStore interface {
	ListByRecipient(ctx context.Context, recipientID int64, q query.ListQuery) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id, recipientID int64) error
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	UnreadCount(ctx context.Context, recipientID int64) (int64, error)
	Delete(ctx context.Context, id, recipientID int64) error
}

// NotificationService exposes a user's own notification inbox and manual
// announcements.
type NotificationService struct {
	notifications NotificationStore
	policy        *auth.Policy
	effects       *effects.Dispatcher
}

// NewNotificationService creates the notification service.
func NewNotificationService(notifications NotificationStore, policy *auth.Policy, dispatcher *effects.Dispatcher) *NotificationService {
	return &NotificationService{notifications: notifications, policy: policy, effects: dispatcher}
}

// List returns the page of the caller's own notifications.
func (s *NotificationService) List(ctx context.Context, p *auth.Principal, values url.Values) (*dto.ListResult, error) {
	q := query.Parse(values, notificationSchema)

	notifications, total, err := s.notifications.ListByRecipient(ctx, p.ID, q)
	if err != nil {
		return nil, err
	}

	return &dto.ListResult{
		Data:  query.Project(notifications, q.Select),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// Send persists and pushes a manual notification to each recipient.
func (s *NotificationService) Send(ctx context.Context, p *auth.Principal, req *dto.CreateNotificationRequest) error {
	if err := s.policy.NotificationCreate(p); err != nil {
		return err
	}
	if !validNotificationType(req.Type) {
		return apperrors.Invalid("type", "unknown notification type")
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	s.effects.Announcement(ctx, p.ID, req.Recipients, models.Notification{
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Priority: priority,
	})
	return nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, p *auth.Principal, id int64) error {
	return s.notifications.MarkRead(ctx, id, p.ID)
}

// MarkAllRead flags all of the caller's unread notifications as read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, p *auth.Principal) (int64, error) {
	return s.notifications.MarkAllRead(ctx, p.ID)
}

// UnreadCount returns the caller's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, p *auth.Principal) (int64, error) {
	return s.notifications.UnreadCount(ctx, p.ID)
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	return s.notifications.Delete(ctx, id, p.ID)
}

func validNotificationType(t models.NotificationType) bool {
	switch t {
	case models.NotificationAssignment, models.NotificationGrade,
		models.NotificationAttendance, models.NotificationEnrollment,
		models.NotificationAnnouncement:
		return true
	}
	return false
}
