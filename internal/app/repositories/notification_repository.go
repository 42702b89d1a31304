package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/query"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	"github.com/dyilmaz/schoolhub/internal/pkg/logger"
)

// NotificationRepository handles database operations for notifications.
type NotificationRepository struct {
	DB *pgxpool.Pool
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

var notificationColumns = []string{
	"id", "recipient_id", "sender_id", "type", "title", "message",
	"related_type", "related_id", "is_read", "read_at", "priority", "created_at",
}

func (r *NotificationRepository) selectNotificationQuery() squirrel.SelectBuilder {
	return squirrel.Select(notificationColumns...).
		From("notifications").
		PlaceholderFormat(squirrel.Dollar)
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(
		&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title, &n.Message,
		&n.RelatedType, &n.RelatedID, &n.IsRead, &n.ReadAt, &n.Priority, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts one notification row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) (int64, error) {
	sqlStr, args, err := squirrel.Insert("notifications").
		Columns("recipient_id", "sender_id", "type", "title", "message",
			"related_type", "related_id", "priority").
		Values(n.RecipientID, n.SenderID, n.Type, n.Title, n.Message,
			n.RelatedType, n.RelatedID, n.Priority).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&n.ID, &n.CreatedAt); err != nil {
		logger.Error().Err(err).Msg("Error executing create notification query")
		return 0, err
	}
	return n.ID, nil
}

// CreateBatch inserts one row per recipient in a single statement.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	builder := squirrel.Insert("notifications").
		Columns("recipient_id", "sender_id", "type", "title", "message",
			"related_type", "related_id", "priority").
		PlaceholderFormat(squirrel.Dollar)
	for _, n := range notifications {
		builder = builder.Values(n.RecipientID, n.SenderID, n.Type, n.Title, n.Message,
			n.RelatedType, n.RelatedID, n.Priority)
	}
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.DB.Exec(ctx, sqlStr, args...); err != nil {
		logger.Error().Err(err).Int("count", len(notifications)).Msg("Error executing batch create notifications query")
		return err
	}
	return nil
}

// GetByID retrieves a notification by its ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	sqlStr, args, err := r.selectNotificationQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	n, err := scanNotification(r.DB.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("notification", id)
		}
		return nil, err
	}
	return n, nil
}

// ListByRecipient retrieves the page of a user's notifications, newest
// first by default.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID int64, q query.ListQuery) ([]*models.Notification, int64, error) {
	base := r.selectNotificationQuery().Where(squirrel.Eq{"recipient_id": recipientID})
	builder := q.ApplyPagination(q.ApplySort(q.ApplyFilters(base)))
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, sqlStr, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list notifications query")
		return nil, 0, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countBase := q.ApplyFilters(
		squirrel.Select("count(*)").From("notifications").
			Where(squirrel.Eq{"recipient_id": recipientID}).
			PlaceholderFormat(squirrel.Dollar),
	)
	countSQL, countArgs, err := countBase.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.DB.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead flags one notification as read. Only the recipient's own rows
// are reachable.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64) error {
	sqlStr, args, err := squirrel.Update("notifications").
		Set("is_read", true).
		Set("read_at", time.Now()).
		Where(squirrel.Eq{"id": id, "recipient_id": recipientID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("notification", id)
	}
	return nil
}

// MarkAllRead flags all of a user's unread notifications as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	sqlStr, args, err := squirrel.Update("notifications").
		Set("is_read", true).
		Set("read_at", time.Now()).
		Where(squirrel.Eq{"recipient_id": recipientID, "is_read": false}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UnreadCount returns the number of unread notifications for a user.
func (r *NotificationRepository) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	sqlStr, args, err := squirrel.Select("count(*)").
		From("notifications").
		Where(squirrel.Eq{"recipient_id": recipientID, "is_read": false}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.DB.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a notification owned by the recipient.
func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID int64) error {
	sqlStr, args, err := squirrel.Delete("notifications").
		Where(squirrel.Eq{"id": id, "recipient_id": recipientID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.DB.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("notification", id)
	}
	return nil
}
