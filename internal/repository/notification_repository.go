package repository

import (
	"context"
	"database/sql"

	"github.com/rentease/rentease-server/internal/model"
)

// NotificationRepo manages the 'notifications' table.  Rows are
// written by the event consumer and read back through the user-facing
// notification endpoints.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts one notification row.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, related_id, related_type)
		 VALUES (?,?,?,?,?,?)`,
		n.UserID, n.Type, n.Title, n.Message, n.RelatedID, n.RelatedType)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns a user's notifications, newest first, capped at
// the given limit.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, type, title, message, related_id, related_type, is_read, created_at
		 FROM notifications WHERE user_id=? ORDER BY created_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.RelatedID, &n.RelatedType, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadCount returns how many notifications the user has not read.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id=? AND is_read=0`, userID).Scan(&n)
	return n, err
}

// MarkRead flags one notification as read.  The user_id guard keeps a
// user from touching someone else's row.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read=1 WHERE id=? AND user_id=?`, id, userID)
	return err
}

// MarkAllRead flags every unread notification for the user.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read=1 WHERE user_id=? AND is_read=0`, userID)
	return err
}
