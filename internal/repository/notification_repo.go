package repository

import (
	"context"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notifications
			(id, recipient_email, title, message, type,
			 related_orderid, related_order_link, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
	`, n.ID, n.RecipientEmail, n.Title, n.Message, n.Type,
		n.RelatedOrderID, n.RelatedOrderLink, n.CreatedAt)
	return err
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, email string) ([]model.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, recipient_email, title, message, type,
		       related_orderid, related_order_link, read, created_at
		FROM notifications
		WHERE recipient_email=$1
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID, &n.RecipientEmail, &n.Title, &n.Message, &n.Type,
			&n.RelatedOrderID, &n.RelatedOrderLink, &n.Read, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag; scoped to the recipient so one user cannot
// mark another user's notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, email string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET read=true WHERE id=$1 AND recipient_email=$2`,
		id, email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
