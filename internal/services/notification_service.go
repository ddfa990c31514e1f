package services

import (
	"context"
	"log"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"

	"github.com/google/uuid"
)

type NotificationService struct {
	Repo   NotificationStore
	Mailer Mailer
}

func NewNotificationService(repo NotificationStore, mailer Mailer) *NotificationService {
	return &NotificationService{Repo: repo, Mailer: mailer}
}

// Notify persists the notification and sends the email copy. Both are
// best-effort: failures are logged and never bubble up into the financial
// transition that triggered them.
func (s *NotificationService) Notify(ctx context.Context, recipient, title, message, ntype, orderID string) {
	n := &model.Notification{
		ID:             uuid.NewString(),
		RecipientEmail: recipient,
		Title:          title,
		Message:        message,
		Type:           ntype,
		RelatedOrderID: orderID,
		CreatedAt:      time.Now(),
	}
	if orderID != "" {
		n.RelatedOrderLink = "/orders/" + orderID
	}

	if err := s.Repo.Create(ctx, n); err != nil {
		log.Printf("notification: persist failed for %s (%s): %v", recipient, ntype, err)
	}

	if s.Mailer == nil {
		return
	}
	html := "<p>" + message + "</p>"
	if n.RelatedOrderLink != "" {
		html += `<p><a href="` + n.RelatedOrderLink + `">View order</a></p>`
	}
	if err := s.Mailer.SendNotificationEmail(ctx, recipient, title, html); err != nil {
		log.Printf("notification: email to %s failed: %v", recipient, err)
	}
}

func (s *NotificationService) List(ctx context.Context, recipient string) ([]model.Notification, error) {
	return s.Repo.ListByRecipient(ctx, recipient)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipient string) error {
	ok, err := s.Repo.MarkRead(ctx, id, recipient)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
