package services

import (
	"context"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"
)

// Store interfaces the services depend on. The repository package satisfies
// them against Postgres; tests substitute in-memory fakes. Every mutating
// method that returns bool is a conditional write: false means the guard in
// the WHERE clause did not hold.

type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, paymentID string) (*model.Payment, error)
	ListByStatus(ctx context.Context, status string) ([]model.Payment, error)
	Finalize(ctx context.Context, paymentID, status string) (bool, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	GetByID(ctx context.Context, orderID string) (*model.Order, error)
	ListByPayment(ctx context.Context, paymentID string) ([]model.Order, error)
	ListBySeller(ctx context.Context, sellerEmail string) ([]model.Order, error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]model.Order, error)
	MarkShipped(ctx context.Context, orderID, sellerEmail string) (bool, error)
	ConfirmReceived(ctx context.Context, orderID, buyerEmail string) (bool, error)
	AutoConfirm(ctx context.Context, cutoff time.Time) (int64, error)
	FileDispute(ctx context.Context, orderID, buyerEmail string, d *model.Dispute) (bool, error)
	Resolve(ctx context.Context, orderID, adminAction, paymentStatus string, d *model.Dispute) (bool, error)
	SetPaymentStatus(ctx context.Context, orderID, from, to string) (bool, error)
}

type BuyerStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Buyer, error)
	CreditPayment(ctx context.Context, email string, e model.BuyerPaymentEntry) (bool, error)
	History(ctx context.Context, email string) ([]model.BuyerPaymentEntry, error)
}

type SellerStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Seller, error)
	CreatePayoutEntry(ctx context.Context, e *model.PayoutEntry) error
	GetEntry(ctx context.Context, entryID string) (*model.PayoutEntry, error)
	GetEntryByOrder(ctx context.Context, sellerEmail, orderID string) (*model.PayoutEntry, error)
	ListEntries(ctx context.Context, sellerEmail string) ([]model.PayoutEntry, error)
	RequestPayout(ctx context.Context, sellerEmail, orderID string) (bool, error)
	MarkPaid(ctx context.Context, entryID string) (bool, error)
	UpdateEntryAmounts(ctx context.Context, sellerEmail, orderID string, gross, commission, net float64) (bool, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, email string) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, email string) (bool, error)
}

// Notifier delivers a notification best-effort. Implementations must never
// fail a financial transition: errors are logged, not returned.
type Notifier interface {
	Notify(ctx context.Context, recipient, title, message, ntype, orderID string)
}

// Mailer sends an email for a persisted notification.
type Mailer interface {
	SendNotificationEmail(ctx context.Context, to, subject, html string) error
}

// RefundGateway reverses funds on the original crypto rail.
type RefundGateway interface {
	RequestReversal(ctx context.Context, method, address string, amount float64) error
}
