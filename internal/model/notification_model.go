package model

import "time"

// Notification types.
const (
	NotifyNewOrder       = "new_order"
	NotifyOrderShipped   = "order_shipped"
	NotifyDisputeFiled   = "dispute_filed"
	NotifyDisputeVerdict = "dispute_verdict"
	NotifyPayoutPaid     = "payout_paid"
)

// Notification is write-once except for the read flag.
type Notification struct {
	ID               string    `db:"id" json:"id"`
	RecipientEmail   string    `db:"recipient_email" json:"recipient_email"`
	Title            string    `db:"title" json:"title"`
	Message          string    `db:"message" json:"message"`
	Type             string    `db:"type" json:"type"`
	RelatedOrderID   string    `db:"related_orderid" json:"related_order_id,omitempty"`
	RelatedOrderLink string    `db:"related_order_link" json:"related_order_link,omitempty"`
	Read             bool      `db:"read" json:"read"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
