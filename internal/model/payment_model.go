package model

import "time"

// Payment status values. A payment is mutated exactly once after creation:
// pending -> approved or pending -> rejected.
const (
	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"
)

// LineItem is an immutable snapshot of one cart row at payment time.
// Prices and stock are never re-read from the live catalog after this point.
type LineItem struct {
	ProductCode string  `json:"product_code"`
	ProductName string  `json:"product_name"`
	SellerEmail string  `json:"seller_email"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	ShippingFee float64 `json:"shipping_fee"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// LineTotal returns unit price * quantity + shipping fee for this row.
func (li LineItem) LineTotal() float64 {
	return li.UnitPrice*float64(li.Quantity) + li.ShippingFee
}

type Payment struct {
	PaymentID       string     `db:"paymentid" json:"payment_id"`
	BuyerEmail      string     `db:"buyer_email" json:"buyer_email"`
	Status          string     `db:"status" json:"status"`
	TotalAmountFiat float64    `db:"total_amount_fiat" json:"total_amount_fiat"`
	CryptoAmount    float64    `db:"crypto_amount" json:"crypto_amount"`
	CryptoMethod    string     `db:"crypto_method" json:"crypto_method"`
	CryptoAddress   string     `db:"crypto_address" json:"crypto_address"`
	LineItems       []LineItem `db:"line_items" json:"line_items"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
