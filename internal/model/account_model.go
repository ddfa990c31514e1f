package model

import "time"

// Address is one shipping address on a buyer's address book.
type Address struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default,omitempty"`
}

type Buyer struct {
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Country   string    `db:"country" json:"country"`
	Balance   float64   `db:"balance" json:"balance"`
	Addresses []Address `db:"addresses" json:"addresses"`
}

// ShippingAddress picks the default address, else the first, else a
// placeholder built from the buyer's own contact details. An order is never
// refused for lack of an address.
func (b *Buyer) ShippingAddress() Address {
	for _, a := range b.Addresses {
		if a.IsDefault {
			return a
		}
	}
	if len(b.Addresses) > 0 {
		return b.Addresses[0]
	}
	return Address{Name: b.Name, Phone: b.Phone, Country: b.Country}
}

// BuyerPaymentEntry is one row of a buyer's payment history. At most one row
// exists per payment id (idempotent append).
type BuyerPaymentEntry struct {
	PaymentID    string    `db:"paymentid" json:"payment_id"`
	AmountPaid   float64   `db:"amount_paid" json:"amount_paid"`
	CryptoAmount float64   `db:"crypto_amount" json:"crypto_amount"`
	CryptoMethod string    `db:"crypto_method" json:"crypto_method"`
	OrderTotal   float64   `db:"order_total" json:"order_total"`
	PaidAt       time.Time `db:"paid_at" json:"paid_at"`
}

type Seller struct {
	Email   string `db:"email" json:"email"`
	Name    string `db:"name" json:"name"`
	Phone   string `db:"phone" json:"phone"`
	Country string `db:"country" json:"country"`
}

// Payout status values, forward-only: pending -> requested -> paid.
const (
	PayoutPending   = "pending"
	PayoutRequested = "requested"
	PayoutPaid      = "paid"
)

// PayoutEntry is one seller-side ledger row tracking commission-adjusted
// earnings release for a settled order.
type PayoutEntry struct {
	EntryID        string    `db:"entryid" json:"entry_id"`
	SellerEmail    string    `db:"seller_email" json:"seller_email"`
	PaymentID      string    `db:"paymentid" json:"payment_id"`
	OrderID        string    `db:"orderid" json:"order_id"`
	GrossAmount    float64   `db:"gross_amount" json:"gross_amount"`
	CommissionRate float64   `db:"commission_rate" json:"commission_rate"`
	Commission     float64   `db:"commission" json:"commission"`
	NetAmount      float64   `db:"net_amount" json:"net_amount"`
	PayoutStatus   string    `db:"payout_status" json:"payout_status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
