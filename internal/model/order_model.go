package model

import "time"

// Shipping axis.
const (
	ShippingPending  = "pending"
	ShippingShipped  = "shipped"
	ShippingReceived = "received"
)

// Buyer action axis.
const (
	BuyerActionNone      = "none"
	BuyerActionConfirmed = "confirmed"
	BuyerActionDisputed  = "disputed"
)

// Order payment axis. refund_requested means the admin verdict is refund but
// the external reversal has not gone through yet; a retry re-drives only the
// external call.
const (
	OrderPaymentPending         = "pending"
	OrderPaymentPaid            = "paid"
	OrderPaymentRefundRequested = "refund_requested"
	OrderPaymentRefunded        = "refunded"
)

// Admin action axis. Anything other than none is terminal: no further
// financial transition is permitted on the order.
const (
	AdminActionNone     = "none"
	AdminActionRefunded = "refunded"
	AdminActionReleased = "released"
	AdminActionSplit    = "split"
)

// Dispute verdicts.
const (
	VerdictRefund  = "refund"
	VerdictRelease = "release"
	VerdictSplit   = "split"
)

// OrderStatus carries the four independent status axes of an order.
type OrderStatus struct {
	Shipping    string `json:"shipping"`
	BuyerAction string `json:"buyer_action"`
	Payment     string `json:"payment"`
	AdminAction string `json:"admin_action"`
}

// BuyerInfo is the buyer snapshot denormalized onto the order at creation.
type BuyerInfo struct {
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Country string  `json:"country"`
	Address Address `json:"address"`
}

type SellerInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
}

type ProductInfo struct {
	ProductCode string  `json:"product_code"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	ShippingFee float64 `json:"shipping_fee"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// PaymentInfo is the order's prorated share of the parent payment.
type PaymentInfo struct {
	Amount        float64 `json:"amount"`
	CryptoAmount  float64 `json:"crypto_amount"`
	CryptoMethod  string  `json:"crypto_method"`
	CryptoAddress string  `json:"crypto_address"`
}

// Dispute records a buyer complaint and, once resolved, the admin verdict.
type Dispute struct {
	Reason     string     `json:"reason"`
	Evidence   []string   `json:"evidence,omitempty"`
	FiledBy    string     `json:"filed_by"`
	FiledAt    time.Time  `json:"filed_at"`
	Verdict    string     `json:"verdict,omitempty"`
	Note       string     `json:"note,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

type Order struct {
	OrderID        string      `db:"orderid" json:"order_id"`
	PaymentID      string      `db:"paymentid" json:"payment_id"`
	ProductCode    string      `db:"product_code" json:"product_code"`
	BuyerInfo      BuyerInfo   `db:"buyer_info" json:"buyer_info"`
	ProductInfo    ProductInfo `db:"product_info" json:"product_info"`
	SellerInfo     SellerInfo  `db:"seller_info" json:"seller_info"`
	PaymentInfo    PaymentInfo `db:"payment_info" json:"payment_info"`
	Status         OrderStatus `db:"status" json:"status"`
	CommissionRate float64     `db:"commission_rate" json:"commission_rate"`
	Dispute        *Dispute    `db:"dispute" json:"dispute,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
	ShippedAt      *time.Time  `db:"shipped_at" json:"shipped_at,omitempty"`
}

// PayoutEligible reports whether funds for this order may move to the seller.
func (o *Order) PayoutEligible() bool {
	if o.Status.Payment != OrderPaymentPaid {
		return false
	}
	switch o.Status.AdminAction {
	case AdminActionNone:
		return o.Status.BuyerAction != BuyerActionDisputed
	case AdminActionReleased, AdminActionSplit:
		return true
	}
	return false
}
