package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"
	"github.com/shillmonger/Shopdotfun-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// cryptoScale is the number of decimal places prorated crypto amounts are
// rounded to (satoshi-style).
const cryptoScale = 8

const orderIDAttempts = 3

type SettlementService struct {
	Payments PaymentStore
	Orders   OrderStore
	Buyers   BuyerStore
	Sellers  SellerStore
	Notifier Notifier

	// CommissionRate is snapshotted onto every order at creation time.
	// Later changes to the configured rate never touch existing orders.
	CommissionRate float64
}

func NewSettlementService(
	payments PaymentStore,
	orders OrderStore,
	buyers BuyerStore,
	sellers SellerStore,
	notifier Notifier,
	commissionRate float64,
) *SettlementService {
	return &SettlementService{
		Payments:       payments,
		Orders:         orders,
		Buyers:         buyers,
		Sellers:        sellers,
		Notifier:       notifier,
		CommissionRate: commissionRate,
	}
}

// PaymentIntake is a buyer's aggregated checkout payment claim.
type PaymentIntake struct {
	TotalAmountFiat float64          `json:"total_amount_fiat"`
	CryptoAmount    float64          `json:"crypto_amount"`
	CryptoMethod    string           `json:"crypto_method"`
	CryptoAddress   string           `json:"crypto_address"`
	LineItems       []model.LineItem `json:"line_items"`
}

// SubmitPayment validates the claim and stores it as a pending payment.
// The total is recomputed from the line items; a claimed total that does not
// match is rejected rather than trusted.
func (s *SettlementService) SubmitPayment(ctx context.Context, buyerEmail string, in PaymentIntake) (*model.Payment, error) {
	if len(in.LineItems) == 0 {
		return nil, fmt.Errorf("%w: no line items", ErrValidationFailed)
	}
	if in.CryptoAmount <= 0 || in.CryptoMethod == "" {
		return nil, fmt.Errorf("%w: missing crypto amount or method", ErrValidationFailed)
	}

	total := decimal.Zero
	seen := make(map[string]struct{}, len(in.LineItems))
	for i, li := range in.LineItems {
		if li.ProductCode == "" || li.SellerEmail == "" {
			return nil, fmt.Errorf("%w: line %d missing product or seller", ErrValidationFailed, i)
		}
		if li.Quantity <= 0 || li.UnitPrice <= 0 || li.ShippingFee < 0 {
			return nil, fmt.Errorf("%w: line %d has invalid amounts", ErrValidationFailed, i)
		}
		// Fan-out keys orders on (paymentid, product_code); a second line for
		// the same product could never settle. Multiple units of one product
		// belong in the quantity field.
		if _, dup := seen[li.ProductCode]; dup {
			return nil, fmt.Errorf("%w: duplicate line for product %s", ErrValidationFailed, li.ProductCode)
		}
		seen[li.ProductCode] = struct{}{}
		total = total.Add(decimal.NewFromFloat(li.LineTotal()))
	}

	claimed := decimal.NewFromFloat(in.TotalAmountFiat)
	if !claimed.Sub(total).Abs().LessThanOrEqual(decimal.NewFromFloat(0.01)) {
		return nil, fmt.Errorf("%w: claimed total %s does not match line items %s",
			ErrValidationFailed, claimed, total)
	}

	p := &model.Payment{
		PaymentID:       uuid.NewString(),
		BuyerEmail:      buyerEmail,
		Status:          model.PaymentPending,
		TotalAmountFiat: total.InexactFloat64(),
		CryptoAmount:    in.CryptoAmount,
		CryptoMethod:    in.CryptoMethod,
		CryptoAddress:   in.CryptoAddress,
		LineItems:       in.LineItems,
		CreatedAt:       time.Now(),
	}
	p.UpdatedAt = p.CreatedAt
	if err := s.Payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SettlementService) GetPayment(ctx context.Context, paymentID string) (*model.Payment, error) {
	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *SettlementService) ListPending(ctx context.Context) ([]model.Payment, error) {
	return s.Payments.ListByStatus(ctx, model.PaymentPending)
}

// Reject moves a pending payment to rejected. No side effects. A second
// attempt fails with ErrAlreadyFinalized, never silently succeeds.
func (s *SettlementService) Reject(ctx context.Context, paymentID, actorEmail, reason string) (*model.Payment, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidationFailed)
	}
	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}

	ok, err := s.Payments.Finalize(ctx, paymentID, model.PaymentRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyFinalized
	}
	log.Printf("settlement: payment %s rejected by %s: %s", paymentID, actorEmail, reason)

	p.Status = model.PaymentRejected
	p.UpdatedAt = time.Now()
	return p, nil
}

// Approve settles a pending payment: the conditional status write is the
// commit point, then the buyer is credited and the payment is fanned out
// into one order per line item. Failures past the commit point are never
// rolled back; they surface as a PartialFanOutFailure so an operator can
// re-run fan-out.
func (s *SettlementService) Approve(ctx context.Context, paymentID, actorEmail string) (*model.Payment, []string, error) {
	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, ErrNotFound
	}

	// Commit fence. Everything after this is irrevocable.
	ok, err := s.Payments.Finalize(ctx, paymentID, model.PaymentApproved)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrAlreadyFinalized
	}
	log.Printf("settlement: payment %s approved by %s", paymentID, actorEmail)
	p.Status = model.PaymentApproved
	p.UpdatedAt = time.Now()

	partial := &PartialFanOutFailure{PaymentID: paymentID}
	s.creditBuyer(ctx, p, partial)

	created := s.fanOut(ctx, p, partial)
	partial.CreatedOrderIDs = created

	if len(partial.FailedProducts) > 0 || partial.BuyerCreditFailed {
		return p, created, partial
	}
	return p, created, nil
}

// Refanout re-runs every post-fence step for an already-approved payment:
// the buyer credit (idempotent per payment id) and fan-out (idempotent per
// payment line). Only work that did not land the first time fires again.
func (s *SettlementService) Refanout(ctx context.Context, paymentID string) ([]string, error) {
	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.Status != model.PaymentApproved {
		return nil, fmt.Errorf("%w: payment %s is %s, not approved", ErrValidationFailed, paymentID, p.Status)
	}

	partial := &PartialFanOutFailure{PaymentID: paymentID}
	s.creditBuyer(ctx, p, partial)

	created := s.fanOut(ctx, p, partial)
	partial.CreatedOrderIDs = created
	if len(partial.FailedProducts) > 0 || partial.BuyerCreditFailed {
		return created, partial
	}
	return created, nil
}

// creditBuyer applies the idempotent buyer credit. The history insert is the
// fence: re-running against an already-credited payment is a no-op.
func (s *SettlementService) creditBuyer(ctx context.Context, p *model.Payment, partial *PartialFanOutFailure) {
	credited, err := s.Buyers.CreditPayment(ctx, p.BuyerEmail, model.BuyerPaymentEntry{
		PaymentID:    p.PaymentID,
		AmountPaid:   p.TotalAmountFiat,
		CryptoAmount: p.CryptoAmount,
		CryptoMethod: p.CryptoMethod,
		OrderTotal:   p.TotalAmountFiat,
		PaidAt:       time.Now(),
	})
	if err != nil {
		log.Printf("settlement: buyer credit for payment %s failed: %v", p.PaymentID, err)
		partial.BuyerCreditFailed = true
		return
	}
	if !credited {
		log.Printf("settlement: payment %s already credited to %s, skipping", p.PaymentID, p.BuyerEmail)
	}
}

// fanOut creates one order per line item, idempotent per
// (paymentid, product_code). Per-line failures are collected, never fatal.
func (s *SettlementService) fanOut(ctx context.Context, p *model.Payment, partial *PartialFanOutFailure) []string {
	settled, err := s.Orders.ListByPayment(ctx, p.PaymentID)
	if err != nil {
		log.Printf("settlement: listing existing orders for %s failed: %v", p.PaymentID, err)
	}
	existing := make(map[string]*model.Order, len(settled))
	for i := range settled {
		existing[settled[i].ProductCode] = &settled[i]
	}

	buyerInfo := s.resolveBuyer(ctx, p.BuyerEmail)
	shares := prorateCrypto(p)

	var created []string
	for i, li := range p.LineItems {
		if prev := existing[li.ProductCode]; prev != nil {
			// Re-run: the order exists; re-ensure its payout entry, which
			// may have been the step that failed last time. The insert is
			// keyed on (seller_email, orderid), so this cannot double-book.
			if err := s.Sellers.CreatePayoutEntry(ctx, payoutEntryFor(prev)); err != nil {
				log.Printf("settlement: payout entry for order %s failed: %v", prev.OrderID, err)
				partial.FailedProducts = append(partial.FailedProducts, li.ProductCode)
			}
			continue
		}

		order := s.buildOrder(ctx, p, li, buyerInfo, shares[i])
		err := s.createOrder(ctx, order)
		if errors.Is(err, repository.ErrDuplicateOrder) {
			// Lost a race with a concurrent re-run. Settle against the row
			// that actually persisted; the fresh id was never written and
			// must not leak into the ledger or the created list.
			prev, perr := s.orderForLine(ctx, p.PaymentID, li.ProductCode)
			if perr != nil || prev == nil {
				log.Printf("settlement: persisted order for payment %s line %s not readable: %v", p.PaymentID, li.ProductCode, perr)
				partial.FailedProducts = append(partial.FailedProducts, li.ProductCode)
				continue
			}
			if err := s.Sellers.CreatePayoutEntry(ctx, payoutEntryFor(prev)); err != nil {
				log.Printf("settlement: payout entry for order %s failed: %v", prev.OrderID, err)
				partial.FailedProducts = append(partial.FailedProducts, li.ProductCode)
			}
			continue
		}
		if err != nil {
			log.Printf("settlement: order for payment %s line %s failed: %v", p.PaymentID, li.ProductCode, err)
			partial.FailedProducts = append(partial.FailedProducts, li.ProductCode)
			continue
		}
		created = append(created, order.OrderID)

		if err := s.Sellers.CreatePayoutEntry(ctx, payoutEntryFor(order)); err != nil {
			log.Printf("settlement: payout entry for order %s failed: %v", order.OrderID, err)
			partial.FailedProducts = append(partial.FailedProducts, li.ProductCode)
		}

		s.Notifier.Notify(ctx,
			li.SellerEmail,
			"New order received",
			fmt.Sprintf("You have a new order %s for %s (qty %d).", order.OrderID, li.ProductName, li.Quantity),
			model.NotifyNewOrder,
			order.OrderID,
		)
	}
	return created
}

// resolveBuyer fetches the buyer snapshot; a missing account degrades to a
// bare email so settlement never aborts on directory gaps.
func (s *SettlementService) resolveBuyer(ctx context.Context, email string) model.BuyerInfo {
	buyer, err := s.Buyers.GetByEmail(ctx, email)
	if err != nil || buyer == nil {
		log.Printf("settlement: buyer %s not resolvable (%v), using bare snapshot", email, err)
		buyer = &model.Buyer{Email: email}
	}
	return model.BuyerInfo{
		Email:   buyer.Email,
		Name:    buyer.Name,
		Phone:   buyer.Phone,
		Country: buyer.Country,
		Address: buyer.ShippingAddress(),
	}
}

func (s *SettlementService) buildOrder(ctx context.Context, p *model.Payment, li model.LineItem, buyerInfo model.BuyerInfo, cryptoShare float64) *model.Order {
	sellerInfo := model.SellerInfo{Email: li.SellerEmail}
	if seller, err := s.Sellers.GetByEmail(ctx, li.SellerEmail); err != nil || seller == nil {
		log.Printf("settlement: seller %s not resolvable (%v), using empty metadata", li.SellerEmail, err)
	} else {
		sellerInfo.Name = seller.Name
		sellerInfo.Phone = seller.Phone
		sellerInfo.Country = seller.Country
	}

	now := time.Now()
	return &model.Order{
		OrderID:     newOrderID(),
		PaymentID:   p.PaymentID,
		ProductCode: li.ProductCode,
		BuyerInfo:   buyerInfo,
		SellerInfo:  sellerInfo,
		ProductInfo: model.ProductInfo{
			ProductCode: li.ProductCode,
			Name:        li.ProductName,
			UnitPrice:   li.UnitPrice,
			Quantity:    li.Quantity,
			ShippingFee: li.ShippingFee,
			ImageURL:    li.ImageURL,
		},
		PaymentInfo: model.PaymentInfo{
			Amount:        li.LineTotal(),
			CryptoAmount:  cryptoShare,
			CryptoMethod:  p.CryptoMethod,
			CryptoAddress: p.CryptoAddress,
		},
		Status: model.OrderStatus{
			Shipping:    model.ShippingPending,
			BuyerAction: model.BuyerActionNone,
			Payment:     model.OrderPaymentPaid,
			AdminAction: model.AdminActionNone,
		},
		CommissionRate: s.CommissionRate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// createOrder inserts the order, retrying with a fresh id when the
// human-readable id collides. A repository.ErrDuplicateOrder passes through:
// the caller resolves it against the persisted row.
func (s *SettlementService) createOrder(ctx context.Context, o *model.Order) error {
	var err error
	for attempt := 0; attempt < orderIDAttempts; attempt++ {
		err = s.Orders.Create(ctx, o)
		if !errors.Is(err, repository.ErrOrderIDCollision) {
			break
		}
		o.OrderID = newOrderID()
	}
	return err
}

// orderForLine reads back the persisted order for one payment line.
func (s *SettlementService) orderForLine(ctx context.Context, paymentID, productCode string) (*model.Order, error) {
	settled, err := s.Orders.ListByPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	for i := range settled {
		if settled[i].ProductCode == productCode {
			return &settled[i], nil
		}
	}
	return nil, nil
}

func payoutEntryFor(o *model.Order) *model.PayoutEntry {
	c := ComputeCommission(o.PaymentInfo.Amount, o.CommissionRate)
	return &model.PayoutEntry{
		EntryID:        uuid.NewString(),
		SellerEmail:    o.SellerInfo.Email,
		PaymentID:      o.PaymentID,
		OrderID:        o.OrderID,
		GrossAmount:    c.Gross,
		CommissionRate: c.Rate,
		Commission:     c.Commission,
		NetAmount:      c.Net,
		PayoutStatus:   model.PayoutPending,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.CreatedAt,
	}
}

// prorateCrypto splits the payment's crypto amount across line items in
// proportion to each line's fiat total. The last line takes the residual so
// the shares always sum exactly to the payment's crypto amount.
func prorateCrypto(p *model.Payment) []float64 {
	total := decimal.NewFromFloat(p.TotalAmountFiat)
	crypto := decimal.NewFromFloat(p.CryptoAmount)

	shares := make([]float64, len(p.LineItems))
	if total.IsZero() || len(p.LineItems) == 0 {
		return shares
	}

	remaining := crypto
	for i, li := range p.LineItems {
		if i == len(p.LineItems)-1 {
			shares[i] = remaining.InexactFloat64()
			break
		}
		share := crypto.
			Mul(decimal.NewFromFloat(li.LineTotal())).
			Div(total).
			Round(cryptoScale)
		shares[i] = share.InexactFloat64()
		remaining = remaining.Sub(share)
	}
	return shares
}

func newOrderID() string {
	return fmt.Sprintf("SDF-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:4])
}
