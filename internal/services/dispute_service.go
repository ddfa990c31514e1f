package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"
)

// defaultSplitFraction is the seller's share when a split verdict does not
// specify one.
const defaultSplitFraction = 0.5

type DisputeService struct {
	Orders   OrderStore
	Sellers  SellerStore
	Notifier Notifier
	Gateway  RefundGateway
}

func NewDisputeService(orders OrderStore, sellers SellerStore, notifier Notifier, gateway RefundGateway) *DisputeService {
	return &DisputeService{Orders: orders, Sellers: sellers, Notifier: notifier, Gateway: gateway}
}

// FileDispute locks the order's buyer action to disputed. Payout freezing
// falls out of the eligibility rule; no separate lock flag exists.
func (s *DisputeService) FileDispute(ctx context.Context, orderID, buyerEmail, reason string, evidence []string) (*model.Order, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", ErrValidationFailed)
	}

	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	if o.Status.AdminAction != model.AdminActionNone {
		return nil, ErrOrderFinalized
	}

	d := &model.Dispute{
		Reason:   reason,
		Evidence: evidence,
		FiledBy:  buyerEmail,
		FiledAt:  time.Now(),
	}
	ok, err := s.Orders.FileDispute(ctx, orderID, buyerEmail, d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order %s cannot be disputed by %s", ErrValidationFailed, orderID, buyerEmail)
	}

	s.Notifier.Notify(ctx,
		o.SellerInfo.Email,
		"Dispute filed on your order",
		fmt.Sprintf("The buyer disputed order %s: %s", orderID, reason),
		model.NotifyDisputeFiled,
		orderID,
	)

	o.Status.BuyerAction = model.BuyerActionDisputed
	o.Dispute = d
	return o, nil
}

// Resolve records the single-shot admin verdict on an order. Once the admin
// action leaves none the order is terminal and a second call fails with
// ErrAlreadyResolved.
//
// sellerFraction only applies to split verdicts; zero means the default.
func (s *DisputeService) Resolve(ctx context.Context, orderID, adminEmail, verdict, note string, sellerFraction float64) (*model.Order, error) {
	if note == "" {
		return nil, fmt.Errorf("%w: resolution note is required", ErrValidationFailed)
	}

	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	if o.Status.AdminAction != model.AdminActionNone {
		return nil, ErrAlreadyResolved
	}

	now := time.Now()
	d := o.Dispute
	if d == nil {
		d = &model.Dispute{FiledAt: now}
	}
	d.Verdict = verdict
	d.Note = note
	d.ResolvedBy = adminEmail
	d.ResolvedAt = &now

	switch verdict {
	case model.VerdictRefund:
		return s.resolveRefund(ctx, o, d)
	case model.VerdictRelease:
		return s.resolveRelease(ctx, o, d)
	case model.VerdictSplit:
		return s.resolveSplit(ctx, o, d, sellerFraction)
	default:
		return nil, fmt.Errorf("%w: unknown verdict %q", ErrValidationFailed, verdict)
	}
}

// resolveRefund sets the terminal admin action first, then drives the
// external reversal. A failed reversal leaves the payment axis in
// refund_requested; RetryRefund re-drives only the external call.
func (s *DisputeService) resolveRefund(ctx context.Context, o *model.Order, d *model.Dispute) (*model.Order, error) {
	ok, err := s.Orders.Resolve(ctx, o.OrderID, model.AdminActionRefunded, model.OrderPaymentRefundRequested, d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyResolved
	}
	o.Status.AdminAction = model.AdminActionRefunded
	o.Status.Payment = model.OrderPaymentRefundRequested
	o.Dispute = d

	if err := s.reverse(ctx, o, o.PaymentInfo.CryptoAmount); err != nil {
		log.Printf("dispute: reversal for order %s failed, left refund_requested: %v", o.OrderID, err)
	} else if ok, err := s.Orders.SetPaymentStatus(ctx, o.OrderID, model.OrderPaymentRefundRequested, model.OrderPaymentRefunded); err != nil || !ok {
		log.Printf("dispute: marking order %s refunded failed: %v", o.OrderID, err)
	} else {
		o.Status.Payment = model.OrderPaymentRefunded
	}

	s.notifyVerdict(ctx, o, "refunded to the buyer")
	return o, nil
}

func (s *DisputeService) resolveRelease(ctx context.Context, o *model.Order, d *model.Dispute) (*model.Order, error) {
	ok, err := s.Orders.Resolve(ctx, o.OrderID, model.AdminActionReleased, "", d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyResolved
	}
	o.Status.AdminAction = model.AdminActionReleased
	o.Dispute = d

	s.notifyVerdict(ctx, o, "released to the seller")
	return o, nil
}

// resolveSplit shrinks the seller's pending payout entry to their fraction
// and reverses the buyer's share on the original rail.
func (s *DisputeService) resolveSplit(ctx context.Context, o *model.Order, d *model.Dispute, sellerFraction float64) (*model.Order, error) {
	if sellerFraction < 0 || sellerFraction > 1 {
		return nil, fmt.Errorf("%w: split fraction must be within [0, 1]", ErrValidationFailed)
	}
	if sellerFraction == 0 {
		sellerFraction = defaultSplitFraction
	}

	ok, err := s.Orders.Resolve(ctx, o.OrderID, model.AdminActionSplit, "", d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyResolved
	}
	o.Status.AdminAction = model.AdminActionSplit
	o.Dispute = d

	split := SplitCommission(o.PaymentInfo.Amount, o.CommissionRate, sellerFraction)
	if ok, err := s.Sellers.UpdateEntryAmounts(ctx, o.SellerInfo.Email, o.OrderID,
		split.Gross, split.Commission, split.Net); err != nil {
		return nil, err
	} else if !ok {
		log.Printf("dispute: payout entry for order %s not adjustable (already moving), split recorded anyway", o.OrderID)
	}

	buyerShare := o.PaymentInfo.CryptoAmount * (1 - sellerFraction)
	if err := s.reverse(ctx, o, buyerShare); err != nil {
		log.Printf("dispute: partial reversal for order %s failed: %v", o.OrderID, err)
	}

	s.notifyVerdict(ctx, o, "split between buyer and seller")
	return o, nil
}

// RetryRefund re-drives the external reversal for an order whose refund
// verdict stands but whose wire transfer failed.
func (s *DisputeService) RetryRefund(ctx context.Context, orderID, adminEmail string) (*model.Order, error) {
	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	if o.Status.AdminAction != model.AdminActionRefunded || o.Status.Payment != model.OrderPaymentRefundRequested {
		return nil, fmt.Errorf("%w: order %s has no pending refund", ErrValidationFailed, orderID)
	}

	if err := s.reverse(ctx, o, o.PaymentInfo.CryptoAmount); err != nil {
		return nil, fmt.Errorf("reversal retry for order %s: %w", orderID, err)
	}
	if ok, err := s.Orders.SetPaymentStatus(ctx, orderID, model.OrderPaymentRefundRequested, model.OrderPaymentRefunded); err != nil {
		return nil, err
	} else if ok {
		o.Status.Payment = model.OrderPaymentRefunded
	}
	log.Printf("dispute: refund for order %s completed on retry by %s", orderID, adminEmail)
	return o, nil
}

func (s *DisputeService) reverse(ctx context.Context, o *model.Order, amount float64) error {
	return s.Gateway.RequestReversal(ctx, o.PaymentInfo.CryptoMethod, o.PaymentInfo.CryptoAddress, amount)
}

func (s *DisputeService) notifyVerdict(ctx context.Context, o *model.Order, outcome string) {
	msg := fmt.Sprintf("Order %s dispute was resolved: funds %s.", o.OrderID, outcome)
	s.Notifier.Notify(ctx, o.BuyerInfo.Email, "Dispute resolved", msg, model.NotifyDisputeVerdict, o.OrderID)
	s.Notifier.Notify(ctx, o.SellerInfo.Email, "Dispute resolved", msg, model.NotifyDisputeVerdict, o.OrderID)
}
