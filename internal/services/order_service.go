package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"
)

type OrderService struct {
	Orders   OrderStore
	Notifier Notifier

	// AutoConfirmAfter is the no-dispute window after which a shipped order
	// is treated as received.
	AutoConfirmAfter time.Duration
}

func NewOrderService(orders OrderStore, notifier Notifier, autoConfirmAfter time.Duration) *OrderService {
	return &OrderService{Orders: orders, Notifier: notifier, AutoConfirmAfter: autoConfirmAfter}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *OrderService) ListBySeller(ctx context.Context, sellerEmail string) ([]model.Order, error) {
	return s.Orders.ListBySeller(ctx, sellerEmail)
}

func (s *OrderService) ListByBuyer(ctx context.Context, buyerEmail string) ([]model.Order, error) {
	return s.Orders.ListByBuyer(ctx, buyerEmail)
}

// MarkShipped is the seller action moving shipping pending -> shipped.
func (s *OrderService) MarkShipped(ctx context.Context, orderID, sellerEmail string) (*model.Order, error) {
	ok, err := s.Orders.MarkShipped(ctx, orderID, sellerEmail)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailure(ctx, orderID, sellerEmail, "ship")
	}

	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil || o == nil {
		return nil, ErrNotFound
	}
	s.Notifier.Notify(ctx,
		o.BuyerInfo.Email,
		"Your order has shipped",
		fmt.Sprintf("Order %s (%s) was shipped by the seller.", o.OrderID, o.ProductInfo.Name),
		model.NotifyOrderShipped,
		o.OrderID,
	)
	return o, nil
}

// ConfirmReceived is the buyer action moving shipping shipped -> received
// and buyer action none -> confirmed.
func (s *OrderService) ConfirmReceived(ctx context.Context, orderID, buyerEmail string) (*model.Order, error) {
	ok, err := s.Orders.ConfirmReceived(ctx, orderID, buyerEmail)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionFailure(ctx, orderID, buyerEmail, "confirm")
	}
	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil || o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

// AutoConfirmSweep marks shipped, undisputed orders older than the window as
// received. Scheduled transition, idempotent by construction.
func (s *OrderService) AutoConfirmSweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.AutoConfirmAfter)
	n, err := s.Orders.AutoConfirm(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("orders: auto-confirmed %d orders shipped before %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}

// transitionFailure turns a failed conditional write into the right error
// for the caller: missing order, terminal order, or a plain invalid move.
func (s *OrderService) transitionFailure(ctx context.Context, orderID, actorEmail, action string) error {
	o, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrNotFound
	}
	if o.Status.AdminAction != model.AdminActionNone {
		return ErrOrderFinalized
	}
	return fmt.Errorf("%w: cannot %s order %s for %s in state %+v",
		ErrValidationFailed, action, orderID, actorEmail, o.Status)
}
