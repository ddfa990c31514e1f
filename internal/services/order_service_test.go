package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"
)

// paidOrder seeds a freshly settled order: shipping pending, payment paid,
// no buyer or admin action.
func paidOrder(id string) *model.Order {
	now := time.Now()
	return &model.Order{
		OrderID:     id,
		PaymentID:   "pay-1",
		ProductCode: "prod-" + id,
		BuyerInfo:   model.BuyerInfo{Email: "buyer@example.com", Name: "Buyer"},
		SellerInfo:  model.SellerInfo{Email: "seller@example.com", Name: "Seller"},
		ProductInfo: model.ProductInfo{ProductCode: "prod-" + id, Name: "Widget", UnitPrice: 100, Quantity: 1},
		PaymentInfo: model.PaymentInfo{
			Amount: 100, CryptoAmount: 0.5, CryptoMethod: "BTC", CryptoAddress: "bc1qbuyer",
		},
		Status: model.OrderStatus{
			Shipping:    model.ShippingPending,
			BuyerAction: model.BuyerActionNone,
			Payment:     model.OrderPaymentPaid,
			AdminAction: model.AdminActionNone,
		},
		CommissionRate: 0.05,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func seedOrder(orders *mockOrderStore, o *model.Order) {
	orders.orders[o.OrderID] = o
}

func TestOrderService_Shipping(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a pending order When the seller ships Then shipped and buyer notified", func(t *testing.T) {
		orders := newMockOrderStore()
		notifier := &mockNotifier{}
		svc := NewOrderService(orders, notifier, 7*24*time.Hour)
		seedOrder(orders, paidOrder("ord-1"))

		o, err := svc.MarkShipped(ctx, "ord-1", "seller@example.com")

		if err != nil {
			t.Fatalf("MarkShipped failed: %v", err)
		}
		if o.Status.Shipping != model.ShippingShipped {
			t.Errorf("shipping = %s, want shipped", o.Status.Shipping)
		}
		if o.ShippedAt == nil {
			t.Error("shipped_at not stamped")
		}
		if n := notifier.sentTo("buyer@example.com", model.NotifyOrderShipped); n != 1 {
			t.Errorf("buyer notifications = %d, want 1", n)
		}
	})

	t.Run("Given another seller's order When shipped Then ValidationFailed", func(t *testing.T) {
		orders := newMockOrderStore()
		svc := NewOrderService(orders, &mockNotifier{}, 7*24*time.Hour)
		seedOrder(orders, paidOrder("ord-1"))

		_, err := svc.MarkShipped(ctx, "ord-1", "mallory@example.com")

		if !errors.Is(err, ErrValidationFailed) {
			t.Fatalf("error = %v, want ErrValidationFailed", err)
		}
	})

	t.Run("Given a shipped order When the buyer confirms Then received and confirmed", func(t *testing.T) {
		orders := newMockOrderStore()
		svc := NewOrderService(orders, &mockNotifier{}, 7*24*time.Hour)
		o := paidOrder("ord-1")
		now := time.Now()
		o.Status.Shipping = model.ShippingShipped
		o.ShippedAt = &now
		seedOrder(orders, o)

		got, err := svc.ConfirmReceived(ctx, "ord-1", "buyer@example.com")

		if err != nil {
			t.Fatalf("ConfirmReceived failed: %v", err)
		}
		if got.Status.Shipping != model.ShippingReceived || got.Status.BuyerAction != model.BuyerActionConfirmed {
			t.Errorf("status = %+v", got.Status)
		}
	})

	t.Run("Given a finalized order When mutated Then OrderFinalized", func(t *testing.T) {
		orders := newMockOrderStore()
		svc := NewOrderService(orders, &mockNotifier{}, 7*24*time.Hour)
		o := paidOrder("ord-1")
		o.Status.AdminAction = model.AdminActionReleased
		seedOrder(orders, o)

		_, err := svc.MarkShipped(ctx, "ord-1", "seller@example.com")

		if !errors.Is(err, ErrOrderFinalized) {
			t.Fatalf("error = %v, want ErrOrderFinalized", err)
		}
	})

	t.Run("Given an unknown order When shipped Then NotFound", func(t *testing.T) {
		svc := NewOrderService(newMockOrderStore(), &mockNotifier{}, 7*24*time.Hour)

		_, err := svc.MarkShipped(ctx, "nope", "seller@example.com")

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestOrderService_AutoConfirmSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("Given shipped orders in and out of the window When swept Then only stale undisputed orders flip", func(t *testing.T) {
		// Given
		orders := newMockOrderStore()
		svc := NewOrderService(orders, &mockNotifier{}, 7*24*time.Hour)

		stale := paidOrder("ord-old")
		staleShipped := time.Now().Add(-8 * 24 * time.Hour)
		stale.Status.Shipping = model.ShippingShipped
		stale.ShippedAt = &staleShipped
		seedOrder(orders, stale)

		fresh := paidOrder("ord-new")
		freshShipped := time.Now().Add(-2 * 24 * time.Hour)
		fresh.Status.Shipping = model.ShippingShipped
		fresh.ShippedAt = &freshShipped
		seedOrder(orders, fresh)

		disputed := paidOrder("ord-disputed")
		disputed.Status.Shipping = model.ShippingShipped
		disputed.Status.BuyerAction = model.BuyerActionDisputed
		disputed.ShippedAt = &staleShipped
		seedOrder(orders, disputed)

		// When
		n, err := svc.AutoConfirmSweep(ctx)

		// Then
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if n != 1 {
			t.Errorf("swept = %d, want 1", n)
		}
		if orders.orders["ord-old"].Status.Shipping != model.ShippingReceived {
			t.Error("stale order should be received")
		}
		if orders.orders["ord-new"].Status.Shipping != model.ShippingShipped {
			t.Error("fresh order should stay shipped")
		}
		if orders.orders["ord-disputed"].Status.Shipping != model.ShippingShipped {
			t.Error("disputed order must not auto-confirm")
		}

		// And sweeping again is a no-op
		n, err = svc.AutoConfirmSweep(ctx)
		if err != nil || n != 0 {
			t.Errorf("second sweep = %d, %v, want 0, nil", n, err)
		}
	})
}
