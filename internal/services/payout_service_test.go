package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"
)

func newTestPayout() (*PayoutService, *mockOrderStore, *mockSellerStore, *mockNotifier) {
	orders := newMockOrderStore()
	sellers := newMockSellerStore(orders)
	notifier := &mockNotifier{}
	return NewPayoutService(sellers, notifier), orders, sellers, notifier
}

func TestPayoutService_RequestPayout(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a pending entry on a clean paid order When requested Then requested", func(t *testing.T) {
		svc, orders, sellers, _ := newTestPayout()
		o := paidOrder("ord-1")
		seedOrder(orders, o)
		seedEntry(sellers, o)

		e, err := svc.RequestPayout(ctx, "seller@example.com", "ord-1")

		if err != nil {
			t.Fatalf("RequestPayout failed: %v", err)
		}
		if e.PayoutStatus != model.PayoutRequested {
			t.Errorf("status = %s, want requested", e.PayoutStatus)
		}
	})

	t.Run("Given a requested entry When requested again Then exactly one transition fires", func(t *testing.T) {
		svc, orders, sellers, _ := newTestPayout()
		o := paidOrder("ord-1")
		seedOrder(orders, o)
		seedEntry(sellers, o)

		if _, err := svc.RequestPayout(ctx, "seller@example.com", "ord-1"); err != nil {
			t.Fatalf("first request failed: %v", err)
		}

		_, err := svc.RequestPayout(ctx, "seller@example.com", "ord-1")

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("second request = %v, want ErrNotFound", err)
		}
	})

	t.Run("Given no entry When requested Then NotFound", func(t *testing.T) {
		svc, orders, _, _ := newTestPayout()
		seedOrder(orders, paidOrder("ord-1"))

		_, err := svc.RequestPayout(ctx, "seller@example.com", "ord-1")

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestPayoutService_MarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a requested entry When marked paid Then terminal and seller notified", func(t *testing.T) {
		svc, orders, sellers, notifier := newTestPayout()
		o := paidOrder("ord-1")
		seedOrder(orders, o)
		e := seedEntry(sellers, o)
		if _, err := svc.RequestPayout(ctx, "seller@example.com", "ord-1"); err != nil {
			t.Fatalf("request failed: %v", err)
		}

		got, err := svc.MarkPaid(ctx, e.EntryID, "admin@example.com")

		if err != nil {
			t.Fatalf("MarkPaid failed: %v", err)
		}
		if got.PayoutStatus != model.PayoutPaid {
			t.Errorf("status = %s, want paid", got.PayoutStatus)
		}
		if n := notifier.sentTo("seller@example.com", model.NotifyPayoutPaid); n != 1 {
			t.Errorf("seller notifications = %d, want 1", n)
		}

		// Terminal: a second mark fails.
		if _, err := svc.MarkPaid(ctx, e.EntryID, "admin@example.com"); !errors.Is(err, ErrValidationFailed) {
			t.Errorf("second mark = %v, want ErrValidationFailed", err)
		}
	})

	t.Run("Given a pending entry When marked paid Then it must pass through requested first", func(t *testing.T) {
		svc, orders, sellers, _ := newTestPayout()
		o := paidOrder("ord-1")
		seedOrder(orders, o)
		e := seedEntry(sellers, o)

		_, err := svc.MarkPaid(ctx, e.EntryID, "admin@example.com")

		if !errors.Is(err, ErrValidationFailed) {
			t.Fatalf("error = %v, want ErrValidationFailed", err)
		}
	})

	t.Run("Given a refund after the request When marked paid Then the entry never reaches paid", func(t *testing.T) {
		// Given: entry requested, then the order is refunded
		svc, orders, sellers, _ := newTestPayout()
		o := paidOrder("ord-1")
		seedOrder(orders, o)
		e := seedEntry(sellers, o)
		if _, err := svc.RequestPayout(ctx, "seller@example.com", "ord-1"); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		orders.orders["ord-1"].Status.AdminAction = model.AdminActionRefunded
		orders.orders["ord-1"].Status.Payment = model.OrderPaymentRefunded

		// When
		_, err := svc.MarkPaid(ctx, e.EntryID, "admin@example.com")

		// Then
		if !errors.Is(err, ErrValidationFailed) {
			t.Fatalf("error = %v, want ErrValidationFailed", err)
		}
		if e.PayoutStatus == model.PayoutPaid {
			t.Error("refunded order's entry must never be paid")
		}
	})

	t.Run("Given an unknown entry When marked paid Then NotFound", func(t *testing.T) {
		svc, _, _, _ := newTestPayout()

		_, err := svc.MarkPaid(ctx, "nope", "admin@example.com")

		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestComputeCommission(t *testing.T) {
	cases := []struct {
		name       string
		gross      float64
		rate       float64
		commission float64
		net        float64
	}{
		{"five percent", 150, 0.05, 7.5, 142.5},
		{"rounding to cents", 99.99, 0.1, 10.0, 89.99},
		{"zero rate", 80, 0, 0, 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeCommission(tc.gross, tc.rate)
			if got.Commission != tc.commission || got.Net != tc.net {
				t.Errorf("ComputeCommission(%v, %v) = %v/%v, want %v/%v",
					tc.gross, tc.rate, got.Commission, got.Net, tc.commission, tc.net)
			}
		})
	}
}
