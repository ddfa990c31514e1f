package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"

	"github.com/shopspring/decimal"
)

const defaultCommissionRate = 0.05

// CommissionRateFromEnv reads the platform commission rate once at startup.
// The rate is snapshotted onto orders at creation, so changing the env and
// restarting never alters historical payouts.
func CommissionRateFromEnv() float64 {
	v := os.Getenv("COMMISSION_RATE")
	if v == "" {
		return defaultCommissionRate
	}
	rate, err := strconv.ParseFloat(v, 64)
	if err != nil || rate < 0 || rate >= 1 {
		log.Printf("payout: invalid COMMISSION_RATE %q, using default %v", v, defaultCommissionRate)
		return defaultCommissionRate
	}
	return rate
}

// CommissionBreakdown is a seller's earnings split for one order.
type CommissionBreakdown struct {
	Gross      float64 `json:"gross"`
	Rate       float64 `json:"rate"`
	Commission float64 `json:"commission"`
	Net        float64 `json:"net"`
}

// ComputeCommission splits a gross amount at the given rate, rounding to
// cents. The rate must be the one snapshotted on the order, never a live
// configuration lookup.
func ComputeCommission(gross, rate float64) CommissionBreakdown {
	g := decimal.NewFromFloat(gross).Round(2)
	commission := g.Mul(decimal.NewFromFloat(rate)).Round(2)
	net := g.Sub(commission)
	return CommissionBreakdown{
		Gross:      g.InexactFloat64(),
		Rate:       rate,
		Commission: commission.InexactFloat64(),
		Net:        net.InexactFloat64(),
	}
}

// SplitCommission reduces an order's gross to the seller's fraction and
// recomputes commission on the reduced amount at the snapshotted rate.
func SplitCommission(gross, rate, sellerFraction float64) CommissionBreakdown {
	reduced := decimal.NewFromFloat(gross).
		Mul(decimal.NewFromFloat(sellerFraction)).
		Round(2)
	return ComputeCommission(reduced.InexactFloat64(), rate)
}

type PayoutService struct {
	Sellers  SellerStore
	Notifier Notifier
}

func NewPayoutService(sellers SellerStore, notifier Notifier) *PayoutService {
	return &PayoutService{Sellers: sellers, Notifier: notifier}
}

func (s *PayoutService) ListEntries(ctx context.Context, sellerEmail string) ([]model.PayoutEntry, error) {
	return s.Sellers.ListEntries(ctx, sellerEmail)
}

// RequestPayout moves the seller's entry for one order pending -> requested.
// The conditional write keys on both the entry status and the parent order's
// eligibility, so a duplicate request or a frozen order fails with
// ErrNotFound rather than double-firing.
func (s *PayoutService) RequestPayout(ctx context.Context, sellerEmail, orderID string) (*model.PayoutEntry, error) {
	ok, err := s.Sellers.RequestPayout(ctx, sellerEmail, orderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no eligible pending payout for order %s", ErrNotFound, orderID)
	}
	e, err := s.Sellers.GetEntryByOrder(ctx, sellerEmail, orderID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

// MarkPaid moves an entry requested -> paid. Terminal.
func (s *PayoutService) MarkPaid(ctx context.Context, entryID, adminEmail string) (*model.PayoutEntry, error) {
	e, err := s.Sellers.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}

	ok, err := s.Sellers.MarkPaid(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: payout entry %s is %s, not requested, or its order is refunded",
			ErrValidationFailed, entryID, e.PayoutStatus)
	}
	log.Printf("payout: entry %s (order %s) marked paid by %s", entryID, e.OrderID, adminEmail)
	e.PayoutStatus = model.PayoutPaid

	s.Notifier.Notify(ctx,
		e.SellerEmail,
		"Payout sent",
		fmt.Sprintf("Your payout of %.2f for order %s has been sent.", e.NetAmount, e.OrderID),
		model.NotifyPayoutPaid,
		e.OrderID,
	)
	return e, nil
}
