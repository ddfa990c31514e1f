package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BuyerRepository struct {
	DB *pgxpool.Pool
}

func NewBuyerRepository(db *pgxpool.Pool) *BuyerRepository {
	return &BuyerRepository{DB: db}
}

// GetByEmail returns the buyer or (nil, nil) when no row exists.
func (r *BuyerRepository) GetByEmail(ctx context.Context, email string) (*model.Buyer, error) {
	q := `SELECT email, name, phone, country, balance, addresses FROM buyers WHERE email=$1`
	var b model.Buyer
	var addresses []byte
	err := r.DB.QueryRow(ctx, q, email).Scan(
		&b.Email, &b.Name, &b.Phone, &b.Country, &b.Balance, &addresses,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(addresses) > 0 {
		if err := json.Unmarshal(addresses, &b.Addresses); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

// CreditPayment appends a history entry keyed by payment id and bumps the
// balance in the same statement, so a crash can never separate the
// idempotency fence from the credit it guards. Retrying an already-credited
// payment is a no-op. Returns whether the credit was applied this call.
func (r *BuyerRepository) CreditPayment(ctx context.Context, email string, e model.BuyerPaymentEntry) (bool, error) {
	q := `
		WITH ins AS (
			INSERT INTO buyer_payment_history
				(buyer_email, paymentid, amount_paid, crypto_amount,
				 crypto_method, order_total, paid_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (buyer_email, paymentid) DO NOTHING
			RETURNING 1
		), bump AS (
			UPDATE buyers SET balance = balance + $3
			WHERE email=$1 AND EXISTS (SELECT 1 FROM ins)
		)
		SELECT EXISTS (SELECT 1 FROM ins)
	`
	var credited bool
	err := r.DB.QueryRow(
		ctx, q,
		email, e.PaymentID, e.AmountPaid, e.CryptoAmount,
		e.CryptoMethod, e.OrderTotal, e.PaidAt,
	).Scan(&credited)
	if err != nil {
		return false, err
	}
	return credited, nil
}

// History returns the buyer's payment history, newest first.
func (r *BuyerRepository) History(ctx context.Context, email string) ([]model.BuyerPaymentEntry, error) {
	q := `
		SELECT paymentid, amount_paid, crypto_amount, crypto_method, order_total, paid_at
		FROM buyer_payment_history
		WHERE buyer_email=$1
		ORDER BY paid_at DESC
	`
	rows, err := r.DB.Query(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BuyerPaymentEntry
	for rows.Next() {
		var e model.BuyerPaymentEntry
		if err := rows.Scan(
			&e.PaymentID, &e.AmountPaid, &e.CryptoAmount,
			&e.CryptoMethod, &e.OrderTotal, &e.PaidAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
