package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// Create inserts a new payment in pending state with its cart snapshot.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	items, err := json.Marshal(p.LineItems)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO payments
			(paymentid, buyer_email, status, total_amount_fiat,
			 crypto_amount, crypto_method, crypto_address, line_items,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`
	_, err = r.DB.Exec(
		ctx, q,
		p.PaymentID, p.BuyerEmail, p.Status, p.TotalAmountFiat,
		p.CryptoAmount, p.CryptoMethod, p.CryptoAddress, items,
		p.CreatedAt,
	)
	return err
}

// GetByID returns the payment or (nil, nil) when no row exists.
func (r *PaymentRepository) GetByID(ctx context.Context, paymentID string) (*model.Payment, error) {
	q := `
		SELECT paymentid, buyer_email, status, total_amount_fiat,
		       crypto_amount, crypto_method, crypto_address, line_items,
		       created_at, updated_at
		FROM payments
		WHERE paymentid=$1
	`
	var p model.Payment
	var items []byte
	err := r.DB.QueryRow(ctx, q, paymentID).Scan(
		&p.PaymentID, &p.BuyerEmail, &p.Status, &p.TotalAmountFiat,
		&p.CryptoAmount, &p.CryptoMethod, &p.CryptoAddress, &items,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &p.LineItems); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByStatus returns payments in a given status, newest first.
func (r *PaymentRepository) ListByStatus(ctx context.Context, status string) ([]model.Payment, error) {
	q := `
		SELECT paymentid, buyer_email, status, total_amount_fiat,
		       crypto_amount, crypto_method, crypto_address, line_items,
		       created_at, updated_at
		FROM payments
		WHERE status=$1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.Query(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		var items []byte
		if err := rows.Scan(
			&p.PaymentID, &p.BuyerEmail, &p.Status, &p.TotalAmountFiat,
			&p.CryptoAmount, &p.CryptoMethod, &p.CryptoAddress, &items,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &p.LineItems); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Finalize moves a payment out of pending with a conditional write. The
// status check in the WHERE clause is the commit fence that stops two
// concurrent approvals from both fanning out. Returns false when the payment
// was not in pending state (or does not exist).
func (r *PaymentRepository) Finalize(ctx context.Context, paymentID, status string) (bool, error) {
	q := `
		UPDATE payments
		SET status=$2, updated_at=$3
		WHERE paymentid=$1 AND status='pending'
	`
	tag, err := r.DB.Exec(ctx, q, paymentID, status, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
