package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SellerRepository struct {
	DB *pgxpool.Pool
}

func NewSellerRepository(db *pgxpool.Pool) *SellerRepository {
	return &SellerRepository{DB: db}
}

// GetByEmail returns the seller or (nil, nil) when no row exists.
func (r *SellerRepository) GetByEmail(ctx context.Context, email string) (*model.Seller, error) {
	q := `SELECT email, name, phone, country FROM sellers WHERE email=$1`
	var s model.Seller
	err := r.DB.QueryRow(ctx, q, email).Scan(&s.Email, &s.Name, &s.Phone, &s.Country)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreatePayoutEntry inserts a payout ledger row for a settled order. The
// unique key on (seller_email, orderid) keeps fan-out re-runs from creating
// a second entry for the same order.
func (r *SellerRepository) CreatePayoutEntry(ctx context.Context, e *model.PayoutEntry) error {
	q := `
		INSERT INTO seller_payout_entries
			(entryid, seller_email, paymentid, orderid,
			 gross_amount, commission_rate, commission, net_amount,
			 payout_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (seller_email, orderid) DO NOTHING
	`
	_, err := r.DB.Exec(
		ctx, q,
		e.EntryID, e.SellerEmail, e.PaymentID, e.OrderID,
		e.GrossAmount, e.CommissionRate, e.Commission, e.NetAmount,
		e.PayoutStatus, e.CreatedAt,
	)
	return err
}

const payoutColumns = `entryid, seller_email, paymentid, orderid,
	gross_amount, commission_rate, commission, net_amount,
	payout_status, created_at, updated_at`

func scanPayoutEntry(row pgx.Row) (*model.PayoutEntry, error) {
	var e model.PayoutEntry
	err := row.Scan(
		&e.EntryID, &e.SellerEmail, &e.PaymentID, &e.OrderID,
		&e.GrossAmount, &e.CommissionRate, &e.Commission, &e.NetAmount,
		&e.PayoutStatus, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEntry returns a payout entry by id or (nil, nil) when no row exists.
func (r *SellerRepository) GetEntry(ctx context.Context, entryID string) (*model.PayoutEntry, error) {
	q := `SELECT ` + payoutColumns + ` FROM seller_payout_entries WHERE entryid=$1`
	e, err := scanPayoutEntry(r.DB.QueryRow(ctx, q, entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// GetEntryByOrder returns a seller's payout entry for one order.
func (r *SellerRepository) GetEntryByOrder(ctx context.Context, sellerEmail, orderID string) (*model.PayoutEntry, error) {
	q := `SELECT ` + payoutColumns + ` FROM seller_payout_entries WHERE seller_email=$1 AND orderid=$2`
	e, err := scanPayoutEntry(r.DB.QueryRow(ctx, q, sellerEmail, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// ListEntries returns a seller's payout ledger, newest first.
func (r *SellerRepository) ListEntries(ctx context.Context, sellerEmail string) ([]model.PayoutEntry, error) {
	q := `SELECT ` + payoutColumns + ` FROM seller_payout_entries WHERE seller_email=$1 ORDER BY created_at DESC`
	rows, err := r.DB.Query(ctx, q, sellerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PayoutEntry
	for rows.Next() {
		e, err := scanPayoutEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// RequestPayout moves one entry pending -> requested, but only while the
// parent order is payout-eligible. Both the status and the eligibility check
// sit in the WHERE clause, so two concurrent requests cannot both fire.
func (r *SellerRepository) RequestPayout(ctx context.Context, sellerEmail, orderID string) (bool, error) {
	q := `
		UPDATE seller_payout_entries e
		SET payout_status='requested', updated_at=$3
		FROM orders o
		WHERE e.orderid = o.orderid
		  AND e.seller_email=$1 AND e.orderid=$2
		  AND e.payout_status='pending'
		  AND o.payment_status='paid'
		  AND (o.admin_action IN ('released', 'split')
		       OR (o.admin_action='none' AND o.buyer_action <> 'disputed'))
	`
	tag, err := r.DB.Exec(ctx, q, sellerEmail, orderID, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkPaid moves one entry requested -> paid. An entry whose order was
// refunded can never reach paid, even if it was requested before the refund.
func (r *SellerRepository) MarkPaid(ctx context.Context, entryID string) (bool, error) {
	q := `
		UPDATE seller_payout_entries e
		SET payout_status='paid', updated_at=$2
		FROM orders o
		WHERE e.orderid = o.orderid
		  AND e.entryid=$1
		  AND e.payout_status='requested'
		  AND o.admin_action <> 'refunded'
		  AND o.payment_status NOT IN ('refunded', 'refund_requested')
	`
	tag, err := r.DB.Exec(ctx, q, entryID, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateEntryAmounts rewrites the money columns of a still-pending entry.
// Used when a split verdict reduces the seller's share.
func (r *SellerRepository) UpdateEntryAmounts(ctx context.Context, sellerEmail, orderID string, gross, commission, net float64) (bool, error) {
	q := `
		UPDATE seller_payout_entries
		SET gross_amount=$3, commission=$4, net_amount=$5, updated_at=$6
		WHERE seller_email=$1 AND orderid=$2 AND payout_status='pending'
	`
	tag, err := r.DB.Exec(ctx, q, sellerEmail, orderID, gross, commission, net, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
