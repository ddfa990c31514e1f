package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateOrder means an order already exists for the same
// (paymentid, product_code) pair — a re-entrant fan-out hit an existing row.
var ErrDuplicateOrder = errors.New("order already exists for payment line")

// ErrOrderIDCollision means the generated human-readable order id clashed;
// the caller retries with a fresh id.
var ErrOrderIDCollision = errors.New("order id collision")

const uniqueViolation = "23505"

type OrderRepository struct {
	DB *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{DB: db}
}

const orderColumns = `orderid, paymentid, product_code,
	buyer_info, product_info, seller_info, payment_info,
	shipping_status, buyer_action, payment_status, admin_action,
	commission_rate, dispute, created_at, updated_at, shipped_at`

// Create inserts a new order. The unique key on (paymentid, product_code)
// makes fan-out idempotent per payment line.
func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	buyerInfo, err := json.Marshal(o.BuyerInfo)
	if err != nil {
		return err
	}
	productInfo, err := json.Marshal(o.ProductInfo)
	if err != nil {
		return err
	}
	sellerInfo, err := json.Marshal(o.SellerInfo)
	if err != nil {
		return err
	}
	paymentInfo, err := json.Marshal(o.PaymentInfo)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO orders
			(orderid, paymentid, product_code,
			 buyer_info, product_info, seller_info, payment_info,
			 shipping_status, buyer_action, payment_status, admin_action,
			 commission_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`
	_, err = r.DB.Exec(
		ctx, q,
		o.OrderID, o.PaymentID, o.ProductCode,
		buyerInfo, productInfo, sellerInfo, paymentInfo,
		o.Status.Shipping, o.Status.BuyerAction, o.Status.Payment, o.Status.AdminAction,
		o.CommissionRate, o.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "orders_pkey" {
			return ErrOrderIDCollision
		}
		return ErrDuplicateOrder
	}
	return err
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	var buyerInfo, productInfo, sellerInfo, paymentInfo, dispute []byte
	err := row.Scan(
		&o.OrderID, &o.PaymentID, &o.ProductCode,
		&buyerInfo, &productInfo, &sellerInfo, &paymentInfo,
		&o.Status.Shipping, &o.Status.BuyerAction, &o.Status.Payment, &o.Status.AdminAction,
		&o.CommissionRate, &dispute, &o.CreatedAt, &o.UpdatedAt, &o.ShippedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(buyerInfo, &o.BuyerInfo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(productInfo, &o.ProductInfo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sellerInfo, &o.SellerInfo); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(paymentInfo, &o.PaymentInfo); err != nil {
		return nil, err
	}
	if len(dispute) > 0 {
		if err := json.Unmarshal(dispute, &o.Dispute); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

// GetByID returns the order or (nil, nil) when no row exists.
func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE orderid=$1`
	o, err := scanOrder(r.DB.QueryRow(ctx, q, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *OrderRepository) list(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *OrderRepository) ListByPayment(ctx context.Context, paymentID string) ([]model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE paymentid=$1 ORDER BY orderid`
	return r.list(ctx, q, paymentID)
}

func (r *OrderRepository) ListBySeller(ctx context.Context, sellerEmail string) ([]model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE seller_info->>'email'=$1 ORDER BY created_at DESC`
	return r.list(ctx, q, sellerEmail)
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE buyer_info->>'email'=$1 ORDER BY created_at DESC`
	return r.list(ctx, q, buyerEmail)
}

// MarkShipped moves shipping pending -> shipped for the owning seller.
func (r *OrderRepository) MarkShipped(ctx context.Context, orderID, sellerEmail string) (bool, error) {
	q := `
		UPDATE orders
		SET shipping_status='shipped', shipped_at=$3, updated_at=$3
		WHERE orderid=$1 AND seller_info->>'email'=$2
		  AND shipping_status='pending' AND admin_action='none'
	`
	tag, err := r.DB.Exec(ctx, q, orderID, sellerEmail, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ConfirmReceived moves shipping shipped -> received and buyer action
// none -> confirmed for the owning buyer.
func (r *OrderRepository) ConfirmReceived(ctx context.Context, orderID, buyerEmail string) (bool, error) {
	q := `
		UPDATE orders
		SET shipping_status='received', buyer_action='confirmed', updated_at=$3
		WHERE orderid=$1 AND buyer_info->>'email'=$2
		  AND shipping_status='shipped' AND buyer_action='none' AND admin_action='none'
	`
	tag, err := r.DB.Exec(ctx, q, orderID, buyerEmail, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AutoConfirm marks every shipped, undisputed order older than the cutoff as
// received. Conditional on current state, so running it twice is a no-op.
func (r *OrderRepository) AutoConfirm(ctx context.Context, cutoff time.Time) (int64, error) {
	q := `
		UPDATE orders
		SET shipping_status='received', updated_at=$2
		WHERE shipping_status='shipped' AND buyer_action='none'
		  AND admin_action='none' AND shipped_at <= $1
	`
	tag, err := r.DB.Exec(ctx, q, cutoff, time.Now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FileDispute records a dispute and locks the buyer action axis to disputed.
func (r *OrderRepository) FileDispute(ctx context.Context, orderID, buyerEmail string, d *model.Dispute) (bool, error) {
	dispute, err := json.Marshal(d)
	if err != nil {
		return false, err
	}
	q := `
		UPDATE orders
		SET buyer_action='disputed', dispute=$3, updated_at=$4
		WHERE orderid=$1 AND buyer_info->>'email'=$2
		  AND buyer_action <> 'disputed' AND admin_action='none'
	`
	tag, err := r.DB.Exec(ctx, q, orderID, buyerEmail, dispute, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Resolve writes the terminal admin action. The admin_action='none' guard is
// the double-resolution fence. paymentStatus is applied only when non-empty.
func (r *OrderRepository) Resolve(ctx context.Context, orderID, adminAction, paymentStatus string, d *model.Dispute) (bool, error) {
	dispute, err := json.Marshal(d)
	if err != nil {
		return false, err
	}
	q := `
		UPDATE orders
		SET admin_action=$2,
		    payment_status=COALESCE(NULLIF($3, ''), payment_status),
		    dispute=$4, updated_at=$5
		WHERE orderid=$1 AND admin_action='none'
	`
	tag, err := r.DB.Exec(ctx, q, orderID, adminAction, paymentStatus, dispute, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetPaymentStatus conditionally advances the payment axis.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, orderID, from, to string) (bool, error) {
	q := `
		UPDATE orders
		SET payment_status=$3, updated_at=$4
		WHERE orderid=$1 AND payment_status=$2
	`
	tag, err := r.DB.Exec(ctx, q, orderID, from, to, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
