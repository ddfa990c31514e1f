package db

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the shared pool from DATABASE_URL.
func Connect() (*pgxpool.Pool, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// schema holds the ledger tables. Idempotent; applied at startup.
const schema = `
CREATE TABLE IF NOT EXISTS payments (
	paymentid         text PRIMARY KEY,
	buyer_email       text NOT NULL,
	status            text NOT NULL,
	total_amount_fiat double precision NOT NULL,
	crypto_amount     double precision NOT NULL,
	crypto_method     text NOT NULL,
	crypto_address    text NOT NULL DEFAULT '',
	line_items        jsonb NOT NULL,
	created_at        timestamptz NOT NULL,
	updated_at        timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	orderid         text PRIMARY KEY,
	paymentid       text NOT NULL,
	product_code    text NOT NULL,
	buyer_info      jsonb NOT NULL,
	product_info    jsonb NOT NULL,
	seller_info     jsonb NOT NULL,
	payment_info    jsonb NOT NULL,
	shipping_status text NOT NULL,
	buyer_action    text NOT NULL,
	payment_status  text NOT NULL,
	admin_action    text NOT NULL,
	commission_rate double precision NOT NULL,
	dispute         jsonb,
	created_at      timestamptz NOT NULL,
	updated_at      timestamptz NOT NULL,
	shipped_at      timestamptz,
	UNIQUE (paymentid, product_code)
);

CREATE TABLE IF NOT EXISTS buyers (
	email     text PRIMARY KEY,
	name      text NOT NULL DEFAULT '',
	phone     text NOT NULL DEFAULT '',
	country   text NOT NULL DEFAULT '',
	balance   double precision NOT NULL DEFAULT 0,
	addresses jsonb NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS buyer_payment_history (
	buyer_email   text NOT NULL,
	paymentid     text NOT NULL,
	amount_paid   double precision NOT NULL,
	crypto_amount double precision NOT NULL,
	crypto_method text NOT NULL,
	order_total   double precision NOT NULL,
	paid_at       timestamptz NOT NULL,
	UNIQUE (buyer_email, paymentid)
);

CREATE TABLE IF NOT EXISTS sellers (
	email   text PRIMARY KEY,
	name    text NOT NULL DEFAULT '',
	phone   text NOT NULL DEFAULT '',
	country text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS seller_payout_entries (
	entryid         text PRIMARY KEY,
	seller_email    text NOT NULL,
	paymentid       text NOT NULL,
	orderid         text NOT NULL,
	gross_amount    double precision NOT NULL,
	commission_rate double precision NOT NULL,
	commission      double precision NOT NULL,
	net_amount      double precision NOT NULL,
	payout_status   text NOT NULL,
	created_at      timestamptz NOT NULL,
	updated_at      timestamptz NOT NULL,
	UNIQUE (seller_email, orderid)
);

CREATE TABLE IF NOT EXISTS notifications (
	id                 text PRIMARY KEY,
	recipient_email    text NOT NULL,
	title              text NOT NULL,
	message            text NOT NULL,
	type               text NOT NULL,
	related_orderid    text NOT NULL DEFAULT '',
	related_order_link text NOT NULL DEFAULT '',
	read               boolean NOT NULL DEFAULT false,
	created_at         timestamptz NOT NULL
);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
