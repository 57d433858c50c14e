package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
	"github.com/sweetshop/checkout-service/internal/checkout/domain"
	"github.com/sweetshop/checkout-service/pkg/tracing"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    env TEXT NOT NULL,
    price BIGINT NOT NULL,
    price_tax_included BIGINT NOT NULL,
    postage BIGINT,
    total_price BIGINT NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    order_reference_id TEXT NOT NULL DEFAULT '',
    app_key TEXT NOT NULL DEFAULT '',
    buyer_name TEXT NOT NULL DEFAULT '',
    buyer_email TEXT NOT NULL DEFAULT '',
    buyer_phone TEXT NOT NULL DEFAULT '',
    destination_name TEXT NOT NULL DEFAULT '',
    destination_phone TEXT NOT NULL DEFAULT '',
    destination_postal_code TEXT NOT NULL DEFAULT '',
    destination_state_or_region TEXT NOT NULL DEFAULT '',
    destination_city TEXT NOT NULL DEFAULT '',
    destination_address1 TEXT NOT NULL DEFAULT '',
    destination_address2 TEXT NOT NULL DEFAULT '',
    destination_address3 TEXT NOT NULL DEFAULT '',
    buyer_furigana_sei TEXT NOT NULL DEFAULT '',
    buyer_furigana_mei TEXT NOT NULL DEFAULT '',
    buyer_password TEXT NOT NULL DEFAULT '',
    furigana_sei_msg TEXT NOT NULL DEFAULT '',
    furigana_mei_msg TEXT NOT NULL DEFAULT '',
    password_msg TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    order_id TEXT NOT NULL,
    sku TEXT NOT NULL,
    name TEXT NOT NULL,
    quantity INT NOT NULL,
    unit_price BIGINT NOT NULL,
    PRIMARY KEY (order_id, sku)
);

CREATE TABLE IF NOT EXISTS outbox (
    id BIGSERIAL PRIMARY KEY,
    aggregate_type TEXT NOT NULL,
    aggregate_id TEXT NOT NULL,
    type TEXT NOT NULL,
    payload BYTEA NOT NULL,
    traceparent TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending',
    relay_id TEXT,
    lease_until TIMESTAMPTZ,
    retry_count INT NOT NULL DEFAULT 0,
    last_error TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Migrate creates the tables if they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *Repository) Save(ctx context.Context, o domain.Order) error {
	return r.save(ctx, o, "", nil)
}

func (r *Repository) SaveWithEvent(ctx context.Context, o domain.Order, eventType string, payload []byte) error {
	return r.save(ctx, o, eventType, payload)
}

// save upserts the order and its items; when an event is given, the
// outbox row goes into the same transaction so the event cannot outlive
// a rolled-back write.
func (r *Repository) save(ctx context.Context, o domain.Order, eventType string, payload []byte) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, env, price, price_tax_included, postage, total_price, status,
			order_reference_id, app_key,
			buyer_name, buyer_email, buyer_phone,
			destination_name, destination_phone, destination_postal_code,
			destination_state_or_region, destination_city,
			destination_address1, destination_address2, destination_address3,
			buyer_furigana_sei, buyer_furigana_mei, buyer_password,
			furigana_sei_msg, furigana_mei_msg, password_msg,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
		ON CONFLICT (id) DO UPDATE SET
			postage=$5, total_price=$6, status=$7,
			order_reference_id=$8,
			buyer_name=$10, buyer_email=$11, buyer_phone=$12,
			destination_name=$13, destination_phone=$14, destination_postal_code=$15,
			destination_state_or_region=$16, destination_city=$17,
			destination_address1=$18, destination_address2=$19, destination_address3=$20,
			buyer_furigana_sei=$21, buyer_furigana_mei=$22, buyer_password=$23,
			furigana_sei_msg=$24, furigana_mei_msg=$25, password_msg=$26,
			updated_at=$28`,
		o.ID, o.Env, o.Price, o.PriceTaxIncluded, o.Postage, o.TotalPrice, o.Status,
		o.OrderReferenceID, o.AppKey,
		o.BuyerName, o.BuyerEmail, o.BuyerPhone,
		o.DestinationName, o.DestinationPhone, o.DestinationPostalCode,
		o.DestinationStateOrRegion, o.DestinationCity,
		o.DestinationAddress1, o.DestinationAddress2, o.DestinationAddress3,
		o.BuyerFuriganaSei, o.BuyerFuriganaMei, o.BuyerPassword,
		o.FuriganaSeiMsg, o.FuriganaMeiMsg, o.PasswordMsg,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, sku, name, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (order_id, sku) DO UPDATE SET name=$3, quantity=$4, unit_price=$5`,
			o.ID, item.SKU, item.Name, item.Quantity, item.UnitPrice)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	if eventType != "" {
		_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,'pending')`,
			"order", o.ID, eventType, payload, tracing.Traceparent(ctx))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, env, price, price_tax_included, postage, total_price, status,
			order_reference_id, app_key,
			buyer_name, buyer_email, buyer_phone,
			destination_name, destination_phone, destination_postal_code,
			destination_state_or_region, destination_city,
			destination_address1, destination_address2, destination_address3,
			buyer_furigana_sei, buyer_furigana_mei, buyer_password,
			furigana_sei_msg, furigana_mei_msg, password_msg,
			created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Env, &o.Price, &o.PriceTaxIncluded, &o.Postage, &o.TotalPrice, &o.Status,
			&o.OrderReferenceID, &o.AppKey,
			&o.BuyerName, &o.BuyerEmail, &o.BuyerPhone,
			&o.DestinationName, &o.DestinationPhone, &o.DestinationPostalCode,
			&o.DestinationStateOrRegion, &o.DestinationCity,
			&o.DestinationAddress1, &o.DestinationAddress2, &o.DestinationAddress3,
			&o.BuyerFuriganaSei, &o.BuyerFuriganaMei, &o.BuyerPassword,
			&o.FuriganaSeiMsg, &o.FuriganaMeiMsg, &o.PasswordMsg,
			&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, application.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT sku, name, quantity, unit_price FROM order_items WHERE order_id=$1 ORDER BY sku`, id)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.SKU, &item.Name, &item.Quantity, &item.UnitPrice); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}
