package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id               TEXT PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	sku              TEXT NOT NULL DEFAULT '',
	base_price_cents BIGINT NOT NULL DEFAULT 0,
	currency         TEXT NOT NULL DEFAULT 'USD',
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_products_tenant ON products (tenant_id);

CREATE TABLE IF NOT EXISTS product_variants (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	product_id  TEXT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
	sku         TEXT NOT NULL DEFAULT '',
	options     JSONB NOT NULL DEFAULT '{}',
	price_cents BIGINT,
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_variants_product ON product_variants (tenant_id, product_id);

CREATE TABLE IF NOT EXISTS prices (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	product_id  TEXT REFERENCES products (id) ON DELETE CASCADE,
	variant_id  TEXT REFERENCES product_variants (id) ON DELETE CASCADE,
	price_cents BIGINT NOT NULL,
	currency    TEXT NOT NULL DEFAULT 'USD',
	label       TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	valid_from  TIMESTAMPTZ,
	valid_until TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT prices_one_target CHECK ((product_id IS NULL) <> (variant_id IS NULL))
);
CREATE INDEX IF NOT EXISTS idx_prices_product ON prices (tenant_id, product_id);
CREATE INDEX IF NOT EXISTS idx_prices_variant ON prices (tenant_id, variant_id);

CREATE TABLE IF NOT EXISTS inventory (
	id              TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	variant_id      TEXT NOT NULL REFERENCES product_variants (id) ON DELETE CASCADE,
	warehouse_code  TEXT NOT NULL DEFAULT 'MAIN',
	stock_on_hand   BIGINT NOT NULL DEFAULT 0,
	stock_reserved  BIGINT NOT NULL DEFAULT 0,
	min_stock_level BIGINT NOT NULL DEFAULT 0,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT inventory_unique UNIQUE (tenant_id, variant_id, warehouse_code),
	CONSTRAINT inventory_non_negative CHECK (stock_reserved >= 0 AND stock_on_hand >= stock_reserved)
);

CREATE TABLE IF NOT EXISTS orders (
	id              TEXT PRIMARY KEY,
	tenant_id       TEXT NOT NULL,
	order_number    TEXT NOT NULL,
	user_id         TEXT,
	session_id      TEXT,
	customer_email  TEXT,
	status          TEXT NOT NULL DEFAULT 'cart',
	subtotal_cents  BIGINT NOT NULL DEFAULT 0,
	discount_cents  BIGINT NOT NULL DEFAULT 0,
	shipping_cents  BIGINT NOT NULL DEFAULT 0,
	tax_cents       BIGINT NOT NULL DEFAULT 0,
	total_cents     BIGINT NOT NULL DEFAULT 0,
	currency        TEXT NOT NULL DEFAULT 'USD',
	tracking_number TEXT,
	customer_notes  TEXT NOT NULL DEFAULT '',
	internal_notes  TEXT NOT NULL DEFAULT '',
	paid_at         TIMESTAMPTZ,
	shipped_at      TIMESTAMPTZ,
	delivered_at    TIMESTAMPTZ,
	cancelled_at    TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT orders_number_unique UNIQUE (tenant_id, order_number)
);
CREATE INDEX IF NOT EXISTS idx_orders_tenant_status ON orders (tenant_id, status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_open_cart ON orders (tenant_id, session_id) WHERE status = 'cart';

CREATE TABLE IF NOT EXISTS order_items (
	id               TEXT PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	order_id         TEXT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
	product_id       TEXT NOT NULL,
	variant_id       TEXT,
	name_snapshot    TEXT NOT NULL DEFAULT '',
	sku_snapshot     TEXT NOT NULL DEFAULT '',
	options_snapshot JSONB NOT NULL DEFAULT '{}',
	unit_price_cents BIGINT NOT NULL,
	quantity         BIGINT NOT NULL,
	subtotal_cents   BIGINT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id);

CREATE TABLE IF NOT EXISTS payments (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	order_id     TEXT NOT NULL REFERENCES orders (id),
	amount_cents BIGINT NOT NULL,
	currency     TEXT NOT NULL DEFAULT 'USD',
	method       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	provider_ref TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_payments_order ON payments (tenant_id, order_id);

CREATE TABLE IF NOT EXISTS refunds (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	payment_id   TEXT NOT NULL REFERENCES payments (id),
	order_id     TEXT NOT NULL REFERENCES orders (id),
	amount_cents BIGINT NOT NULL,
	reason       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the schema if it does not exist. Safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
