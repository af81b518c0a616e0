package store

// Schema is the read model the loader queries. The inventory service owns
// these tables; the DDL is kept here for integration tests and local setups.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	unit       TEXT NOT NULL DEFAULT 'unit',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS price_history (
	id                 BIGSERIAL PRIMARY KEY,
	item_id            TEXT NOT NULL REFERENCES items(id),
	unit_price         DOUBLE PRECISION NOT NULL,
	observed_at        DATE NOT NULL DEFAULT CURRENT_DATE,
	location           TEXT,
	quantity_purchased DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS price_history_item_id_idx ON price_history(item_id);
CREATE INDEX IF NOT EXISTS price_history_observed_at_idx ON price_history(observed_at, id);
`

// RequiredTables lists the tables the loader reads.
var RequiredTables = []string{"items", "price_history"}
