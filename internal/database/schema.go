package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The tables are shared by both dialects; only key generation differs.
const schemaTemplate = `
	CREATE TABLE IF NOT EXISTS users (
		tg BIGINT PRIMARY KEY,
		username TEXT,
		balance BIGINT NOT NULL DEFAULT 0,
		rating INTEGER NOT NULL DEFAULT 0,
		status TEXT,
		temp_field TEXT,
		active_deal BIGINT,
		mailing_photo TEXT,
		reg_time BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	CREATE INDEX IF NOT EXISTS idx_users_reg_time ON users(reg_time);

	CREATE TABLE IF NOT EXISTS deals (
		id %[1]s,
		seller BIGINT NOT NULL,
		buyer BIGINT NOT NULL,
		sum BIGINT NOT NULL CHECK (sum > 0),
		status TEXT NOT NULL,
		create_time BIGINT NOT NULL,
		info TEXT NOT NULL DEFAULT '',
		escrowed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_deals_seller ON deals(seller);
	CREATE INDEX IF NOT EXISTS idx_deals_buyer ON deals(buyer);
	CREATE INDEX IF NOT EXISTS idx_deals_status ON deals(status);
	CREATE INDEX IF NOT EXISTS idx_deals_create_time ON deals(create_time);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		sum BIGINT NOT NULL,
		type TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 0,
		user_id BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id);

	CREATE TABLE IF NOT EXISTS coupons (
		id %[1]s,
		sum BIGINT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		activated INTEGER NOT NULL DEFAULT 0,
		max_activations INTEGER NOT NULL,
		CHECK (activated <= max_activations)
	);

	CREATE TABLE IF NOT EXISTS ads (
		id %[1]s,
		button_name TEXT NOT NULL,
		button_text TEXT NOT NULL,
		photo_id TEXT
	);

	CREATE TABLE IF NOT EXISTS mailings (
		id %[1]s,
		mailing_text TEXT NOT NULL,
		photo_id TEXT,
		send_time BIGINT NOT NULL,
		created_by BIGINT NOT NULL,
		confirmed INTEGER NOT NULL DEFAULT 0,
		status INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_mailings_send_time ON mailings(send_time);

	CREATE TABLE IF NOT EXISTS communicate (
		deal_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_communicate_deal ON communicate(deal_id);
`

func schemaFor(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return fmt.Sprintf(schemaTemplate, "BIGSERIAL PRIMARY KEY"), nil
	case DriverSQLite:
		return fmt.Sprintf(schemaTemplate, "INTEGER PRIMARY KEY AUTOINCREMENT"), nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	schema, err := schemaFor(driver)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, schema)
	return err
}
