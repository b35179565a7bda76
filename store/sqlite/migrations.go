package sqlite

import (
	"context"

	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the provenance store (SQLite).
var Migrations = migrate.NewGroup("provenance")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_provenance_participants",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_participants (
    identity      TEXT PRIMARY KEY,
    authorized    INTEGER NOT NULL DEFAULT 0,
    admin         INTEGER NOT NULL DEFAULT 0,
    authorized_at DATETIME,
    revoked_at    DATETIME,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_provenance_participants_authorized ON provenance_participants (authorized, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_participants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_provenance_products",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_products (
    product_id        INTEGER PRIMARY KEY,
    product_name      TEXT NOT NULL,
    manufacturer_name TEXT NOT NULL DEFAULT '',
    manufacturer      TEXT NOT NULL,
    current_status    INTEGER NOT NULL DEFAULT 0,
    current_owner     TEXT NOT NULL,
    history_count     INTEGER NOT NULL DEFAULT 1,
    transfer_count    INTEGER NOT NULL DEFAULT 0,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_provenance_products_owner ON provenance_products (current_owner);
CREATE INDEX IF NOT EXISTS idx_provenance_products_status ON provenance_products (current_status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_products`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_provenance_history",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_history (
    id         TEXT PRIMARY KEY,
    product_id INTEGER NOT NULL,
    seq        INTEGER NOT NULL,
    status     INTEGER NOT NULL,
    location   TEXT NOT NULL,
    actor      TEXT NOT NULL,
    timestamp  DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_provenance_history_seq ON provenance_history (product_id, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_history`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_provenance_transfers",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS provenance_transfers (
    id         TEXT PRIMARY KEY,
    product_id INTEGER NOT NULL,
    seq        INTEGER NOT NULL,
    from_owner TEXT NOT NULL,
    to_owner   TEXT NOT NULL,
    timestamp  DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_provenance_transfers_seq ON provenance_transfers (product_id, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS provenance_transfers`)
				return err
			},
		},
	)
}
