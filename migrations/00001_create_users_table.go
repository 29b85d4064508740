package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUsersTable, downCreateUsersTable)
}

func upCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE users (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  provider TEXT NOT NULL,
	  provider_id TEXT NOT NULL,
	  email TEXT NOT NULL,
	  name TEXT,
	  avatar_url TEXT,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  UNIQUE (provider, provider_id)
	);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS users;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
