package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateRefreshTokensTable, downCreateRefreshTokensTable)
}

func upCreateRefreshTokensTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE refresh_tokens (
	  id BIGSERIAL PRIMARY KEY,
	  user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	  token_hash TEXT UNIQUE NOT NULL,
	  expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	`

	_, err := tx.ExecContext(ctx, query)

	if err != nil {
		return err
	}

	return nil
}

func downCreateRefreshTokensTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS refresh_tokens;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
