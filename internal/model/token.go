package model

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID        int64     `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}
