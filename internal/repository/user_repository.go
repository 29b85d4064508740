package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"profile-service/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpsertFromProvider(ctx context.Context, user *model.User) (*model.User, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	UpdateAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	query := `SELECT id, provider, provider_id, email, name, avatar_url, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// UpsertFromProvider creates the profile row alongside account creation, or
// refreshes the provider-sourced fields on a returning sign-in.
func (r *postgresUserRepository) UpsertFromProvider(ctx context.Context, user *model.User) (*model.User, error) {
	var result model.User
	query := `
		INSERT INTO users (provider, provider_id, email, name, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, provider_id)
		DO UPDATE SET email = EXCLUDED.email, updated_at = now()
		RETURNING id, provider, provider_id, email, name, avatar_url, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.Provider, user.ProviderID, user.Email, user.Name, user.AvatarURL,
	).StructScan(&result)

	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *postgresUserRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	query := `UPDATE users SET name = $1, updated_at = now() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, name, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *postgresUserRepository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $1, updated_at = now() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, avatarURL, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}
