package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the combined shape served to the client: the profile row plus
// the email carried by the session credential. The validate tags guard the
// stored-data invariants, not user input.
type Profile struct {
	ID        uuid.UUID `json:"id" validate:"required"`
	Name      *string   `json:"name"`
	AvatarURL *string   `json:"avatar_url" validate:"omitempty,url"`
	Email     string    `json:"email" validate:"required,email"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
	UpdatedAt time.Time `json:"updated_at" validate:"required"`
}
