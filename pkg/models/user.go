package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can obtain a bearer JWT via POST /api/v1/token.
// Only the bcrypt hash of the password is stored.
type User struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	ClientID     uuid.UUID  `db:"client_id"     json:"client_id"`
	Username     string     `db:"username"      json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role"          json:"role"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}
