package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session rows are issued elsewhere; this service only validates them.
type Session struct {
	BaseSimple
	UserID    uuid.UUID `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
}
