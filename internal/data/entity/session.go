package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session records one issued refresh token, keyed by its jti, so that it can
// be rotated on refresh and revoked on logout or password change.
type Session struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	TokenID   uuid.UUID  `db:"token_id"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}
