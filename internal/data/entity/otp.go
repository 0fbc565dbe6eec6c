package entity

import (
	"time"

	"github.com/google/uuid"

	"medhistory/internal/otp"
)

// PendingRegistration is an unconfirmed signup waiting for its phone OTP.
// There is exactly one per phone number.
type PendingRegistration struct {
	BaseNoDelete
	Phone        string    `db:"phone"`
	Email        *string   `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password"`
	OTPCode      string    `db:"otp_code"`
	IssuedAt     time.Time `db:"issued_at"`
	Attempts     int       `db:"attempts"`
}

func (p *PendingRegistration) Slot() otp.Slot {
	return otp.Slot{Code: p.OTPCode, IssuedAt: p.IssuedAt, Attempts: p.Attempts}
}

// OTPChallenge is the login or password-reset code of an existing user,
// one per (user, flow). Verified marks a consumed code.
type OTPChallenge struct {
	UserID   uuid.UUID `db:"user_id"`
	Flow     otp.Flow  `db:"flow"`
	OTPCode  string    `db:"otp_code"`
	IssuedAt time.Time `db:"issued_at"`
	Attempts int       `db:"attempts"`
	Verified bool      `db:"verified"`
}

func (c *OTPChallenge) Slot() otp.Slot {
	return otp.Slot{Code: c.OTPCode, IssuedAt: c.IssuedAt, Attempts: c.Attempts}
}
