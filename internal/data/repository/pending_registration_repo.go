package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medhistory/internal/data/entity"
	"medhistory/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PendingRegistrationRepository interface {
	Upsert(ctx context.Context, pending *entity.PendingRegistration) (*entity.PendingRegistration, error)
	FindByPhone(ctx context.Context, phone string) (*entity.PendingRegistration, error)
	FindByPhoneForUpdate(ctx context.Context, phone string) (*entity.PendingRegistration, error)
	RefreshIfIdle(ctx context.Context, phone, code string, now, idleBefore time.Time) (bool, error)
	IncrementAttempts(ctx context.Context, phone string) error
	Delete(ctx context.Context, phone string) error
	EmailTaken(ctx context.Context, email, exceptPhone string) (bool, error)
}

type pendingRegistrationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPendingRegistrationRepository(db database.Querier, log *zap.Logger) PendingRegistrationRepository {
	return &pendingRegistrationRepository{
		db:  db,
		log: log.With(zap.String("repository", "pending_registration")),
	}
}

const pendingColumns = `id, phone, email, first_name, last_name, password,
	otp_code, issued_at, attempts, created_at, updated_at`

func scanPending(row pgx.Row) (*entity.PendingRegistration, error) {
	var p entity.PendingRegistration
	err := row.Scan(
		&p.ID,
		&p.Phone,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&p.PasswordHash,
		&p.OTPCode,
		&p.IssuedAt,
		&p.Attempts,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert creates the registration for a phone or overwrites every field of the
// existing one in a single statement. The attempt counter restarts with the new code.
func (r *pendingRegistrationRepository) Upsert(ctx context.Context, p *entity.PendingRegistration) (*entity.PendingRegistration, error) {
	query := `
		INSERT INTO pending_registrations (id, phone, email, first_name, last_name, password,
		                                   otp_code, issued_at, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $9)
		ON CONFLICT (phone) DO UPDATE
		SET email = EXCLUDED.email,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    password = EXCLUDED.password,
		    otp_code = EXCLUDED.otp_code,
		    issued_at = EXCLUDED.issued_at,
		    attempts = 0,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + pendingColumns

	saved, err := scanPending(r.db.QueryRow(ctx, query,
		p.ID,
		p.Phone,
		p.Email,
		p.FirstName,
		p.LastName,
		p.PasswordHash,
		p.OTPCode,
		p.IssuedAt,
		p.CreatedAt,
	))
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			return nil, dup
		}
		r.log.Error("Failed to upsert pending registration", zap.Error(err), zap.String("phone", p.Phone))
		return nil, fmt.Errorf("upsert pending registration %s: %w", p.Phone, err)
	}

	return saved, nil
}

func (r *pendingRegistrationRepository) FindByPhone(ctx context.Context, phone string) (*entity.PendingRegistration, error) {
	return r.find(ctx, `SELECT `+pendingColumns+` FROM pending_registrations WHERE phone = $1`, phone)
}

// FindByPhoneForUpdate locks the row until the surrounding transaction ends.
func (r *pendingRegistrationRepository) FindByPhoneForUpdate(ctx context.Context, phone string) (*entity.PendingRegistration, error) {
	return r.find(ctx, `SELECT `+pendingColumns+` FROM pending_registrations WHERE phone = $1 FOR UPDATE`, phone)
}

func (r *pendingRegistrationRepository) find(ctx context.Context, query, phone string) (*entity.PendingRegistration, error) {
	p, err := scanPending(r.db.QueryRow(ctx, query, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find pending registration", zap.Error(err), zap.String("phone", phone))
		return nil, fmt.Errorf("find pending registration %s: %w", phone, err)
	}
	return p, nil
}

// RefreshIfIdle replaces the code only when the stored one was issued before
// idleBefore. It reports false when the cooldown has not passed or a
// concurrent resend won the race.
func (r *pendingRegistrationRepository) RefreshIfIdle(ctx context.Context, phone, code string, now, idleBefore time.Time) (bool, error) {
	query := `
		UPDATE pending_registrations
		SET otp_code = $2, issued_at = $3, attempts = 0, updated_at = $3
		WHERE phone = $1 AND issued_at < $4
	`

	result, err := r.db.Exec(ctx, query, phone, code, now, idleBefore)
	if err != nil {
		r.log.Error("Failed to refresh pending registration code", zap.Error(err), zap.String("phone", phone))
		return false, fmt.Errorf("refresh pending registration %s: %w", phone, err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *pendingRegistrationRepository) IncrementAttempts(ctx context.Context, phone string) error {
	query := `UPDATE pending_registrations SET attempts = attempts + 1 WHERE phone = $1`

	if _, err := r.db.Exec(ctx, query, phone); err != nil {
		r.log.Error("Failed to increment attempts", zap.Error(err), zap.String("phone", phone))
		return fmt.Errorf("increment attempts %s: %w", phone, err)
	}
	return nil
}

func (r *pendingRegistrationRepository) Delete(ctx context.Context, phone string) error {
	query := `DELETE FROM pending_registrations WHERE phone = $1`

	result, err := r.db.Exec(ctx, query, phone)
	if err != nil {
		r.log.Error("Failed to delete pending registration", zap.Error(err), zap.String("phone", phone))
		return fmt.Errorf("delete pending registration %s: %w", phone, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending registration %s not found", phone)
	}
	return nil
}

// EmailTaken reports whether another pending registration already claims email.
func (r *pendingRegistrationRepository) EmailTaken(ctx context.Context, email, exceptPhone string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM pending_registrations WHERE email = $1 AND phone <> $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, email, exceptPhone).Scan(&exists); err != nil {
		r.log.Error("Failed to check pending email", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("check pending email %s: %w", email, err)
	}
	return exists, nil
}
