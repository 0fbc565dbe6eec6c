package repository

import (
	"context"
	"errors"
	"fmt"

	"medhistory/internal/data/entity"
	"medhistory/internal/otp"
	"medhistory/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type OTPChallengeRepository interface {
	Upsert(ctx context.Context, challenge *entity.OTPChallenge) error
	FindForUpdate(ctx context.Context, userID uuid.UUID, flow otp.Flow) (*entity.OTPChallenge, error)
	IncrementAttempts(ctx context.Context, userID uuid.UUID, flow otp.Flow) error
	MarkVerified(ctx context.Context, userID uuid.UUID, flow otp.Flow) error
	Delete(ctx context.Context, userID uuid.UUID, flow otp.Flow) error
}

type otpChallengeRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewOTPChallengeRepository(db database.Querier, log *zap.Logger) OTPChallengeRepository {
	return &otpChallengeRepository{
		db:  db,
		log: log.With(zap.String("repository", "otp_challenge")),
	}
}

// Upsert overwrites the user's challenge for the flow; a re-issued code is
// never pre-verified.
func (r *otpChallengeRepository) Upsert(ctx context.Context, c *entity.OTPChallenge) error {
	query := `
		INSERT INTO otp_challenges (user_id, flow, otp_code, issued_at, attempts, verified)
		VALUES ($1, $2, $3, $4, 0, false)
		ON CONFLICT (user_id, flow) DO UPDATE
		SET otp_code = EXCLUDED.otp_code,
		    issued_at = EXCLUDED.issued_at,
		    attempts = 0,
		    verified = false
	`

	_, err := r.db.Exec(ctx, query, c.UserID, string(c.Flow), c.OTPCode, c.IssuedAt)
	if err != nil {
		r.log.Error("Failed to upsert OTP challenge",
			zap.Error(err),
			zap.String("user_id", c.UserID.String()),
			zap.String("flow", string(c.Flow)),
		)
		return fmt.Errorf("upsert OTP challenge for %s: %w", c.UserID.String(), err)
	}

	return nil
}

func (r *otpChallengeRepository) FindForUpdate(ctx context.Context, userID uuid.UUID, flow otp.Flow) (*entity.OTPChallenge, error) {
	query := `
		SELECT user_id, flow, otp_code, issued_at, attempts, verified
		FROM otp_challenges
		WHERE user_id = $1 AND flow = $2
		FOR UPDATE
	`

	var c entity.OTPChallenge
	var flowName string
	err := r.db.QueryRow(ctx, query, userID, string(flow)).Scan(
		&c.UserID,
		&flowName,
		&c.OTPCode,
		&c.IssuedAt,
		&c.Attempts,
		&c.Verified,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find OTP challenge", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("find OTP challenge for %s: %w", userID.String(), err)
	}

	c.Flow = otp.Flow(flowName)
	return &c, nil
}

func (r *otpChallengeRepository) IncrementAttempts(ctx context.Context, userID uuid.UUID, flow otp.Flow) error {
	query := `UPDATE otp_challenges SET attempts = attempts + 1 WHERE user_id = $1 AND flow = $2`

	if _, err := r.db.Exec(ctx, query, userID, string(flow)); err != nil {
		r.log.Error("Failed to increment OTP attempts", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("increment OTP attempts for %s: %w", userID.String(), err)
	}
	return nil
}

func (r *otpChallengeRepository) MarkVerified(ctx context.Context, userID uuid.UUID, flow otp.Flow) error {
	query := `UPDATE otp_challenges SET verified = true WHERE user_id = $1 AND flow = $2`

	result, err := r.db.Exec(ctx, query, userID, string(flow))
	if err != nil {
		r.log.Error("Failed to mark OTP as verified", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("mark OTP verified for %s: %w", userID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("OTP challenge for %s not found", userID.String())
	}
	return nil
}

func (r *otpChallengeRepository) Delete(ctx context.Context, userID uuid.UUID, flow otp.Flow) error {
	query := `DELETE FROM otp_challenges WHERE user_id = $1 AND flow = $2`

	if _, err := r.db.Exec(ctx, query, userID, string(flow)); err != nil {
		r.log.Error("Failed to delete OTP challenge", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("delete OTP challenge for %s: %w", userID.String(), err)
	}
	return nil
}
