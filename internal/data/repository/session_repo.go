package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medhistory/internal/data/entity"
	"medhistory/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindValid(ctx context.Context, tokenID uuid.UUID, now time.Time) (*entity.Session, error)
	Revoke(ctx context.Context, tokenID uuid.UUID, now time.Time) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) error
}

type sessionRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSessionRepository(db database.Querier, log *zap.Logger) SessionRepository {
	return &sessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "session")),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token_id, user_agent, ip_address,
		                      expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.TokenID,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create session",
			zap.Error(err),
			zap.String("user_id", session.UserID.String()),
		)
		return fmt.Errorf("create session for %s: %w", session.UserID.String(), err)
	}

	return nil
}

// FindValid returns the unrevoked, unexpired session for a refresh token id.
func (r *sessionRepository) FindValid(ctx context.Context, tokenID uuid.UUID, now time.Time) (*entity.Session, error) {
	query := `
		SELECT id, user_id, token_id, user_agent, ip_address,
		       expires_at, revoked_at, created_at
		FROM sessions
		WHERE token_id = $1
		  AND revoked_at IS NULL
		  AND expires_at > $2
	`

	var session entity.Session
	err := r.db.QueryRow(ctx, query, tokenID, now).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenID,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.RevokedAt,
		&session.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find valid session",
			zap.Error(err),
			zap.String("token_id", tokenID.String()),
		)
		return nil, fmt.Errorf("find session %s: %w", tokenID.String(), err)
	}

	return &session, nil
}

// Revoke reports false when the session was already revoked or never existed.
func (r *sessionRepository) Revoke(ctx context.Context, tokenID uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET revoked_at = $2
		WHERE token_id = $1 AND revoked_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, tokenID, now)
	if err != nil {
		r.log.Error("Failed to revoke session",
			zap.Error(err),
			zap.String("token_id", tokenID.String()),
		)
		return false, fmt.Errorf("revoke session %s: %w", tokenID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *sessionRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	query := `
		UPDATE sessions
		SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`

	if _, err := r.db.Exec(ctx, query, userID, now); err != nil {
		r.log.Error("Failed to revoke all user sessions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return fmt.Errorf("revoke sessions of %s: %w", userID.String(), err)
	}

	return nil
}
