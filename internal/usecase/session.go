package usecase

import (
	"context"
	"fmt"

	"medhistory/internal/data/entity"
	"medhistory/internal/data/repository"
	"medhistory/internal/otp"
	"medhistory/internal/token"
	"medhistory/pkg/utils"

	"github.com/google/uuid"
)

// issueSession mints a token pair and records its refresh token so it can
// later be rotated or revoked.
func issueSession(ctx context.Context, repo *repository.Repository, tokens *token.Manager, user *entity.User, now otp.Clock) (*token.Pair, error) {
	pair, err := tokens.IssuePair(user)
	if err != nil {
		return nil, fmt.Errorf("issue token pair: %w", err)
	}

	session := &entity.Session{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: now()},
		UserID:     user.ID,
		TokenID:    pair.RefreshID,
		ExpiresAt:  pair.RefreshExpiresAt,
	}
	if client, ok := utils.GetClientFromContext(ctx); ok {
		session.UserAgent = optional(client.UserAgent)
		session.IPAddress = optional(client.IPAddress)
	}

	if err := repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}
	return pair, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
