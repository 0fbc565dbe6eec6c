package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	TokenKey  contextKey = "token"
)

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userIDVal := ctx.Value(UserIDKey)
	if userIDVal == nil {
		return uuid.Nil, false
	}

	userID, ok := userIDVal.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}

	return userID, true
}

func SetUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetTokenFromContext returns the bearer token the request was authenticated with.
func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}

// ClientInfo describes the caller of a request for session records.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

const clientKey contextKey = "client"

func SetClientContext(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientKey, info)
}

func GetClientFromContext(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientKey).(ClientInfo)
	return info, ok
}
