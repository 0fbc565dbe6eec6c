package usecase

import (
	"context"
	"errors"
	"fmt"

	"medhistory/internal/data/entity"
	"medhistory/internal/data/repository"
	"medhistory/internal/dto/request"
	"medhistory/internal/dto/response"
	"medhistory/internal/otp"
	"medhistory/internal/token"
	"medhistory/pkg/utils"

	"go.uber.org/zap"
)

type LoginService interface {
	RequestOTP(ctx context.Context, medium Medium, req *request.UsernameRequest) error
	VerifyOTP(ctx context.Context, req *request.OTPVerifyRequest) (*response.TokenResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.TokenResponse, error)
	Refresh(ctx context.Context, req *request.RefreshRequest) (*response.TokenResponse, error)
	Logout(ctx context.Context, req *request.RefreshRequest) error
}

type loginService struct {
	repo   *repository.Repository
	engine *Engine
	tokens *token.Manager
	log    *zap.Logger
}

func NewLoginService(repo *repository.Repository, engine *Engine, tokens *token.Manager, log *zap.Logger) LoginService {
	return &loginService{
		repo:   repo,
		engine: engine,
		tokens: tokens,
		log:    log.With(zap.String("service", "login")),
	}
}

// RequestOTP sends a login code when the account exists and is active,
// reporting success either way.
func (s *loginService) RequestOTP(ctx context.Context, medium Medium, req *request.UsernameRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	user, err := lookupAccount(ctx, s.repo, req.Username)
	if err != nil {
		s.log.Error("Failed to look up account for login code", zap.Error(err))
		return nil
	}
	if user == nil || !user.IsActive {
		return nil
	}

	if _, err := s.engine.IssueChallenge(ctx, user, otp.FlowLogin, medium); err != nil {
		s.log.Error("Failed to issue login code", zap.Error(err), zap.String("user_id", user.ID.String()))
	}
	return nil
}

func (s *loginService) VerifyOTP(ctx context.Context, req *request.OTPVerifyRequest) (*response.TokenResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := lookupAccount(ctx, s.repo, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrNotFound
	}

	if err := s.engine.VerifyChallenge(ctx, user.ID, otp.FlowLogin, req.OTP); err != nil {
		return nil, err
	}

	return s.issue(ctx, user)
}

func (s *loginService) Login(ctx context.Context, req *request.LoginRequest) (*response.TokenResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := lookupAccount(ctx, s.repo, req.Username)
	if err != nil {
		s.log.Error("Failed to find user", zap.Error(err), zap.String("identifier", req.Username))
		return nil, fmt.Errorf("failed to find user")
	}

	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid credentials", zap.String("identifier", req.Username))
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, ErrAccountInactive
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return s.issue(ctx, user)
}

func (s *loginService) Refresh(ctx context.Context, req *request.RefreshRequest) (*response.TokenResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.ParseRefresh(req.Refresh)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.repo.User.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrTokenInvalid
	}

	// the old refresh token is revoked and the new one recorded together, so a
	// refresh token can be exchanged only once
	var pair *token.Pair
	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		now := s.engine.now()
		session, err := tx.Session.FindValid(ctx, claims.TokenID, now)
		if err != nil {
			return err
		}
		if session == nil || session.UserID != user.ID {
			return ErrTokenInvalid
		}

		revoked, err := tx.Session.Revoke(ctx, claims.TokenID, now)
		if err != nil {
			return err
		}
		if !revoked {
			return ErrTokenInvalid
		}

		pair, err = issueSession(ctx, tx, s.tokens, user, s.engine.now)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			s.log.Warn("Rejected refresh token", zap.String("user_id", user.ID.String()))
			return nil, err
		}
		s.log.Error("Failed to rotate session", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("failed to refresh tokens")
	}

	resp := response.TokenToResponse(pair)
	return &resp, nil
}

// Logout revokes the session of a refresh token.
func (s *loginService) Logout(ctx context.Context, req *request.RefreshRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	claims, err := s.tokens.ParseRefresh(req.Refresh)
	if err != nil {
		return ErrTokenInvalid
	}

	revoked, err := s.repo.Session.Revoke(ctx, claims.TokenID, s.engine.now())
	if err != nil {
		s.log.Error("Failed to revoke session", zap.Error(err))
		return fmt.Errorf("failed to logout")
	}
	if !revoked {
		return ErrTokenInvalid
	}

	s.log.Info("User logged out", zap.String("user_id", claims.UserID.String()))
	return nil
}

func (s *loginService) issue(ctx context.Context, user *entity.User) (*response.TokenResponse, error) {
	pair, err := issueSession(ctx, s.repo, s.tokens, user, s.engine.now)
	if err != nil {
		s.log.Error("Failed to issue tokens", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("failed to issue tokens")
	}
	resp := response.TokenToResponse(pair)
	return &resp, nil
}
