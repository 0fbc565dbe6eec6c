package usecase

import (
	"context"
	"fmt"

	"medhistory/internal/data/entity"
	"medhistory/internal/data/repository"
	"medhistory/internal/dto/request"
	"medhistory/internal/otp"
	"medhistory/internal/token"
	"medhistory/pkg/utils"

	"go.uber.org/zap"
)

type PasswordService interface {
	RequestReset(ctx context.Context, medium Medium, req *request.UsernameRequest) error
	VerifyResetOTP(ctx context.Context, req *request.OTPVerifyRequest) (string, error)
	SetNewPassword(ctx context.Context, uid, signed string, req *request.NewPasswordRequest) error
}

type passwordService struct {
	repo   *repository.Repository
	engine *Engine
	tokens *token.Manager
	config *utils.Config
	log    *zap.Logger
}

func NewPasswordService(
	repo *repository.Repository,
	engine *Engine,
	tokens *token.Manager,
	config *utils.Config,
	log *zap.Logger,
) PasswordService {
	return &passwordService{
		repo:   repo,
		engine: engine,
		tokens: tokens,
		config: config,
		log:    log.With(zap.String("service", "password")),
	}
}

// RequestReset sends a reset code when the account exists. The outcome for an
// unknown account is identical to a successful dispatch.
func (s *passwordService) RequestReset(ctx context.Context, medium Medium, req *request.UsernameRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	user, err := lookupAccount(ctx, s.repo, req.Username)
	if err != nil {
		s.log.Error("Failed to look up account for reset", zap.Error(err))
		return nil
	}
	if user == nil {
		s.log.Info("Password reset for unknown account")
		return nil
	}

	if _, err := s.engine.IssueChallenge(ctx, user, otp.FlowPasswordReset, medium); err != nil {
		s.log.Error("Failed to issue reset code", zap.Error(err), zap.String("user_id", user.ID.String()))
	}
	return nil
}

// VerifyResetOTP consumes the reset code and returns the link that gates the
// new-password request.
func (s *passwordService) VerifyResetOTP(ctx context.Context, req *request.OTPVerifyRequest) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	user, err := lookupAccount(ctx, s.repo, req.Username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrNotFound
	}

	if err := s.engine.VerifyChallenge(ctx, user.ID, otp.FlowPasswordReset, req.OTP); err != nil {
		return "", err
	}

	signed, err := s.tokens.IssueReset(user)
	if err != nil {
		s.log.Error("Failed to issue reset token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return "", fmt.Errorf("failed to issue reset link")
	}

	return ResetLink(s.config.App.BaseURL, user, signed), nil
}

// SetNewPassword replaces the password. The new hash changes the token
// fingerprint, so the link stops working once used.
func (s *passwordService) SetNewPassword(ctx context.Context, uid, signed string, req *request.NewPasswordRequest) error {
	id, err := token.DecodeUID(uid)
	if err != nil {
		return ErrTokenInvalid
	}

	user, err := s.repo.User.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil || !s.tokens.CheckReset(user, signed) {
		s.log.Warn("Rejected reset link", zap.String("uid", uid))
		return ErrTokenInvalid
	}

	if err := validate(req); err != nil {
		return err
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return fmt.Errorf("failed to process password")
	}

	user.PasswordHash = hashedPassword
	user.UpdatedAt = s.engine.now()
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.log.Error("Failed to update password", zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("failed to reset password")
	}

	if err := s.repo.Session.RevokeAllForUser(ctx, user.ID, user.UpdatedAt); err != nil {
		s.log.Warn("Failed to revoke sessions", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	if err := s.repo.Challenge.Delete(ctx, user.ID, otp.FlowPasswordReset); err != nil {
		s.log.Warn("Failed to clear reset challenge", zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func lookupAccount(ctx context.Context, repo *repository.Repository, identifier string) (*entity.User, error) {
	return repo.User.FindByUsernameOrEmail(ctx, identifier)
}
