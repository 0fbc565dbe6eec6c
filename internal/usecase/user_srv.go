package usecase

import (
	"context"
	"fmt"
	"time"

	"medhistory/internal/data/repository"
	"medhistory/internal/dto/request"
	"medhistory/internal/dto/response"
	"medhistory/internal/otp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	GetAllUsers(ctx context.Context, req *request.PageRequest) (*response.Page[response.UserResponse], error)
	DeleteUser(ctx context.Context, userID string) error
	IsStaff(ctx context.Context, userID uuid.UUID) (bool, error)
}

type userService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	now         otp.Clock
	log         *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, now otp.Clock, log *zap.Logger) UserService {
	if now == nil {
		now = time.Now
	}
	return &userService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		now:         now,
		log:         log.With(zap.String("service", "user")),
	}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to get profile")
	}
	if user == nil {
		return nil, ErrNotFound
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) GetAllUsers(ctx context.Context, req *request.PageRequest) (*response.Page[response.UserResponse], error) {
	req.Normalize()
	page, limit := req.Page, req.PerPage

	users, err := us.userRepo.FindAll(ctx, limit, req.Offset())
	if err != nil {
		us.log.Error("Failed to get all users", zap.Error(err), zap.Int("page", page), zap.Int("per_page", limit))
		return nil, fmt.Errorf("failed to get users")
	}

	total, err := us.userRepo.CountAll(ctx)
	if err != nil {
		us.log.Error("Failed to count users", zap.Error(err))
		return nil, fmt.Errorf("failed to count users")
	}

	userResponses := make([]response.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = response.UserToResponse(user)
	}

	us.log.Info("Users retrieved",
		zap.Int("count", len(users)),
		zap.Int64("total", total),
		zap.Int("page", page),
	)

	return response.NewPage(userResponses, page, limit, total), nil
}

func (us *userService) DeleteUser(ctx context.Context, userID string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return newValidationError("id", "Must be a valid UUID")
	}

	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		us.log.Error("Failed to get user for delete", zap.Error(err), zap.String("id", userID))
		return fmt.Errorf("failed to delete user")
	}
	if user == nil {
		return ErrNotFound
	}

	if err := us.userRepo.Delete(ctx, id); err != nil {
		us.log.Error("Failed to delete user", zap.Error(err), zap.String("id", userID))
		return fmt.Errorf("failed to delete user")
	}

	if err := us.sessionRepo.RevokeAllForUser(ctx, id, us.now()); err != nil {
		us.log.Warn("Failed to revoke sessions", zap.Error(err), zap.String("user_id", id.String()))
	}

	us.log.Info("User deleted", zap.String("user_id", id.String()), zap.String("username", user.Username))
	return nil
}

func (us *userService) IsStaff(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsActive && user.IsStaff, nil
}
