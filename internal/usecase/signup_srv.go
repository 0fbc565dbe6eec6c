package usecase

import (
	"context"
	"fmt"
	"strings"

	"medhistory/internal/data/entity"
	"medhistory/internal/data/repository"
	"medhistory/internal/dto/request"
	"medhistory/internal/dto/response"
	"medhistory/internal/token"
	"medhistory/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	hintVerifyEmail  = "please verify your mail also"
	hintProvideEmail = "it will be better if you also provide us your email address"
)

type SignupService interface {
	Register(ctx context.Context, req *request.SignupRequest) (*entity.PendingRegistration, error)
	Resend(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone string, req *request.VerifyOTPRequest) (*response.SignupVerifyResponse, error)
	ActivateEmail(ctx context.Context, uid, activation string) error
}

type signupService struct {
	repo     *repository.Repository
	engine   *Engine
	tokens   *token.Manager
	notifier Notifier
	config   *utils.Config
	log      *zap.Logger
}

func NewSignupService(
	repo *repository.Repository,
	engine *Engine,
	tokens *token.Manager,
	notifier Notifier,
	config *utils.Config,
	log *zap.Logger,
) SignupService {
	return &signupService{
		repo:     repo,
		engine:   engine,
		tokens:   tokens,
		notifier: notifier,
		config:   config,
		log:      log.With(zap.String("service", "signup")),
	}
}

// Register creates or refreshes the pending registration for a phone and
// sends it a new code.
func (s *signupService) Register(ctx context.Context, req *request.SignupRequest) (*entity.PendingRegistration, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Signup validation failed", zap.Error(err))
		return nil, err
	}

	phone := utils.NormalizePhone(req.PhoneNumber, s.config.OTP.CountryCode)

	existing, err := s.repo.User.FindByUsername(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone number")
	}
	if existing != nil {
		return nil, newValidationError("phone_number", "already registered")
	}

	var email *string
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		normalized := strings.ToLower(strings.TrimSpace(*req.Email))
		email = &normalized

		existing, err := s.repo.User.FindByEmail(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("failed to check email")
		}
		if existing != nil {
			return nil, newValidationError("email", "already registered")
		}

		taken, err := s.repo.Pending.EmailTaken(ctx, normalized, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check email")
		}
		if taken {
			return nil, newValidationError("email", "already registered")
		}
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to process password")
	}

	pending := &entity.PendingRegistration{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New()},
		Phone:        phone,
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hashedPassword,
	}

	saved, err := s.engine.IssueSignup(ctx, pending)
	if err != nil {
		if verr, ok := asValidation(err); ok {
			return nil, verr
		}
		s.log.Error("Failed to store pending registration", zap.Error(err), zap.String("phone", phone))
		return nil, fmt.Errorf("failed to register")
	}

	s.log.Info("Signup code issued", zap.String("phone", phone))
	return saved, nil
}

func (s *signupService) Resend(ctx context.Context, phone string) error {
	phone = utils.NormalizePhone(phone, s.config.OTP.CountryCode)
	return s.engine.ResendSignup(ctx, phone)
}

func (s *signupService) Verify(ctx context.Context, phone string, req *request.VerifyOTPRequest) (*response.SignupVerifyResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	phone = utils.NormalizePhone(phone, s.config.OTP.CountryCode)
	var (
		pair       *token.Pair
		sessionErr error
	)
	user, err := s.engine.VerifySignup(ctx, phone, req.OTP, func(tx *repository.Repository, user *entity.User) error {
		pair, sessionErr = issueSession(ctx, tx, s.tokens, user, s.engine.now)
		return sessionErr
	})
	if sessionErr != nil {
		s.log.Error("Failed to issue tokens", zap.Error(sessionErr), zap.String("phone", phone))
		return nil, fmt.Errorf("failed to issue tokens")
	}
	if err != nil {
		return nil, err
	}

	resp := &response.SignupVerifyResponse{
		TokenResponse: response.TokenToResponse(pair),
		Hint:          hintProvideEmail,
	}

	if user.Email != nil {
		resp.EmailPending = true
		resp.Hint = hintVerifyEmail
		s.sendActivationMail(user)
	}

	return resp, nil
}

func (s *signupService) sendActivationMail(user *entity.User) {
	signed, err := s.tokens.IssueActivation(user)
	if err != nil {
		s.log.Error("Failed to issue activation token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return
	}

	link := ActivationLink(s.config.App.BaseURL, user, signed)
	html := "<h3> Hello " + capitalize(user.FirstName) + ",</h3>" +
		"<p>Please click on the link to confirm your registration,</p>" + link

	s.notifier.Email(user.EmailAddress(), "Activate Your Account", html)
}

// ActivateEmail marks the user's email verified. Any failure reads as an
// invalid link.
func (s *signupService) ActivateEmail(ctx context.Context, uid, activation string) error {
	id, err := token.DecodeUID(uid)
	if err != nil {
		return ErrTokenInvalid
	}

	user, err := s.repo.User.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil || !s.tokens.CheckActivation(user, activation) {
		s.log.Warn("Rejected activation link", zap.String("uid", uid))
		return ErrTokenInvalid
	}

	user.IsActive = true
	user.EmailVerified = true
	user.UpdatedAt = s.engine.now()

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.log.Error("Failed to activate user", zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("failed to activate account")
	}

	s.log.Info("Email verified", zap.String("user_id", user.ID.String()))
	return nil
}

func capitalize(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
}
