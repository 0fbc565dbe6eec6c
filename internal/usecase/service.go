package usecase

import (
	"time"

	"medhistory/internal/data/repository"
	"medhistory/internal/otp"
	"medhistory/internal/token"
	"medhistory/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Signup   SignupService
	Password PasswordService
	Login    LoginService
	User     UserService
	Catalog  CatalogService
}

func NewService(repo *repository.Repository, tokens *token.Manager, notifier Notifier, config *utils.Config, log *zap.Logger) *Service {
	engine := NewEngine(repo, otp.RandomGenerator{Min: config.OTP.Min, Max: config.OTP.Max}, PolicyFromConfig(config.OTP), time.Now, notifier, log)

	return &Service{
		Signup:   NewSignupService(repo, engine, tokens, notifier, config, log),
		Password: NewPasswordService(repo, engine, tokens, config, log),
		Login:    NewLoginService(repo, engine, tokens, log),
		User:     NewUserService(repo.User, repo.Session, time.Now, log),
		Catalog:  NewCatalogService(repo.Catalog, log),
	}
}

func PolicyFromConfig(cfg utils.OTPConfig) otp.Policy {
	policy := otp.DefaultPolicy()
	policy.Windows[otp.FlowSignup] = cfg.SignupWindow
	policy.Windows[otp.FlowLogin] = cfg.LoginWindow
	policy.Windows[otp.FlowPasswordReset] = cfg.PasswordResetWindow
	if cfg.ResendCooldown > 0 {
		policy.ResendCooldown = cfg.ResendCooldown
	}
	policy.MaxAttempts = cfg.MaxAttempts
	return policy
}
