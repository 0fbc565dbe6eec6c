package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medhistory/internal/data/entity"
	"medhistory/internal/data/repository"
	"medhistory/internal/otp"
	"medhistory/internal/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Medium string

const (
	MediumSMS   Medium = "sms"
	MediumEmail Medium = "email"
)

func ParseMedium(value string) (Medium, error) {
	switch Medium(value) {
	case MediumSMS, MediumEmail:
		return Medium(value), nil
	}
	return "", newValidationError("medium", "Must be one of: sms, email")
}

// Notifier fires messages without waiting for delivery.
type Notifier interface {
	SMS(to, body string)
	Email(to, subject, html string)
}

// Engine owns every OTP slot: pending registrations for signup and
// per-user challenges for login and password reset.
type Engine struct {
	repo     *repository.Repository
	codes    otp.CodeGenerator
	policy   otp.Policy
	now      otp.Clock
	notifier Notifier
	log      *zap.Logger
}

func NewEngine(repo *repository.Repository, codes otp.CodeGenerator, policy otp.Policy, now otp.Clock, notifier Notifier, log *zap.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		repo:     repo,
		codes:    codes,
		policy:   policy,
		now:      now,
		notifier: notifier,
		log:      log.With(zap.String("service", "otp")),
	}
}

// IssueSignup stores a fresh code on the pending registration, overwriting
// whatever was there, and texts it to the phone.
func (e *Engine) IssueSignup(ctx context.Context, pending *entity.PendingRegistration) (*entity.PendingRegistration, error) {
	previous, err := e.repo.Pending.FindByPhone(ctx, pending.Phone)
	if err != nil {
		return nil, err
	}
	var last string
	if previous != nil {
		last = previous.OTPCode
	}

	code, err := otp.Replace(e.codes, last)
	if err != nil {
		return nil, err
	}

	now := e.now()
	pending.OTPCode = code
	pending.IssuedAt = now
	pending.Attempts = 0
	pending.UpdatedAt = now
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = now
	}

	saved, err := e.repo.Pending.Upsert(ctx, pending)
	if err != nil {
		return nil, err
	}

	e.notifier.SMS(saved.Phone, otp.Message(code, e.policy.Window(otp.FlowSignup)))
	return saved, nil
}

// ResendSignup re-issues the signup code once the cooldown has passed.
func (e *Engine) ResendSignup(ctx context.Context, phone string) error {
	pending, err := e.repo.Pending.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if pending == nil {
		return ErrNotFound
	}

	now := e.now()
	if !e.policy.CanResend(pending.Slot(), now) {
		return ErrResendTooSoon
	}

	code, err := otp.Replace(e.codes, pending.OTPCode)
	if err != nil {
		return err
	}

	refreshed, err := e.repo.Pending.RefreshIfIdle(ctx, phone, code, now, now.Add(-e.policy.ResendCooldown))
	if err != nil {
		return err
	}
	if !refreshed {
		return ErrResendTooSoon
	}

	e.notifier.SMS(phone, otp.Message(code, e.policy.Window(otp.FlowSignup)))
	return nil
}

// PromoteHook runs inside the promotion transaction once the user row exists.
// An error from it rolls the whole promotion back.
type PromoteHook func(tx *repository.Repository, user *entity.User) error

// VerifySignup checks the code and, on a match, promotes the pending
// registration to a user. Promotion deletes the pending row, creates the user
// and runs onPromote in one transaction.
func (e *Engine) VerifySignup(ctx context.Context, phone, code string, onPromote PromoteHook) (*entity.User, error) {
	var (
		user    *entity.User
		outcome error
	)

	err := e.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		pending, err := tx.Pending.FindByPhoneForUpdate(ctx, phone)
		if err != nil {
			return err
		}
		if pending == nil {
			outcome = ErrNotFound
			return nil
		}

		now := e.now()
		if outcome = e.policy.Check(otp.FlowSignup, pending.Slot(), code, now); outcome != nil {
			if errors.Is(outcome, otp.ErrIncorrect) {
				return tx.Pending.IncrementAttempts(ctx, phone)
			}
			return nil
		}

		user = &entity.User{
			Base:         entity.NewBase(now),
			Username:     pending.Phone,
			Email:        pending.Email,
			PasswordHash: pending.PasswordHash,
			FirstName:    pending.FirstName,
			LastName:     pending.LastName,
			IsActive:     true,
		}

		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		if err := tx.Pending.Delete(ctx, phone); err != nil {
			return err
		}
		if onPromote != nil {
			return onPromote(tx, user)
		}
		return nil
	})
	if err != nil {
		if verr, ok := asValidation(err); ok {
			return nil, verr
		}
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}

	e.log.Info("Phone verified", zap.String("user_id", user.ID.String()))
	return user, nil
}

// IssueChallenge overwrites the user's code for flow and delivers it over medium.
func (e *Engine) IssueChallenge(ctx context.Context, user *entity.User, flow otp.Flow, medium Medium) (*entity.OTPChallenge, error) {
	code, err := e.codes.Generate()
	if err != nil {
		return nil, err
	}

	challenge := &entity.OTPChallenge{
		UserID:   user.ID,
		Flow:     flow,
		OTPCode:  code,
		IssuedAt: e.now(),
	}
	if err := e.repo.Challenge.Upsert(ctx, challenge); err != nil {
		return nil, err
	}

	message := otp.Message(code, e.policy.Window(flow))
	switch medium {
	case MediumSMS:
		e.notifier.SMS(user.Username, message)
	case MediumEmail:
		if to := user.EmailAddress(); to != "" {
			e.notifier.Email(to, challengeSubject(flow), "<p>"+message+"</p>")
		} else {
			e.log.Warn("No email address for challenge",
				zap.String("user_id", user.ID.String()),
				zap.String("flow", string(flow)),
			)
		}
	}

	return challenge, nil
}

// VerifyChallenge consumes the user's code for flow. A consumed code reads as
// ErrNotFound until a new one is issued.
func (e *Engine) VerifyChallenge(ctx context.Context, userID uuid.UUID, flow otp.Flow, code string) error {
	var outcome error

	err := e.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		challenge, err := tx.Challenge.FindForUpdate(ctx, userID, flow)
		if err != nil {
			return err
		}
		if challenge == nil || challenge.Verified {
			outcome = ErrNotFound
			return nil
		}

		if outcome = e.policy.Check(flow, challenge.Slot(), code, e.now()); outcome != nil {
			if errors.Is(outcome, otp.ErrIncorrect) {
				return tx.Challenge.IncrementAttempts(ctx, userID, flow)
			}
			return nil
		}

		return tx.Challenge.MarkVerified(ctx, userID, flow)
	})
	if err != nil {
		return err
	}
	return outcome
}

func challengeSubject(flow otp.Flow) string {
	switch flow {
	case otp.FlowPasswordReset:
		return "Reset Your Account"
	case otp.FlowLogin:
		return "Your Login Code"
	default:
		return "Verification Code"
	}
}

// ResetLink formats the password reset URL. It has no side effects.
func ResetLink(baseURL string, user *entity.User, signed string) string {
	return fmt.Sprintf("%s/api/signup/new_password/%s/%s", baseURL, token.EncodeUID(user.ID), signed)
}

// ActivationLink formats the email confirmation URL.
func ActivationLink(baseURL string, user *entity.User, signed string) string {
	return fmt.Sprintf("%s/api/signup/verify_email/%s/%s", baseURL, token.EncodeUID(user.ID), signed)
}
