package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medhistory/internal/dto/request"
	"medhistory/internal/token"
	"medhistory/pkg/utils"
)

// splitResetLink returns the uid and token segments of a reset link.
func splitResetLink(t *testing.T, env *testEnv, link string) (string, string) {
	t.Helper()

	prefix := env.config.App.BaseURL + "/api/signup/new_password/"
	require.True(t, strings.HasPrefix(link, prefix), link)
	require.False(t, strings.HasSuffix(link, "/"), link)

	parts := strings.Split(strings.TrimPrefix(link, prefix), "/")
	require.Len(t, parts, 2)
	return parts[0], parts[1]
}

func TestRequestResetUnknownAccountLooksLikeSuccess(t *testing.T) {
	env := newTestEnv(t, "333333")

	err := env.password.RequestReset(context.Background(), MediumSMS, &request.UsernameRequest{Username: "+919999999999"})
	assert.NoError(t, err)
	assert.Empty(t, env.notifier.sms)
	assert.Empty(t, env.store.challenges)
}

func TestRequestResetBySMSAndEmail(t *testing.T) {
	env := newTestEnv(t, "333333", "444444")
	ctx := context.Background()
	env.addUser(t, "+910000000021", "asha@example.com", "old-pass")

	require.NoError(t, env.password.RequestReset(ctx, MediumSMS, &request.UsernameRequest{Username: "+910000000021"}))
	require.Len(t, env.notifier.sms, 1)
	assert.Equal(t, "+910000000021", env.notifier.sms[0].To)
	assert.Contains(t, env.notifier.sms[0].Body, "333333")

	require.NoError(t, env.password.RequestReset(ctx, MediumEmail, &request.UsernameRequest{Username: "asha@example.com"}))
	require.Len(t, env.notifier.emails, 1)
	assert.Equal(t, "asha@example.com", env.notifier.emails[0].To)
	assert.Equal(t, "Reset Your Account", env.notifier.emails[0].Subject)
	assert.Contains(t, env.notifier.emails[0].HTML, "444444")
}

func TestVerifyResetOTP(t *testing.T) {
	env := newTestEnv(t, "333333")
	ctx := context.Background()
	env.addUser(t, "+910000000022", "", "old-pass")

	require.NoError(t, env.password.RequestReset(ctx, MediumSMS, &request.UsernameRequest{Username: "+910000000022"}))

	_, err := env.password.VerifyResetOTP(ctx, &request.OTPVerifyRequest{Username: "+910000000022", OTP: "000000"})
	assert.ErrorIs(t, err, ErrOTPIncorrect)

	link, err := env.password.VerifyResetOTP(ctx, &request.OTPVerifyRequest{Username: "+910000000022", OTP: "333333"})
	require.NoError(t, err)
	splitResetLink(t, env, link)

	_, err = env.password.VerifyResetOTP(ctx, &request.OTPVerifyRequest{Username: "+910000000022", OTP: "333333"})
	assert.ErrorIs(t, err, ErrNotFound, "a verified code cannot be replayed")

	_, err = env.password.VerifyResetOTP(ctx, &request.OTPVerifyRequest{Username: "nobody", OTP: "333333"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerifyResetOTPExpires(t *testing.T) {
	env := newTestEnv(t, "333333")
	ctx := context.Background()
	env.addUser(t, "+910000000023", "", "old-pass")

	require.NoError(t, env.password.RequestReset(ctx, MediumSMS, &request.UsernameRequest{Username: "+910000000023"}))
	env.clock.Advance(50 * time.Second)

	_, err := env.password.VerifyResetOTP(ctx, &request.OTPVerifyRequest{Username: "+910000000023", OTP: "333333"})
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestLoginCodeDoesNotUnlockReset(t *testing.T) {
	env := newTestEnv(t, "333333")
	ctx := context.Background()
	env.addUser(t, "+910000000024", "", "old-pass")

	require.NoError(t, env.login.RequestOTP(ctx, MediumSMS, &request.UsernameRequest{Username: "+910000000024"}))

	_, err := env.password.VerifyResetOTP(ctx, &request.OTPVerifyRequest{Username: "+910000000024", OTP: "333333"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetNewPassword(t *testing.T) {
	env := newTestEnv(t, "333333")
	ctx := context.Background()
	user := env.addUser(t, "+910000000025", "", "old-pass")

	session, err := env.login.Login(ctx, &request.LoginRequest{Username: "+910000000025", Password: "old-pass"})
	require.NoError(t, err)

	require.NoError(t, env.password.RequestReset(ctx, MediumSMS, &request.UsernameRequest{Username: "+910000000025"}))
	link, err := env.password.VerifyResetOTP(ctx, &request.OTPVerifyRequest{Username: "+910000000025", OTP: "333333"})
	require.NoError(t, err)
	uid, signed := splitResetLink(t, env, link)

	err = env.password.SetNewPassword(ctx, uid, signed, &request.NewPasswordRequest{NewPassword: "new-pass", ConfirmPassword: "typo"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "confirm_password")

	err = env.password.SetNewPassword(ctx, uid, signed, &request.NewPasswordRequest{NewPassword: "new-pass", ConfirmPassword: "new-pass"})
	require.NoError(t, err)

	stored, err := env.repo.User.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("new-pass", stored.PasswordHash))
	assert.Empty(t, env.store.challenges)

	err = env.password.SetNewPassword(ctx, uid, signed, &request.NewPasswordRequest{NewPassword: "other-pass", ConfirmPassword: "other-pass"})
	assert.ErrorIs(t, err, ErrTokenInvalid, "link dies with the old password")

	_, err = env.login.Refresh(ctx, &request.RefreshRequest{Refresh: session.Refresh})
	assert.ErrorIs(t, err, ErrTokenInvalid, "existing sessions are revoked")
}

func TestSetNewPasswordRejectsBadLink(t *testing.T) {
	env := newTestEnv(t, "333333")
	ctx := context.Background()
	env.addUser(t, "+910000000026", "", "old-pass")

	req := &request.NewPasswordRequest{NewPassword: "new-pass", ConfirmPassword: "new-pass"}
	assert.ErrorIs(t, env.password.SetNewPassword(ctx, "bad", "token", req), ErrTokenInvalid)
}

func TestResetLinkDoesNotActivateEmail(t *testing.T) {
	env := newTestEnv(t, "333333")
	ctx := context.Background()
	user := env.addUser(t, "+910000000027", "mira@example.com", "old-pass")

	require.NoError(t, env.password.RequestReset(ctx, MediumSMS, &request.UsernameRequest{Username: "+910000000027"}))
	link, err := env.password.VerifyResetOTP(ctx, &request.OTPVerifyRequest{Username: "+910000000027", OTP: "333333"})
	require.NoError(t, err)
	uid, signed := splitResetLink(t, env, link)

	assert.ErrorIs(t, env.signup.ActivateEmail(ctx, uid, signed), ErrTokenInvalid)

	stored, err := env.repo.User.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified)
}

func TestActivationLinkDoesNotSetPassword(t *testing.T) {
	env := newTestEnv(t, "333333")
	ctx := context.Background()
	user := env.addUser(t, "+910000000028", "nila@example.com", "old-pass")

	signed, err := env.tokens.IssueActivation(user)
	require.NoError(t, err)
	uid := token.EncodeUID(user.ID)

	req := &request.NewPasswordRequest{NewPassword: "new-pass", ConfirmPassword: "new-pass"}
	assert.ErrorIs(t, env.password.SetNewPassword(ctx, uid, signed, req), ErrTokenInvalid)

	stored, err := env.repo.User.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("old-pass", stored.PasswordHash))
}
