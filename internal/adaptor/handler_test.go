package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medhistory/internal/data/entity"
	"medhistory/internal/dto/request"
	"medhistory/internal/dto/response"
	"medhistory/internal/usecase"
	"medhistory/pkg/utils"
)

type stubSignup struct {
	registerErr error
	resendErr   error
	verifyResp  *response.SignupVerifyResponse
	verifyErr   error
	activateErr error
}

func (s *stubSignup) Register(ctx context.Context, req *request.SignupRequest) (*entity.PendingRegistration, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &entity.PendingRegistration{Phone: req.PhoneNumber}, nil
}

func (s *stubSignup) Resend(ctx context.Context, phone string) error {
	return s.resendErr
}

func (s *stubSignup) Verify(ctx context.Context, phone string, req *request.VerifyOTPRequest) (*response.SignupVerifyResponse, error) {
	return s.verifyResp, s.verifyErr
}

func (s *stubSignup) ActivateEmail(ctx context.Context, uid, activation string) error {
	return s.activateErr
}

type stubPassword struct {
	requested []string
	link      string
	verifyErr error
	setErr    error
}

func (s *stubPassword) RequestReset(ctx context.Context, medium usecase.Medium, req *request.UsernameRequest) error {
	s.requested = append(s.requested, req.Username)
	return nil
}

func (s *stubPassword) VerifyResetOTP(ctx context.Context, req *request.OTPVerifyRequest) (string, error) {
	return s.link, s.verifyErr
}

func (s *stubPassword) SetNewPassword(ctx context.Context, uid, signed string, req *request.NewPasswordRequest) error {
	return s.setErr
}

type stubLogin struct {
	tokens    *response.TokenResponse
	err       error
	logoutErr error
}

func (s *stubLogin) RequestOTP(ctx context.Context, medium usecase.Medium, req *request.UsernameRequest) error {
	return nil
}

func (s *stubLogin) VerifyOTP(ctx context.Context, req *request.OTPVerifyRequest) (*response.TokenResponse, error) {
	return s.tokens, s.err
}

func (s *stubLogin) Login(ctx context.Context, req *request.LoginRequest) (*response.TokenResponse, error) {
	return s.tokens, s.err
}

func (s *stubLogin) Refresh(ctx context.Context, req *request.RefreshRequest) (*response.TokenResponse, error) {
	return s.tokens, s.err
}

func (s *stubLogin) Logout(ctx context.Context, req *request.RefreshRequest) error {
	return s.logoutErr
}

func newTestRouter(signup usecase.SignupService, password usecase.PasswordService, login usecase.LoginService) *chi.Mux {
	log := zap.NewNop()
	sh := NewSignupHandler(signup, log)
	ph := NewPasswordHandler(password, log)
	lh := NewLoginHandler(login, log)

	r := chi.NewRouter()
	r.Post("/api/signup", sh.Register)
	r.Get("/api/signup/verify_email/{uid}/{token}", sh.ActivateEmail)
	r.Post("/api/signup/password_reset/otp/verify", ph.VerifyResetOTP)
	r.Post("/api/signup/password_reset/{medium}", ph.RequestReset)
	r.Post("/api/signup/new_password/{uid}/{token}", ph.SetNewPassword)
	r.Get("/api/signup/{phone}/resend", sh.Resend)
	r.Post("/api/signup/{phone}/verify", sh.Verify)
	r.Post("/api/login/otp/verify", lh.VerifyOTP)
	r.Post("/api/token", lh.Token)
	r.Post("/api/token/refresh", lh.Refresh)
	r.Post("/api/logout", lh.Logout)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, utils.Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestSignupVerifyOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus bool
		wantMsg    string
	}{
		{name: "incorrect", err: usecase.ErrOTPIncorrect, wantCode: http.StatusOK, wantMsg: "OTP incorrect"},
		{name: "expired", err: usecase.ErrOTPExpired, wantCode: http.StatusOK, wantMsg: "OTP expired"},
		{name: "attempts", err: usecase.ErrOTPAttemptsExceeded, wantCode: http.StatusOK, wantMsg: "OTP attempts exceeded"},
		{name: "unknown phone", err: usecase.ErrNotFound, wantCode: http.StatusNotFound},
		{name: "store failure", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubSignup{verifyErr: tt.err}, &stubPassword{}, &stubLogin{})

			rec, resp := do(t, router, http.MethodPost, "/api/signup/0000000001/verify", `{"otp":"123456"}`)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, resp.Message)
			}
		})
	}
}

func TestSignupVerifySuccess(t *testing.T) {
	signup := &stubSignup{verifyResp: &response.SignupVerifyResponse{
		TokenResponse: response.TokenResponse{Access: "a", Refresh: "r"},
		Hint:          "hint",
	}}
	router := newTestRouter(signup, &stubPassword{}, &stubLogin{})

	rec, resp := do(t, router, http.MethodPost, "/api/signup/0000000001/verify", `{"otp":"123456"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, resp.Status)
	assert.Equal(t, "phone number verified", resp.Message)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a", data["access"])
	assert.Equal(t, "r", data["refresh"])
}

func TestSignupRegister(t *testing.T) {
	router := newTestRouter(&stubSignup{}, &stubPassword{}, &stubLogin{})
	rec, resp := do(t, router, http.MethodPost, "/api/signup", `{"phone_number":"0000000001"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "otp sent", resp.Message)

	invalid := &stubSignup{registerErr: &usecase.ValidationError{Fields: map[string]string{"phone_number": "already registered"}}}
	router = newTestRouter(invalid, &stubPassword{}, &stubLogin{})
	rec, resp = do(t, router, http.MethodPost, "/api/signup", `{"phone_number":"0000000001"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{"phone_number": "already registered"}, resp.Errors)

	rec, _ = do(t, router, http.MethodPost, "/api/signup", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupResend(t *testing.T) {
	router := newTestRouter(&stubSignup{}, &stubPassword{}, &stubLogin{})
	rec, resp := do(t, router, http.MethodGet, "/api/signup/0000000001/resend", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "resend", resp.Message)

	router = newTestRouter(&stubSignup{resendErr: usecase.ErrResendTooSoon}, &stubPassword{}, &stubLogin{})
	rec, resp = do(t, router, http.MethodGet, "/api/signup/0000000001/resend", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wait", resp.Message)
}

func TestActivateEmail(t *testing.T) {
	router := newTestRouter(&stubSignup{}, &stubPassword{}, &stubLogin{})
	rec, resp := do(t, router, http.MethodGet, "/api/signup/verify_email/uid/token", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Email verified", resp.Message)

	router = newTestRouter(&stubSignup{activateErr: usecase.ErrTokenInvalid}, &stubPassword{}, &stubLogin{})
	rec, resp = do(t, router, http.MethodGet, "/api/signup/verify_email/uid/token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Activation link is invalid!", resp.Message)
}

func TestRequestResetResponseHidesAccountExistence(t *testing.T) {
	password := &stubPassword{}
	router := newTestRouter(&stubSignup{}, password, &stubLogin{})

	known := httptest.NewRecorder()
	router.ServeHTTP(known, httptest.NewRequest(http.MethodPost, "/api/signup/password_reset/sms", strings.NewReader(`{"username":"+910000000001"}`)))

	unknown := httptest.NewRecorder()
	router.ServeHTTP(unknown, httptest.NewRequest(http.MethodPost, "/api/signup/password_reset/sms", strings.NewReader(`{"username":"nobody"}`)))

	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Equal(t, []string{"+910000000001", "nobody"}, password.requested)

	rec, resp := do(t, router, http.MethodPost, "/api/signup/password_reset/email", `{"username":"a@b.c"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, codeSentMessages[usecase.MediumEmail], resp.Message)

	rec, _ = do(t, router, http.MethodPost, "/api/signup/password_reset/fax", `{"username":"a@b.c"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyResetOTPCollapsesRejections(t *testing.T) {
	for _, err := range []error{usecase.ErrOTPIncorrect, usecase.ErrOTPExpired, usecase.ErrNotFound} {
		router := newTestRouter(&stubSignup{}, &stubPassword{verifyErr: err}, &stubLogin{})

		rec, resp := do(t, router, http.MethodPost, "/api/signup/password_reset/otp/verify", `{"username":"u","otp":"1"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, resp.Status)
		assert.Equal(t, msgOTPRejected, resp.Message)
	}

	router := newTestRouter(&stubSignup{}, &stubPassword{link: "http://x/api/signup/new_password/u/t"}, &stubLogin{})
	rec, resp := do(t, router, http.MethodPost, "/api/signup/password_reset/otp/verify", `{"username":"u","otp":"1"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, map[string]any{"link": "http://x/api/signup/new_password/u/t"}, resp.Data)
}

func TestSetNewPassword(t *testing.T) {
	router := newTestRouter(&stubSignup{}, &stubPassword{}, &stubLogin{})
	rec, resp := do(t, router, http.MethodPost, "/api/signup/new_password/u/t", `{"new_password":"x","confirm_password":"x"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Password Reset", resp.Message)

	router = newTestRouter(&stubSignup{}, &stubPassword{setErr: usecase.ErrTokenInvalid}, &stubLogin{})
	rec, resp = do(t, router, http.MethodPost, "/api/signup/new_password/u/t", `{"new_password":"x","confirm_password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "link is invalid!", resp.Message)
}

func TestTokenEndpoints(t *testing.T) {
	router := newTestRouter(&stubSignup{}, &stubPassword{}, &stubLogin{err: usecase.ErrInvalidCredentials})
	rec, _ := do(t, router, http.MethodPost, "/api/token", `{"username":"u","password":"p"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	router = newTestRouter(&stubSignup{}, &stubPassword{}, &stubLogin{err: usecase.ErrAccountInactive})
	rec, _ = do(t, router, http.MethodPost, "/api/token", `{"username":"u","password":"p"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	router = newTestRouter(&stubSignup{}, &stubPassword{}, &stubLogin{err: usecase.ErrTokenInvalid, logoutErr: usecase.ErrTokenInvalid})
	rec, _ = do(t, router, http.MethodPost, "/api/token/refresh", `{"refresh":"r"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = do(t, router, http.MethodPost, "/api/logout", `{"refresh":"r"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	router = newTestRouter(&stubSignup{}, &stubPassword{}, &stubLogin{err: usecase.ErrOTPExpired})
	rec, resp := do(t, router, http.MethodPost, "/api/login/otp/verify", `{"username":"u","otp":"1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, msgOTPRejected, resp.Message)

	router = newTestRouter(&stubSignup{}, &stubPassword{}, &stubLogin{tokens: &response.TokenResponse{Access: "a", Refresh: "r"}})
	rec, resp = do(t, router, http.MethodPost, "/api/token", `{"username":"u","password":"p"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"access": "a", "refresh": "r"}, resp.Data)
}
