package adaptor

import (
	"errors"
	"net/http"

	"medhistory/internal/dto/request"
	"medhistory/internal/usecase"
	"medhistory/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SignupHandler struct {
	service usecase.SignupService
	log     *zap.Logger
}

func NewSignupHandler(service usecase.SignupService, log *zap.Logger) *SignupHandler {
	return &SignupHandler{
		service: service,
		log:     log.With(zap.String("handler", "signup")),
	}
}

// Register handles POST /api/signup
func (h *SignupHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.service.Register(r.Context(), &req); err != nil {
		h.handleServiceError(w, err, "register")
		return
	}

	utils.ResponseCreated(w, "otp sent", nil)
}

// Resend handles GET /api/signup/{phone}/resend
func (h *SignupHandler) Resend(w http.ResponseWriter, r *http.Request) {
	err := h.service.Resend(r.Context(), chi.URLParam(r, "phone"))
	switch {
	case err == nil:
		utils.ResponseAccepted(w, "resend", nil)
	case errors.Is(err, usecase.ErrResendTooSoon):
		utils.ResponseSuccess(w, "wait", nil)
	default:
		h.handleServiceError(w, err, "resend")
	}
}

// Verify handles POST /api/signup/{phone}/verify
func (h *SignupHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Verify(r.Context(), chi.URLParam(r, "phone"), &req)
	if err != nil {
		h.handleServiceError(w, err, "verify phone")
		return
	}

	utils.ResponseAccepted(w, "phone number verified", resp)
}

// ActivateEmail handles GET /api/signup/verify_email/{uid}/{token}
func (h *SignupHandler) ActivateEmail(w http.ResponseWriter, r *http.Request) {
	err := h.service.ActivateEmail(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "token"))
	if errors.Is(err, usecase.ErrTokenInvalid) {
		utils.ResponseBadRequest(w, "Activation link is invalid!", nil)
		return
	}
	if err != nil {
		h.handleServiceError(w, err, "activate email")
		return
	}

	utils.ResponseCreated(w, "Email verified", nil)
}

func (h *SignupHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrOTPIncorrect):
		utils.ResponseRejected(w, "OTP incorrect")
	case errors.Is(err, usecase.ErrOTPExpired):
		utils.ResponseRejected(w, "OTP expired")
	case errors.Is(err, usecase.ErrOTPAttemptsExceeded):
		utils.ResponseRejected(w, "OTP attempts exceeded")
	case errors.Is(err, usecase.ErrNotFound):
		utils.ResponseNotFound(w, "No pending signup for this phone number")
	default:
		writeServiceError(w, h.log, err, operation)
	}
}
