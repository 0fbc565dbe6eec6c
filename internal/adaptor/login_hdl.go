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

type LoginHandler struct {
	service usecase.LoginService
	log     *zap.Logger
}

func NewLoginHandler(service usecase.LoginService, log *zap.Logger) *LoginHandler {
	return &LoginHandler{
		service: service,
		log:     log.With(zap.String("handler", "login")),
	}
}

// RequestOTP handles POST /api/login/otp/{medium}
func (h *LoginHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	medium, err := usecase.ParseMedium(chi.URLParam(r, "medium"))
	if err != nil {
		writeServiceError(w, h.log, err, "request login otp")
		return
	}

	var req request.UsernameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.RequestOTP(r.Context(), medium, &req); err != nil {
		writeServiceError(w, h.log, err, "request login otp")
		return
	}

	utils.ResponseSuccess(w, codeSentMessages[medium], nil)
}

// VerifyOTP handles POST /api/login/otp/verify
func (h *LoginHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req request.OTPVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.service.VerifyOTP(r.Context(), &req)
	if isOTPRejection(err) {
		utils.ResponseRejected(w, msgOTPRejected)
		return
	}
	if err != nil {
		writeServiceError(w, h.log, err, "verify login otp")
		return
	}

	utils.ResponseAccepted(w, "Login successful", tokens)
}

// Token handles POST /api/token
func (h *LoginHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", tokens)
}

// Refresh handles POST /api/token/refresh
func (h *LoginHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.service.Refresh(r.Context(), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrTokenInvalid) {
			utils.ResponseUnauthorized(w, "Token is invalid or expired")
			return
		}
		writeServiceError(w, h.log, err, "refresh token")
		return
	}

	utils.ResponseSuccess(w, "Token refreshed", tokens)
}

// Logout handles POST /api/logout
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Logout(r.Context(), &req); err != nil {
		if errors.Is(err, usecase.ErrTokenInvalid) {
			utils.ResponseUnauthorized(w, "Token is invalid or expired")
			return
		}
		writeServiceError(w, h.log, err, "logout")
		return
	}

	utils.ResponseSuccess(w, "Logged out", nil)
}

// Hello handles GET /api/hello
func (h *LoginHandler) Hello(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "Hello, World!", nil)
}
