package adaptor

import (
	"net/http"

	"medhistory/internal/dto/request"
	"medhistory/internal/dto/response"
	"medhistory/internal/usecase"
	"medhistory/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var codeSentMessages = map[usecase.Medium]string{
	usecase.MediumSMS:   "otp send to your number ,if not receive please check mobile number entered",
	usecase.MediumEmail: "otp send to your email ,if not receive please check email entered",
}

type PasswordHandler struct {
	service usecase.PasswordService
	log     *zap.Logger
}

func NewPasswordHandler(service usecase.PasswordService, log *zap.Logger) *PasswordHandler {
	return &PasswordHandler{
		service: service,
		log:     log.With(zap.String("handler", "password")),
	}
}

// RequestReset handles POST /api/signup/password_reset/{medium}
func (h *PasswordHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	medium, err := usecase.ParseMedium(chi.URLParam(r, "medium"))
	if err != nil {
		writeServiceError(w, h.log, err, "request reset")
		return
	}

	var req request.UsernameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.RequestReset(r.Context(), medium, &req); err != nil {
		writeServiceError(w, h.log, err, "request reset")
		return
	}

	utils.ResponseSuccess(w, codeSentMessages[medium], nil)
}

// VerifyResetOTP handles POST /api/signup/password_reset/otp/verify
func (h *PasswordHandler) VerifyResetOTP(w http.ResponseWriter, r *http.Request) {
	var req request.OTPVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	link, err := h.service.VerifyResetOTP(r.Context(), &req)
	if isOTPRejection(err) {
		utils.ResponseRejected(w, msgOTPRejected)
		return
	}
	if err != nil {
		writeServiceError(w, h.log, err, "verify reset otp")
		return
	}

	utils.ResponseAccepted(w, "otp verified", response.ResetLinkResponse{Link: link})
}

// SetNewPassword handles POST /api/signup/new_password/{uid}/{token}
func (h *PasswordHandler) SetNewPassword(w http.ResponseWriter, r *http.Request) {
	var req request.NewPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.SetNewPassword(r.Context(), chi.URLParam(r, "uid"), chi.URLParam(r, "token"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "set new password")
		return
	}

	utils.ResponseCreated(w, "Password Reset", nil)
}
