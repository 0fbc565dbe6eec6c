package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"medhistory/internal/usecase"
	"medhistory/pkg/utils"

	"go.uber.org/zap"
)

const msgOTPRejected = "either otp provided is wrong or it expires"

type Handler struct {
	Signup   *SignupHandler
	Password *PasswordHandler
	Login    *LoginHandler
	User     *UserHandler
	Catalog  *CatalogHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Signup:   NewSignupHandler(service.Signup, log),
		Password: NewPasswordHandler(service.Password, log),
		Login:    NewLoginHandler(service.Login, log),
		User:     NewUserHandler(service.User, log),
		Catalog:  NewCatalogHandler(service.Catalog, log),
	}
}

// decodeJSON reads the body into dst, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// writeServiceError covers the errors every handler shares. Handlers deal with
// their flow-specific outcomes first and fall through to this.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var verr *usecase.ValidationError

	switch {
	case errors.As(err, &verr):
		log.Warn(operation+" validation failed", zap.Any("errors", verr.Fields))
		utils.ResponseBadRequest(w, "Validation failed", verr.Fields)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, "Not found")

	case errors.Is(err, usecase.ErrTokenInvalid):
		log.Warn(operation+" failed - invalid link", zap.Error(err))
		utils.ResponseBadRequest(w, "link is invalid!", nil)

	case errors.Is(err, usecase.ErrInvalidCredentials):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, "Invalid credentials")

	case errors.Is(err, usecase.ErrAccountInactive):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// isOTPRejection reports outcomes that are answered with the generic
// "wrong or expired" text in the login and reset flows.
func isOTPRejection(err error) bool {
	return errors.Is(err, usecase.ErrNotFound) ||
		errors.Is(err, usecase.ErrOTPIncorrect) ||
		errors.Is(err, usecase.ErrOTPExpired) ||
		errors.Is(err, usecase.ErrOTPAttemptsExceeded)
}
