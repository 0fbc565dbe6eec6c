package wire

import (
	"medhistory/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireLogin(r chi.Router, login *adaptor.LoginHandler, g guards) {
	r.Post("/api/login/otp/verify", login.VerifyOTP)
	r.Post("/api/login/otp/{medium}", login.RequestOTP)

	r.Post("/api/token", login.Token)
	r.Post("/api/token/refresh", login.Refresh)
	r.Post("/api/logout", login.Logout)

	r.With(g.jwt).Get("/api/hello", login.Hello)
}
