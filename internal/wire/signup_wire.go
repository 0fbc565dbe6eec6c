package wire

import (
	"medhistory/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireSignup(r chi.Router, signup *adaptor.SignupHandler, password *adaptor.PasswordHandler) {
	r.Route("/api/signup", func(r chi.Router) {
		r.Post("/", signup.Register)
		r.Get("/verify_email/{uid}/{token}", signup.ActivateEmail)

		r.Post("/password_reset/otp/verify", password.VerifyResetOTP)
		r.Post("/password_reset/{medium}", password.RequestReset)
		r.Post("/new_password/{uid}/{token}", password.SetNewPassword)

		r.Get("/{phone}/resend", signup.Resend)
		r.Post("/{phone}/verify", signup.Verify)
	})
}
