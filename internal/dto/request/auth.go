package request

type SignupRequest struct {
	FirstName   string  `json:"first_name" validate:"required,max=15"`
	LastName    string  `json:"last_name" validate:"required,max=15"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber string  `json:"phone_number" validate:"required,min=10,max=13,phone"`
	Password    string  `json:"password" validate:"required,min=6,max=128"`
}

type VerifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,numeric,max=8"`
}

// UsernameRequest identifies an account by username (phone) or email.
type UsernameRequest struct {
	Username string `json:"username" validate:"required"`
}

type OTPVerifyRequest struct {
	Username string `json:"username" validate:"required"`
	OTP      string `json:"otp" validate:"required,numeric,max=8"`
}

type NewPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}
