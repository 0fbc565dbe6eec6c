package entity

// User is the credential store record. Username holds the verified phone
// number for accounts promoted from a pending registration.
type User struct {
	Base
	Username      string  `db:"username"`
	Email         *string `db:"email"`
	PasswordHash  string  `db:"password"`
	FirstName     string  `db:"first_name"`
	LastName      string  `db:"last_name"`
	IsActive      bool    `db:"is_active"`
	IsStaff       bool    `db:"is_staff"`
	EmailVerified bool    `db:"email_verified"`
}

// EmailAddress returns the email or "" when none was supplied.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
