package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ==================== PASSWORD ====================

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ==================== PHONE ====================

// NormalizePhone prefixes bare national numbers with the default country code.
func NormalizePhone(phone, countryCode string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.NewReplacer(" ", "", "-", "").Replace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return countryCode + phone
}
