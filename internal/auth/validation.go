package auth

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxEmailLength    = 254
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt ignores anything past this
)

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name" example:"Ana"`
	Email    string `json:"email" example:"ana@x.com"`
	Password string `json:"password" example:"Str0ng!Pwd"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" example:"ana@x.com"`
	Password string `json:"password" example:"Str0ng!Pwd"`
}

// VerifyTokenRequest represents the token verification request body
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

func (r RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return validationError("name should not be empty")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if !isStrongPassword(r.Password) {
		return validationError("password is not strong enough")
	}
	return nil
}

// Validate checks only the shape of the credentials; password strength is
// not checked on login.
func (r LoginRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return validationError("password should not be empty")
	}
	return nil
}

func (r VerifyTokenRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return validationError("token should not be empty")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLength {
		return validationError("email must be an email")
	}

	addr, err := mail.ParseAddress(email)
	// reject "Name <a@b>" forms and anything the parser had to normalize
	if err != nil || addr.Name != "" || addr.Address != email {
		return validationError("email must be an email")
	}

	return nil
}

// isStrongPassword requires at least 8 characters with a lowercase letter,
// an uppercase letter, a digit and a symbol.
func isStrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength || len(password) > maxPasswordBytes {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, c := range password {
		switch {
		case unicode.IsLower(c):
			lower = true
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsDigit(c):
			digit = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			symbol = true
		}
	}

	return lower && upper && digit && symbol
}
