package auth

import (
	"net/mail"
	"strings"
)

// MinPasswordLength is the minimum password length for signup.
const MinPasswordLength = 8

// LoginInput is the validated login form.
type LoginInput struct {
	Email    string
	Password string
}

// SignupInput is the validated signup form.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// ValidateLoginInput checks login form fields: email format and a non-empty
// password. Returns a parse_error AuthError on any violation.
func ValidateLoginInput(email, password string) (*LoginInput, *AuthError) {
	email = strings.TrimSpace(email)
	if !isValidEmail(email) || password == "" {
		return nil, NewAuthError(CodeParseError)
	}
	return &LoginInput{Email: email, Password: password}, nil
}

// ValidateSignupInput checks signup form fields: required name, email format
// and minimum password length.
func ValidateSignupInput(name, email, password string) (*SignupInput, *AuthError) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || !isValidEmail(email) || len(password) < MinPasswordLength {
		return nil, NewAuthError(CodeParseError)
	}
	return &SignupInput{Name: name, Email: email, Password: password}, nil
}

func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
