package user

import (
	"fmt"
	"unicode"
)

const (
	MinLoginLen    = 3
	MaxLoginLen    = 32
	MinPasswordLen = 8
	MaxPasswordLen = 72 // предел bcrypt
)

// Validator проверяет учетные данные до обращения к хранилищу.
type Validator interface {
	ValidateLogin(login string) error
	ValidatePassword(password string) error
}

// CredentialsPolicy - правила для логина и пароля. Пароль должен содержать
// хотя бы одну букву и одну цифру.
type CredentialsPolicy struct{}

func NewCredentialsPolicy() CredentialsPolicy {
	return CredentialsPolicy{}
}

func (CredentialsPolicy) ValidateLogin(login string) error {
	n := len([]rune(login))
	if n < MinLoginLen || n > MaxLoginLen {
		return fmt.Errorf("login length must be between %d and %d", MinLoginLen, MaxLoginLen)
	}

	for _, r := range login {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return fmt.Errorf("login may contain only letters, digits, '_', '-', '.'")
		}
	}

	return nil
}

func (CredentialsPolicy) ValidatePassword(password string) error {
	if len(password) < MinPasswordLen || len(password) > MaxPasswordLen {
		return fmt.Errorf("password length must be between %d and %d bytes", MinPasswordLen, MaxPasswordLen)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return fmt.Errorf("password must contain letters and digits")
	}

	return nil
}
