package devbackend

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword возвращает bcrypt-хэш пароля.
func hashPassword(password string, cost int) (string, error) {
	const op = "devbackend.hashPassword"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// comparePassword возвращает nil, если пароль соответствует хэшу.
func comparePassword(hash, password string) error {
	const op = "devbackend.comparePassword"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
