package tokenstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry читает срок действия из JWT без проверки подписи.
// Значение только для отображения: решения о доступе по нему не принимаются.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
