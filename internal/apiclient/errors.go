package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError возвращается на любой ответ бэкенда вне диапазона 2xx.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("unexpected status: %d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
}

// IsUnauthorized сообщает, отверг ли бэкенд токен (401 или 403).
func IsUnauthorized(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
}

// IsRejected сообщает, отверг ли бэкенд сам запрос (4xx), а не упал.
func IsRejected(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code >= 400 && se.Code < 500
}
