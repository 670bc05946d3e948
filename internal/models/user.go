// Package models содержит доменные структуры клиентской сессии:
// пользователя, его профили (площадки) и статус подписки.
package models

// User представляет текущего пользователя, полученного по токену из GET /users/me.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}
