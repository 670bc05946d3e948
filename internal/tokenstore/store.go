// Package tokenstore хранит на стороне клиента два значения: токен авторизации
// и идентификатор выбранного профиля. Хранилище не ходит в сеть; ошибка чтения
// трактуется вызывающим кодом как отсутствие сессии.
package tokenstore

import (
	"context"
	"errors"
)

// ErrUnavailable возвращается, когда хранилище недоступно.
var ErrUnavailable = errors.New("token store unavailable")

// Store описывает долговременное хранилище токена и выбранного профиля.
type Store interface {
	// Token возвращает сохранённый токен или пустую строку.
	Token(ctx context.Context) (string, error)
	// SetToken сохраняет токен.
	SetToken(ctx context.Context, token string) error
	// ClearToken удаляет токен.
	ClearToken(ctx context.Context) error
	// ProfileID возвращает сохранённый идентификатор профиля или пустую строку.
	ProfileID(ctx context.Context) (string, error)
	// SetProfileID сохраняет идентификатор профиля, пустая строка удаляет его.
	SetProfileID(ctx context.Context, id string) error
}

// Present сообщает, есть ли в хранилище токен. Любая ошибка означает "нет".
func Present(ctx context.Context, s Store) bool {
	if s == nil {
		return false
	}
	token, err := s.Token(ctx)
	return err == nil && token != ""
}
