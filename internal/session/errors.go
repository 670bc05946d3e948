package session

import "errors"

var (
	// ErrInvalidCredentials бэкенд или валидация отвергли учётные данные.
	// Единственная ошибка сессии, которая уходит вызывающему коду для показа в форме.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated операция требует аутентифицированной сессии.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionInvalid проверка личности по токену не удалась. Загрузчик сам
	// сбрасывает сессию и только логирует её; Login возвращает её, если токен
	// оказался непригодным сразу после входа.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrProfileResolution сохранённый профиль не найден в списке профилей. Только для логов.
	ErrProfileResolution = errors.New("profile resolution failure")
)

// LoginError отказ бэкенда во входе с сообщением для формы.
type LoginError struct {
	Message string
}

func (e *LoginError) Error() string {
	return ErrInvalidCredentials.Error() + ": " + e.Message
}

func (e *LoginError) Unwrap() error {
	return ErrInvalidCredentials
}
