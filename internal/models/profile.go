package models

import "strconv"

// Profile — изолированный контекст данных пользователя (например, отдельная площадка).
type Profile struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// ProfileKey переводит идентификатор профиля в строку для хранилища токенов.
func ProfileKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseProfileKey разбирает сохранённый идентификатор профиля.
// Пустая строка или мусор дают ok == false.
func ParseProfileKey(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// FindProfile ищет профиль по идентификатору в списке.
func FindProfile(profiles []Profile, id int64) (*Profile, bool) {
	for i := range profiles {
		if profiles[i].ID == id {
			p := profiles[i]
			return &p, true
		}
	}
	return nil, false
}
