package session

import "github.com/magabrotheeeer/profile-session/internal/models"

// Phase состояние конечного автомата сессии.
type Phase int

const (
	// PhaseLoading первая загрузка ещё не завершилась.
	PhaseLoading Phase = iota
	// PhaseUnauthenticated валидного токена нет.
	PhaseUnauthenticated
	// PhaseNoProfile пользователь известен, профиль не выбран.
	PhaseNoProfile
	// PhaseProfileSelected пользователь известен и профиль выбран.
	PhaseProfileSelected
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseNoProfile:
		return "authenticated"
	case PhaseProfileSelected:
		return "profile_selected"
	default:
		return "unknown"
	}
}

// State снимок сессии. Поля производные от токена в хранилище и могут устареть.
type State struct {
	User            *models.User    `json:"user"`
	IsAuthenticated bool            `json:"is_authenticated"`
	ActiveProfile   *models.Profile `json:"active_profile"`
	Loading         bool            `json:"loading"`
	// Epoch растёт при каждом вызове мутатора. Кэши производных данных
	// могут использовать его как ключ инвалидации.
	Epoch uint64 `json:"epoch"`
}

// Phase возвращает состояние автомата для снимка.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case !s.IsAuthenticated:
		return PhaseUnauthenticated
	case s.ActiveProfile == nil:
		return PhaseNoProfile
	default:
		return PhaseProfileSelected
	}
}

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.ActiveProfile != nil {
		p := *s.ActiveProfile
		out.ActiveProfile = &p
	}
	return out
}

// reloading снимок сразу после мутатора: производные поля прошлой эпохи
// не доживают до новой.
func reloading(epoch uint64) State {
	return State{Loading: true, Epoch: epoch}
}

func unauthenticated(epoch uint64) State {
	return State{Epoch: epoch}
}

func authenticated(epoch uint64, user *models.User, profile *models.Profile) State {
	return State{
		User:            user,
		IsAuthenticated: true,
		ActiveProfile:   profile,
		Epoch:           epoch,
	}
}
