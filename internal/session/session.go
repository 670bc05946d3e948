// Package session держит текущую клиентскую сессию: пользователя, признак
// аутентификации, выбранный профиль и признак загрузки.
//
// Session единственный владелец этих полей. Менять их могут только три мутатора:
// Login, SelectProfile и Logout. Каждый мутатор увеличивает эпоху сессии, и любой
// результат загрузки, начатой в более старой эпохе, отбрасывается целиком,
// вместе с записями в хранилище токенов.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator"
	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/profile-session/internal/apiclient"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/models"
	"github.com/magabrotheeeer/profile-session/internal/tokenstore"
)

// API описывает вызовы бэкенда, нужные сессии.
type API interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*models.User, error)
	Profiles(ctx context.Context, token string) ([]models.Profile, error)
}

// Redirect путь страницы, на которую нужно перейти после мутатора.
type Redirect string

// Routes страницы, куда ведут мутаторы.
type Routes struct {
	Login         string
	SelectProfile string
	DashboardHome string
}

// Credentials учётные данные для Login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Option настраивает Session.
type Option func(*Session)

// WithNotifier задаёт получателя событий сессии.
func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLogoutTimeout ограничивает время уведомления бэкенда о выходе.
func WithLogoutTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.logoutTimeout = d
		}
	}
}

// WithClock подменяет часы (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session контейнер состояния сессии с единственным писателем.
type Session struct {
	api           API
	store         tokenstore.Store
	log           *slog.Logger
	routes        Routes
	notifier      Notifier
	validate      *validator.Validate
	logoutTimeout time.Duration
	now           func() time.Time

	mu         sync.RWMutex
	state      State
	loaded     chan struct{}
	loadedOnce sync.Once
	group      singleflight.Group
}

// New создаёт сессию в состоянии Loading. Состояние появится после Load.
func New(api API, store tokenstore.Store, routes Routes, log *slog.Logger, opts ...Option) *Session {
	s := &Session{
		api:           api,
		store:         store,
		log:           log,
		routes:        routes,
		notifier:      noopNotifier{},
		validate:      validator.New(),
		logoutTimeout: 2 * time.Second,
		now:           time.Now,
		state:         State{Loading: true},
		loaded:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State возвращает копию текущего состояния.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Wait ждёт окончания первой загрузки и возвращает состояние.
// Пока загрузка идёт, защищённое содержимое показывать нельзя.
func (s *Session) Wait(ctx context.Context) (State, error) {
	select {
	case <-s.loaded:
		return s.State(), nil
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// AccessToken возвращает токен из хранилища. Ошибка хранилища означает отсутствие токена.
func (s *Session) AccessToken(ctx context.Context) string {
	token, err := s.store.Token(ctx)
	if err != nil {
		s.log.Warn("token store read failed, treating as no session",
			slog.String("op", "session.AccessToken"), sl.Err(err))
		return ""
	}
	return token
}

// Login отправляет учётные данные. При успехе сохраняет токен, забывает
// сохранённый профиль, перезагружает сессию и ведёт на выбор профиля.
// При отказе состояние не меняется, а ошибка возвращается для показа в форме.
// Если бэкенд выдал токен, но проверка личности по нему не прошла, возвращается
// ErrSessionInvalid и сессия остаётся неаутентифицированной.
func (s *Session) Login(ctx context.Context, creds Credentials) (Redirect, error) {
	const op = "session.Login"
	log := s.log.With(slog.String("op", op))

	if err := s.validate.Struct(creds); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrInvalidCredentials, err)
	}

	token, err := s.api.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		if apiclient.IsRejected(err) {
			log.Info("login rejected by backend")
			return "", fmt.Errorf("%s: %w", op, &LoginError{Message: rejectionMessage(err)})
		}
		log.Error("login request failed", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	if err := s.store.SetToken(ctx, token); err != nil {
		s.mu.Unlock()
		log.Error("failed to persist token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.store.SetProfileID(ctx, ""); err != nil {
		log.Warn("failed to clear persisted profile", sl.Err(err))
	}
	epoch := s.bumpLocked()
	s.state = reloading(epoch)
	s.mu.Unlock()

	st, err := s.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !st.IsAuthenticated {
		// токен выдан, но проверка личности не прошла, загрузка уже сбросила сессию
		log.Warn("identity check failed right after login", slog.Uint64("epoch", epoch))
		return "", fmt.Errorf("%s: %w", op, ErrSessionInvalid)
	}

	s.notify(ctx, Event{Type: EventLogin, Epoch: epoch, UserID: st.User.ID})

	log.Info("user logged in", slog.Uint64("epoch", epoch))
	return Redirect(s.routes.SelectProfile), nil
}

// SelectProfile сохраняет выбранный профиль (nil очищает выбор) и перезагружает сессию.
// Если идентификатор не найдётся среди профилей пользователя, загрузка его сбросит
// и вернёт на выбор профиля.
func (s *Session) SelectProfile(ctx context.Context, id *int64) (Redirect, error) {
	const op = "session.SelectProfile"
	log := s.log.With(slog.String("op", op))

	s.mu.Lock()
	if !s.state.IsAuthenticated {
		s.mu.Unlock()
		return "", fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	value := ""
	if id != nil {
		value = models.ProfileKey(*id)
	}
	if err := s.store.SetProfileID(ctx, value); err != nil {
		s.mu.Unlock()
		log.Error("failed to persist profile", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	epoch := s.bumpLocked()
	s.state = reloading(epoch)
	s.mu.Unlock()

	st, err := s.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	event := Event{Type: EventProfileSelected, Epoch: epoch, ProfileID: id}
	if st.User != nil {
		event.UserID = st.User.ID
	}
	s.notify(ctx, event)

	if id == nil || st.ActiveProfile == nil || st.ActiveProfile.ID != *id {
		return Redirect(s.routes.SelectProfile), nil
	}
	return Redirect(s.routes.DashboardHome), nil
}

// Logout безусловно очищает токен, профиль и состояние в памяти и ведёт на логин.
// Бэкенд уведомляется по возможности; его недоступность на результат не влияет.
func (s *Session) Logout(ctx context.Context) Redirect {
	const op = "session.Logout"
	log := s.log.With(slog.String("op", op))

	s.mu.Lock()
	token, err := s.store.Token(ctx)
	if err != nil {
		token = ""
	}
	if err := s.store.ClearToken(ctx); err != nil {
		log.Warn("failed to clear token", sl.Err(err))
	}
	if err := s.store.SetProfileID(ctx, ""); err != nil {
		log.Warn("failed to clear persisted profile", sl.Err(err))
	}
	var userID int64
	if s.state.User != nil {
		userID = s.state.User.ID
	}
	epoch := s.bumpLocked()
	s.state = unauthenticated(epoch)
	s.markLoadedLocked()
	s.mu.Unlock()

	if token != "" {
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.logoutTimeout)
		if err := s.api.Logout(logoutCtx, token); err != nil {
			log.Info("backend logout failed, ignoring", sl.Err(err))
		}
		cancel()
	}

	s.notify(ctx, Event{Type: EventLogout, Epoch: epoch, UserID: userID})
	log.Info("user logged out", slog.Uint64("epoch", epoch))
	return Redirect(s.routes.Login)
}

// Profiles возвращает список профилей пользователя для страницы выбора профиля.
func (s *Session) Profiles(ctx context.Context) ([]models.Profile, error) {
	const op = "session.Profiles"

	if !s.State().IsAuthenticated {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}
	token := s.AccessToken(ctx)
	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}
	profiles, err := s.api.Profiles(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return profiles, nil
}

// bumpLocked увеличивает эпоху. Вызывается под s.mu.
func (s *Session) bumpLocked() uint64 {
	s.state.Epoch++
	return s.state.Epoch
}

func (s *Session) markLoadedLocked() {
	s.loadedOnce.Do(func() { close(s.loaded) })
}

func (s *Session) notify(ctx context.Context, e Event) {
	e.At = s.now().UTC()
	if err := s.notifier.Notify(ctx, e); err != nil {
		s.log.Warn("failed to publish session event",
			slog.String("op", "session.notify"),
			slog.String("type", string(e.Type)),
			sl.Err(err))
	}
}

func (s *Session) epochKey(epoch uint64) string {
	return strconv.FormatUint(epoch, 10)
}

func rejectionMessage(err error) string {
	var se *apiclient.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return "rejected by server"
}
