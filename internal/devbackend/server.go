// Package devbackend локальный стенд бэкенда: вход, выход, текущий пользователь,
// список профилей и статус подписки. Данные берутся из Seed и живут в памяти.
package devbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/profile-session/internal/apiclient"
	"github.com/magabrotheeeer/profile-session/internal/http/response"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/models"
)

type ctxKey string

const claimsKey ctxKey = "claims"

type account struct {
	user         models.User
	passwordHash string
	subscription models.SubscriptionStatus
	profiles     []models.Profile
}

// Option настраивает Server.
type Option func(*options)

type options struct {
	bcryptCost int
}

// WithBcryptCost задаёт стоимость bcrypt для хэшей из Seed.
func WithBcryptCost(cost int) Option {
	return func(o *options) {
		o.bcryptCost = cost
	}
}

// Server стенд бэкенда.
type Server struct {
	log      *slog.Logger
	tokens   *TokenMaker
	validate *validator.Validate

	mu      sync.RWMutex
	byEmail map[string]*account
	byID    map[int64]*account
	revoked map[string]time.Time
}

// New создаёт стенд и хэширует пароли из seed.
func New(seed Seed, tokens *TokenMaker, log *slog.Logger, opts ...Option) (*Server, error) {
	const op = "devbackend.New"

	o := options{bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		log:      log,
		tokens:   tokens,
		validate: validator.New(),
		byEmail:  make(map[string]*account, len(seed.Users)),
		byID:     make(map[int64]*account, len(seed.Users)),
		revoked:  make(map[string]time.Time),
	}

	for _, u := range seed.Users {
		email := normalizeEmail(u.Email)
		if _, ok := s.byEmail[email]; ok {
			return nil, fmt.Errorf("%s: duplicate user %s", op, u.Email)
		}
		hash, err := hashPassword(u.Password, o.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		acc := &account{
			user:         models.User{ID: u.ID, Email: u.Email, Name: u.Name, Username: u.Username},
			passwordHash: hash,
			subscription: u.Subscription,
			profiles:     append([]models.Profile(nil), u.Profiles...),
		}
		s.byEmail[email] = acc
		s.byID[u.ID] = acc
	}
	return s, nil
}

// SetSubscription меняет статус подписки пользователя.
func (s *Server) SetSubscription(email string, status models.SubscriptionStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byEmail[normalizeEmail(email)]
	if ok {
		acc.subscription = status
	}
	return ok
}

// Handler возвращает роутер стенда.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
	)

	r.Post("/auth/login", s.login)
	r.Group(func(r chi.Router) {
		r.Use(s.bearer)
		r.Post("/auth/logout", s.logout)
		r.Get("/users/me", s.me)
		r.Get("/users/me/subscription/status", s.subscriptionStatus)
		r.Get("/profiles", s.profiles)
	})
	return r
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	const op = "devbackend.login"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req apiclient.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	form := struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required"`
	}{req.Email, req.Password}
	if err := s.validate.Struct(form); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	s.mu.RLock()
	acc, ok := s.byEmail[normalizeEmail(req.Email)]
	s.mu.RUnlock()
	if !ok || comparePassword(acc.passwordHash, req.Password) != nil {
		log.Info("wrong credentials")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("wrong email or password"))
		return
	}

	token, err := s.tokens.GenerateToken(acc.user.ID, acc.user.Email)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("token issued", slog.Int64("user_id", acc.user.ID))
	render.JSON(w, r, apiclient.LoginResponse{Token: token})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(claimsKey).(*Claims)

	s.mu.Lock()
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.account(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, acc.user)
}

func (s *Server) profiles(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.account(w, r)
	if !ok {
		return
	}
	s.mu.RLock()
	profiles := append([]models.Profile{}, acc.profiles...)
	s.mu.RUnlock()
	render.JSON(w, r, profiles)
}

func (s *Server) subscriptionStatus(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.account(w, r)
	if !ok {
		return
	}
	s.mu.RLock()
	status := acc.subscription
	s.mu.RUnlock()
	render.JSON(w, r, models.Subscription{Status: status})
}

func (s *Server) account(w http.ResponseWriter, r *http.Request) (*account, bool) {
	claims := r.Context().Value(claimsKey).(*Claims)

	s.mu.RLock()
	acc, ok := s.byID[claims.UserID]
	s.mu.RUnlock()
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user not found"))
		return nil, false
	}
	return acc, true
}

// bearer проверяет токен из заголовка Authorization и кладёт claims в контекст.
func (s *Server) bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "devbackend.bearer"

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("missing or invalid authorization header"))
			return
		}

		claims, err := s.tokens.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err == nil && s.isRevoked(claims.ID) {
			err = errors.New("token revoked")
		}
		if err != nil {
			s.log.Debug("token rejected",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid or expired token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func (s *Server) isRevoked(jti string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tokens.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	_, ok := s.revoked[jti]
	return ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
