// Package subscription проверяет, есть ли у пользователя право на защищённые
// страницы. Проверка выполняется заново при каждом входе на такую страницу и
// ничего не кэширует. Любая ошибка запроса означает отказ.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/profile-session/internal/lib/metrics"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/models"
	"github.com/magabrotheeeer/profile-session/internal/session"
)

// ErrCheckFailed запрос статуса подписки не удался.
var ErrCheckFailed = errors.New("subscription check failed")

// Причины решения, они же значения метки reason.
const (
	ReasonActive          = "active"
	ReasonAdmin           = "admin"
	ReasonInactive        = "inactive"
	ReasonCheckFailed     = "check_failed"
	ReasonUnauthenticated = "unauthenticated"
)

// StatusFetcher запрашивает статус подписки текущего пользователя.
type StatusFetcher interface {
	SubscriptionStatus(ctx context.Context, token string) (models.SubscriptionStatus, error)
}

// Subject то, чей доступ проверяется: обычно *session.Session.
type Subject interface {
	State() session.State
	AccessToken(ctx context.Context) string
}

// Decision результат CheckAccess.
type Decision struct {
	Allowed  bool
	Redirect string
	Reason   string
	Status   models.SubscriptionStatus
	Err      error
}

// Config пути перенаправления и адрес администратора.
type Config struct {
	AdminEmail    string
	SubscribePath string
	LoginPath     string
}

// Gate проверка подписки.
type Gate struct {
	fetcher   StatusFetcher
	admin     string
	subscribe string
	login     string
	log       *slog.Logger
}

// New создаёт Gate.
func New(fetcher StatusFetcher, cfg Config, log *slog.Logger) *Gate {
	return &Gate{
		fetcher:   fetcher,
		admin:     strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		subscribe: cfg.SubscribePath,
		login:     cfg.LoginPath,
		log:       log,
	}
}

// CheckAccess решает, пускать ли subject на защищённую страницу.
//
//	active                    -> Allow
//	не active, не админ       -> Deny, на страницу подписки
//	не active, админ          -> Allow
//	запрос не удался          -> Deny, на страницу подписки
//
// Без аутентификации запрос не делается: Deny с переходом на логин.
func (g *Gate) CheckAccess(ctx context.Context, subj Subject) Decision {
	const op = "subscription.CheckAccess"
	log := g.log.With(slog.String("op", op))

	d := g.check(ctx, subj)
	if d.Err != nil {
		log.Warn("subscription check failed, denying", sl.Err(d.Err))
	} else {
		log.Debug("subscription checked",
			slog.Bool("allowed", d.Allowed),
			slog.String("reason", d.Reason),
			slog.String("status", string(d.Status)))
	}

	result := "deny"
	if d.Allowed {
		result = "allow"
	}
	metrics.SubscriptionGateDecisions.WithLabelValues(result, d.Reason).Inc()
	return d
}

func (g *Gate) check(ctx context.Context, subj Subject) Decision {
	st := subj.State()
	if !st.IsAuthenticated || st.User == nil {
		return Decision{Redirect: g.login, Reason: ReasonUnauthenticated}
	}

	token := subj.AccessToken(ctx)
	if token == "" {
		return Decision{Redirect: g.login, Reason: ReasonUnauthenticated}
	}

	status, err := g.fetcher.SubscriptionStatus(ctx, token)
	if err != nil {
		return Decision{
			Redirect: g.subscribe,
			Reason:   ReasonCheckFailed,
			Err:      fmt.Errorf("%w: %w", ErrCheckFailed, err),
		}
	}

	switch {
	case status.IsActive():
		return Decision{Allowed: true, Reason: ReasonActive, Status: status}
	case g.isAdmin(st.User):
		return Decision{Allowed: true, Reason: ReasonAdmin, Status: status}
	default:
		return Decision{Redirect: g.subscribe, Reason: ReasonInactive, Status: status}
	}
}

func (g *Gate) isAdmin(u *models.User) bool {
	return g.admin != "" && strings.ToLower(strings.TrimSpace(u.Email)) == g.admin
}
