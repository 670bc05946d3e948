// Package routeguard решает, пропустить запрос или перенаправить его,
// глядя только на путь и на наличие токена. Валидность токена здесь
// не проверяется: это делают загрузчик сессии и проверка подписки.
package routeguard

import (
	"path"
	"strings"
)

// Kind вид решения route guard.
type Kind int

const (
	// Allow пропустить запрос.
	Allow Kind = iota
	// Redirect перенаправить на Decision.Target.
	Redirect
)

func (k Kind) String() string {
	if k == Redirect {
		return "redirect"
	}
	return "allow"
}

// Decision результат Decide.
type Decision struct {
	Kind   Kind
	Target string
}

// IsRedirect сообщает, нужно ли перенаправление.
func (d Decision) IsRedirect() bool {
	return d.Kind == Redirect
}

// Config описывает, какие пути защищены и куда перенаправлять.
type Config struct {
	ProtectedPrefixes []string
	LoginPath         string
	DashboardHome     string
}

// Guard неизменяемый набор правил маршрутов.
type Guard struct {
	protected []string
	login     string
	home      string
}

// New создаёт Guard. Пути приводятся к каноническому виду один раз.
func New(cfg Config) *Guard {
	g := &Guard{
		login: clean(cfg.LoginPath),
		home:  clean(cfg.DashboardHome),
	}
	for _, p := range cfg.ProtectedPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			g.protected = append(g.protected, clean(p))
		}
	}
	return g
}

// Decide возвращает решение для пути p при наличии или отсутствии токена.
func (g *Guard) Decide(p string, tokenPresent bool) Decision {
	p = clean(p)

	// страница логина не может перенаправлять сама на себя
	if !tokenPresent && p != g.login && g.isProtected(p) {
		return Decision{Kind: Redirect, Target: g.login}
	}
	if tokenPresent && p == g.login {
		return Decision{Kind: Redirect, Target: g.home}
	}
	return Decision{Kind: Allow}
}

// IsProtected сообщает, попадает ли путь под защищённые префиксы.
func (g *Guard) IsProtected(p string) bool {
	return g.isProtected(clean(p))
}

func (g *Guard) isProtected(p string) bool {
	for _, prefix := range g.protected {
		if prefix == "/" || p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
