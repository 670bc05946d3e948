// Package metrics регистрирует prometheus-метрики сессии:
// исходы загрузки, решения route guard и решения проверки подписки.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы загрузки сессии.
const (
	LoadNoToken       = "no_token"
	LoadAuthenticated = "authenticated"
	LoadInvalid       = "session_invalid"
	LoadStale         = "stale"
)

var (
	// SessionLoads считает загрузки сессии по исходу.
	SessionLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_loads_total",
		Help: "Session loads by outcome.",
	}, []string{"outcome"})

	// ProfileResolutions считает попытки восстановить сохранённый профиль.
	ProfileResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_profile_resolutions_total",
		Help: "Persisted active profile resolutions by result.",
	}, []string{"result"})

	// RouteGuardDecisions считает решения route guard.
	RouteGuardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_guard_decisions_total",
		Help: "Route guard decisions by kind and target.",
	}, []string{"decision", "target"})

	// SubscriptionGateDecisions считает решения проверки подписки.
	SubscriptionGateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_gate_decisions_total",
		Help: "Subscription gate decisions by result and reason.",
	}, []string{"result", "reason"})
)
