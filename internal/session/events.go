package session

import (
	"context"
	"time"
)

// EventType вид события сессии.
type EventType string

const (
	EventLogin              EventType = "login"
	EventLogout             EventType = "logout"
	EventProfileSelected    EventType = "profile_selected"
	EventSessionInvalidated EventType = "session_invalidated"
)

// Event сообщает подписчикам, что производные от сессии данные устарели.
type Event struct {
	Type      EventType `json:"type"`
	Epoch     uint64    `json:"epoch"`
	UserID    int64     `json:"user_id,omitempty"`
	ProfileID *int64    `json:"profile_id,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier получает события сессии. Ошибки только логируются.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Event) error { return nil }
