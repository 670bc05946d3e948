package models

// SubscriptionStatus описывает статус подписки пользователя.
type SubscriptionStatus string

const (
	// SubscriptionActive — подписка оплачена, доступ к дашборду разрешён.
	SubscriptionActive SubscriptionStatus = "active"
	// SubscriptionPending — подписка ожидает оплаты.
	SubscriptionPending SubscriptionStatus = "pending"
	// SubscriptionCancelled — подписка отменена.
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription — ответ GET /users/me/subscription/status.
type Subscription struct {
	Status SubscriptionStatus `json:"status"`
}

// IsActive сообщает, даёт ли статус доступ к защищённым страницам.
func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionActive
}
