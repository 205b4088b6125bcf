package models

import "time"

// Статусы подписки.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusKicked    = "kicked"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription представляет оплаченный период командного доступа.
// EndDate всегда >= StartDate. На пару (UserID, ProductID) может существовать
// не более одной активной подписки — инвариант закреплён частичным уникальным
// индексом в БД и upsert-ом при создании.
type Subscription struct {
	ID        int64
	UserID    int64
	ProductID int64
	StartDate time.Time
	EndDate   time.Time
	Status    string
}

// DummySubscription используется для приёма данных из JSON-запроса,
// прежде чем конвертировать их в Subscription.
type DummySubscription struct {
	UserID    int64  `json:"user_id" validate:"required"`
	ProductID int64  `json:"product_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required"` // Дата начала в формате RFC3339
}

// ExpiredEntry — строка выборки просроченных активных подписок,
// соединённая с владельцем.
type ExpiredEntry struct {
	User         User
	Subscription Subscription
}
