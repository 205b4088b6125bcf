// Package models содержит доменные структуры: пользователи, подписки,
// продукты, настройки и транзиентные данные, наблюдаемые у внешнего
// провайдера командного доступа.
package models

import "time"

// Статусы пользователя относительно командного доступа.
const (
	UserStatusActive        = "active"
	UserStatusPendingInvite = "pending_invite"
	UserStatusKicked        = "kicked"
	UserStatusRevoked       = "revoked"
)

// User представляет пользователя системы. Email служит ключом сопоставления
// с участником внешней команды, TelegramID — контакт для уведомлений.
type User struct {
	ID         int64
	TelegramID int64
	Email      string
	Status     string
	JoinedAt   time.Time
}
