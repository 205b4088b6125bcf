package models

// Уровни важности операторских событий.
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityAlert = "alert"
)

// UserNotification — сообщение конечному пользователю, доставляется
// best-effort через очередь notification.user.
type UserNotification struct {
	TelegramID int64  `json:"telegram_id"`
	Text       string `json:"text"`
}

// OperatorEvent — сообщение в операторский канал, очередь notification.operator.
type OperatorEvent struct {
	Severity string `json:"severity"`
	Text     string `json:"text"`
}
