package rabbitmq

// NotificationsExchange — exchange всех уведомлений системы.
const NotificationsExchange = "notifications"

// Очереди и ключи маршрутизации уведомлений.
const (
	UserQueue          = "notification.user"
	UserRoutingKey     = "user"
	OperatorQueue      = "notification.operator"
	OperatorRoutingKey = "operator"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает конфигурацию очередей уведомлений:
// личные сообщения пользователям и операторский канал.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: UserQueue, RoutingKey: UserRoutingKey},
		{QueueName: OperatorQueue, RoutingKey: OperatorRoutingKey},
	}
}
