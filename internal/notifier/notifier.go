// Package notifier публикует события уведомлений в очереди RabbitMQ.
// Доставка до Telegram выполняется отдельным воркером; джобы только
// публикуют и никогда не блокируются на доставке.
package notifier

import (
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/teamgate/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/teamgate/internal/models"
)

// AMQPNotifier отправляет события в exchange уведомлений.
type AMQPNotifier struct {
	ch *amqp.Channel
}

// New создает новый экземпляр AMQPNotifier.
func New(ch *amqp.Channel) *AMQPNotifier {
	return &AMQPNotifier{ch: ch}
}

// NotifyUser публикует личное сообщение пользователю.
func (n *AMQPNotifier) NotifyUser(msg models.UserNotification) error {
	return rabbitmq.PublishMessage(n.ch, rabbitmq.NotificationsExchange, rabbitmq.UserRoutingKey, msg)
}

// NotifyOperator публикует событие в операторский канал.
func (n *AMQPNotifier) NotifyOperator(event models.OperatorEvent) error {
	return rabbitmq.PublishMessage(n.ch, rabbitmq.NotificationsExchange, rabbitmq.OperatorRoutingKey, event)
}
