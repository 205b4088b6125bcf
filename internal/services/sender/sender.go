// Package services содержит потребителя очередей уведомлений: сообщения
// пользователям и операторские события доставляются в Telegram.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/teamgate/internal/config"
	"github.com/magabrotheeeer/teamgate/internal/lib/sl"
	"github.com/magabrotheeeer/teamgate/internal/lib/telegram"
	"github.com/magabrotheeeer/teamgate/internal/models"
)

// Transport доставляет текстовое сообщение в чат.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SenderService превращает сообщения очередей в отправки через транспорт.
type SenderService struct {
	transport      Transport
	operatorChatID int64
	log            *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(cfg *config.Config, log *slog.Logger, transport Transport) *SenderService {
	return &SenderService{
		transport:      transport,
		operatorChatID: cfg.Telegram.OperatorChatID,
		log:            log,
	}
}

// SendUserNotification доставляет сообщение конечному пользователю.
// Недоступный получатель — не ошибка доставки: сообщение считается
// обработанным, иначе очередь зациклится на повторах.
func (s *SenderService) SendUserNotification(body []byte) error {
	const op = "sender.SendUserNotification"

	var message models.UserNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal user notification", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.transport.SendMessage(context.Background(), message.TelegramID, message.Text)
	if errors.Is(err, telegram.ErrRecipientUnavailable) {
		s.log.Warn("recipient unavailable, dropping notification",
			slog.Int64("telegram_id", message.TelegramID), sl.Err(err))
		return nil
	}
	if err != nil {
		s.log.Error("failed to send user notification",
			slog.Int64("telegram_id", message.TelegramID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user notification sent", slog.Int64("telegram_id", message.TelegramID))
	return nil
}

// SendOperatorEvent доставляет событие в операторский чат.
func (s *SenderService) SendOperatorEvent(body []byte) error {
	const op = "sender.SendOperatorEvent"

	var event models.OperatorEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal operator event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	text := formatOperatorEvent(event)
	if err := s.transport.SendMessage(context.Background(), s.operatorChatID, text); err != nil {
		s.log.Error("failed to send operator event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("operator event sent", slog.String("severity", event.Severity))
	return nil
}

func formatOperatorEvent(event models.OperatorEvent) string {
	switch event.Severity {
	case models.SeverityAlert:
		return "🚨 " + event.Text
	case models.SeverityWarn:
		return "⚠️ " + event.Text
	default:
		return "ℹ️ " + event.Text
	}
}
