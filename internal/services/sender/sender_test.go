package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/teamgate/internal/config"
	"github.com/magabrotheeeer/teamgate/internal/lib/telegram"
	"github.com/magabrotheeeer/teamgate/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) SendMessage(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(transport Transport) *SenderService {
	cfg := &config.Config{}
	cfg.Telegram.OperatorChatID = 4242
	return NewSenderService(cfg, newNoopLogger(), transport)
}

func TestSendUserNotification(t *testing.T) {
	transport := new(MockTransport)
	transport.On("SendMessage", mock.Anything, int64(777), "подписка закончилась").Return(nil)

	body, err := json.Marshal(models.UserNotification{TelegramID: 777, Text: "подписка закончилась"})
	require.NoError(t, err)

	svc := newService(transport)
	require.NoError(t, svc.SendUserNotification(body))
	transport.AssertExpectations(t)
}

func TestSendUserNotification_RecipientUnavailable(t *testing.T) {
	transport := new(MockTransport)
	transport.On("SendMessage", mock.Anything, int64(777), mock.Anything).
		Return(telegram.ErrRecipientUnavailable)

	body, err := json.Marshal(models.UserNotification{TelegramID: 777, Text: "text"})
	require.NoError(t, err)

	svc := newService(transport)
	// получатель заблокировал бота: сообщение считается обработанным
	assert.NoError(t, svc.SendUserNotification(body))
}

func TestSendUserNotification_TransportError(t *testing.T) {
	transport := new(MockTransport)
	transport.On("SendMessage", mock.Anything, int64(777), mock.Anything).
		Return(errors.New("connection reset"))

	body, err := json.Marshal(models.UserNotification{TelegramID: 777, Text: "text"})
	require.NoError(t, err)

	svc := newService(transport)
	assert.Error(t, svc.SendUserNotification(body))
}

func TestSendUserNotification_BadBody(t *testing.T) {
	svc := newService(new(MockTransport))
	assert.Error(t, svc.SendUserNotification([]byte("{not json")))
}

func TestSendOperatorEvent(t *testing.T) {
	tests := []struct {
		name     string
		severity string
		wantText string
	}{
		{name: "alert prefix", severity: models.SeverityAlert, wantText: "🚨 session expired"},
		{name: "warn prefix", severity: models.SeverityWarn, wantText: "⚠️ session expired"},
		{name: "info prefix", severity: models.SeverityInfo, wantText: "ℹ️ session expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			transport.On("SendMessage", mock.Anything, int64(4242), tt.wantText).Return(nil)

			body, err := json.Marshal(models.OperatorEvent{Severity: tt.severity, Text: "session expired"})
			require.NoError(t, err)

			svc := newService(transport)
			require.NoError(t, svc.SendOperatorEvent(body))
			transport.AssertExpectations(t)
		})
	}
}
