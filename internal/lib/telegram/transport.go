// Package telegram реализует транспорт доставки уведомлений через Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/magabrotheeeer/teamgate/internal/config"
)

// ErrRecipientUnavailable возвращается, когда получатель заблокировал бота
// или недоступен: повторять доставку такого сообщения бессмысленно.
var ErrRecipientUnavailable = errors.New("recipient unavailable")

// Client отправляет сообщения через Telegram Bot API.
type Client struct {
	token      string
	apiURL     string
	httpClient *http.Client
}

// New создает новый экземпляр Client.
func New(cfg config.Telegram) *Client {
	return &Client{
		token:  cfg.BotToken,
		apiURL: cfg.APIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage доставляет текстовое сообщение в указанный чат.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	const op = "telegram.SendMessage"

	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if body.OK {
		return nil
	}
	// 403 — получатель заблокировал бота, 400 chat not found — чат удалён
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("%s: %s: %w", op, body.Description, ErrRecipientUnavailable)
	}
	return fmt.Errorf("%s: telegram api error %d: %s", op, body.ErrorCode, body.Description)
}
