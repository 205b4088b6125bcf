package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/teamgate/internal/config"
)

func newTestClient(srv *httptest.Server) *Client {
	return New(config.Telegram{
		BotToken: "test-token",
		APIURL:   srv.URL,
	})
}

func TestSendMessage(t *testing.T) {
	var gotChatID int64
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		var req sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotChatID = req.ChatID
		gotText = req.Text
		_ = json.NewEncoder(w).Encode(apiResponse{OK: true})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	err := client.SendMessage(context.Background(), 777, "привет")

	require.NoError(t, err)
	assert.Equal(t, int64(777), gotChatID)
	assert.Equal(t, "привет", gotText)
}

func TestSendMessage_BlockedByUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(apiResponse{
			OK:          false,
			ErrorCode:   403,
			Description: "Forbidden: bot was blocked by the user",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	err := client.SendMessage(context.Background(), 777, "text")

	assert.ErrorIs(t, err, ErrRecipientUnavailable)
}

func TestSendMessage_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(apiResponse{OK: false, ErrorCode: 500, Description: "internal"})
	}))
	defer srv.Close()

	client := newTestClient(srv)
	err := client.SendMessage(context.Background(), 777, "text")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRecipientUnavailable)
}
