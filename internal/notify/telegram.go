package notify

import (
	"context"
	"fmt"
	"net/http"
)

// telegramMessage is the sendMessage request body for the Bot API.
type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// TelegramSender delivers alerts to a chat via the Telegram Bot API.
type TelegramSender struct {
	token  string
	chatID string
	client *http.Client
}

// NewTelegramSender builds a sender for the given bot token and chat ID.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: sendTimeout},
	}
}

// Send posts the alert via sendMessage with the title in bold Markdown.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	return postJSON(ctx, t.client, t.Name(),
		fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token),
		telegramMessage{
			ChatID:    t.chatID,
			Text:      fmt.Sprintf("*%s*\n%s", title, message),
			ParseMode: "Markdown",
		},
	)
}

func (t *TelegramSender) Name() string { return "telegram" }

var _ Sender = (*TelegramSender)(nil)
