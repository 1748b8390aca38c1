package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/openclaw/birdwatch/internal/types"
)

// truncateRunes shortens s to at most n runes, never splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

// TelegramSender delivers alerts through the Telegram bot API.
type TelegramSender struct {
	client *retryablehttp.Client
	token  string
	chatID string
}

// NewTelegramSender creates a Telegram sender for the given bot token and
// chat id.
func NewTelegramSender(token, chatID string) *TelegramSender {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	return &TelegramSender{
		client: client,
		token:  token,
		chatID: chatID,
	}
}

// Notify sends a single alert message for the item.
func (t *TelegramSender) Notify(item types.Item, matchedKeywords []string) error {
	text := truncateRunes(item.Text, 400)

	var msg strings.Builder
	fmt.Fprintf(&msg, "Match [%s] by @%s\n", strings.Join(matchedKeywords, ", "), item.Author)
	msg.WriteString(text)
	if item.Permalink != "" {
		msg.WriteString("\n")
		msg.WriteString(item.Permalink)
	}

	payload, err := json.Marshal(map[string]any{
		"chat_id":                  t.chatID,
		"text":                     msg.String(),
		"disable_web_page_preview": true,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram send: status %d: %s", resp.StatusCode, body)
	}

	return nil
}
