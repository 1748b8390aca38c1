// Package notifier forwards newly matched items to an external
// notification channel. Delivery is fire-and-forget: failures are logged by
// the caller, never retried beyond the transport's own policy.
package notifier

import (
	"fmt"

	"github.com/openclaw/birdwatch/internal/config"
	"github.com/openclaw/birdwatch/internal/notifier/providers"
	"github.com/openclaw/birdwatch/internal/types"
)

// Sink receives alert notifications for matched items.
type Sink interface {
	Notify(item types.Item, matchedKeywords []string) error
}

// NewFromConfig creates a sink based on configuration. Provider "none"
// yields a sink that silently drops alerts.
func NewFromConfig(cfg config.AlertsConfig) (Sink, error) {
	switch cfg.Provider {
	case "telegram":
		return providers.NewTelegramSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID), nil
	case "smtp":
		return providers.NewSMTPSender(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.FromAddr,
			cfg.SMTP.ToAddr,
		), nil
	case "", "none":
		return NopSink{}, nil
	default:
		return nil, fmt.Errorf("unknown alert provider: %s", cfg.Provider)
	}
}

// NopSink drops all notifications.
type NopSink struct{}

func (NopSink) Notify(types.Item, []string) error { return nil }
