package providers

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/openclaw/birdwatch/internal/types"
)

// SMTPSender delivers alerts as plain-text emails.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, username, password, from, to string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

// Notify sends one alert email per matched item.
func (s *SMTPSender) Notify(item types.Item, matchedKeywords []string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	subject := fmt.Sprintf("birdwatch: match [%s]", strings.Join(matchedKeywords, ", "))

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", s.to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(fmt.Sprintf("Author: @%s\r\n", item.Author))
	msg.WriteString(fmt.Sprintf("When: %s\r\n", item.Timestamp))
	msg.WriteString(fmt.Sprintf("Link: %s\r\n", item.Permalink))
	msg.WriteString("\r\n")
	msg.WriteString(item.Text)
	msg.WriteString("\r\n")

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := smtp.SendMail(addr, auth, s.from, []string{s.to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
