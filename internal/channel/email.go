package channel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/odinnomago/valhalla-notify/internal/model"
)

// SMTPConfig holds the email provider settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailSender struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

// NewEmailSender builds the SMTP channel. The recipient address travels
// in the notification payload under "recipientEmail"; notifications
// without one fail delivery on this channel only.
func NewEmailSender(cfg SMTPConfig, logger zerolog.Logger) Sender {
	return &emailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *emailSender) Channel() Channel {
	return Email
}

func (s *emailSender) Send(ctx context.Context, n *model.Notification) error {
	to := recipientEmail(n)
	if to == "" {
		return fmt.Errorf("notification %s has no recipient email", n.ID)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/plain", n.Message)

	// gomail has no context support; honor cancellation by checking
	// before the dial and letting the SMTP timeout bound the rest.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug().Str("notification_id", n.ID).Str("to", to).Msg("email sent")
	return nil
}

func recipientEmail(n *model.Notification) string {
	if n.Data == nil {
		return ""
	}
	if v, ok := n.Data["recipientEmail"].(string); ok {
		return v
	}
	return ""
}
