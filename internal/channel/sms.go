package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/odinnomago/valhalla-notify/internal/model"
)

type smsSender struct {
	providerURL string
	client      *http.Client
	logger      zerolog.Logger
}

// NewSMSSender posts notifications to an SMS provider webhook. Like the
// push sender, it is log-only until a provider URL is configured.
func NewSMSSender(providerURL string, client *http.Client, logger zerolog.Logger) Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &smsSender{
		providerURL: providerURL,
		client:      client,
		logger:      logger,
	}
}

func (s *smsSender) Channel() Channel {
	return SMS
}

func (s *smsSender) Send(ctx context.Context, n *model.Notification) error {
	if s.providerURL == "" {
		s.logger.Info().
			Str("notification_id", n.ID).
			Str("user_id", n.UserID).
			Msg("sms provider not configured, logging only")
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"userId":  n.UserID,
		"message": fmt.Sprintf("%s: %s", n.Title, n.Message),
	})
	if err != nil {
		return fmt.Errorf("failed to encode sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.providerURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call sms provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	return nil
}
