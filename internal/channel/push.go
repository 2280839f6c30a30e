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

type pushSender struct {
	gatewayURL string
	client     *http.Client
	logger     zerolog.Logger
}

// NewPushSender posts notifications to a push gateway. With no gateway
// configured it degrades to log-only, which keeps local development
// working without a provider account.
func NewPushSender(gatewayURL string, client *http.Client, logger zerolog.Logger) Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &pushSender{
		gatewayURL: gatewayURL,
		client:     client,
		logger:     logger,
	}
}

func (s *pushSender) Channel() Channel {
	return Push
}

type pushPayload struct {
	UserID   string                 `json:"userId"`
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Priority model.Priority         `json:"priority"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

func (s *pushSender) Send(ctx context.Context, n *model.Notification) error {
	if s.gatewayURL == "" {
		s.logger.Info().
			Str("notification_id", n.ID).
			Str("user_id", n.UserID).
			Msg("push gateway not configured, logging only")
		return nil
	}

	body, err := json.Marshal(pushPayload{
		UserID:   n.UserID,
		Title:    n.Title,
		Body:     n.Message,
		Priority: n.Priority,
		Data:     n.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call push gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}
