package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MessagingConfig configures the messaging-bot transport
type MessagingConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MessagingNotifier delivers verification codes through a messaging-bot
// backend reachable over HTTP. "Backend unreachable" and "backend answered
// 5xx" are the same outcome: the channel is unavailable, not the recipient.
type MessagingNotifier struct {
	baseURL    string
	httpClient *http.Client
}

func NewMessagingNotifier(config MessagingConfig) *MessagingNotifier {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &MessagingNotifier{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type messagingSendRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// Send posts the code to the bot backend
func (n *MessagingNotifier) Send(ctx context.Context, m Message) (Outcome, error) {
	if m.Recipient == "" {
		return OutcomeHardError, fmt.Errorf("messaging notification requires a phone number")
	}

	body, err := json.Marshal(messagingSendRequest{Phone: m.Recipient, Code: m.Code})
	if err != nil {
		return OutcomeHardError, fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return OutcomeHardError, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return OutcomeChannelUnavailable, fmt.Errorf("messaging backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return OutcomeDelivered, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The backend rejected the recipient or the message itself
		return OutcomeHardError, fmt.Errorf("messaging backend rejected message: status %d", resp.StatusCode)
	default:
		return OutcomeChannelUnavailable, fmt.Errorf("messaging backend unavailable: status %d", resp.StatusCode)
	}
}
