package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rentora/contact-verify/pkg/challenge"
)

// Gateway routes delivery attempts to the notifier registered for a channel
// and owns the outcome normalization: no raw transport error ever crosses
// the gateway boundary.
type Gateway struct {
	notifiers map[challenge.Channel]Notifier
	timeout   time.Duration
}

// GatewayOption defines configuration options
type GatewayOption func(*Gateway)

// WithSendTimeout bounds a single delivery attempt. After the timeout the
// attempt resolves to OutcomeChannelUnavailable instead of hanging.
func WithSendTimeout(timeout time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.timeout = timeout
	}
}

// NewGateway creates a new delivery gateway
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		notifiers: make(map[challenge.Channel]Notifier),
		timeout:   15 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RegisterNotifier registers a notifier for a channel
func (g *Gateway) RegisterNotifier(channel challenge.Channel, notifier Notifier) error {
	if err := challenge.ValidateChannel(channel); err != nil {
		return fmt.Errorf("cannot register notifier: %w", err)
	}
	g.notifiers[channel] = notifier
	return nil
}

// Send attempts delivery of a code on the given channel. A channel with no
// registered notifier reports OutcomeChannelUnavailable, which lets a
// deployment without a configured transport fall back to disclosure mode.
func (g *Gateway) Send(ctx context.Context, channel challenge.Channel, msg Message) Outcome {
	notifier, ok := g.notifiers[channel]
	if !ok {
		slog.Warn("No notifier registered for channel", "channel", channel)
		return OutcomeChannelUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	outcome, err := notifier.Send(ctx, msg)
	if err != nil {
		slog.Warn("Delivery attempt failed", "channel", channel, "outcome", outcome, "err", err)
	} else {
		slog.Info("Delivery attempt finished", "channel", channel, "outcome", outcome)
	}
	return outcome
}
