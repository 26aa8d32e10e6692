package delivery

import (
	"context"
	"time"
)

// Outcome normalizes the heterogeneous failure signals of the channel
// transports into the three values the verification flow cares about.
type Outcome string

const (
	// OutcomeDelivered means the transport accepted the message
	OutcomeDelivered Outcome = "delivered"

	// OutcomeChannelUnavailable means the transport could not be reached or
	// reported itself unavailable. Retryable, and disclosable in
	// non-production contexts.
	OutcomeChannelUnavailable Outcome = "channel_unavailable"

	// OutcomeHardError means the message itself was rejected, typically
	// because the recipient identifier is invalid. Not retryable by waiting.
	OutcomeHardError Outcome = "hard_error"
)

// Message carries a one-time code to a recipient on a single channel.
type Message struct {
	Recipient string        // normalized contact identifier
	Code      string        // 6-digit numeric code
	Expiry    time.Duration // how long the code stays valid, for display
}

// Notifier attempts delivery on one channel. The returned error carries
// transport detail for diagnostics and always accompanies a non-delivered
// outcome; it must never be surfaced to callers of the gateway.
type Notifier interface {
	Send(ctx context.Context, msg Message) (Outcome, error)
}
