package challenge

import (
	"fmt"
	"time"
)

// Channel is the delivery medium for a verification challenge.
type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelMessaging Channel = "messaging"
)

// ValidateChannel checks if the given channel is a supported delivery channel
func ValidateChannel(channel Channel) error {
	switch channel {
	case ChannelEmail, ChannelMessaging:
		return nil
	default:
		return fmt.Errorf("invalid channel: %s, must be one of: %s, %s",
			channel, ChannelEmail, ChannelMessaging)
	}
}

// Challenge is an outstanding one-time code bound to a contact identifier
// and delivery channel. At most one challenge is live per (channel,
// identifier) pair; issuing a new one supersedes the old one.
type Challenge struct {
	Identifier      string    `json:"identifier"` // normalized contact string
	Channel         Channel   `json:"channel"`
	Code            string    `json:"code"` // 6-digit numeric string
	IssuedAt        time.Time `json:"issued_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	DeferredPayload []byte    `json:"deferred_payload,omitempty"`
}

// Expired reports whether the challenge's TTL has passed at the given time.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
