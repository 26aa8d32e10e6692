package session

import "time"

// Freshness says how much the cached record can currently be trusted.
type Freshness string

const (
	// FreshnessUnknown means the record has not been validated against the
	// authority yet (or the last attempt was inconclusive). Treated as
	// provisionally valid.
	FreshnessUnknown Freshness = "unknown"

	// FreshnessValid means the authority confirmed the account recently
	FreshnessValid Freshness = "valid"

	// FreshnessBlocked means the account exists but is blocked: the user is
	// authenticated but forbidden, which is not the same as anonymous.
	FreshnessBlocked Freshness = "blocked"

	// FreshnessInvalidated means the account is gone server-side; the record
	// must be cleared and never read again.
	FreshnessInvalidated Freshness = "invalidated"
)

// Record is the locally cached "am I logged in" state. The authority is the
// source of truth for every profile field; this is only a cache that the
// reconciler keeps honest.
type Record struct {
	LocalID     string    `json:"local_id"`               // client-held handle, may be a placeholder
	AuthorityID int64     `json:"authority_id,omitempty"` // canonical id, 0 until resolved
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role,omitempty"`
	Blocked     bool      `json:"blocked"`
	Freshness   Freshness `json:"freshness"`
	UpdatedAt   time.Time `json:"updated_at"`
}
