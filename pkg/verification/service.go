package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/rentora/contact-verify/pkg/challenge"
	"github.com/rentora/contact-verify/pkg/delivery"
)

// ChallengeService is the caller-facing contract of the verification core:
// challenge issuance with a resend cooldown, two-phase check/commit, and
// deferred-payload retrieval.
type ChallengeService interface {
	Issue(ctx context.Context, identifier string, channel challenge.Channel, deferredPayload []byte) (IssueResult, error)
	Resend(ctx context.Context, identifier string, channel challenge.Channel) (IssueResult, error)
	Check(ctx context.Context, identifier string, channel challenge.Channel, code string) (CheckStatus, error)
	Commit(ctx context.Context, identifier string, channel challenge.Channel) error
	DeferredPayload(ctx context.Context, identifier string, channel challenge.Channel) ([]byte, error)
}

// Service issues and verifies contact verification challenges
type Service struct {
	store    challenge.Store
	gateway  *delivery.Gateway
	cooldown time.Duration
	codeTTL  time.Duration
	disclose bool
	now      func() time.Time
}

// ServiceOption defines configuration options
type ServiceOption func(*Service)

// WithCooldown sets the minimum interval between issues for the same key
func WithCooldown(cooldown time.Duration) ServiceOption {
	return func(s *Service) {
		s.cooldown = cooldown
	}
}

// WithCodeTTL sets how long an issued code stays valid
func WithCodeTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.codeTTL = ttl
	}
}

// WithDisclosure enables surfacing the code to the caller when delivery is
// unavailable. Must stay off in production contexts.
func WithDisclosure(disclose bool) ServiceOption {
	return func(s *Service) {
		s.disclose = disclose
	}
}

// WithClock sets the time source, for testing
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new verification service
func NewService(store challenge.Store, gateway *delivery.Gateway, opts ...ServiceOption) *Service {
	service := &Service{
		store:    store,
		gateway:  gateway,
		cooldown: 60 * time.Second,  // Default resend cooldown
		codeTTL:  10 * time.Minute,  // Default code lifetime
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// generateCode draws a 6-digit code uniformly from [100000, 999999]
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue creates a challenge for the identifier, stores it (superseding any
// prior one for the same key) and attempts delivery. A prior challenge
// younger than the cooldown rejects the call without touching the store.
func (s *Service) Issue(ctx context.Context, identifier string, channel challenge.Channel, deferredPayload []byte) (IssueResult, error) {
	if err := challenge.ValidateChannel(channel); err != nil {
		return IssueResult{Status: IssueStatusDeliveryFailed}, err
	}

	normalized, err := NormalizeIdentifier(identifier, channel)
	if err != nil {
		slog.Warn("Rejected malformed identifier", "channel", channel, "err", err)
		return IssueResult{Status: IssueStatusDeliveryFailed}, err
	}

	prior, err := s.store.Get(ctx, normalized, channel)
	if err == nil {
		elapsed := s.now().Sub(prior.IssuedAt)
		if elapsed < s.cooldown {
			remaining := ceilToSecond(s.cooldown - elapsed)
			slog.Info("Resend cooldown active", "channel", channel, "retry_after", remaining)
			return IssueResult{Status: IssueStatusCooldownActive, RetryAfter: remaining}, nil
		}
	} else if !errors.Is(err, challenge.ErrChallengeNotFound) && !errors.Is(err, challenge.ErrChallengeExpired) {
		return IssueResult{}, fmt.Errorf("failed to read challenge store: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return IssueResult{}, err
	}

	now := s.now()
	ch := challenge.Challenge{
		Identifier:      normalized,
		Channel:         channel,
		Code:            code,
		IssuedAt:        now,
		ExpiresAt:       now.Add(s.codeTTL),
		DeferredPayload: deferredPayload,
	}
	if err := s.store.Put(ctx, ch); err != nil {
		return IssueResult{}, fmt.Errorf("failed to store challenge: %w", err)
	}

	outcome := s.gateway.Send(ctx, channel, delivery.Message{
		Recipient: normalized,
		Code:      code,
		Expiry:    s.codeTTL,
	})

	switch outcome {
	case delivery.OutcomeDelivered:
		return IssueResult{Status: IssueStatusIssued}, nil

	case delivery.OutcomeChannelUnavailable:
		if s.disclose {
			// No real delivery happened; the challenge stays live and the
			// code is handed to the caller for manual entry.
			slog.Info("Channel unavailable, disclosing code for manual entry", "channel", channel)
			return IssueResult{Status: IssueStatusIssuedWithDisclosure, DisclosedCode: code}, nil
		}
		return IssueResult{Status: IssueStatusDeliveryFailed}, nil

	default: // delivery.OutcomeHardError
		// A guaranteed-failed delivery must not leave a stale challenge
		if err := s.store.Remove(ctx, normalized, channel); err != nil {
			slog.Error("Failed to remove challenge after hard delivery error", "channel", channel, "err", err)
		}
		return IssueResult{Status: IssueStatusDeliveryFailed}, nil
	}
}

// Resend issues a fresh challenge for the key, retaining the deferred payload
// of the prior challenge. Subject to the same cooldown as Issue; the new code
// always invalidates the previous one.
func (s *Service) Resend(ctx context.Context, identifier string, channel challenge.Channel) (IssueResult, error) {
	if err := challenge.ValidateChannel(channel); err != nil {
		return IssueResult{Status: IssueStatusDeliveryFailed}, err
	}

	normalized, err := NormalizeIdentifier(identifier, channel)
	if err != nil {
		return IssueResult{Status: IssueStatusDeliveryFailed}, err
	}

	var deferredPayload []byte
	prior, err := s.store.Get(ctx, normalized, channel)
	if err == nil || errors.Is(err, challenge.ErrChallengeExpired) {
		deferredPayload = prior.DeferredPayload
	} else if !errors.Is(err, challenge.ErrChallengeNotFound) {
		return IssueResult{}, fmt.Errorf("failed to read challenge store: %w", err)
	}

	return s.Issue(ctx, normalized, channel, deferredPayload)
}

// Check compares an entered code against the live challenge. Non-destructive
// and idempotent: the same correct code keeps reporting valid until Commit
// consumes the challenge or the TTL passes.
func (s *Service) Check(ctx context.Context, identifier string, channel challenge.Channel, code string) (CheckStatus, error) {
	normalized, err := NormalizeIdentifier(identifier, channel)
	if err != nil {
		return CheckStatusNotFound, nil
	}

	ch, err := s.store.Get(ctx, normalized, channel)
	if errors.Is(err, challenge.ErrChallengeExpired) {
		return CheckStatusExpired, nil
	}
	if errors.Is(err, challenge.ErrChallengeNotFound) {
		return CheckStatusNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read challenge store: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		return CheckStatusMismatch, nil
	}
	return CheckStatusValid, nil
}

// Commit consumes the challenge. Callers must commit only after the action
// gated by the code has durably succeeded; on downstream failure the
// challenge is left in place so the same code stays checkable until expiry.
func (s *Service) Commit(ctx context.Context, identifier string, channel challenge.Channel) error {
	normalized, err := NormalizeIdentifier(identifier, channel)
	if err != nil {
		return err
	}

	if err := s.store.Remove(ctx, normalized, channel); err != nil {
		return fmt.Errorf("failed to commit challenge: %w", err)
	}
	slog.Info("Challenge committed", "channel", channel)
	return nil
}

// DeferredPayload returns the opaque data attached at issue time, so a flow
// does not have to carry it across the verification screen transition.
func (s *Service) DeferredPayload(ctx context.Context, identifier string, channel challenge.Channel) ([]byte, error) {
	normalized, err := NormalizeIdentifier(identifier, channel)
	if err != nil {
		return nil, err
	}

	ch, err := s.store.Get(ctx, normalized, channel)
	if err != nil {
		return nil, err
	}
	return ch.DeferredPayload, nil
}

func ceilToSecond(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return secs * time.Second
}
