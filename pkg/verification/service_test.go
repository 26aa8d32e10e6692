package verification

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentora/contact-verify/pkg/challenge"
	"github.com/rentora/contact-verify/pkg/delivery"
)

type harness struct {
	now      time.Time
	store    *challenge.InMemStore
	notifier *delivery.MockNotifier
	service  *Service
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *harness) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, h.notifier.SentMessages)
	return h.notifier.SentMessages[len(h.notifier.SentMessages)-1].Code
}

func setup(t *testing.T, opts ...ServiceOption) *harness {
	t.Helper()

	h := &harness{
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		notifier: &delivery.MockNotifier{},
	}
	clock := func() time.Time { return h.now }
	h.store = challenge.NewInMemStoreWithClock(clock)

	gateway := delivery.NewGateway()
	require.NoError(t, gateway.RegisterNotifier(challenge.ChannelEmail, h.notifier))
	require.NoError(t, gateway.RegisterNotifier(challenge.ChannelMessaging, h.notifier))

	opts = append([]ServiceOption{WithClock(clock)}, opts...)
	h.service = NewService(h.store, gateway, opts...)
	return h
}

func TestIssue_DeliversCode(t *testing.T) {
	ctx := context.Background()
	h := setup(t)

	result, err := h.service.Issue(ctx, "User@Example.com ", challenge.ChannelEmail, nil)
	require.NoError(t, err)
	assert.Equal(t, IssueStatusIssued, result.Status)
	assert.Empty(t, result.DisclosedCode)

	require.Len(t, h.notifier.SentMessages, 1)
	msg := h.notifier.SentMessages[0]
	assert.Equal(t, "user@example.com", msg.Recipient)
	assert.Len(t, msg.Code, 6)

	n, err := strconv.Atoi(msg.Code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 100000)
	assert.LessOrEqual(t, n, 999999)
}

// Issue at t=0, reject resend at t=30s with ~30s remaining, allow at t=61s,
// after which the superseded code no longer verifies.
func TestIssue_ResendCooldown(t *testing.T) {
	ctx := context.Background()
	h := setup(t)

	result, err := h.service.Issue(ctx, "+375 29 123-45-67", challenge.ChannelMessaging, nil)
	require.NoError(t, err)
	require.Equal(t, IssueStatusIssued, result.Status)
	firstCode := h.lastCode(t)

	h.advance(30 * time.Second)
	result, err = h.service.Resend(ctx, "+375291234567", challenge.ChannelMessaging)
	require.NoError(t, err)
	assert.Equal(t, IssueStatusCooldownActive, result.Status)
	assert.Equal(t, 30*time.Second, result.RetryAfter)

	// The original challenge is untouched by the rejected resend
	status, err := h.service.Check(ctx, "375291234567", challenge.ChannelMessaging, firstCode)
	require.NoError(t, err)
	assert.Equal(t, CheckStatusValid, status)

	h.advance(31 * time.Second)
	result, err = h.service.Resend(ctx, "375291234567", challenge.ChannelMessaging)
	require.NoError(t, err)
	assert.Equal(t, IssueStatusIssued, result.Status)

	secondCode := h.lastCode(t)
	assert.NotEqual(t, firstCode, secondCode)

	// The resend superseded the old challenge, so the old code is dead
	status, err = h.service.Check(ctx, "375291234567", challenge.ChannelMessaging, firstCode)
	require.NoError(t, err)
	assert.NotEqual(t, CheckStatusValid, status)

	status, err = h.service.Check(ctx, "375291234567", challenge.ChannelMessaging, secondCode)
	require.NoError(t, err)
	assert.Equal(t, CheckStatusValid, status)
}

// Check stays valid across repeated calls: a failed downstream action must
// not force the user to request a new code.
func TestCheck_IdempotentUntilCommit(t *testing.T) {
	ctx := context.Background()
	h := setup(t)

	_, err := h.service.Issue(ctx, "user@example.com", challenge.ChannelEmail, nil)
	require.NoError(t, err)
	code := h.lastCode(t)

	for i := 0; i < 3; i++ {
		h.advance(time.Minute)
		status, err := h.service.Check(ctx, "user@example.com", challenge.ChannelEmail, code)
		require.NoError(t, err)
		assert.Equal(t, CheckStatusValid, status)
	}

	require.NoError(t, h.service.Commit(ctx, "user@example.com", challenge.ChannelEmail))

	status, err := h.service.Check(ctx, "user@example.com", challenge.ChannelEmail, code)
	require.NoError(t, err)
	assert.Equal(t, CheckStatusNotFound, status)
}

func TestCheck_WrongCodeIsNonDestructive(t *testing.T) {
	ctx := context.Background()
	h := setup(t)

	_, err := h.service.Issue(ctx, "user@example.com", challenge.ChannelEmail, nil)
	require.NoError(t, err)
	code := h.lastCode(t)

	before, err := h.store.Get(ctx, "user@example.com", challenge.ChannelEmail)
	require.NoError(t, err)

	status, err := h.service.Check(ctx, "user@example.com", challenge.ChannelEmail, "000000")
	require.NoError(t, err)
	assert.Equal(t, CheckStatusMismatch, status)

	// Neither removed nor extended
	after, err := h.store.Get(ctx, "user@example.com", challenge.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, before.ExpiresAt, after.ExpiresAt)

	status, err = h.service.Check(ctx, "user@example.com", challenge.ChannelEmail, code)
	require.NoError(t, err)
	assert.Equal(t, CheckStatusValid, status)
}

// A code issued at t=0 reports expired at t=10min+1s.
func TestCheck_Expired(t *testing.T) {
	ctx := context.Background()
	h := setup(t)

	_, err := h.service.Issue(ctx, "user@example.com", challenge.ChannelEmail, nil)
	require.NoError(t, err)
	code := h.lastCode(t)

	h.advance(10*time.Minute + time.Second)

	status, err := h.service.Check(ctx, "user@example.com", challenge.ChannelEmail, code)
	require.NoError(t, err)
	assert.Equal(t, CheckStatusExpired, status)
}

func TestIssue_DisclosureWhenChannelUnavailable(t *testing.T) {
	ctx := context.Background()
	h := setup(t, WithDisclosure(true))
	h.notifier.Outcome = delivery.OutcomeChannelUnavailable

	result, err := h.service.Issue(ctx, "user@example.com", challenge.ChannelEmail, nil)
	require.NoError(t, err)
	assert.Equal(t, IssueStatusIssuedWithDisclosure, result.Status)
	require.Len(t, result.DisclosedCode, 6)

	// The disclosed code is live for manual entry
	status, err := h.service.Check(ctx, "user@example.com", challenge.ChannelEmail, result.DisclosedCode)
	require.NoError(t, err)
	assert.Equal(t, CheckStatusValid, status)
}

func TestIssue_ChannelUnavailableWithoutDisclosure(t *testing.T) {
	ctx := context.Background()
	h := setup(t)
	h.notifier.Outcome = delivery.OutcomeChannelUnavailable

	result, err := h.service.Issue(ctx, "user@example.com", challenge.ChannelEmail, nil)
	require.NoError(t, err)
	assert.Equal(t, IssueStatusDeliveryFailed, result.Status)
	assert.Empty(t, result.DisclosedCode)

	// The challenge is retained: only a hard error removes it
	_, err = h.store.Get(ctx, "user@example.com", challenge.ChannelEmail)
	assert.NoError(t, err)
}

func TestIssue_HardErrorRemovesChallenge(t *testing.T) {
	ctx := context.Background()
	h := setup(t)
	h.notifier.Outcome = delivery.OutcomeHardError

	result, err := h.service.Issue(ctx, "user@example.com", challenge.ChannelEmail, nil)
	require.NoError(t, err)
	assert.Equal(t, IssueStatusDeliveryFailed, result.Status)

	_, err = h.store.Get(ctx, "user@example.com", challenge.ChannelEmail)
	assert.ErrorIs(t, err, challenge.ErrChallengeNotFound)
}

func TestIssue_MalformedIdentifier(t *testing.T) {
	ctx := context.Background()
	h := setup(t)

	result, err := h.service.Issue(ctx, "not-an-email", challenge.ChannelEmail, nil)
	assert.ErrorIs(t, err, ErrMalformedIdentifier)
	assert.Equal(t, IssueStatusDeliveryFailed, result.Status)
	assert.Empty(t, h.notifier.SentMessages)
}

func TestResend_RetainsDeferredPayload(t *testing.T) {
	ctx := context.Background()
	h := setup(t)

	payload := []byte(`{"password":"s3cret","display_name":"Ana"}`)
	_, err := h.service.Issue(ctx, "user@example.com", challenge.ChannelEmail, payload)
	require.NoError(t, err)

	h.advance(61 * time.Second)
	result, err := h.service.Resend(ctx, "user@example.com", challenge.ChannelEmail)
	require.NoError(t, err)
	require.Equal(t, IssueStatusIssued, result.Status)

	got, err := h.service.DeferredPayload(ctx, "user@example.com", challenge.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDeferredPayload_AbsentAfterCommit(t *testing.T) {
	ctx := context.Background()
	h := setup(t)

	_, err := h.service.Issue(ctx, "user@example.com", challenge.ChannelEmail, []byte("data"))
	require.NoError(t, err)
	require.NoError(t, h.service.Commit(ctx, "user@example.com", challenge.ChannelEmail))

	_, err = h.service.DeferredPayload(ctx, "user@example.com", challenge.ChannelEmail)
	assert.ErrorIs(t, err, challenge.ErrChallengeNotFound)
}

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}
