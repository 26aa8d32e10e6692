package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentora/contact-verify/pkg/challenge"
)

func TestGateway_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("Delivered", func(t *testing.T) {
		gateway := NewGateway()
		mock := &MockNotifier{}
		require.NoError(t, gateway.RegisterNotifier(challenge.ChannelEmail, mock))

		outcome := gateway.Send(ctx, challenge.ChannelEmail, Message{
			Recipient: "user@example.com",
			Code:      "123456",
			Expiry:    10 * time.Minute,
		})
		assert.Equal(t, OutcomeDelivered, outcome)
		require.Len(t, mock.SentMessages, 1)
		assert.Equal(t, "123456", mock.SentMessages[0].Code)
	})

	t.Run("NotifierFailurePropagatesOutcomeNotError", func(t *testing.T) {
		gateway := NewGateway()
		mock := &MockNotifier{Outcome: OutcomeChannelUnavailable, Err: errors.New("smtp down")}
		require.NoError(t, gateway.RegisterNotifier(challenge.ChannelEmail, mock))

		outcome := gateway.Send(ctx, challenge.ChannelEmail, Message{Recipient: "user@example.com"})
		assert.Equal(t, OutcomeChannelUnavailable, outcome)
	})

	t.Run("UnregisteredChannelIsUnavailable", func(t *testing.T) {
		gateway := NewGateway()
		outcome := gateway.Send(ctx, challenge.ChannelMessaging, Message{Recipient: "375291234567"})
		assert.Equal(t, OutcomeChannelUnavailable, outcome)
	})

	t.Run("RejectsUnknownChannel", func(t *testing.T) {
		gateway := NewGateway()
		err := gateway.RegisterNotifier(challenge.Channel("pigeon"), &MockNotifier{})
		assert.Error(t, err)
	})
}

func TestMessagingNotifier_Send(t *testing.T) {
	ctx := context.Background()

	newNotifier := func(status int) (*MessagingNotifier, *httptest.Server) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/messages", r.URL.Path)
			w.WriteHeader(status)
		}))
		return NewMessagingNotifier(MessagingConfig{BaseURL: server.URL}), server
	}

	t.Run("Delivered", func(t *testing.T) {
		notifier, server := newNotifier(http.StatusOK)
		defer server.Close()

		outcome, err := notifier.Send(ctx, Message{Recipient: "375291234567", Code: "123456"})
		assert.NoError(t, err)
		assert.Equal(t, OutcomeDelivered, outcome)
	})

	t.Run("ServiceUnavailable", func(t *testing.T) {
		notifier, server := newNotifier(http.StatusServiceUnavailable)
		defer server.Close()

		outcome, err := notifier.Send(ctx, Message{Recipient: "375291234567", Code: "123456"})
		assert.Error(t, err)
		assert.Equal(t, OutcomeChannelUnavailable, outcome)
	})

	t.Run("BadRequestIsHardError", func(t *testing.T) {
		notifier, server := newNotifier(http.StatusBadRequest)
		defer server.Close()

		outcome, err := notifier.Send(ctx, Message{Recipient: "not-a-phone", Code: "123456"})
		assert.Error(t, err)
		assert.Equal(t, OutcomeHardError, outcome)
	})

	t.Run("UnreachableBackend", func(t *testing.T) {
		notifier, server := newNotifier(http.StatusOK)
		server.Close() // connection refused from here on

		outcome, err := notifier.Send(ctx, Message{Recipient: "375291234567", Code: "123456"})
		assert.Error(t, err)
		assert.Equal(t, OutcomeChannelUnavailable, outcome)
	})

	t.Run("MissingRecipient", func(t *testing.T) {
		notifier := NewMessagingNotifier(MessagingConfig{BaseURL: "http://localhost:0"})
		outcome, err := notifier.Send(ctx, Message{Code: "123456"})
		assert.Error(t, err)
		assert.Equal(t, OutcomeHardError, outcome)
	})
}

func TestExpiryDisplayString(t *testing.T) {
	assert.Equal(t, "10 minutes", expiryDisplayString(10*time.Minute))
	assert.Equal(t, "1 minute", expiryDisplayString(time.Minute))
	assert.Equal(t, "1 minute", expiryDisplayString(30*time.Second))
}
