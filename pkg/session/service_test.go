package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentora/contact-verify/pkg/authority"
)

type stubWriter struct {
	account *authority.Account
	err     error
	calls   []string
}

func (s *stubWriter) CreateOrUpdate(ctx context.Context, identifier string, profile authority.ProfileFields) (*authority.Account, error) {
	s.calls = append(s.calls, identifier)
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func TestServiceEstablish(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a session record from the authority account", func(t *testing.T) {
		repo := NewInMemRepository()
		writer := &stubWriter{account: &authority.Account{
			ID:    42,
			Email: "renter@example.com",
			Name:  "Renter",
			Role:  "tenant",
		}}
		svc := NewService(repo, writer)

		rec, err := svc.Establish(ctx, "renter@example.com", authority.ProfileFields{Name: "Renter"})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.LocalID)
		assert.Equal(t, int64(42), rec.AuthorityID)
		assert.Equal(t, FreshnessValid, rec.Freshness)

		stored, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, rec, stored)
	})

	t.Run("blocked account yields a blocked session", func(t *testing.T) {
		repo := NewInMemRepository()
		writer := &stubWriter{account: &authority.Account{ID: 7, Blocked: true}}
		svc := NewService(repo, writer)

		rec, err := svc.Establish(ctx, "blocked@example.com", authority.ProfileFields{})
		require.NoError(t, err)
		assert.Equal(t, FreshnessBlocked, rec.Freshness)
		assert.True(t, rec.Blocked)
	})

	t.Run("unreachable authority saves nothing", func(t *testing.T) {
		repo := NewInMemRepository()
		writer := &stubWriter{err: authority.ErrUnreachable}
		svc := NewService(repo, writer)

		_, err := svc.Establish(ctx, "renter@example.com", authority.ProfileFields{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, authority.ErrUnreachable))

		_, err = repo.Load(ctx)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("replaces a prior session", func(t *testing.T) {
		repo := NewInMemRepository()
		require.NoError(t, repo.Save(ctx, Record{LocalID: "old", AuthorityID: 1}))

		writer := &stubWriter{account: &authority.Account{ID: 2}}
		svc := NewService(repo, writer)

		rec, err := svc.Establish(ctx, "new@example.com", authority.ProfileFields{})
		require.NoError(t, err)

		stored, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, rec.LocalID, stored.LocalID)
		assert.Equal(t, int64(2), stored.AuthorityID)
	})
}
