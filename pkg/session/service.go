package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rentora/contact-verify/pkg/authority"
)

// AuthorityWriter is the slice of the authority client needed to establish a session
type AuthorityWriter interface {
	CreateOrUpdate(ctx context.Context, identifier string, profile authority.ProfileFields) (*authority.Account, error)
}

// Service creates and updates the cached session record when an
// authentication flow succeeds. The sequencing contract: callers run this
// BEFORE committing the verification challenge, so an unreachable authority
// leaves the challenge intact for a retry with the same code.
type Service struct {
	repo      Repository
	authority AuthorityWriter
}

// NewService creates a new session service
func NewService(repo Repository, authorityClient AuthorityWriter) *Service {
	return &Service{
		repo:      repo,
		authority: authorityClient,
	}
}

// Establish creates or updates the authority account for a verified
// identifier and caches exactly one session record for it. Any prior cached
// session is replaced.
func (s *Service) Establish(ctx context.Context, identifier string, profile authority.ProfileFields) (Record, error) {
	account, err := s.authority.CreateOrUpdate(ctx, identifier, profile)
	if err != nil {
		// Propagated untouched: the caller must not commit its challenge
		return Record{}, fmt.Errorf("failed to create or update account: %w", err)
	}

	rec := Record{
		LocalID:     uuid.NewString(),
		AuthorityID: account.ID,
		Name:        account.Name,
		Email:       account.Email,
		Phone:       account.Phone,
		Role:        account.Role,
		Blocked:     account.Blocked,
		Freshness:   FreshnessValid,
		UpdatedAt:   time.Now().UTC(),
	}
	if account.Blocked {
		rec.Freshness = FreshnessBlocked
	}

	if err := s.repo.Save(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("failed to save session record: %w", err)
	}

	slog.Info("Session established", "authority_id", account.ID, "freshness", rec.Freshness)
	return rec, nil
}
