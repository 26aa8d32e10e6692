package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/rentora/contact-verify/pkg/authority"
)

// AuthorityReader is the slice of the authority client the reconciler needs
type AuthorityReader interface {
	FindByIdentifier(ctx context.Context, identifier string) (*authority.Account, error)
	FetchByID(ctx context.Context, id int64) (*authority.Account, error)
}

// ReconcileReport describes what a reconciliation pass did
type ReconcileReport struct {
	Cleared   bool      `json:"cleared"`
	Freshness Freshness `json:"freshness"`
}

// Reconciler keeps the cached session record honest against the remote
// identity authority. Its one policy decision: destructive only on a
// definitive negative, conservative on ambiguity. A flaky network never logs
// the user out; a genuinely deleted account self-heals the cache.
type Reconciler struct {
	repo      Repository
	authority AuthorityReader
	interval  time.Duration
	focus     chan struct{}
}

// ReconcilerOption defines configuration options
type ReconcilerOption func(*Reconciler)

// WithInterval enables periodic reconciliation on top of the start and
// focus-regained triggers. Zero disables the ticker.
func WithInterval(interval time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		r.interval = interval
	}
}

// NewReconciler creates a new session reconciler
func NewReconciler(repo Repository, authorityClient AuthorityReader, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		repo:      repo,
		authority: authorityClient,
		focus:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile runs one reconciliation pass. An authority failure comes back as
// an error wrapping authority.ErrUnreachable with the session untouched;
// callers log it and show the last known state.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileReport, error) {
	rec, err := r.repo.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return ReconcileReport{}, nil
	}
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("failed to load cached session: %w", err)
	}

	authorityID, resolved := r.resolveAuthorityID(ctx, &rec)
	if !resolved {
		// No id could be resolved; the lookup itself may have failed
		// transiently, so the record stays as-is rather than being punished
		// for missing information.
		slog.Info("No authority id resolvable for cached session, leaving as-is")
		return ReconcileReport{Freshness: rec.Freshness}, nil
	}

	account, err := r.authority.FetchByID(ctx, authorityID)
	switch {
	case errors.Is(err, authority.ErrAccountNotFound):
		// Definitive negative: the account was deleted or never existed
		slog.Warn("Cached session refers to a missing account, clearing", "authority_id", authorityID)
		if err := r.repo.Clear(ctx); err != nil {
			return ReconcileReport{}, fmt.Errorf("failed to clear invalidated session: %w", err)
		}
		return ReconcileReport{Cleared: true, Freshness: FreshnessInvalidated}, nil

	case errors.Is(err, authority.ErrUnreachable):
		slog.Warn("Authority unreachable during reconciliation, session left untouched", "err", err)
		return ReconcileReport{Freshness: rec.Freshness}, err

	case err != nil:
		return ReconcileReport{}, fmt.Errorf("failed to fetch account %d: %w", authorityID, err)
	}

	rec.AuthorityID = account.ID
	rec.Name = account.Name
	rec.Email = account.Email
	rec.Phone = account.Phone
	rec.Role = account.Role
	rec.Blocked = account.Blocked
	rec.UpdatedAt = time.Now().UTC()
	if account.Blocked {
		rec.Freshness = FreshnessBlocked
	} else {
		rec.Freshness = FreshnessValid
	}

	if err := r.repo.Save(ctx, rec); err != nil {
		return ReconcileReport{}, fmt.Errorf("failed to save reconciled session: %w", err)
	}
	return ReconcileReport{Freshness: rec.Freshness}, nil
}

// resolveAuthorityID finds the canonical account id for the record: a
// previously resolved id wins, then a numeric local handle, then identifier
// lookups by email and phone in that order, caching a successful lookup.
func (r *Reconciler) resolveAuthorityID(ctx context.Context, rec *Record) (int64, bool) {
	if rec.AuthorityID > 0 {
		return rec.AuthorityID, true
	}

	if id, err := strconv.ParseInt(rec.LocalID, 10, 64); err == nil && id > 0 {
		return id, true
	}

	for _, identifier := range []string{rec.Email, rec.Phone} {
		if identifier == "" {
			continue
		}
		account, err := r.authority.FindByIdentifier(ctx, identifier)
		if err != nil {
			slog.Debug("Identifier lookup failed during reconciliation", "err", err)
			continue
		}
		rec.AuthorityID = account.ID
		if err := r.repo.Save(ctx, *rec); err != nil {
			slog.Error("Failed to cache resolved authority id", "err", err)
		}
		return account.ID, true
	}

	return 0, false
}

// NotifyFocus signals that the application regained user focus. Coalesces:
// a pass already pending absorbs further signals.
func (r *Reconciler) NotifyFocus() {
	select {
	case r.focus <- struct{}{}:
	default:
	}
}

// Run reconciles once at start and then on every focus signal (and on a
// fixed interval when configured) until the context is cancelled. Results
// are logged and discarded; anyone needing the outcome calls Reconcile.
func (r *Reconciler) Run(ctx context.Context) {
	r.runOnce(ctx)

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.focus:
			r.runOnce(ctx)
		case <-tick:
			r.runOnce(ctx)
		}
	}
}

func (r *Reconciler) runOnce(ctx context.Context) {
	report, err := r.Reconcile(ctx)
	if err != nil {
		slog.Warn("Reconciliation pass failed", "err", err)
		return
	}
	slog.Info("Reconciliation pass finished", "cleared", report.Cleared, "freshness", report.Freshness)
}
