package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/rentora/contact-verify/pkg/authority"
	"github.com/rentora/contact-verify/pkg/session"
)

// Handler returns a http.Handler for the session API
func Handler(h *Handle) http.Handler {
	r := chi.NewRouter()

	r.Post("/reconcile", h.PostReconcile)
	r.Post("/focus", h.PostFocus)

	return r
}

type Handle struct {
	reconciler *session.Reconciler
}

// NewHandle creates a new Handle
func NewHandle(reconciler *session.Reconciler) *Handle {
	return &Handle{reconciler: reconciler}
}

// ReconcileResponse reports the outcome of a reconciliation pass
type ReconcileResponse struct {
	Cleared   bool   `json:"cleared"`
	Freshness string `json:"freshness,omitempty"`
}

// Run a reconciliation pass and report the result
// (POST /reconcile)
func (h *Handle) PostReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		// An unreachable authority is no information about the session:
		// the caller keeps showing the last known state.
		if errors.Is(err, authority.ErrUnreachable) {
			slog.Warn("Reconciliation inconclusive, authority unreachable", "err", err)
			render.Status(r, http.StatusOK)
			render.JSON(w, r, ReconcileResponse{Cleared: false, Freshness: string(report.Freshness)})
			return
		}
		slog.Error("Reconciliation failed", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"message": "reconciliation failed"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ReconcileResponse{Cleared: report.Cleared, Freshness: string(report.Freshness)})
}

// Signal that the application regained focus; reconciliation runs in the
// background loop.
// (POST /focus)
func (h *Handle) PostFocus(w http.ResponseWriter, r *http.Request) {
	h.reconciler.NotifyFocus()
	render.NoContent(w, r)
}
