package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/rentora/contact-verify/pkg/challenge"
	"github.com/rentora/contact-verify/pkg/verification"
)

// Handler returns a http.Handler for the verification API
func Handler(h *Handle) http.Handler {
	r := chi.NewRouter()

	r.Post("/issue", h.PostIssue)
	r.Post("/resend", h.PostResend)
	r.Post("/check", h.PostCheck)
	r.Post("/commit", h.PostCommit)
	r.Get("/payload", h.GetPayload)

	return r
}

type Handle struct {
	service verification.ChallengeService
}

// NewHandle creates a new Handle
func NewHandle(service verification.ChallengeService) *Handle {
	return &Handle{service: service}
}

// Issue a verification challenge
// (POST /issue)
func (h *Handle) PostIssue(w http.ResponseWriter, r *http.Request) {
	var data IssueRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "unable to parse body"})
		return
	}

	result, err := h.service.Issue(r.Context(), data.Identifier, data.Channel, data.DeferredPayload)
	h.renderIssueResult(w, r, result, err)
}

// Resend the challenge for an identifier, keeping its deferred payload
// (POST /resend)
func (h *Handle) PostResend(w http.ResponseWriter, r *http.Request) {
	var data IssueRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "unable to parse body"})
		return
	}

	result, err := h.service.Resend(r.Context(), data.Identifier, data.Channel)
	h.renderIssueResult(w, r, result, err)
}

func (h *Handle) renderIssueResult(w http.ResponseWriter, r *http.Request, result verification.IssueResult, err error) {
	if err != nil {
		if errors.Is(err, verification.ErrMalformedIdentifier) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Message: err.Error()})
			return
		}
		slog.Error("Failed to issue challenge", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Message: "failed to issue challenge"})
		return
	}

	resp := IssueResponse{
		Status:            string(result.Status),
		DisclosedCode:     result.DisclosedCode,
		RetryAfterSeconds: int(result.RetryAfter.Seconds()),
	}

	switch result.Status {
	case verification.IssueStatusCooldownActive:
		render.Status(r, http.StatusTooManyRequests)
	case verification.IssueStatusDeliveryFailed:
		render.Status(r, http.StatusBadGateway)
	default:
		render.Status(r, http.StatusOK)
	}
	render.JSON(w, r, resp)
}

// Check an entered code without consuming the challenge
// (POST /check)
func (h *Handle) PostCheck(w http.ResponseWriter, r *http.Request) {
	var data CheckRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "unable to parse body"})
		return
	}

	status, err := h.service.Check(r.Context(), data.Identifier, data.Channel, data.Code)
	if err != nil {
		slog.Error("Failed to check challenge", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Message: "failed to check challenge"})
		return
	}

	switch status {
	case verification.CheckStatusValid:
		render.Status(r, http.StatusOK)
	case verification.CheckStatusExpired:
		render.Status(r, http.StatusGone)
	default: // mismatch, not found
		render.Status(r, http.StatusUnauthorized)
	}
	render.JSON(w, r, CheckResponse{Status: string(status)})
}

// Commit (consume) a verified challenge
// (POST /commit)
func (h *Handle) PostCommit(w http.ResponseWriter, r *http.Request) {
	var data CommitRequest
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Message: "unable to parse body"})
		return
	}

	if err := h.service.Commit(r.Context(), data.Identifier, data.Channel); err != nil {
		if errors.Is(err, verification.ErrMalformedIdentifier) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Message: err.Error()})
			return
		}
		slog.Error("Failed to commit challenge", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Message: "failed to commit challenge"})
		return
	}

	render.NoContent(w, r)
}

// Retrieve the deferred payload attached at issue time
// (GET /payload?identifier=...&channel=...)
func (h *Handle) GetPayload(w http.ResponseWriter, r *http.Request) {
	identifier := r.URL.Query().Get("identifier")
	channel := challenge.Channel(r.URL.Query().Get("channel"))

	payload, err := h.service.DeferredPayload(r.Context(), identifier, channel)
	if err != nil {
		if errors.Is(err, challenge.ErrChallengeNotFound) || errors.Is(err, challenge.ErrChallengeExpired) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, ErrorResponse{Message: "no challenge for identifier"})
			return
		}
		if errors.Is(err, verification.ErrMalformedIdentifier) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Message: err.Error()})
			return
		}
		slog.Error("Failed to retrieve deferred payload", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Message: "failed to retrieve payload"})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, PayloadResponse{DeferredPayload: payload})
}
