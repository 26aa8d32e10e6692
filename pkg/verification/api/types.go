package api

import "github.com/rentora/contact-verify/pkg/challenge"

// IssueRequest is the body of POST /issue and POST /resend
type IssueRequest struct {
	Identifier      string            `json:"identifier"`
	Channel         challenge.Channel `json:"channel"`
	DeferredPayload []byte            `json:"deferred_payload,omitempty"`
}

// IssueResponse reports the outcome of an issue or resend
type IssueResponse struct {
	Status            string `json:"status"`
	DisclosedCode     string `json:"disclosed_code,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// CheckRequest is the body of POST /check
type CheckRequest struct {
	Identifier string            `json:"identifier"`
	Channel    challenge.Channel `json:"channel"`
	Code       string            `json:"code"`
}

// CheckResponse reports the outcome of a non-destructive check
type CheckResponse struct {
	Status string `json:"status"`
}

// CommitRequest is the body of POST /commit
type CommitRequest struct {
	Identifier string            `json:"identifier"`
	Channel    challenge.Channel `json:"channel"`
}

// PayloadResponse carries the deferred payload attached at issue time
type PayloadResponse struct {
	DeferredPayload []byte `json:"deferred_payload"`
}

// ErrorResponse is the generic error body
type ErrorResponse struct {
	Message string `json:"message"`
}
