package verification

import "time"

// IssueStatus classifies the outcome of issuing or resending a challenge.
type IssueStatus string

const (
	// IssueStatusIssued means the code was delivered; the caller shows the
	// code-entry step without ever seeing the code value.
	IssueStatusIssued IssueStatus = "issued"

	// IssueStatusIssuedWithDisclosure means no real delivery happened but the
	// challenge is live and the code is surfaced for manual entry. Only
	// possible when disclosure mode is explicitly enabled.
	IssueStatusIssuedWithDisclosure IssueStatus = "issued_with_disclosure"

	// IssueStatusCooldownActive means a prior challenge was issued too
	// recently; RetryAfter says how long to wait.
	IssueStatusCooldownActive IssueStatus = "cooldown_active"

	// IssueStatusDeliveryFailed means the code could not be delivered
	IssueStatusDeliveryFailed IssueStatus = "delivery_failed"
)

// IssueResult is the outcome of Issue or Resend.
type IssueResult struct {
	Status IssueStatus

	// DisclosedCode is set only when Status is IssueStatusIssuedWithDisclosure
	DisclosedCode string

	// RetryAfter is set only when Status is IssueStatusCooldownActive
	RetryAfter time.Duration
}

// CheckStatus classifies the outcome of a non-destructive code check.
type CheckStatus string

const (
	CheckStatusValid    CheckStatus = "valid"
	CheckStatusExpired  CheckStatus = "expired"
	CheckStatusMismatch CheckStatus = "mismatch"
	CheckStatusNotFound CheckStatus = "not_found"
)
