// Package authority is a narrow client to the remote identity authority, the
// source of truth for account existence and blocked status. Absence and
// unreachability are kept strictly apart: callers handle them oppositely.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrAccountNotFound means the authority definitively reported that no
	// such account exists
	ErrAccountNotFound = errors.New("account not found")

	// ErrUnreachable means the authority could not be consulted at all. It
	// carries no information about the account being checked.
	ErrUnreachable = errors.New("identity authority unreachable")
)

// Account is the authority's canonical view of an account
type Account struct {
	ID      int64  `json:"id"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
	Blocked bool   `json:"blocked"`
}

// ProfileFields is the writable part of an account
type ProfileFields struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Client talks to the identity authority over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption defines configuration options
type ClientOption func(*Client)

// WithTimeout bounds every request. After the timeout the call resolves to
// ErrUnreachable instead of hanging.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new authority client
func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type findResponse struct {
	Found   bool    `json:"found"`
	Account Account `json:"account"`
}

// FindByIdentifier looks an account up by contact identifier (email or
// phone). Returns ErrAccountNotFound when the authority answers "no such
// account" and ErrUnreachable when it cannot answer.
func (c *Client) FindByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	endpoint := c.baseURL + "/accounts?identifier=" + url.QueryEscape(identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode)
	}

	var body findResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnreachable, err)
	}
	if !body.Found {
		return nil, ErrAccountNotFound
	}
	return &body.Account, nil
}

// FetchByID fetches an account by its canonical id. A 404 is a definitive
// negative (ErrAccountNotFound); everything transport-side is ErrUnreachable.
func (c *Client) FetchByID(ctx context.Context, id int64) (*Account, error) {
	endpoint := fmt.Sprintf("%s/accounts/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrAccountNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode)
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnreachable, err)
	}
	return &account, nil
}

type createOrUpdateRequest struct {
	Identifier string        `json:"identifier"`
	Profile    ProfileFields `json:"profile"`
}

// CreateOrUpdate creates the account for the identifier or updates its
// profile fields, returning the canonical account.
func (c *Client) CreateOrUpdate(ctx context.Context, identifier string, profile ProfileFields) (*Account, error) {
	payload, err := json.Marshal(createOrUpdateRequest{Identifier: identifier, Profile: profile})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/accounts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.statusError(resp.StatusCode)
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnreachable, err)
	}
	return &account, nil
}

// statusError maps unexpected statuses. Server-side failures carry no
// information about the entity, so they are unreachable, not not-found.
func (c *Client) statusError(status int) error {
	if status >= 500 {
		return fmt.Errorf("%w: authority returned status %d", ErrUnreachable, status)
	}
	return fmt.Errorf("authority returned unexpected status %d", status)
}
