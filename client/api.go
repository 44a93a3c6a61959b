package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// API is the JSON transport shared by the guest and staff clients. Staff
// calls carry the operator secret as a bearer credential; guest calls
// carry their session token in the request payload instead. The secret
// is mutex-guarded: the poll goroutine reads it while the UI may be
// clearing or replacing it.
type API struct {
	BaseURL    string
	HTTPClient *http.Client

	mu          sync.Mutex
	staffSecret string
}

func NewAPI(baseURL string) *API {
	return &API{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetStaffSecret stores (or clears) the operator secret. Memory only.
func (a *API) SetStaffSecret(secret string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.staffSecret = secret
}

// StaffSecret returns the currently stored operator secret.
func (a *API) StaffSecret() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.staffSecret
}

// ErrUnauthorized marks a 401-class reply: a stale token or a rejected
// operator secret. Callers reset their credential instead of retrying.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the server's envelope message for non-2xx replies.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsRetryable reports whether err should be treated as a missed poll:
// transport failures and server-side errors, never auth or validation.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return !errors.Is(err, ErrUnauthorized) && err != nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret := a.StaffSecret(); secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && resp.StatusCode < 300 {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", env.Message, ErrUnauthorized)
	}
	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && env.Data != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (a *API) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return a.do(ctx, http.MethodGet, path, nil, out)
}

func (a *API) Post(ctx context.Context, path string, body, out interface{}) error {
	return a.do(ctx, http.MethodPost, path, body, out)
}

func (a *API) Patch(ctx context.Context, path string, body, out interface{}) error {
	return a.do(ctx, http.MethodPatch, path, body, out)
}
