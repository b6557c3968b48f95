package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/teamdeck/teamdeck/internal/errors"
	"github.com/teamdeck/teamdeck/internal/log"
)

// User is one directory entry as returned by the admin service.
type User struct {
	UserID    string `json:"userid"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// NormalizedRole returns the user's role mapped onto the closed set.
func (u User) NormalizedRole() Role {
	return NormalizeRole(u.Role)
}

// Snapshot is one categorized directory fetch. The bucket order is a
// positional contract with the admin service: Admins, Managers,
// Associates, AllUsers. A fresh fetch fully replaces the previous
// snapshot; there is no incremental merge.
type Snapshot struct {
	Admins     []User
	Managers   []User
	Associates []User
	AllUsers   []User
}

// Flatten returns every bucket concatenated in positional order.
func (s Snapshot) Flatten() []User {
	out := make([]User, 0, len(s.Admins)+len(s.Managers)+len(s.Associates)+len(s.AllUsers))
	out = append(out, s.Admins...)
	out = append(out, s.Managers...)
	out = append(out, s.Associates...)
	out = append(out, s.AllUsers...)
	return out
}

// Lookup finds a user by id across all buckets.
func (s Snapshot) Lookup(userID string) (User, bool) {
	for _, u := range s.Flatten() {
		if u.UserID == userID {
			return u, true
		}
	}
	return User{}, false
}

// Client is the stateless HTTP client for the admin/role service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	maxTries   uint
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger overrides the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMaxFetchTries bounds the retry budget for directory fetches.
func WithMaxFetchTries(n uint) Option {
	return func(c *Client) { c.maxTries = n }
}

// NewClient creates an admin service client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:   log.DefaultLogger(),
		maxTries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetchResponse mirrors the admin endpoint's positional payload. Each
// bucket is decoded independently so one malformed bucket degrades to
// empty instead of failing the whole fetch.
type fetchResponse struct {
	ReqData []json.RawMessage `json:"req_data"`
}

// Fetch retrieves the categorized directory snapshot. Transient
// network failures are retried with bounded exponential backoff; the
// request is an idempotent GET so retrying is safe. Authorization
// failures are permanent and returned immediately.
func (c *Client) Fetch(ctx context.Context, token string) (Snapshot, error) {
	operation := func() (Snapshot, error) {
		snap, err := c.fetchOnce(ctx, token)
		if err != nil && !errors.HasCode(err, errors.ErrCodeNetwork) {
			return Snapshot{}, backoff.Permanent(err)
		}
		return snap, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond

	snap, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (c *Client) fetchOnce(ctx context.Context, token string) (Snapshot, error) {
	// The directory endpoint takes the token as a query parameter.
	endpoint := fmt.Sprintf("%s/admin?token=%s", c.baseURL, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, errors.NewNetworkError("directory fetch", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Debug("directory fetch", "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, errors.NewNetworkError("directory fetch", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, errors.NewNetworkError("directory fetch", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Snapshot{}, errors.NewUnauthorizedError("directory fetch rejected")
	case resp.StatusCode != http.StatusOK:
		return Snapshot{}, errors.New(errors.ErrCodeDirectoryFetch,
			fmt.Sprintf("directory fetch failed with status %d", resp.StatusCode))
	}

	var parsed fetchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Snapshot{}, errors.NewMalformedResponseError("directory fetch", err.Error())
	}

	snap := Snapshot{
		Admins:     decodeBucket(parsed.ReqData, 0),
		Managers:   decodeBucket(parsed.ReqData, 1),
		Associates: decodeBucket(parsed.ReqData, 2),
		AllUsers:   decodeBucket(parsed.ReqData, 3),
	}
	return snap, nil
}

// decodeBucket decodes one positional bucket. Missing or malformed
// buckets are empty; they must never crash the snapshot.
func decodeBucket(buckets []json.RawMessage, idx int) []User {
	if idx >= len(buckets) {
		return []User{}
	}
	var users []User
	if err := json.Unmarshal(buckets[idx], &users); err != nil || users == nil {
		return []User{}
	}
	return users
}

// PatchRole asks the admin service to reassign one user's role.
// Reapplying the current role is a no-op server side, so the call is
// idempotent from the caller's perspective.
func (c *Client) PatchRole(ctx context.Context, token, userID string, role Role) error {
	endpoint := fmt.Sprintf("%s/admin?userId=%s&role=%s",
		c.baseURL, url.QueryEscape(userID), url.QueryEscape(role.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, nil)
	if err != nil {
		return errors.NewNetworkError("role patch", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("Authorization", "Bearer "+token)

	c.logger.Debug("role patch", "request_id", requestID, "target_user", userID, "role", role.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewNetworkError("role patch", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.NewUserNotFoundError(userID)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.NewUnauthorizedError("role patch rejected")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return errors.New(errors.ErrCodeDirectoryFetch,
			fmt.Sprintf("role patch failed with status %d", resp.StatusCode))
	}
	return nil
}
