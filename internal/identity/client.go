package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/teamdeck/teamdeck/internal/errors"
	"github.com/teamdeck/teamdeck/internal/log"
)

// Client is the stateless HTTP client for the remote identity service.
// Each method is a single network round trip; the caller owns what
// happens to the session afterwards.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
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

// NewClient creates an identity service client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignInResult carries the token issued by a successful sign-in.
type SignInResult struct {
	Token string
}

// VerifyResult carries the identity resolved from a token.
type VerifyResult struct {
	UserID string
}

// Profile is the identity service's view of the signed-in user.
type Profile struct {
	UserID    string `json:"userid"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// SignUpKind selects the account-creation variant.
type SignUpKind int

const (
	// SignUpUser creates a regular account.
	SignUpUser SignUpKind = iota
	// SignUpAdmin creates an administrator account. The server
	// validates the license credential; the client only carries it.
	SignUpAdmin
)

// SignUpFields are the account-creation inputs. LicenseKey is required
// for the admin variant only.
type SignUpFields struct {
	Email      string
	Password   string
	Name       string
	RoleCode   string
	Role       string
	LicenseKey string
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	RefreshToken string `json:"refresh_token"`
	Message      string `json:"message"`
}

type verifyResponse struct {
	UserID string `json:"userid"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleCode string `json:"roleCode"`
	Name     string `json:"name"`
}

type adminSignUpRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	LicenseKey string `json:"license_key"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// SignIn exchanges credentials for a token. The caller is responsible
// for storing the token; this client does not touch the session.
func (c *Client) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	resp, err := c.do(ctx, http.MethodPost, "/signin", "", signInRequest{Email: email, Password: password})
	if err != nil {
		return SignInResult{}, errors.NewNetworkError("sign-in", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SignInResult{}, errors.NewNetworkError("sign-in", err)
	}

	if resp.StatusCode != http.StatusOK {
		return SignInResult{}, errors.NewInvalidCredentialsError(serverMessage(body, "sign-in rejected"))
	}

	var parsed signInResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.RefreshToken == "" {
		// A 200 without a token is a failure, never a session.
		return SignInResult{}, errors.NewMalformedResponseError("sign-in", "no refresh_token in response")
	}

	return SignInResult{Token: parsed.RefreshToken}, nil
}

// SignOut asks the server to revoke the token. Best effort: callers
// must clear their local session whatever this returns.
func (c *Client) SignOut(ctx context.Context, token string) error {
	resp, err := c.do(ctx, http.MethodPost, "/signout", token, nil)
	if err != nil {
		return errors.NewNetworkError("sign-out", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.NewUnauthorizedError(fmt.Sprintf("sign-out rejected with status %d", resp.StatusCode))
	}
	return nil
}

// Verify exchanges the token for a confirmed identity. Any non-200
// status, and any 200 without a non-empty userid, is a verification
// failure.
func (c *Client) Verify(ctx context.Context, token string) (VerifyResult, error) {
	resp, err := c.do(ctx, http.MethodGet, "/verify", token, nil)
	if err != nil {
		return VerifyResult{}, errors.NewNetworkError("verify", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerifyResult{}, errors.NewNetworkError("verify", err)
	}

	if resp.StatusCode != http.StatusOK {
		return VerifyResult{}, errors.NewUnauthorizedError("invalid or expired token")
	}

	var parsed verifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.UserID == "" {
		return VerifyResult{}, errors.NewUnauthorizedError("verification response carried no identity")
	}

	return VerifyResult{UserID: parsed.UserID}, nil
}

// SignUp creates an account. The admin variant posts to the admin
// signup endpoint and carries the license credential; the server is
// authoritative on validating it.
func (c *Client) SignUp(ctx context.Context, kind SignUpKind, fields SignUpFields) (string, error) {
	var (
		path    string
		payload any
	)
	switch kind {
	case SignUpAdmin:
		path = "/admin-signup"
		payload = adminSignUpRequest{
			Email:      fields.Email,
			Password:   fields.Password,
			Role:       fields.Role,
			Name:       fields.Name,
			LicenseKey: fields.LicenseKey,
		}
	default:
		path = "/signup"
		payload = signUpRequest{
			Email:    fields.Email,
			Password: fields.Password,
			RoleCode: fields.RoleCode,
			Name:     fields.Name,
		}
	}

	resp, err := c.do(ctx, http.MethodPost, path, "", payload)
	if err != nil {
		return "", errors.NewNetworkError("sign-up", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewNetworkError("sign-up", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.New(errors.ErrCodeSignupRejected, serverMessage(body, "sign-up rejected"))
	}

	var parsed messageResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Message == "" {
		return "Signup successful", nil
	}
	return parsed.Message, nil
}

// GetProfile fetches the signed-in user's profile.
func (c *Client) GetProfile(ctx context.Context, token string) (Profile, error) {
	resp, err := c.do(ctx, http.MethodGet, "/profile", token, nil)
	if err != nil {
		return Profile{}, errors.NewNetworkError("profile", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, errors.NewNetworkError("profile", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Profile{}, errors.NewUnauthorizedError("profile request rejected")
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return Profile{}, errors.NewMalformedResponseError("profile", err.Error())
	}
	if profile.UserID == "" {
		return Profile{}, errors.NewMalformedResponseError("profile", "no userid in response")
	}
	return profile, nil
}

// do performs one round trip with JSON encoding, bearer auth when a
// token is supplied, and a correlation id for log matching.
func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("identity request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("identity request failed", "path", path, "request_id", requestID, "error", err.Error())
		return nil, err
	}

	c.logger.Debug("identity response", "path", path, "request_id", requestID, "status", resp.StatusCode)
	return resp, nil
}

// serverMessage extracts a {message} body, falling back when absent.
func serverMessage(body []byte, fallback string) string {
	var parsed messageResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return fallback
}
