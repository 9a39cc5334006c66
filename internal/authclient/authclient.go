// Package authclient manages the signed-in session against the NomNom API:
// sign-in, register-then-sign-in signup, sign-out, and restoring a persisted
// session at startup.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fdg312/nomnom/internal/kvstore"
)

// Session storage keys shared with previous app builds, so an upgrade keeps
// the user signed in.
const (
	tokenKey = "@nomnom_token"
	userKey  = "@nomnom_user"
)

const defaultTimeout = 12 * time.Second

var (
	// ErrTimeout reports that the API did not answer within the deadline.
	ErrTimeout = errors.New("authclient: request timed out")
	// ErrMissingCredentials is returned before any network call when email
	// or password is empty.
	ErrMissingCredentials = errors.New("authclient: email and password are required")
	// ErrPasswordTooShort enforces the minimum password length on signup.
	ErrPasswordTooShort = errors.New("authclient: password must be at least 6 characters")
	// ErrNoSession is returned by Restore when no persisted session exists.
	ErrNoSession = errors.New("authclient: no stored session")
)

// User is the account identity the API returns on login.
type User struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	FullName *string `json:"fullName,omitempty"`
}

// Session is a token plus the user it authenticates.
type Session struct {
	Token string
	User  User
}

type Client struct {
	baseURL    string
	kv         kvstore.Store
	httpClient *http.Client
}

// New builds an auth client. kv holds the persisted session; a zero timeout
// selects the default.
func New(baseURL string, kv kvstore.Store, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		kv:      kv,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SignIn authenticates with email and password, persists the session, and
// returns it. The email is trimmed before validation and submission.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}

	payload, err := c.postJSON(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return Session{}, err
	}

	var parsed struct {
		Token string `json:"token"`
		User  *User  `json:"user"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Session{}, fmt.Errorf("authclient: malformed login response: %w", err)
	}
	if parsed.Token == "" || parsed.User == nil {
		return Session{}, errors.New("authclient: login response missing token or user")
	}

	sess := Session{Token: parsed.Token, User: *parsed.User}
	if err := c.persist(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// SignUp registers the account and then signs in with the same credentials,
// since registration does not return a token.
func (c *Client) SignUp(ctx context.Context, fullName, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)
	if email == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}
	if len(password) < 6 {
		return Session{}, ErrPasswordTooShort
	}

	if _, err := c.postJSON(ctx, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"fullName": fullName,
	}); err != nil {
		return Session{}, err
	}

	return c.SignIn(ctx, email, password)
}

// SignOut drops the persisted session. It succeeds even when no session is
// stored.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.kv.Delete(ctx, tokenKey); err != nil {
		return err
	}
	return c.kv.Delete(ctx, userKey)
}

// Restore loads the persisted session. Both token and user must be present;
// a partial or unparsable record counts as no session.
func (c *Client) Restore(ctx context.Context) (Session, error) {
	token, err := c.kv.Get(ctx, tokenKey)
	if err != nil {
		if err == kvstore.ErrNotFound {
			return Session{}, ErrNoSession
		}
		return Session{}, err
	}
	rawUser, err := c.kv.Get(ctx, userKey)
	if err != nil {
		if err == kvstore.ErrNotFound {
			return Session{}, ErrNoSession
		}
		return Session{}, err
	}

	var user User
	if err := json.Unmarshal(rawUser, &user); err != nil {
		return Session{}, ErrNoSession
	}
	return Session{Token: string(token), User: user}, nil
}

// Me validates the token against the API and returns the current account.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return User{}, ErrTimeout
		}
		return User{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return User{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return User{}, apiError(resp.StatusCode, body)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return User{}, fmt.Errorf("authclient: malformed me response: %w", err)
	}
	return user, nil
}

func (c *Client) persist(ctx context.Context, sess Session) error {
	rawUser, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	if err := c.kv.Set(ctx, tokenKey, []byte(sess.Token)); err != nil {
		return err
	}
	return c.kv.Set(ctx, userKey, rawUser)
}

func (c *Client) postJSON(ctx context.Context, path string, body map[string]string) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, payload)
	}
	return payload, nil
}

// apiError prefers the server's own error or message field over the bare
// status code. The error field is either a plain string or a
// {"code","message"} object.
func apiError(status int, body []byte) error {
	var parsed struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.Error) > 0 {
			var text string
			if json.Unmarshal(parsed.Error, &text) == nil && text != "" {
				return errors.New(text)
			}
			var detail struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(parsed.Error, &detail) == nil && detail.Message != "" {
				return errors.New(detail.Message)
			}
		}
		if parsed.Message != "" {
			return errors.New(parsed.Message)
		}
	}
	return fmt.Errorf("HTTP %d", status)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
