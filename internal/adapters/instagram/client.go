// Package instagram implements the SocialGraph port against Instagram's
// private web API. It is the only package that talks to the network.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/logger"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

const (
	defaultBaseURL = "https://i.instagram.com/api/v1"
	defaultAgent   = "Instagram 269.0.0.18.75 Android (30/11; 420dpi; 1080x2137; samsung; SM-G973F; beyond1; exynos9820; en_US)"

	// pageSize is the per-request batch for follower/following listings.
	pageSize = 200

	sessionCookie = "sessionid"
	csrfCookie    = "csrftoken"
)

type Client struct {
	http *resty.Client
	log  *logger.Logger
}

var _ ports.SocialGraph = (*Client)(nil)

type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests to point the client
// at an httptest server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(baseURL)
	}
}

func New(log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Nop()
	}

	client := &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(30 * time.Second),
		log: log,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *Client) Authenticate(ctx context.Context, username, password string) (domain.Session, error) {
	session := domain.Session{
		Username:   username,
		DeviceID:   "android-" + uuid.NewString()[:16],
		ClientUUID: uuid.NewString(),
		UserAgent:  defaultAgent,
	}

	resp, err := c.request(ctx, &session).
		SetFormData(map[string]string{
			"username":  username,
			"password":  password,
			"device_id": session.DeviceID,
			"guid":      session.ClientUUID,
		}).
		Post("/accounts/login/")
	if err != nil {
		return domain.Session{}, transportError("login", err)
	}

	var body loginResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return domain.Session{}, fmt.Errorf("decode login response: %w", err)
	}

	if err := classify(resp, body.Status, body.Message); err != nil {
		if !domain.IsTransient(err) {
			// Bad credentials, checkpoints and the like all surface as an
			// authentication failure to the caller.
			return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrAuthFailure, body.Message)
		}
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}
	if body.LoggedInUser == nil {
		return domain.Session{}, fmt.Errorf("%w: empty login response", domain.ErrAuthFailure)
	}

	session.UserID = domain.UserID(body.LoggedInUser.PK)
	c.rotateTokens(&session, resp)
	session.SavedAt = time.Now()

	if err := session.Validate(); err != nil {
		return domain.Session{}, fmt.Errorf("login produced unusable session: %w", err)
	}

	return session, nil
}

// Resume verifies a stored session with the cheapest authenticated call.
func (c *Client) Resume(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return domain.ErrSessionExpired
	}

	resp, err := c.request(ctx, session).Get("/accounts/current_user/")
	if err != nil {
		return transportError("resume session", err)
	}

	var body currentUserResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return fmt.Errorf("decode current user response: %w", err)
	}

	if err := classify(resp, body.Status, body.Message); err != nil {
		return err
	}
	if body.User != nil {
		session.UserID = domain.UserID(body.User.PK)
		session.Username = body.User.Username
	}

	c.rotateTokens(session, resp)
	return nil
}

func (c *Client) ListFollowers(ctx context.Context, session *domain.Session) ([]domain.UserRef, error) {
	return c.listUsers(ctx, session, fmt.Sprintf("/friendships/%d/followers/", session.UserID))
}

func (c *Client) ListFollowing(ctx context.Context, session *domain.Session) ([]domain.UserRef, error) {
	return c.listUsers(ctx, session, fmt.Sprintf("/friendships/%d/following/", session.UserID))
}

// listUsers pages through the complete result set; the listings are
// unbounded and a truncated page would corrupt the non-mutual derivation.
func (c *Client) listUsers(ctx context.Context, session *domain.Session, path string) ([]domain.UserRef, error) {
	users := make([]domain.UserRef, 0, pageSize)
	maxID := ""

	for {
		req := c.request(ctx, session).SetQueryParam("count", strconv.Itoa(pageSize))
		if maxID != "" {
			req.SetQueryParam("max_id", maxID)
		}

		resp, err := req.Get(path)
		if err != nil {
			return nil, transportError("list users", err)
		}

		var body userListResponse
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, fmt.Errorf("decode user list response: %w", err)
		}

		if err := classify(resp, body.Status, body.Message); err != nil {
			return nil, err
		}

		for _, user := range body.Users {
			users = append(users, toUserRef(user))
		}

		c.rotateTokens(session, resp)

		if body.NextMaxID == "" {
			return users, nil
		}
		maxID = body.NextMaxID
	}
}

func (c *Client) UserDetail(ctx context.Context, session *domain.Session, id domain.UserID) (domain.UserRef, error) {
	resp, err := c.request(ctx, session).Get(fmt.Sprintf("/users/%d/info/", id))
	if err != nil {
		return domain.UserRef{}, transportError("fetch user detail", err)
	}

	var body userInfoResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return domain.UserRef{}, fmt.Errorf("decode user info response: %w", err)
	}

	if err := classify(resp, body.Status, body.Message); err != nil {
		return domain.UserRef{}, err
	}
	if body.User == nil {
		return domain.UserRef{}, &domain.RemoteError{StatusCode: resp.StatusCode(), Message: "empty user info"}
	}

	return toUserRef(*body.User), nil
}

func (c *Client) Unfollow(ctx context.Context, session *domain.Session, id domain.UserID) error {
	resp, err := c.request(ctx, session).
		SetFormData(map[string]string{
			"user_id":    strconv.FormatInt(int64(id), 10),
			"_uuid":      session.ClientUUID,
			"_csrftoken": session.CSRFToken,
		}).
		Post(fmt.Sprintf("/friendships/destroy/%d/", id))
	if err != nil {
		return transportError("unfollow", err)
	}

	var body friendshipResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return fmt.Errorf("decode unfollow response: %w", err)
	}

	if err := classify(resp, body.Status, body.Message); err != nil {
		return err
	}

	// Mutating calls rotate tokens most often; the caller persists the
	// session after every success for exactly this reason.
	c.rotateTokens(session, resp)
	return nil
}

func (c *Client) request(ctx context.Context, session *domain.Session) *resty.Request {
	req := c.http.R().SetContext(ctx)

	agent := session.UserAgent
	if agent == "" {
		agent = defaultAgent
	}
	req.SetHeader("User-Agent", agent)

	if session.SessionToken != "" {
		req.SetCookie(&http.Cookie{Name: sessionCookie, Value: session.SessionToken})
	}
	if session.CSRFToken != "" {
		req.SetCookie(&http.Cookie{Name: csrfCookie, Value: session.CSRFToken})
		req.SetHeader("X-CSRFToken", session.CSRFToken)
	}

	return req
}

// rotateTokens folds any refreshed cookies back into the session so it can
// be persisted and replayed later.
func (c *Client) rotateTokens(session *domain.Session, resp *resty.Response) {
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case sessionCookie:
			if cookie.Value != "" {
				session.SessionToken = cookie.Value
			}
		case csrfCookie:
			if cookie.Value != "" {
				session.CSRFToken = cookie.Value
			}
		}
	}
}

func toUserRef(user userPayload) domain.UserRef {
	return domain.UserRef{
		ID:         domain.UserID(user.PK),
		Username:   user.Username,
		FullName:   user.FullName,
		IsVerified: user.IsVerified,
		IsBusiness: user.IsBusiness,
	}
}
