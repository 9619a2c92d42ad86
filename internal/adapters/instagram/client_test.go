package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/logger"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(logger.Nop(), WithBaseURL(server.URL))
}

func testSession() *domain.Session {
	return &domain.Session{
		Username:     "primary",
		UserID:       101,
		ClientUUID:   "client-uuid",
		SessionToken: "sess-1",
		CSRFToken:    "csrf-1",
	}
}

func TestAuthenticateSuccessRotatesTokens(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/login/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "primary", r.PostForm.Get("username"))
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))
		assert.NotEmpty(t, r.PostForm.Get("device_id"))
		assert.NotEmpty(t, r.PostForm.Get("guid"))

		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "sess-fresh"})
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-fresh"})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":         "ok",
			"logged_in_user": map[string]any{"pk": 101, "username": "primary", "full_name": "Primary"},
		})
	}))

	session, err := client.Authenticate(context.Background(), "primary", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, domain.UserID(101), session.UserID)
	assert.Equal(t, "sess-fresh", session.SessionToken)
	assert.Equal(t, "csrf-fresh", session.CSRFToken)
	assert.NotEmpty(t, session.DeviceID)
	assert.False(t, session.SavedAt.IsZero())
}

func TestAuthenticateBadPassword(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "bad_password"})
	}))

	_, err := client.Authenticate(context.Background(), "primary", "wrong")
	assert.ErrorIs(t, err, domain.ErrAuthFailure)
}

func TestResumeValidSession(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/current_user/", r.URL.Path)

		cookie, err := r.Cookie("sessionid")
		require.NoError(t, err)
		assert.Equal(t, "sess-1", cookie.Value)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"user":   map[string]any{"pk": 101, "username": "primary"},
		})
	}))

	session := testSession()
	require.NoError(t, client.Resume(context.Background(), session))
	assert.Equal(t, domain.UserID(101), session.UserID)
}

func TestResumeExpiredSession(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "login_required"})
	}))

	err := client.Resume(context.Background(), testSession())
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestResumeRejectsEmptySessionWithoutNetworkCall(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	}))

	err := client.Resume(context.Background(), &domain.Session{Username: "primary"})
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestListFollowersPagesThroughFullSet(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/friendships/101/followers/", r.URL.Path)

		switch r.URL.Query().Get("max_id") {
		case "":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":      "ok",
				"next_max_id": "cursor-2",
				"users": []map[string]any{
					{"pk": 1, "username": "a"},
					{"pk": 2, "username": "b"},
				},
			})
		case "cursor-2":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "ok",
				"users":  []map[string]any{{"pk": 3, "username": "c", "is_verified": true}},
			})
		default:
			t.Fatalf("unexpected max_id %q", r.URL.Query().Get("max_id"))
		}
	}))

	users, err := client.ListFollowers(context.Background(), testSession())
	require.NoError(t, err)

	require.Len(t, users, 3)
	assert.Equal(t, domain.UserID(3), users[2].ID)
	assert.True(t, users[2].IsVerified)
}

func TestListFollowingRateLimitedIsTransient(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "Please wait a few minutes"})
	}))

	_, err := client.ListFollowing(context.Background(), testSession())
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestUserDetail(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/55/info/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"user":   map[string]any{"pk": 55, "username": "shop", "is_business": true},
		})
	}))

	user, err := client.UserDetail(context.Background(), testSession(), 55)
	require.NoError(t, err)
	assert.True(t, user.IsBusiness)
	assert.Equal(t, "shop", user.Username)
}

func TestUnfollowSendsCSRFAndRotatesSession(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/friendships/destroy/7/", r.URL.Path)
		assert.Equal(t, "csrf-1", r.Header.Get("X-CSRFToken"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "7", r.PostForm.Get("user_id"))

		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "sess-2"})
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))

	session := testSession()
	require.NoError(t, client.Unfollow(context.Background(), session, 7))
	assert.Equal(t, "sess-2", session.SessionToken)
}

func TestUnfollowServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"status":"fail","message":"server error"}`)
	}))

	err := client.Unfollow(context.Background(), testSession(), 7)
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestUnfollowExpiredSessionPropagates(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":"fail","message":"login_required"}`)
	}))

	err := client.Unfollow(context.Background(), testSession(), 7)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}
