package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInstagram serves just enough of the private API for the CLI flows:
// one account "primary" (password "hunter2", user id 101) following four
// users of which two follow back.
type fakeInstagram struct {
	mu        sync.Mutex
	destroyed []string
	server    *httptest.Server
}

func newFakeInstagram(t *testing.T) *fakeInstagram {
	t.Helper()

	f := &fakeInstagram{}
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, body map[string]any) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	user := func(pk int, username, fullName string, verified bool) map[string]any {
		return map[string]any{
			"pk":          pk,
			"username":    username,
			"full_name":   fullName,
			"is_verified": verified,
			"is_business": false,
		}
	}

	mux.HandleFunc("/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("password") != "hunter2" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"status": "fail", "message": "bad_password"})
			return
		}

		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "sess-1"})
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-1"})
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"logged_in_user": user(101, "primary", "Primary Account", false),
		})
	})

	mux.HandleFunc("/accounts/current_user/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   user(101, "primary", "Primary Account", false),
		})
	})

	mux.HandleFunc("/friendships/101/followers/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"users": []map[string]any{
				user(1, "alice", "Alice", false),
				user(2, "bob", "Bob", false),
			},
		})
	})

	mux.HandleFunc("/friendships/101/following/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"users": []map[string]any{
				user(1, "alice", "Alice", false),
				user(2, "bob", "Bob", false),
				user(3, "charlie", "Charlie", false),
				user(4, "dana", "Dana", false),
			},
		})
	})

	mux.HandleFunc("/friendships/destroy/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/friendships/destroy/"), "/")
		f.mu.Lock()
		f.destroyed = append(f.destroyed, id)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeInstagram) destroyedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.destroyed))
	copy(out, f.destroyed)
	return out
}

// setupEnv points the CLI at an isolated data dir and the fake server, with
// pacing shrunk so batch tests finish instantly.
func setupEnv(t *testing.T, serverURL string) string {
	t.Helper()

	dataDir := t.TempDir()
	t.Setenv("IGF_DATA_DIR", dataDir)
	t.Setenv("IGF_API_BASE_URL", serverURL)
	t.Setenv("IGF_LOG_LEVEL", "error")
	t.Setenv("IGF_UNFOLLOW_DELAY_MIN", "1ms")
	t.Setenv("IGF_UNFOLLOW_DELAY_MAX", "2ms")
	t.Setenv("IGF_UNFOLLOW_TRANSIENT_COOLDOWN", "1ms")
	t.Setenv("IGF_UNFOLLOW_GENERIC_COOLDOWN", "1ms")

	return dataDir
}

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	return executeCLIWithInput(t, "", args...)
}

func executeCLIWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func addPrimaryAccount(t *testing.T) {
	t.Helper()

	stdout, _, err := executeCLI(t, "account", "add", "primary", "--password", "hunter2")
	require.NoError(t, err)
	require.Contains(t, stdout, "Account @primary added (user id 101)")
}

func TestVersionCommand(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	stdout, _, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestAccountAddAndList(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, _, err := executeCLI(t, "account", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "@primary")
}

func TestAccountAddBadPassword(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	_, _, err := executeCLI(t, "account", "add", "primary", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestAccountAddPromptsForPassword(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	stdout, stderr, err := executeCLIWithInput(t, "hunter2\n", "account", "add", "primary")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Account @primary added")
	assert.Contains(t, stderr, "Password for @primary:")
}

func TestAccountRemove(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, _, err := executeCLI(t, "account", "remove", "primary")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Account @primary removed")

	stdout, _, err = executeCLI(t, "account", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No accounts stored")
}

func TestAccountRemoveUnknown(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	_, _, err := executeCLI(t, "account", "remove", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account not found")
}

func TestWhitelistLifecycle(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	stdout, _, err := executeCLI(t, "whitelist", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Whitelist is empty.")

	_, _, err = executeCLI(t, "whitelist", "add", "charlie")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, "whitelist", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "@charlie")

	_, _, err = executeCLI(t, "whitelist", "remove", "charlie")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, "whitelist", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Whitelist is empty.")
}

func TestStatsShowsNonMutualAccounts(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, _, err := executeCLI(t, "stats", "--account", "primary", "--list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "@primary")
	assert.Contains(t, stdout, "followers: 2")
	assert.Contains(t, stdout, "following: 4")
	assert.Contains(t, stdout, "2 accounts do not follow back")
	assert.Contains(t, stdout, "@charlie")
	assert.Contains(t, stdout, "@dana")
}

func TestStatsJSONOutput(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, _, err := executeCLI(t, "stats", "--account", "primary", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"FollowerCount\": 2")
	assert.Contains(t, stdout, "\"FollowingCount\": 4")
}

func TestUnfollowDryRunActsOnNothing(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, _, err := executeCLI(t, "unfollow", "--account", "primary", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Would unfollow 2 accounts")
	assert.Contains(t, stdout, "@charlie")
	assert.Contains(t, stdout, "@dana")
	assert.Empty(t, fake.destroyedIDs())
}

func TestUnfollowRunsBatchAndBacksUpFollowing(t *testing.T) {
	fake := newFakeInstagram(t)
	dataDir := setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, stderr, err := executeCLI(t, "unfollow", "--account", "primary", "--yes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unfollowed: 2")
	assert.Contains(t, stderr, "Following list backed up to")
	assert.Equal(t, []string{"3", "4"}, fake.destroyedIDs())

	backups, err := filepath.Glob(filepath.Join(dataDir, "following-primary-*.csv"))
	require.NoError(t, err)
	require.Len(t, backups, 1)
	raw, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "charlie")
}

func TestUnfollowHonorsWhitelist(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	_, _, err := executeCLI(t, "whitelist", "add", "charlie")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, "unfollow", "--account", "primary", "--yes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unfollowed: 1")
	assert.Equal(t, []string{"4"}, fake.destroyedIDs())
}

func TestUnfollowCapOverrideStopsEarly(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, _, err := executeCLI(t, "unfollow", "--account", "primary", "--yes", "--cap", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unfollowed: 1")
	assert.Contains(t, stdout, "stopped: daily cap reached")
	assert.Equal(t, []string{"3"}, fake.destroyedIDs())
}

func TestUnfollowCapPersistsAcrossInvocations(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)
	t.Setenv("IGF_UNFOLLOW_DAILY_CAP", "1")

	addPrimaryAccount(t)

	_, _, err := executeCLI(t, "unfollow", "--account", "primary", "--yes")
	require.NoError(t, err)
	require.Equal(t, []string{"3"}, fake.destroyedIDs())

	// Same day, fresh process: the ledger still counts the first action.
	stdout, _, err := executeCLI(t, "unfollow", "--account", "primary", "--yes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "stopped: daily cap reached")
	assert.Equal(t, []string{"3"}, fake.destroyedIDs())
}

func TestUnfollowLimitRestrictsBatch(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, _, err := executeCLI(t, "unfollow", "--account", "primary", "--yes", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unfollowed: 1")
	assert.Equal(t, []string{"3"}, fake.destroyedIDs())
}

func TestUnfollowTargetsSelectsNamedUsers(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, _, err := executeCLI(t, "unfollow", "--account", "primary", "--yes", "--targets", "dana")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unfollowed: 1")
	assert.Equal(t, []string{"4"}, fake.destroyedIDs())
}

func TestUnfollowTargetsIgnoresMutuals(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	// alice follows back, so she is never a candidate even when named.
	stdout, _, err := executeCLI(t, "unfollow", "--account", "primary", "--yes", "--targets", "alice")
	require.NoError(t, err)
	assert.Contains(t, stdout, "nothing to do")
	assert.Empty(t, fake.destroyedIDs())
}

func TestUnfollowUpfrontDeclineAborts(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	_, _, err := executeCLIWithInput(t, "n\n", "unfollow", "--account", "primary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
	assert.Empty(t, fake.destroyedIDs())
}

func TestUnfollowConfirmEachSkipsDeclined(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	addPrimaryAccount(t)

	stdout, _, err := executeCLIWithInput(t, "n\ny\n", "unfollow", "--account", "primary", "--yes", "--confirm")
	require.NoError(t, err)
	assert.Contains(t, stdout, "unfollowed: 1")
	assert.Contains(t, stdout, "skipped: 1")
	assert.Equal(t, []string{"4"}, fake.destroyedIDs())
}

func TestUnfollowRequiresAccountFlag(t *testing.T) {
	fake := newFakeInstagram(t)
	setupEnv(t, fake.server.URL)

	_, _, err := executeCLI(t, "unfollow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"account\" not set")
}
