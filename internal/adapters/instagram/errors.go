package instagram

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

// classify maps an API response onto the error taxonomy. The remote service
// has opaque failure modes; anything that smells like throttling gets the
// transient class so the executor applies the long cooldown instead of
// giving up.
func classify(resp *resty.Response, status, message string) error {
	if resp.IsSuccess() && status != "fail" {
		return nil
	}

	lowered := strings.ToLower(message)

	switch {
	case strings.Contains(lowered, "login_required"),
		resp.StatusCode() == http.StatusUnauthorized:
		return domain.ErrSessionExpired
	case resp.StatusCode() == http.StatusTooManyRequests,
		resp.StatusCode() >= http.StatusInternalServerError,
		strings.Contains(lowered, "please wait"),
		strings.Contains(lowered, "rate limit"):
		return &domain.RemoteError{StatusCode: resp.StatusCode(), Message: message, Transient: true}
	default:
		return &domain.RemoteError{StatusCode: resp.StatusCode(), Message: message}
	}
}

// transportError wraps a request that never produced a definitive response.
// The outcome is unknown, so it must read as retryable, never as success.
func transportError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, &domain.RemoteError{Message: err.Error(), Transient: true})
}
