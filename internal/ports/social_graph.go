package ports

import (
	"context"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

// SocialGraph is the remote social-graph service. Any conforming
// implementation is substitutable; the application layer never talks to the
// network directly.
//
// Session-mutating calls take a *domain.Session so the adapter can rotate
// tokens in place; callers are responsible for persisting the updated
// session afterwards.
type SocialGraph interface {
	// Authenticate performs a fresh username/password login and returns a
	// working session. Bad credentials yield domain.ErrAuthFailure.
	Authenticate(ctx context.Context, username, password string) (domain.Session, error)

	// Resume replays a stored session and verifies it with a lightweight
	// authenticated probe. An invalid or expired session yields
	// domain.ErrSessionExpired.
	Resume(ctx context.Context, session *domain.Session) error

	// ListFollowers pages through the complete follower set.
	ListFollowers(ctx context.Context, session *domain.Session) ([]domain.UserRef, error)

	// ListFollowing pages through the complete following set.
	ListFollowing(ctx context.Context, session *domain.Session) ([]domain.UserRef, error)

	// UserDetail fetches the attribute flags (verified, business) for one
	// user.
	UserDetail(ctx context.Context, session *domain.Session, id domain.UserID) (domain.UserRef, error)

	// Unfollow removes the follow edge to id. The call is atomic from the
	// caller's point of view: an error means no remote state changed.
	Unfollow(ctx context.Context, session *domain.Session, id domain.UserID) error
}
