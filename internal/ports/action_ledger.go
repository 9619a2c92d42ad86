package ports

import (
	"context"
	"time"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

// ActionLedger persists completed unfollow actions so the daily cap holds
// across process restarts, not just within one run.
type ActionLedger interface {
	// Record stores one successful unfollow.
	Record(ctx context.Context, account string, target domain.UserRef, at time.Time) error

	// CountForDay returns how many unfollows account already completed on
	// the calendar day containing at.
	CountForDay(ctx context.Context, account string, at time.Time) (int, error)
}
