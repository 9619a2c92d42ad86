package ports

import (
	"context"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

// Confirmer gates individual unfollow actions. The interactive
// implementation blocks on operator input; AutoApprove runs unattended.
type Confirmer interface {
	Confirm(ctx context.Context, user domain.UserRef) (bool, error)
}

type AutoApprove struct{}

func (AutoApprove) Confirm(context.Context, domain.UserRef) (bool, error) {
	return true, nil
}
