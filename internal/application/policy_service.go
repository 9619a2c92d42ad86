package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/logger"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

// PolicyService applies the exclusion policy to a candidate set. The
// predicate itself lives in domain.Policy; this service only supplies the
// per-user attribute fetch the attribute rules need.
type PolicyService struct {
	social ports.SocialGraph
	log    *logger.Logger
}

func NewPolicyService(social ports.SocialGraph, log *logger.Logger) *PolicyService {
	if log == nil {
		log = logger.Nop()
	}

	return &PolicyService{social: social, log: log}
}

// Apply returns the candidates that survive the policy. Whitelist checks
// never hit the network. When attribute rules are active, each surviving
// candidate needs a detail fetch; a failed fetch excludes that candidate
// (fail-safe: better to keep following than to unfollow on unknown
// attributes) and filtering continues. Session expiry aborts, since every
// later fetch would fail the same way.
func (s *PolicyService) Apply(ctx context.Context, session *domain.Session, candidates []domain.UserRef, policy domain.Policy) ([]domain.UserRef, error) {
	log := s.log.WithAccount(session.Username)
	kept := make([]domain.UserRef, 0, len(candidates))

	for _, candidate := range candidates {
		if policy.Excludes(candidate) {
			log.Debug().Str("username", candidate.Username).Msg("candidate whitelisted or excluded by listing attributes")
			continue
		}

		if !policy.NeedsDetail() {
			kept = append(kept, candidate)
			continue
		}

		detail, err := s.social.UserDetail(ctx, session, candidate.ID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionExpired) {
				return nil, fmt.Errorf("fetch detail for %s: %w", candidate.Username, err)
			}
			log.Warn().Err(err).
				Str("username", candidate.Username).
				Int64("user_id", int64(candidate.ID)).
				Msg("detail fetch failed, excluding candidate")
			continue
		}

		if policy.Excludes(detail) {
			log.Debug().Str("username", detail.Username).Msg("candidate excluded by policy")
			continue
		}

		kept = append(kept, detail)
	}

	return kept, nil
}
