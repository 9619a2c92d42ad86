package application

import (
	"context"
	"fmt"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/logger"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

// CollectorService fetches the complete relationship sets for an account
// and derives the non-mutual candidates. Snapshots are always fresh; the
// service keeps no state between calls.
type CollectorService struct {
	social ports.SocialGraph
	log    *logger.Logger
}

func NewCollectorService(social ports.SocialGraph, log *logger.Logger) *CollectorService {
	if log == nil {
		log = logger.Nop()
	}

	return &CollectorService{social: social, log: log}
}

// Collect pages through both full lists. A session expiry mid-fetch
// propagates untouched so the caller can re-authenticate instead of acting
// on a half-fetched graph.
func (s *CollectorService) Collect(ctx context.Context, session *domain.Session) (domain.RelationshipSnapshot, error) {
	log := s.log.WithAccount(session.Username)

	log.Debug().Msg("fetching followers")
	followers, err := s.social.ListFollowers(ctx, session)
	if err != nil {
		return domain.RelationshipSnapshot{}, fmt.Errorf("fetch followers: %w", err)
	}
	log.Info().Int("count", len(followers)).Msg("followers fetched")

	log.Debug().Msg("fetching following")
	following, err := s.social.ListFollowing(ctx, session)
	if err != nil {
		return domain.RelationshipSnapshot{}, fmt.Errorf("fetch following: %w", err)
	}
	log.Info().Int("count", len(following)).Msg("following fetched")

	return domain.RelationshipSnapshot{
		Username:  session.Username,
		Followers: followers,
		Following: following,
	}, nil
}
