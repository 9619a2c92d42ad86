package application

import "github.com/dmarceau/instagram-follower-cli/internal/domain"

// Stats is the read model the renderers consume.
type Stats struct {
	Account        string
	FollowerCount  int
	FollowingCount int
	Ratio          float64
	NonMutual      []domain.UserRef
}

func StatsFromSnapshot(snapshot domain.RelationshipSnapshot) Stats {
	return Stats{
		Account:        snapshot.Username,
		FollowerCount:  len(snapshot.Followers),
		FollowingCount: len(snapshot.Following),
		Ratio:          snapshot.Ratio(),
		NonMutual:      snapshot.NonMutual(),
	}
}
