package domain

// RelationshipSnapshot holds a freshly fetched follower/following pair for
// one account. Snapshots are recomputed on every stats or unfollow request;
// a stale snapshot would make the non-mutual derivation wrong, so they are
// never persisted.
type RelationshipSnapshot struct {
	Username  string
	Followers []UserRef
	Following []UserRef
}

// NonMutual returns the accounts the user follows that do not follow back:
// following minus followers, compared by remote ID. Input order is
// preserved from the following list.
func (s RelationshipSnapshot) NonMutual() []UserRef {
	followers := make(map[UserID]struct{}, len(s.Followers))
	for _, user := range s.Followers {
		followers[user.ID] = struct{}{}
	}

	nonMutual := make([]UserRef, 0, len(s.Following))
	for _, user := range s.Following {
		if _, ok := followers[user.ID]; ok {
			continue
		}
		nonMutual = append(nonMutual, user)
	}

	return nonMutual
}

// Ratio returns followers/following, or 0 when the account follows nobody.
func (s RelationshipSnapshot) Ratio() float64 {
	if len(s.Following) == 0 {
		return 0
	}

	return float64(len(s.Followers)) / float64(len(s.Following))
}
