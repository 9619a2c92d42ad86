package domain

import "strings"

// Policy is the exclusion rule set applied to unfollow candidates. It is a
// pure value: evaluating it has no side effects and permuting the candidate
// order cannot change which candidates survive.
type Policy struct {
	Whitelist       map[string]struct{}
	ExcludeVerified bool
	ExcludeBusiness bool
}

func NewPolicy(whitelist []string, excludeVerified, excludeBusiness bool) Policy {
	set := make(map[string]struct{}, len(whitelist))
	for _, username := range whitelist {
		trimmed := strings.TrimSpace(username)
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}

	return Policy{
		Whitelist:       set,
		ExcludeVerified: excludeVerified,
		ExcludeBusiness: excludeBusiness,
	}
}

// Excludes reports whether user must be removed from the candidate set.
func (p Policy) Excludes(user UserRef) bool {
	if _, ok := p.Whitelist[user.Username]; ok {
		return true
	}
	if p.ExcludeVerified && user.IsVerified {
		return true
	}
	if p.ExcludeBusiness && user.IsBusiness {
		return true
	}

	return false
}

// NeedsDetail reports whether applying the policy requires the per-user
// attribute fetch. Whitelist-only policies can skip it entirely.
func (p Policy) NeedsDetail() bool {
	return p.ExcludeVerified || p.ExcludeBusiness
}
