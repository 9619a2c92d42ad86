package domain

// UserID is the remote service's numeric identity. Usernames are mutable on
// the remote side; every set computation keys on UserID instead.
type UserID int64

// UserRef is an immutable snapshot of a remote user, fetched on demand and
// never cached beyond the operation that fetched it.
type UserRef struct {
	ID         UserID
	Username   string
	FullName   string
	IsVerified bool
	IsBusiness bool
}
