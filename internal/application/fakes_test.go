package application

import (
	"context"
	"time"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

// Hand-written port fakes. The generated-mock package used elsewhere adds
// nothing over these for sequential, scripted interactions.

type fakeSocial struct {
	authFn     func(ctx context.Context, username, password string) (domain.Session, error)
	resumeErr  error
	followers  []domain.UserRef
	following  []domain.UserRef
	listErr    error
	detailFn   func(id domain.UserID) (domain.UserRef, error)
	unfollowFn func(call int, session *domain.Session, id domain.UserID) error

	resumeCalls   int
	detailCalls   []domain.UserID
	unfollowCalls []domain.UserID
}

func (f *fakeSocial) Authenticate(ctx context.Context, username, password string) (domain.Session, error) {
	if f.authFn != nil {
		return f.authFn(ctx, username, password)
	}
	return domain.Session{Username: username, UserID: 1, SessionToken: "tok"}, nil
}

func (f *fakeSocial) Resume(_ context.Context, session *domain.Session) error {
	f.resumeCalls++
	if f.resumeErr != nil {
		return f.resumeErr
	}
	session.SessionToken = "resumed-" + session.Username
	return nil
}

func (f *fakeSocial) ListFollowers(context.Context, *domain.Session) ([]domain.UserRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.followers, nil
}

func (f *fakeSocial) ListFollowing(context.Context, *domain.Session) ([]domain.UserRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.following, nil
}

func (f *fakeSocial) UserDetail(_ context.Context, _ *domain.Session, id domain.UserID) (domain.UserRef, error) {
	f.detailCalls = append(f.detailCalls, id)
	if f.detailFn != nil {
		return f.detailFn(id)
	}
	return domain.UserRef{ID: id}, nil
}

func (f *fakeSocial) Unfollow(_ context.Context, session *domain.Session, id domain.UserID) error {
	f.unfollowCalls = append(f.unfollowCalls, id)
	if f.unfollowFn != nil {
		return f.unfollowFn(len(f.unfollowCalls), session, id)
	}
	return nil
}

type fakeSessions struct {
	stored  map[string]domain.Session
	loadErr error
	saveErr error

	saves   int
	updates []domain.Session
}

func (f *fakeSessions) Load(context.Context) (map[string]domain.Session, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make(map[string]domain.Session, len(f.stored))
	for username, session := range f.stored {
		out[username] = session
	}
	return out, nil
}

func (f *fakeSessions) Save(_ context.Context, sessions map[string]domain.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.stored = sessions
	return nil
}

func (f *fakeSessions) Update(_ context.Context, session domain.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.updates = append(f.updates, session)
	if f.stored == nil {
		f.stored = map[string]domain.Session{}
	}
	f.stored[session.Username] = session
	return nil
}

type ledgerEntry struct {
	account string
	target  domain.UserRef
	day     string
}

type fakeLedger struct {
	entries  []ledgerEntry
	countErr error
}

func (f *fakeLedger) Record(_ context.Context, account string, target domain.UserRef, at time.Time) error {
	f.entries = append(f.entries, ledgerEntry{account: account, target: target, day: at.Format("2006-01-02")})
	return nil
}

func (f *fakeLedger) CountForDay(_ context.Context, account string, at time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	day := at.Format("2006-01-02")
	count := 0
	for _, entry := range f.entries {
		if entry.account == account && entry.day == day {
			count++
		}
	}
	return count, nil
}

type fakeSleeper struct {
	slept []time.Duration
	err   error
}

func (f *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.slept = append(f.slept, d)
	return nil
}

type fakeConfirmer struct {
	decisions map[domain.UserID]bool
	calls     int
}

func (f *fakeConfirmer) Confirm(_ context.Context, user domain.UserRef) (bool, error) {
	f.calls++
	if decision, ok := f.decisions[user.ID]; ok {
		return decision, nil
	}
	return true, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}
