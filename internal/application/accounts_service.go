package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/logger"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

// AccountService owns the in-memory account registry. It is the single
// source of truth for which accounts are currently manageable; the session
// store only holds their at-rest form.
type AccountService struct {
	social   ports.SocialGraph
	sessions ports.SessionRepository
	clock    ports.Clock
	log      *logger.Logger
}

func NewAccountService(social ports.SocialGraph, sessions ports.SessionRepository, clock ports.Clock, log *logger.Logger) *AccountService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &AccountService{
		social:   social,
		sessions: sessions,
		clock:    clock,
		log:      log,
	}
}

// Restore loads the session store and probes every entry. Entries whose
// probe fails are dropped with a warning; the pruned set is persisted so the
// dead sessions do not come back next run. Per-account failures never abort
// the restore.
func (s *AccountService) Restore(ctx context.Context) (map[string]domain.Session, error) {
	stored, err := s.sessions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session store: %w", err)
	}

	alive := make(map[string]domain.Session, len(stored))
	dropped := false
	for username, session := range stored {
		if err := s.social.Resume(ctx, &session); err != nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s.log.Warn().Err(err).Str("account", username).Msg("stored session no longer valid, dropping; login required")
			dropped = true
			continue
		}
		alive[username] = session
	}

	if dropped {
		if err := s.sessions.Save(ctx, alive); err != nil {
			return nil, fmt.Errorf("persist pruned session store: %w", err)
		}
	}

	return alive, nil
}

// Add authenticates username and persists the resulting session. A stored
// session for the same username is tried first so a re-add after a partial
// wipe does not burn a fresh login.
func (s *AccountService) Add(ctx context.Context, username, password string) (domain.Session, error) {
	stored, err := s.sessions.Load(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session store: %w", err)
	}

	if existing, ok := stored[username]; ok {
		if err := s.social.Resume(ctx, &existing); err == nil {
			s.log.Info().Str("account", username).Msg("reusing stored session")
			existing.SavedAt = s.clock.Now()
			if err := s.sessions.Update(ctx, existing); err != nil {
				return domain.Session{}, fmt.Errorf("persist session: %w", err)
			}
			return existing, nil
		}
		s.log.Warn().Str("account", username).Msg("stored session stale, performing fresh login")
	}

	session, err := s.social.Authenticate(ctx, username, password)
	if err != nil {
		// No state mutated: the caller gets the failure and the store
		// keeps whatever it had.
		return domain.Session{}, fmt.Errorf("login %s: %w", username, err)
	}

	session.SavedAt = s.clock.Now()
	if err := s.sessions.Update(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("persist session: %w", err)
	}

	s.log.Info().Str("account", username).Int64("user_id", int64(session.UserID)).Msg("account added")
	return session, nil
}

// Remove drops the account and persists. Reports ErrAccountNotFound when no
// such session exists.
func (s *AccountService) Remove(ctx context.Context, username string) error {
	stored, err := s.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session store: %w", err)
	}

	if _, ok := stored[username]; !ok {
		return fmt.Errorf("%q: %w", username, domain.ErrAccountNotFound)
	}

	delete(stored, username)
	if err := s.sessions.Save(ctx, stored); err != nil {
		return fmt.Errorf("persist session store: %w", err)
	}

	s.log.Info().Str("account", username).Msg("account removed")
	return nil
}

// List returns the stored account usernames in stable order, without
// probing them.
func (s *AccountService) List(ctx context.Context) ([]string, error) {
	stored, err := s.sessions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session store: %w", err)
	}

	usernames := make([]string, 0, len(stored))
	for username := range stored {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	return usernames, nil
}

// Get returns the stored session for username after verifying it still
// works, resuming it if the remote side rotated tokens since the last save.
func (s *AccountService) Get(ctx context.Context, username string) (domain.Session, error) {
	stored, err := s.sessions.Load(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session store: %w", err)
	}

	session, ok := stored[username]
	if !ok {
		return domain.Session{}, fmt.Errorf("%q: %w", username, domain.ErrAccountNotFound)
	}

	if err := s.social.Resume(ctx, &session); err != nil {
		return domain.Session{}, fmt.Errorf("resume %s: %w", username, err)
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("persist session: %w", err)
	}

	return session, nil
}
