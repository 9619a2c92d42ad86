package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/logger"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

// UnfollowConfig is the safety envelope for a batch. Defaults mirror the
// pacing a careful human operator would use; the remote service penalizes
// anything burstier.
type UnfollowConfig struct {
	// DailyCap bounds successful actions per account per calendar day,
	// counted against the persisted ledger.
	DailyCap int

	// RetryBudget is the maximum attempts per target before the action is
	// abandoned for this run.
	RetryBudget int

	// DelayMin/DelayMax bound the randomized pause between consecutive
	// actions. Fixed intervals read as automation; uniform jitter does not.
	DelayMin time.Duration
	DelayMax time.Duration

	// TransientCooldown applies after a rate-limit or server-side failure.
	TransientCooldown time.Duration

	// GenericCooldown applies after any unclassified failure.
	GenericCooldown time.Duration
}

func DefaultUnfollowConfig() UnfollowConfig {
	return UnfollowConfig{
		DailyCap:          100,
		RetryBudget:       3,
		DelayMin:          30 * time.Second,
		DelayMax:          60 * time.Second,
		TransientCooldown: 2 * time.Minute,
		GenericCooldown:   time.Minute,
	}
}

func (c UnfollowConfig) validate() error {
	if c.DailyCap <= 0 {
		return errors.New("daily cap must be positive")
	}
	if c.RetryBudget <= 0 {
		return errors.New("retry budget must be positive")
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return errors.New("delay range is invalid")
	}

	return nil
}

// BatchReport is the outcome of one executor run. DailyCapReached is a
// normal stop, not an error; failed results carry the attempt count so the
// operator can retry manually.
type BatchReport struct {
	Account    string
	Results    []domain.ActionResult
	Succeeded  int
	Skipped    int
	Failed     int
	Untouched  int
	StopReason domain.StopReason
	DoneToday  int
}

// UnfollowService executes a candidate batch one action at a time, globally
// sequential, under the retry/backoff/cap policy.
type UnfollowService struct {
	social   ports.SocialGraph
	sessions ports.SessionRepository
	ledger   ports.ActionLedger
	clock    ports.Clock
	sleeper  ports.Sleeper
	confirm  ports.Confirmer
	log      *logger.Logger
	cfg      UnfollowConfig
	jitter   *rand.Rand
}

func NewUnfollowService(
	social ports.SocialGraph,
	sessions ports.SessionRepository,
	ledger ports.ActionLedger,
	clock ports.Clock,
	sleeper ports.Sleeper,
	confirm ports.Confirmer,
	cfg UnfollowConfig,
	log *logger.Logger,
) (*UnfollowService, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("unfollow config: %w", err)
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if sleeper == nil {
		sleeper = ports.TimerSleeper{}
	}
	if confirm == nil {
		confirm = ports.AutoApprove{}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &UnfollowService{
		social:   social,
		sessions: sessions,
		ledger:   ledger,
		clock:    clock,
		sleeper:  sleeper,
		confirm:  confirm,
		log:      log,
		cfg:      cfg,
		jitter:   rand.New(rand.NewSource(clock.Now().UnixNano())),
	}, nil
}

// Run unfollows the candidates in order until they are exhausted, the daily
// cap is reached, the context ends, or the session is lost beyond reload.
// Only the last case returns an error alongside the report.
func (s *UnfollowService) Run(ctx context.Context, session *domain.Session, candidates []domain.UserRef) (BatchReport, error) {
	log := s.log.WithAccount(session.Username)

	report := BatchReport{
		Account:    session.Username,
		Results:    make([]domain.ActionResult, 0, len(candidates)),
		StopReason: domain.StopCompleted,
	}
	if len(candidates) == 0 {
		report.StopReason = domain.StopNothingPending
		return report, nil
	}

	doneToday, err := s.ledger.CountForDay(ctx, session.Username, s.clock.Now())
	if err != nil {
		return report, fmt.Errorf("read action ledger: %w", err)
	}
	report.DoneToday = doneToday

	actedSinceDelay := false
	for index, candidate := range candidates {
		if report.DoneToday >= s.cfg.DailyCap {
			log.Info().Int("daily_cap", s.cfg.DailyCap).Msg("daily cap reached, stopping batch")
			report.StopReason = domain.StopDailyCap
			s.markUntouched(&report, candidates[index:])
			return report, nil
		}

		if err := ctx.Err(); err != nil {
			report.StopReason = domain.StopContextDone
			s.markUntouched(&report, candidates[index:])
			return report, nil
		}

		// Pace between remote actions, never before the first one.
		if actedSinceDelay {
			if err := s.sleeper.Sleep(ctx, s.pacingDelay()); err != nil {
				report.StopReason = domain.StopContextDone
				s.markUntouched(&report, candidates[index:])
				return report, nil
			}
		}

		approved, err := s.confirm.Confirm(ctx, candidate)
		if err != nil {
			report.StopReason = domain.StopContextDone
			s.markUntouched(&report, candidates[index:])
			return report, nil
		}
		if !approved {
			log.Info().Str("username", candidate.Username).Msg("operator declined, skipping")
			report.Skipped++
			report.Results = append(report.Results, domain.ActionResult{User: candidate, State: domain.ActionSkipped})
			// A decline costs neither budget nor cap, and no remote call
			// happened, so no pacing delay is owed.
			continue
		}

		result, fatal := s.runOne(ctx, log, session, candidate)
		actedSinceDelay = true
		report.Results = append(report.Results, result)

		switch result.State {
		case domain.ActionSucceeded:
			report.Succeeded++
			report.DoneToday++
		case domain.ActionFailed:
			report.Failed++
		}

		if fatal != nil {
			report.StopReason = domain.StopSessionLost
			s.markUntouched(&report, candidates[index+1:])
			return report, fatal
		}
	}

	return report, nil
}

// runOne drives one candidate through the retry state machine. The second
// return value is non-nil only for the unrecoverable case: session expired
// and the reload failed too.
func (s *UnfollowService) runOne(ctx context.Context, log *logger.Logger, session *domain.Session, candidate domain.UserRef) (domain.ActionResult, error) {
	result := domain.ActionResult{User: candidate}

	for result.Attempts < s.cfg.RetryBudget {
		result.Attempts++

		err := s.social.Unfollow(ctx, session, candidate.ID)
		if err == nil {
			result.State = domain.ActionSucceeded
			log.Info().
				Str("username", candidate.Username).
				Int64("user_id", int64(candidate.ID)).
				Int("attempts", result.Attempts).
				Msg("unfollowed")
			s.persistSuccess(ctx, log, session, candidate)
			return result, nil
		}

		result.Err = err
		log.Warn().Err(err).
			Str("username", candidate.Username).
			Int64("user_id", int64(candidate.ID)).
			Int("attempt", result.Attempts).
			Msg("unfollow attempt failed")

		switch {
		case errors.Is(err, domain.ErrSessionExpired):
			// Reload immediately instead of waiting out a cooldown; a
			// failed reload kills the whole batch.
			if reloadErr := s.social.Resume(ctx, session); reloadErr != nil {
				result.State = domain.ActionFailed
				return result, fmt.Errorf("session reload failed: %w", reloadErr)
			}
			log.Info().Msg("session reloaded")
		case domain.IsTransient(err):
			if sleepErr := s.sleeper.Sleep(ctx, s.cfg.TransientCooldown); sleepErr != nil {
				result.State = domain.ActionFailed
				return result, nil
			}
		default:
			if sleepErr := s.sleeper.Sleep(ctx, s.cfg.GenericCooldown); sleepErr != nil {
				result.State = domain.ActionFailed
				return result, nil
			}
		}
	}

	result.State = domain.ActionFailed
	log.Error().
		Str("username", candidate.Username).
		Int64("user_id", int64(candidate.ID)).
		Int("attempts", result.Attempts).
		Msg("retry budget exhausted, abandoning action for this run")

	return result, nil
}

// persistSuccess saves the rotated session and the ledger row. Neither
// failure undoes the remote unfollow, so both are logged rather than
// escalated; losing one action's worth of bookkeeping is the accepted
// worst case.
func (s *UnfollowService) persistSuccess(ctx context.Context, log *logger.Logger, session *domain.Session, candidate domain.UserRef) {
	if err := s.sessions.Update(ctx, *session); err != nil {
		log.Warn().Err(err).Msg("session persist after unfollow failed")
	}
	if err := s.ledger.Record(ctx, session.Username, candidate, s.clock.Now()); err != nil {
		log.Warn().Err(err).Msg("ledger record after unfollow failed")
	}
}

func (s *UnfollowService) markUntouched(report *BatchReport, rest []domain.UserRef) {
	for _, candidate := range rest {
		report.Untouched++
		report.Results = append(report.Results, domain.ActionResult{User: candidate, State: domain.ActionUntouched})
	}
}

func (s *UnfollowService) pacingDelay() time.Duration {
	spread := s.cfg.DelayMax - s.cfg.DelayMin
	if spread <= 0 {
		return s.cfg.DelayMin
	}

	return s.cfg.DelayMin + time.Duration(s.jitter.Int63n(int64(spread)))
}
