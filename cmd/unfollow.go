package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

var errAborted = errors.New("aborted")

func newUnfollowCmd(app *app) *cobra.Command {
	var account string
	var capOverride int
	var limit int
	var targets []string
	var excludeVerified bool
	var excludeBusiness bool
	var dryRun bool
	var confirmEach bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "unfollow",
		Short: "Unfollow accounts that do not follow back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.accounts.Get(cmd.Context(), account)
			if err != nil {
				return err
			}

			candidates, snapshot, err := buildCandidates(cmd, app, &session, excludeVerified, excludeBusiness)
			if err != nil {
				return err
			}

			candidates = selectTargets(candidates, targets)
			if limit > 0 && len(candidates) > limit {
				candidates = candidates[:limit]
			}

			if dryRun {
				return printDryRun(cmd, candidates)
			}

			if len(candidates) > 0 && !yes {
				proceed, err := promptYesNo(cmd, fmt.Sprintf("Unfollow up to %d accounts as @%s?", len(candidates), session.Username))
				if err != nil {
					return err
				}
				if !proceed {
					return errAborted
				}
			}

			if len(candidates) > 0 {
				// Backup of the full following list before anything changes,
				// so a bad run can be undone by hand.
				path, err := app.exporter.WriteFollowing(session.Username, snapshot.Following, app.now())
				if err != nil {
					return fmt.Errorf("write following backup: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Following list backed up to %s\n", path)
			}

			unfollowCfg := app.cfg.Unfollow
			if capOverride > 0 {
				unfollowCfg.DailyCap = capOverride
			}

			var confirmer ports.Confirmer = ports.AutoApprove{}
			if confirmEach {
				confirmer = newInteractiveConfirmer(cmd)
			}

			service, err := app.newUnfollowService(unfollowCfg, confirmer)
			if err != nil {
				return err
			}

			batch, runErr := service.Run(cmd.Context(), &session, candidates)

			rendered, err := app.batchRenderer(batch)
			if err != nil {
				return fmt.Errorf("render batch report: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rendered)

			return runErr
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account username")
	cmd.Flags().IntVar(&capOverride, "cap", 0, "Override the daily unfollow cap for this run")
	cmd.Flags().IntVar(&limit, "limit", 0, "Only act on the first N candidates")
	cmd.Flags().StringSliceVar(&targets, "targets", nil, "Only act on the named usernames")
	cmd.Flags().BoolVar(&excludeVerified, "exclude-verified", false, "Never unfollow verified accounts")
	cmd.Flags().BoolVar(&excludeBusiness, "exclude-business", false, "Never unfollow business accounts")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be unfollowed without acting")
	cmd.Flags().BoolVar(&confirmEach, "confirm", false, "Ask before every single unfollow")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the upfront confirmation")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

// buildCandidates fetches a fresh snapshot, derives the non-mutual set and
// applies the whitelist and attribute exclusions.
func buildCandidates(cmd *cobra.Command, app *app, session *domain.Session, excludeVerified, excludeBusiness bool) ([]domain.UserRef, domain.RelationshipSnapshot, error) {
	whitelisted, err := app.whitelist.List(cmd.Context())
	if err != nil {
		return nil, domain.RelationshipSnapshot{}, fmt.Errorf("load whitelist: %w", err)
	}
	policy := domain.NewPolicy(whitelisted, excludeVerified, excludeBusiness)

	var snapshot domain.RelationshipSnapshot
	label := fmt.Sprintf("Fetching relationships for @%s...", session.Username)
	err = runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), label, func(ctx context.Context) error {
		var fetchErr error
		snapshot, fetchErr = app.collector.Collect(ctx, session)
		return fetchErr
	})
	if err != nil {
		return nil, domain.RelationshipSnapshot{}, err
	}

	candidates, err := app.policy.Apply(cmd.Context(), session, snapshot.NonMutual(), policy)
	if err != nil {
		return nil, domain.RelationshipSnapshot{}, err
	}

	return candidates, snapshot, nil
}

// selectTargets narrows candidates to the named usernames. Names that are
// not candidates are silently ignored; they are either mutual or excluded.
func selectTargets(candidates []domain.UserRef, targets []string) []domain.UserRef {
	if len(targets) == 0 {
		return candidates
	}

	wanted := make(map[string]struct{}, len(targets))
	for _, name := range targets {
		wanted[strings.TrimPrefix(strings.TrimSpace(name), "@")] = struct{}{}
	}

	selected := make([]domain.UserRef, 0, len(targets))
	for _, candidate := range candidates {
		if _, ok := wanted[candidate.Username]; ok {
			selected = append(selected, candidate)
		}
	}

	return selected
}

func printDryRun(cmd *cobra.Command, candidates []domain.UserRef) error {
	if len(candidates) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Nothing to unfollow.")
		return nil
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Would unfollow %d accounts:\n", len(candidates))
	for _, candidate := range candidates {
		if candidate.FullName != "" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  @%s (%s)\n", candidate.Username, candidate.FullName)
			continue
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  @%s\n", candidate.Username)
	}

	return nil
}
