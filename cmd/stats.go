package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dmarceau/instagram-follower-cli/internal/adapters/render/report"
	"github.com/dmarceau/instagram-follower-cli/internal/application"
	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

func newStatsCmd(app *app) *cobra.Command {
	var account string
	var listNonMutual bool
	var exportCSV bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show follower/following counts and non-mutual accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshots, err := collectSnapshots(cmd, app, account)
			if err != nil {
				return err
			}

			stats := make([]application.Stats, 0, len(snapshots))
			for _, snapshot := range snapshots {
				stats = append(stats, application.StatsFromSnapshot(snapshot))
			}

			if exportCSV {
				for _, snapshot := range snapshots {
					path, err := app.exporter.WriteFollowing(snapshot.Username, snapshot.Following, app.now())
					if err != nil {
						return fmt.Errorf("export following list: %w", err)
					}
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Exported following list for @%s to %s\n", snapshot.Username, path)
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			rendered, err := app.statsRenderer(stats, report.StatsOptions{ListNonMutual: listNonMutual})
			if err != nil {
				return fmt.Errorf("render stats: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account username (default: all stored accounts)")
	cmd.Flags().BoolVar(&listNonMutual, "list", false, "List every account that does not follow back")
	cmd.Flags().BoolVar(&exportCSV, "export", false, "Write the full following list to a CSV file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

// collectSnapshots resolves which accounts to inspect and fetches a fresh
// relationship snapshot for each behind a spinner.
func collectSnapshots(cmd *cobra.Command, app *app, account string) ([]domain.RelationshipSnapshot, error) {
	sessions, err := resolveSessions(cmd.Context(), app, account)
	if err != nil {
		return nil, err
	}

	snapshots := make([]domain.RelationshipSnapshot, 0, len(sessions))
	for i := range sessions {
		session := &sessions[i]

		var snapshot domain.RelationshipSnapshot
		label := fmt.Sprintf("Fetching relationships for @%s...", session.Username)
		err := runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), label, func(ctx context.Context) error {
			var fetchErr error
			snapshot, fetchErr = app.collector.Collect(ctx, session)
			return fetchErr
		})
		if err != nil {
			return nil, err
		}

		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

func resolveSessions(ctx context.Context, app *app, account string) ([]domain.Session, error) {
	if account != "" {
		session, err := app.accounts.Get(ctx, account)
		if err != nil {
			return nil, err
		}
		return []domain.Session{session}, nil
	}

	alive, err := app.accounts.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if len(alive) == 0 {
		return nil, fmt.Errorf("no usable accounts: %w", domain.ErrAccountNotFound)
	}

	usernames := make([]string, 0, len(alive))
	for username := range alive {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	sessions := make([]domain.Session, 0, len(usernames))
	for _, username := range usernames {
		sessions = append(sessions, alive[username])
	}

	return sessions, nil
}
