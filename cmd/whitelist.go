package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWhitelistCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the list of accounts that are never unfollowed",
	}

	cmd.AddCommand(
		newWhitelistListCmd(app),
		newWhitelistAddCmd(app),
		newWhitelistRemoveCmd(app),
	)

	return cmd
}

func newWhitelistListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List whitelisted usernames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			usernames, err := app.whitelist.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(usernames) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Whitelist is empty.")
				return nil
			}

			for _, username := range usernames {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "@%s\n", username)
			}

			return nil
		},
	}
}

func newWhitelistAddCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add USERNAME",
		Short: "Protect a username from being unfollowed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.whitelist.Add(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "@%s whitelisted\n", args[0])
			return nil
		},
	}
}

func newWhitelistRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove USERNAME",
		Short: "Remove a username from the whitelist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.whitelist.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "@%s removed from whitelist\n", args[0])
			return nil
		},
	}
}
