package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage stored Instagram accounts",
	}

	cmd.AddCommand(
		newAccountAddCmd(app),
		newAccountRemoveCmd(app),
		newAccountListCmd(app),
	)

	return cmd
}

func newAccountAddCmd(app *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Log in and store an encrypted session for the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]

			if password == "" {
				var err error
				password, err = promptPassword(cmd, fmt.Sprintf("Password for @%s: ", username))
				if err != nil {
					return err
				}
			}

			session, err := app.accounts.Add(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Account @%s added (user id %d)\n", session.Username, session.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")

	return cmd
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove USERNAME",
		Short: "Forget the stored session for the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.accounts.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Account @%s removed\n", args[0])
			return nil
		},
	}
}

func newAccountListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			usernames, err := app.accounts.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(usernames) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No accounts stored. Run 'igf account add USERNAME' first.")
				return nil
			}

			for _, username := range usernames {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "@%s\n", username)
			}

			return nil
		},
	}
}
