package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "igf",
		Short:         "Instagram follower CLI (igf): find and unfollow accounts that do not follow back",
		Long:          "igf manages Instagram sessions, inspects follower/following relationships, and unfollows non-mutual accounts under a whitelist, attribute exclusions and a persistent daily cap.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.Close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newWhitelistCmd(app),
		newStatsCmd(app),
		newUnfollowCmd(app),
	)

	return rootCmd
}
