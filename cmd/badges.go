package main

import (
	"github.com/spf13/cobra"
)

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "Show badge progress",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initClient(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.Close()

		next, ok := env.Badges.NextBadge(ctx)
		formatBadges(cmd.OutOrStdout(), env.Badges.State(ctx), env.Badges.Unlocked(ctx), next, ok, env.Badges.Progress(ctx))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(badgesCmd)
}
