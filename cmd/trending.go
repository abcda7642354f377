package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/capcheck/internal/trending"
)

var (
	trendingCategory string
	trendingJSON     bool
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List trending claims",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initClient(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.Close()

		resp, src := env.trendingService().List(ctx, trendingCategory)
		if src == trending.SourceMock {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Trending service unavailable, showing sample claims.")
		}

		if trendingJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		formatTrending(cmd.OutOrStdout(), resp, time.Now())
		return nil
	},
}

func init() {
	trendingCmd.Flags().StringVar(&trendingCategory, "category", trending.AllCategories, "category to list")
	trendingCmd.Flags().BoolVar(&trendingJSON, "json", false, "print the listing as JSON")
	rootCmd.AddCommand(trendingCmd)
}
