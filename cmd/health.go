package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/probe"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the verification service is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		client := checkapi.NewClient(checkapi.WithBaseURL(cfg.Service.BaseURL))

		conn := probe.NewProber(client, cfg.Service.ProbeTimeout).Probe(ctx)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cfg.Service.BaseURL, conn)

		if conn == model.ConnectivityUnreachable {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Checks will use offline analysis.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
