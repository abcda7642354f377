package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/capcheck/internal/orchestrator"
)

var exampleSkipCache bool

var exampleCmd = &cobra.Command{
	Use:   "example [id]",
	Short: "Run or list the example claims",
	Long:  "Runs a preset example claim. A precomputed verdict is shown if the live check does not finish in time. With no id, lists the examples.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		presets, err := orchestrator.Presets()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			formatPresets(cmd.OutOrStdout(), presets)
			return nil
		}

		p, ok := orchestrator.FindPreset(args[0])
		if !ok {
			return eris.Errorf("example: unknown example %q", args[0])
		}

		ctx := cmd.Context()
		env, err := initClient(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.Close()

		env.Session.Refresh(ctx, env.Prober)
		orch := env.orchestrator(orchestrator.WithProgress(newProgressPrinter(cmd.ErrOrStderr()).OnChange))
		// A canned result leaves the live run going. The process is about to
		// exit, so stop it and wait for it to release its connection.
		defer orch.Wait()

		skipCache := exampleSkipCache || env.History.SkipCache(ctx)
		out, err := orch.RunPreset(ctx, p, cfg.Service.Language, skipCache)
		if err != nil {
			return eris.Wrap(err, "example")
		}
		formatOutcome(cmd.OutOrStdout(), out)
		orch.Cancel()
		return nil
	},
}

func formatPresets(out io.Writer, presets []orchestrator.Preset) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCLAIM")
	for _, p := range presets {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Claim)
	}
	_ = w.Flush()
}

func init() {
	exampleCmd.Flags().BoolVar(&exampleSkipCache, "skip-cache", false, "ask the service to bypass its result cache")
	rootCmd.AddCommand(exampleCmd)
}
