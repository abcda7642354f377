package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/orchestrator"
	"github.com/sells-group/capcheck/internal/resilience"
)

// checkOptions are the flags shared by check and history rerun.
type checkOptions struct {
	Language   string
	SkipCache  bool
	Retries    int
	JSON       bool
	NoProgress bool
}

var checkOpts checkOptions

var checkCmd = &cobra.Command{
	Use:   "check <claim>",
	Short: "Verify a claim",
	Long:  "Verifies a claim over the streaming transport, falling back to a buffered request and then to offline analysis when the service is unavailable.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initClient(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.Close()

		opts := checkOpts
		if opts.Language == "" {
			opts.Language = cfg.Service.Language
		}
		return runCheck(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), env, strings.Join(args, " "), opts)
	},
}

// runCheck probes the service, verifies claim and prints the outcome.
// Terminal errors are retried up to opts.Retries times.
func runCheck(ctx context.Context, stdout, stderr io.Writer, env *clientEnv, claim string, opts checkOptions) error {
	skipCache := opts.SkipCache || env.History.SkipCache(ctx)
	req, err := model.NewVerificationRequest(claim, opts.Language, skipCache)
	if err != nil {
		return err
	}

	if conn := env.Session.Refresh(ctx, env.Prober); conn == model.ConnectivityUnreachable {
		_, _ = fmt.Fprintln(stderr, "Verification service unreachable, using offline analysis.")
	}

	var orchOpts []orchestrator.Option
	printer := newProgressPrinter(stderr)
	if !opts.NoProgress && !opts.JSON {
		orchOpts = append(orchOpts, orchestrator.WithProgress(printer.OnChange))
	}
	orch := env.orchestrator(orchOpts...)

	out, err := orch.Verify(ctx, req)
	for attempt := 1; err != nil && resilience.IsTerminal(err) && attempt <= opts.Retries; attempt++ {
		zap.L().Warn("check: retrying after service rejection",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		_, _ = fmt.Fprintf(stderr, "Service rejected the claim, retrying (%d/%d)\n", attempt, opts.Retries)
		printer.Reset()
		out, err = orch.Retry(ctx)
	}
	if err != nil {
		zap.L().Error("check: verification failed", zap.String("claim", req.Claim), zap.Error(err))
		return eris.Wrap(err, "check")
	}

	if opts.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Result)
	}
	formatOutcome(stdout, out)
	return nil
}

func addCheckFlags(cmd *cobra.Command, opts *checkOptions) {
	cmd.Flags().StringVar(&opts.Language, "language", "", "response language (default from config)")
	cmd.Flags().BoolVar(&opts.SkipCache, "skip-cache", false, "ask the service to bypass its result cache")
	cmd.Flags().IntVar(&opts.Retries, "retries", 0, "re-run the claim this many times after a service rejection")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.NoProgress, "no-progress", false, "do not print progress")
}

func init() {
	addCheckFlags(checkCmd, &checkOpts)
	rootCmd.AddCommand(checkCmd)
}
