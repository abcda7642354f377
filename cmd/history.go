package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/capcheck/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage checked claims",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently checked claims, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initClient(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.Close()

		entries := env.History.List(ctx)
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No claims checked yet.")
			return nil
		}
		formatHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

// -- history clear --

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear history and badge progress",
	Long:  "Clears checked claims and badge progress. The next checks bypass the service cache until skip-cache is turned off.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initClient(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.Close()

		env.History.Clear(ctx)
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "History cleared. Skip-cache is on.")
		return nil
	},
}

// -- history skip-cache --

var historySkipCacheCmd = &cobra.Command{
	Use:       "skip-cache [on|off]",
	Short:     "Show or set the persisted skip-cache preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initClient(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) == 1 {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			env.History.SetSkipCache(ctx, on)
		}
		state := "off"
		if env.History.SkipCache(ctx) {
			state = "on"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "skip-cache: %s\n", state)
		return nil
	},
}

// -- history rerun --

var rerunOpts checkOptions

var historyRerunCmd = &cobra.Command{
	Use:   "rerun <n|claim>",
	Short: "Check a history entry again, by position or claim text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initClient(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.Close()

		claim, err := resolveRerunClaim(ctx, env.History, args[0])
		if err != nil {
			return err
		}

		opts := rerunOpts
		if opts.Language == "" {
			opts.Language = cfg.Service.Language
		}
		return runCheck(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), env, claim, opts)
	},
}

// resolveRerunClaim maps a 1-based history position or the text of a
// previously checked claim to the claim to check again.
func resolveRerunClaim(ctx context.Context, h *history.Reconciler, arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		entries := h.List(ctx)
		if n >= 1 && n <= len(entries) {
			return entries[n-1].Claim, nil
		}
		if _, ok := h.Find(ctx, arg); !ok {
			return "", eris.Errorf("history rerun: no entry at position %d (%d entries)", n, len(entries))
		}
	}
	e, ok := h.Find(ctx, arg)
	if !ok {
		return "", eris.Errorf("history rerun: %q is not in history", arg)
	}
	return e.Claim, nil
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, eris.Errorf("expected on or off, got %q", s)
	}
}

func init() {
	addCheckFlags(historyRerunCmd, &rerunOpts)

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historySkipCacheCmd)
	historyCmd.AddCommand(historyRerunCmd)
	rootCmd.AddCommand(historyCmd)
}
