package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/sells-group/capcheck/internal/gamification"
	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/orchestrator"
	"github.com/sells-group/capcheck/internal/progress"
	"github.com/sells-group/capcheck/internal/transport"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

// formatOutcome writes a settled verification to w.
func formatOutcome(w io.Writer, out *orchestrator.Outcome) {
	res := out.Result
	_, _ = fmt.Fprintf(w, "\n%s\n", res.Verdict.Label())
	_, _ = fmt.Fprintf(w, "Claim:       %s\n", res.ClaimEcho)
	_, _ = fmt.Fprintf(w, "Verdict:     %s (%d%% confidence)\n", res.Verdict, res.ConfidencePercent)
	_, _ = fmt.Fprintf(w, "Sources:     %d checked in %s\n", res.SourcesCheckedCount, res.ProcessingTime)
	if res.Severity != "" {
		_, _ = fmt.Fprintf(w, "Severity:    %s\n", res.Severity)
	}
	_, _ = fmt.Fprintf(w, "Via:         %s%s\n", out.Transport, cachedSuffix(res.Cached))
	if out.Transport == transport.KindSimulated {
		_, _ = fmt.Fprintln(w, "             (offline analysis, the verification service was unreachable)")
	}
	if res.Explanation != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", res.Explanation)
	}
	if res.ExplanationAlt != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", res.ExplanationAlt)
	}
	if res.Correction != "" {
		_, _ = fmt.Fprintf(w, "\nCorrection: %s\n", res.Correction)
	}
	if len(res.Evidence) > 0 {
		_, _ = fmt.Fprintln(w, "\nEvidence:")
		for i, ev := range res.Evidence {
			label := ev.ReliabilityLabel()
			if label != "" {
				label = " [" + label + "]"
			}
			_, _ = fmt.Fprintf(w, "  %d. %s%s\n", i+1, ev.Source, label)
			if ev.Snippet != "" {
				_, _ = fmt.Fprintf(w, "     %s\n", ev.Snippet)
			}
			if ev.URL != "" {
				_, _ = fmt.Fprintf(w, "     %s\n", ev.URL)
			}
		}
	}
}

func cachedSuffix(cached bool) string {
	if cached {
		return " (cached)"
	}
	return ""
}

// formatHistory writes a tabular list of history entries to out.
func formatHistory(out io.Writer, entries []model.HistoryEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tVERDICT\tCONF\tCHECKED\tCLAIM")
	for i, e := range entries {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d%%\t%s\t%s\n",
			i+1, e.Verdict, e.ConfidencePercent, e.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(e.Claim, 60))
	}
	_ = w.Flush()
}

// formatTrending writes a trending listing to out.
func formatTrending(out io.Writer, resp *checkapi.TrendingResponse, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERDICT\tCONF\tCATEGORY\tCHECKS\tAGE\tCLAIM")
	for _, c := range resp.Claims {
		_, _ = fmt.Fprintf(w, "%s\t%d%%\t%s\t%d\t%s\t%s\n",
			c.Verdict, c.Confidence, c.Category, c.CheckedCount, ago(now.Sub(c.CheckedAt)), truncate(c.Claim, 60))
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d claims. Categories: %s\n", resp.Total, strings.Join(resp.Categories, ", "))
}

// formatBadges writes the counter state and the badge catalogue to out.
func formatBadges(out io.Writer, st gamification.State, earned []gamification.Badge, next gamification.Badge, hasNext bool, pct float64) {
	_, _ = fmt.Fprintf(out, "Claims checked: %d\n", st.ClaimsChecked)
	_, _ = fmt.Fprintf(out, "Streak:         %d\n", st.Streak)
	_, _ = fmt.Fprintf(out, "Fact score:     %d\n\n", st.FactScore)

	unlocked := make(map[string]bool, len(earned))
	for _, b := range earned {
		unlocked[b.ID] = true
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, b := range gamification.Badges {
		mark := "  "
		if unlocked[b.ID] {
			mark = b.Icon
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", mark, b.Name, b.Requirement, b.Description)
	}
	_ = w.Flush()

	if hasNext {
		_, _ = fmt.Fprintf(out, "\nNext: %s %s (%.0f%%)\n", next.Icon, next.Name, pct)
	}
}

func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// progressPrinter writes stage and source changes as they happen.
type progressPrinter struct {
	w io.Writer

	mu      sync.Mutex
	started bool
	stage   progress.Stage
	message string
	sources map[string]model.SourceStatus
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, sources: make(map[string]model.SourceStatus)}
}

// Reset forgets what was printed before a retry.
func (p *progressPrinter) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = false
	p.sources = make(map[string]model.SourceStatus)
}

// OnChange is passed to orchestrator.WithProgress.
func (p *progressPrinter) OnChange(s progress.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || s.Stage != p.stage || s.Message != p.message {
		p.started = true
		p.stage = s.Stage
		p.message = s.Message
		line := fmt.Sprintf("[%3ds] %s", s.ElapsedSeconds, s.Stage)
		if s.Message != "" {
			line += ": " + s.Message
		}
		_, _ = fmt.Fprintln(p.w, line)
	}
	for _, src := range s.Sources {
		if p.sources[src.Source] == src.Status {
			continue
		}
		p.sources[src.Source] = src.Status
		switch src.Status {
		case model.SourceFound:
			_, _ = fmt.Fprintf(p.w, "       ✓ %s (%d found)\n", src.Source, src.Count)
		default:
			_, _ = fmt.Fprintf(p.w, "       … %s\n", src.Source)
		}
	}
}
