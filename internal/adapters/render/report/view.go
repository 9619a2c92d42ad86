package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmarceau/instagram-follower-cli/internal/application"
	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

type StatsOptions struct {
	// ListNonMutual adds the per-user candidate listing below the counters.
	ListNonMutual bool
}

// RenderStats renders the relationship overview for one or more accounts.
func RenderStats(stats []application.Stats, opts StatsOptions) (string, error) {
	return render(func(s styles) string {
		return renderStatsView(stats, opts, s)
	})
}

// RenderBatch renders the outcome of one unfollow run.
func RenderBatch(batch application.BatchReport) (string, error) {
	return render(func(s styles) string {
		return renderBatchView(batch, s)
	})
}

func renderStatsView(stats []application.Stats, opts StatsOptions, s styles) string {
	lines := []string{
		s.title.Render("Instagram Follower Overview"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(stats))),
	}

	if len(stats) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, st := range stats {
		lines = append(lines, s.section.Render(renderAccountStats(st, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderAccountStats(st application.Stats, opts StatsOptions, s styles) string {
	parts := []string{
		s.account.Render(fmt.Sprintf("@%s", st.Account)),
		s.detail.Render(fmt.Sprintf("followers: %d  following: %d  ratio: %.2f", st.FollowerCount, st.FollowingCount, st.Ratio)),
		mutualLine(st, s),
	}

	if len(st.NonMutual) == 0 {
		parts = append(parts, s.empty.Render("Everyone follows back."))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	parts = append(parts, s.warning.Render(fmt.Sprintf("%d accounts do not follow back", len(st.NonMutual))))

	if opts.ListNonMutual {
		for _, user := range st.NonMutual {
			parts = append(parts, s.detail.Render("  "+userLabel(user)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func mutualLine(st application.Stats, s styles) string {
	mutual := st.FollowingCount - len(st.NonMutual)
	percent := 0.0
	if st.FollowingCount > 0 {
		percent = 100 * float64(mutual) / float64(st.FollowingCount)
	}

	label := s.metricKey.Render("follow back:")
	bar := renderProgressBar(percent, 24, s)
	meta := s.metricMeta.Render(fmt.Sprintf("%3.0f%% (%d/%d)", percent, mutual, st.FollowingCount))

	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", bar, " ", meta)
}

func renderBatchView(batch application.BatchReport, s styles) string {
	lines := []string{
		s.title.Render(fmt.Sprintf("Unfollow run for @%s", batch.Account)),
		s.header.Render(stopLabel(batch.StopReason)),
	}

	summary := []string{
		s.success.Render(fmt.Sprintf("unfollowed: %d", batch.Succeeded)),
		s.detail.Render(fmt.Sprintf("skipped: %d", batch.Skipped)),
		s.failure.Render(fmt.Sprintf("failed: %d", batch.Failed)),
		s.detail.Render(fmt.Sprintf("untouched: %d", batch.Untouched)),
		s.metricMeta.Render(fmt.Sprintf("done today: %d", batch.DoneToday)),
	}
	lines = append(lines, strings.Join(summary, "  "))

	failed := failedResults(batch.Results)
	if len(failed) > 0 {
		lines = append(lines, s.section.Render(s.warning.Render("Failed targets (retry manually or on the next run):")))
		for _, result := range failed {
			detail := fmt.Sprintf("  %s after %d attempts", userLabel(result.User), result.Attempts)
			if result.Err != nil {
				detail += ": " + result.Err.Error()
			}
			lines = append(lines, s.failure.Render(detail))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func failedResults(results []domain.ActionResult) []domain.ActionResult {
	out := make([]domain.ActionResult, 0)
	for _, result := range results {
		if result.State == domain.ActionFailed {
			out = append(out, result)
		}
	}
	return out
}

func stopLabel(reason domain.StopReason) string {
	switch reason {
	case domain.StopCompleted:
		return "completed: all candidates processed"
	case domain.StopDailyCap:
		return "stopped: daily cap reached"
	case domain.StopSessionLost:
		return "aborted: session lost and could not be reloaded"
	case domain.StopContextDone:
		return "interrupted by the operator"
	case domain.StopNothingPending:
		return "nothing to do"
	default:
		return string(reason)
	}
}

func userLabel(user domain.UserRef) string {
	if user.FullName == "" {
		return fmt.Sprintf("@%s (%d)", user.Username, user.ID)
	}
	return fmt.Sprintf("@%s (%d) %s", user.Username, user.ID, user.FullName)
}

func renderProgressBar(percent float64, width int, s styles) string {
	percent = clampPercent(percent)
	filled := int(math.Round(float64(width) * percent / 100.0))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
