package report

import (
	"slices"
	"time"

	"github.com/johnqtcg/reviewstats/internal/stats"
)

var (
	reviewerColumnWidths    = []int{15, 9}
	pullRequestColumnWidths = []int{20, 6}
)

// ReviewerTable renders one row per reviewer, fastest median time to
// review first. Reviewers without samples follow in first-seen order.
func ReviewerTable(reviewers []*stats.ReviewerStats) string {
	header := []any{"login", "median time to review", "reviewed PRs", "comments", "approvals", "changes requested"}

	sorted := slices.Clone(reviewers)
	slices.SortStableFunc(sorted, compareByMedianTimeToReview)

	rows := make([][]any, 0, len(sorted))
	for _, reviewer := range sorted {
		rows = append(rows, []any{
			reviewer.User.Login,
			optionalDuration(reviewer.MedianTimeToReview()),
			reviewer.ReviewedPRs,
			reviewer.Comments,
			reviewer.Approvals(),
			reviewer.ChangesRequested(),
		})
	}
	return FormatTable(header, rows, reviewerColumnWidths)
}

func compareByMedianTimeToReview(a, b *stats.ReviewerStats) int {
	medianA, okA := a.MedianTimeToReview()
	medianB, okB := b.MedianTimeToReview()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	case medianA < medianB:
		return -1
	case medianA > medianB:
		return 1
	default:
		return 0
	}
}

// PullRequestTable renders min, max and median of time to merge, comments
// and reviews per pull request.
func PullRequestTable(res stats.Result) string {
	header := []any{"", "min", "max", "median"}

	timesToMerge := res.TimesToMerge()
	comments := res.CommentCounts()
	reviews := res.ReviewCounts()

	rows := [][]any{
		{
			"time to merge",
			optionalDuration(stats.Min(timesToMerge)),
			optionalDuration(stats.Max(timesToMerge)),
			optionalDuration(stats.MedianDuration(timesToMerge)),
		},
		{
			"comments per PR",
			optional(stats.Min(comments)),
			optional(stats.Max(comments)),
			optional(stats.Median(comments)),
		},
		{
			"reviews per PR",
			optional(stats.Min(reviews)),
			optional(stats.Max(reviews)),
			optional(stats.Median(reviews)),
		},
	}
	return FormatTable(header, rows, pullRequestColumnWidths)
}

func optionalDuration(d time.Duration, ok bool) any {
	if !ok {
		return nil
	}
	return FormatDuration(d)
}

func optional(v any, ok bool) any {
	if !ok {
		return nil
	}
	return v
}
