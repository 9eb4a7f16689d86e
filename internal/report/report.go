// Package report renders aggregated review statistics as plain-text tables.
package report

import (
	"fmt"
	"strings"

	"github.com/johnqtcg/reviewstats/internal/stats"
)

// Report is the rendered output of one run for one repository.
type Report struct {
	Repository       string
	TimeDiff         string
	TotalMerged      int
	ReviewerTable    string
	PullRequestTable string
	PullRequests     []stats.PullRequestStats
}

// Build renders the reviewer and pull request tables for res.
func Build(repository, timeDiff string, res stats.Result) Report {
	return Report{
		Repository:       repository,
		TimeDiff:         timeDiff,
		TotalMerged:      len(res.PullRequests),
		ReviewerTable:    ReviewerTable(res.Reviewers.All()),
		PullRequestTable: PullRequestTable(res),
		PullRequests:     res.PullRequests,
	}
}

// Text renders the console summary. The repository is named only when set.
func (r Report) Text() string {
	var b strings.Builder

	if r.Repository != "" {
		fmt.Fprintf(&b, "Stats for %s for last %s\n", r.Repository, r.TimeDiff)
	} else {
		fmt.Fprintf(&b, "Stats for last %s\n", r.TimeDiff)
	}
	b.WriteString("Reviewer stats\n")
	b.WriteString(r.ReviewerTable)
	b.WriteString("\nPR stats\n")
	fmt.Fprintf(&b, "Total %d PRs merged\n", r.TotalMerged)
	b.WriteString(r.PullRequestTable)
	b.WriteString("\n")

	return b.String()
}

// Debug renders one block per pull request read.
func (r Report) Debug() string {
	var b strings.Builder

	b.WriteString("DEBUG\n")
	b.WriteString("Read following PRs\n")
	for _, pr := range r.PullRequests {
		fmt.Fprintf(&b, "#%d %s\n", pr.Number, pr.URL)
		fmt.Fprintf(&b, "- author: %s\n", pr.Author.Login)
		fmt.Fprintf(&b, "- comments: %d\n", pr.Comments)
		fmt.Fprintf(&b, "- reviews: %d\n", pr.Reviews)
		timeToMerge := Placeholder
		if pr.MergeTimeKnown {
			timeToMerge = FormatDuration(pr.TimeToMerge)
		}
		fmt.Fprintf(&b, "- time to merge: %s\n", timeToMerge)
	}

	return b.String()
}
