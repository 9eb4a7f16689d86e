// Package stats folds pull request timelines into per-reviewer and
// per-pull-request review metrics.
package stats

import (
	"time"

	gh "github.com/johnqtcg/reviewstats/internal/github"
)

// ReviewerStats accumulates review activity for one login across a batch.
type ReviewerStats struct {
	User          gh.User
	TimesToReview []time.Duration
	ReviewStates  []gh.ReviewState
	Comments      int
	ReviewedPRs   int
}

// MedianTimeToReview returns the median of the recorded samples.
func (r *ReviewerStats) MedianTimeToReview() (time.Duration, bool) {
	return MedianDuration(r.TimesToReview)
}

// Approvals counts APPROVED reviews.
func (r *ReviewerStats) Approvals() int {
	return r.countStates(gh.ReviewApproved)
}

// ChangesRequested counts CHANGES_REQUESTED reviews.
func (r *ReviewerStats) ChangesRequested() int {
	return r.countStates(gh.ReviewChangesRequested)
}

func (r *ReviewerStats) countStates(state gh.ReviewState) int {
	n := 0
	for _, s := range r.ReviewStates {
		if s == state {
			n++
		}
	}
	return n
}

// Reviewers is a login-keyed set of ReviewerStats that remembers the order
// in which logins were first seen.
type Reviewers struct {
	byLogin map[string]*ReviewerStats
	order   []string
}

// NewReviewers returns an empty set.
func NewReviewers() *Reviewers {
	return &Reviewers{byLogin: make(map[string]*ReviewerStats)}
}

// GetOrCreate returns the stats for user.Login, inserting empty stats on
// first sight. Identity fields keep the values from the first sighting.
func (r *Reviewers) GetOrCreate(user gh.User) *ReviewerStats {
	if stats, ok := r.byLogin[user.Login]; ok {
		return stats
	}
	stats := &ReviewerStats{User: user}
	r.byLogin[user.Login] = stats
	r.order = append(r.order, user.Login)
	return stats
}

// Get looks up stats by login.
func (r *Reviewers) Get(login string) (*ReviewerStats, bool) {
	stats, ok := r.byLogin[login]
	return stats, ok
}

// Len returns the number of distinct reviewers.
func (r *Reviewers) Len() int {
	return len(r.order)
}

// All returns the stats in first-seen order.
func (r *Reviewers) All() []*ReviewerStats {
	out := make([]*ReviewerStats, 0, len(r.order))
	for _, login := range r.order {
		out = append(out, r.byLogin[login])
	}
	return out
}

// PullRequestStats summarizes one merged pull request.
type PullRequestStats struct {
	Number int
	URL    string
	Author gh.User
	// TimeToMerge is valid only when MergeTimeKnown is true.
	TimeToMerge    time.Duration
	MergeTimeKnown bool
	Comments       int
	Reviews        int
}

// Result is the output of Aggregate.
type Result struct {
	Reviewers    *Reviewers
	PullRequests []PullRequestStats
}

// TimesToMerge returns the known time-to-merge values.
func (r Result) TimesToMerge() []time.Duration {
	out := make([]time.Duration, 0, len(r.PullRequests))
	for _, pr := range r.PullRequests {
		if pr.MergeTimeKnown {
			out = append(out, pr.TimeToMerge)
		}
	}
	return out
}

// CommentCounts returns the comment total of every pull request.
func (r Result) CommentCounts() []int {
	out := make([]int, 0, len(r.PullRequests))
	for _, pr := range r.PullRequests {
		out = append(out, pr.Comments)
	}
	return out
}

// ReviewCounts returns the review total of every pull request.
func (r Result) ReviewCounts() []int {
	out := make([]int, 0, len(r.PullRequests))
	for _, pr := range r.PullRequests {
		out = append(out, pr.Reviews)
	}
	return out
}

// Aggregate folds every pull request timeline, in order, into reviewer and
// pull request statistics. It never fails; events with missing data are
// skipped or leave samples unrecorded.
func Aggregate(prs []gh.PullRequest) Result {
	res := Result{
		Reviewers:    NewReviewers(),
		PullRequests: make([]PullRequestStats, 0, len(prs)),
	}
	for _, pr := range prs {
		res.PullRequests = append(res.PullRequests, aggregatePullRequest(res.Reviewers, pr))
	}
	return res
}

type prFold struct {
	reviewers    *Reviewers
	author       string
	pending      map[string]time.Time
	participants []string
	seen         map[string]bool
	out          PullRequestStats
}

func aggregatePullRequest(reviewers *Reviewers, pr gh.PullRequest) PullRequestStats {
	fold := &prFold{
		reviewers: reviewers,
		author:    pr.Author.Login,
		pending:   make(map[string]time.Time),
		seen:      make(map[string]bool),
		out: PullRequestStats{
			Number: pr.Number,
			URL:    pr.URL,
			Author: pr.Author,
		},
	}
	if !pr.PublishedAt.IsZero() && !pr.MergedAt.IsZero() {
		fold.out.TimeToMerge = pr.MergedAt.Sub(pr.PublishedAt)
		fold.out.MergeTimeKnown = true
	}

	for _, event := range pr.Timeline {
		switch e := event.(type) {
		case gh.ReviewRequested:
			fold.requested(e)
		case gh.Review:
			fold.reviewed(e)
		case gh.Merged:
			fold.merged(e)
		case gh.IssueComment:
			fold.commented(e)
		}
	}

	for _, login := range fold.participants {
		if stats, ok := reviewers.Get(login); ok {
			stats.ReviewedPRs++
		}
	}
	return fold.out
}

func (f *prFold) requested(e gh.ReviewRequested) {
	// Team requests have no login and can never be answered by a review.
	if !e.Reviewer.Known() {
		return
	}
	f.pending[e.Reviewer.Login] = e.At
}

func (f *prFold) reviewed(e gh.Review) {
	f.out.Comments += e.CommentCount
	if e.HasBody {
		f.out.Comments++
	}
	f.out.Reviews++

	if !e.Author.Known() {
		return
	}
	stats := f.reviewers.GetOrCreate(e.Author)
	stats.ReviewStates = append(stats.ReviewStates, e.State)
	stats.Comments += e.CommentCount
	f.resolve(stats, e.Author.Login, e.SubmittedAt)
	f.participate(e.Author.Login)
}

func (f *prFold) merged(e gh.Merged) {
	// Self-merges are not reviews.
	if !e.Actor.Known() || e.Actor.Login == f.author {
		return
	}
	stats := f.reviewers.GetOrCreate(e.Actor)
	f.resolve(stats, e.Actor.Login, e.At)
	f.participate(e.Actor.Login)
	f.out.Reviews++
}

func (f *prFold) commented(e gh.IssueComment) {
	if e.Author == nil || !e.Author.Known() || e.Author.Login == f.author {
		return
	}
	stats := f.reviewers.GetOrCreate(*e.Author)
	stats.Comments++
	f.out.Comments++
}

// resolve consumes the pending request for login, if any.
func (f *prFold) resolve(stats *ReviewerStats, login string, respondedAt time.Time) {
	requestedAt, ok := f.pending[login]
	if !ok {
		return
	}
	delete(f.pending, login)
	if d, ok := BusinessDuration(requestedAt, respondedAt); ok {
		stats.TimesToReview = append(stats.TimesToReview, d)
	}
}

func (f *prFold) participate(login string) {
	if f.seen[login] {
		return
	}
	f.seen[login] = true
	f.participants = append(f.participants, login)
}
