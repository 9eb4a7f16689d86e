package github

import "time"

// RepoRef identifies one GitHub repository.
type RepoRef struct {
	Owner string
	Repo  string
}

// FullName returns the owner/repo form used in search qualifiers.
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Repo
}

// User identifies an actor. The zero value stands for an actor GitHub could
// not resolve (bots, deleted accounts, teams).
type User struct {
	Login     string
	URL       string
	AvatarURL string
}

// Known reports whether the user has a resolvable login.
func (u User) Known() bool {
	return u.Login != ""
}

// ReviewState is the submitted state of a pull request review.
type ReviewState string

const (
	ReviewApproved         ReviewState = "APPROVED"
	ReviewChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewCommented        ReviewState = "COMMENTED"
	ReviewDismissed        ReviewState = "DISMISSED"
	ReviewPending          ReviewState = "PENDING"
)

// TimelineEvent is one entry of a pull request timeline. The set of
// implementations is closed: ReviewRequested, Review, Merged and IssueComment.
type TimelineEvent interface {
	timelineEvent()
}

// ReviewRequested records that a reviewer was asked to review.
type ReviewRequested struct {
	At       time.Time
	Reviewer User
}

// Review records a submitted pull request review.
type Review struct {
	ID           string
	Author       User
	State        ReviewState
	CommentCount int
	HasBody      bool
	SubmittedAt  time.Time
}

// Merged records the merge of the pull request.
type Merged struct {
	Actor User
	At    time.Time
}

// IssueComment records a conversation comment. Author is nil when the
// comment came from an identity without a resolvable user.
type IssueComment struct {
	Author *User
	At     time.Time
}

func (ReviewRequested) timelineEvent() {}
func (Review) timelineEvent()          {}
func (Merged) timelineEvent()          {}
func (IssueComment) timelineEvent()    {}

// PullRequest is one merged pull request with its ordered timeline.
type PullRequest struct {
	Number      int
	URL         string
	Author      User
	PublishedAt time.Time
	MergedAt    time.Time
	Timeline    []TimelineEvent
}
