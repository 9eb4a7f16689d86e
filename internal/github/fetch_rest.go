package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	goGithub "github.com/google/go-github/v68/github"
)

func (f *fetcher) searchMergedREST(ctx context.Context, q Query) ([]PullRequest, error) {
	numbers, err := f.rest.searchIssueNumbers(ctx, mergedSearchQuery(q))
	if err != nil {
		return nil, fmt.Errorf("search merged pull requests: %w", err)
	}

	prs := make([]PullRequest, 0, len(numbers))
	for _, number := range numbers {
		pr, err := f.fetchPullRequestREST(ctx, q.Repo, number)
		if err != nil {
			return nil, fmt.Errorf("fetch pull request #%d: %w", number, err)
		}
		prs = append(prs, pr)
	}
	return prs, nil
}

func (f *fetcher) fetchPullRequestREST(ctx context.Context, repo RepoRef, number int) (PullRequest, error) {
	pr, err := f.rest.getPullRequest(ctx, repo.Owner, repo.Repo, number)
	if err != nil {
		return PullRequest{}, fmt.Errorf("fetch pull request resource: %w", err)
	}

	events, err := f.rest.listTimeline(ctx, repo.Owner, repo.Repo, number)
	if err != nil {
		return PullRequest{}, fmt.Errorf("fetch pull request timeline: %w", err)
	}

	comments, err := f.rest.listPullRequestComments(ctx, repo.Owner, repo.Repo, number)
	if err != nil {
		return PullRequest{}, fmt.Errorf("fetch pull request review comments: %w", err)
	}

	out := PullRequest{
		Number:      pr.GetNumber(),
		URL:         pr.GetHTMLURL(),
		Author:      mapRESTUser(pr.GetUser()),
		PublishedAt: pr.GetCreatedAt().Time,
		MergedAt:    pr.GetMergedAt().Time,
	}
	out.Timeline = mapRESTTimeline(events, countCommentsByReview(comments))
	return out, nil
}

func countCommentsByReview(comments []*goGithub.PullRequestComment) map[int64]int {
	counts := make(map[int64]int, len(comments))
	for _, comment := range comments {
		if id := comment.GetPullRequestReviewID(); id != 0 {
			counts[id]++
		}
	}
	return counts
}

func mapRESTTimeline(events []*goGithub.Timeline, reviewComments map[int64]int) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(events))
	for _, event := range events {
		switch event.GetEvent() {
		case "review_requested":
			out = append(out, ReviewRequested{
				At:       event.GetCreatedAt().Time,
				Reviewer: mapRESTUser(event.GetReviewer()),
			})
		case "reviewed":
			out = append(out, Review{
				ID:           strconv.FormatInt(event.GetID(), 10),
				Author:       mapRESTUser(event.GetUser()),
				State:        ReviewState(strings.ToUpper(event.GetState())),
				CommentCount: reviewComments[event.GetID()],
				HasBody:      event.GetBody() != "",
				SubmittedAt:  event.GetSubmittedAt().Time,
			})
		case "merged":
			out = append(out, Merged{
				Actor: mapRESTUser(event.GetActor()),
				At:    event.GetCreatedAt().Time,
			})
		case "commented":
			comment := IssueComment{At: event.GetCreatedAt().Time}
			if author := mapRESTUser(event.GetActor()); author.Known() && !isBotUser(event.GetActor()) {
				comment.Author = &author
			}
			out = append(out, comment)
		}
	}
	return out
}

func mapRESTUser(in *goGithub.User) User {
	if in == nil {
		return User{}
	}
	return User{
		Login:     in.GetLogin(),
		URL:       in.GetHTMLURL(),
		AvatarURL: in.GetAvatarURL(),
	}
}

// isBotUser matches the GraphQL behavior, where app identities do not
// resolve as a User and comments from them carry no author.
func isBotUser(in *goGithub.User) bool {
	return in.GetType() == "Bot"
}
