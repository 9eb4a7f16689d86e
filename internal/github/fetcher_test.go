package github

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

var testQuery = Query{
	Repo:        RepoRef{Owner: "octo", Repo: "repo"},
	MergedSince: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
}

func TestMergedSearchQuery(t *testing.T) {
	t.Parallel()

	got := mergedSearchQuery(testQuery)
	want := "is:pr archived:false is:closed is:merged repo:octo/repo merged:>=2026-01-05T00:00:00Z"
	if got != want {
		t.Fatalf("mergedSearchQuery = %q, want %q", got, want)
	}
}

func TestFetchMergedGraphQL(t *testing.T) {
	t.Parallel()

	clientHTTP := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !strings.Contains(req.Query, "timelineItems(first: 100") {
			t.Fatalf("query = %q, want timelineItems selection", req.Query)
		}
		if got := req.Variables["searchQuery"]; got != mergedSearchQuery(testQuery) {
			t.Fatalf("searchQuery = %v, want %q", got, mergedSearchQuery(testQuery))
		}

		return mustJSONResponse(t, http.StatusOK, map[string]any{
			"data": map[string]any{
				"search": map[string]any{
					"pageInfo": map[string]any{"hasNextPage": false, "endCursor": "c1"},
					"nodes": []map[string]any{
						{},
						{
							"number":      12,
							"url":         "https://github.com/octo/repo/pull/12",
							"publishedAt": "2026-01-05T10:00:00Z",
							"mergedAt":    "2026-01-07T10:00:00Z",
							"author":      map[string]any{"login": "alice", "url": "https://github.com/alice", "avatarUrl": "https://a/alice"},
							"timelineItems": map[string]any{
								"nodes": []map[string]any{
									{
										"__typename":        "ReviewRequestedEvent",
										"createdAt":         "2026-01-05T11:00:00Z",
										"requestedReviewer": map[string]any{"login": "bob"},
									},
									{
										"__typename":  "PullRequestReview",
										"id":          "PRR_1",
										"author":      map[string]any{"login": "bob"},
										"comments":    map[string]any{"totalCount": 3},
										"bodyText":    "looks good",
										"submittedAt": "2026-01-06T11:00:00Z",
										"state":       "APPROVED",
									},
									{
										"__typename": "IssueComment",
										"author":     map[string]any{},
										"createdAt":  "2026-01-06T12:00:00Z",
									},
									{
										"__typename": "MergedEvent",
										"actor":      map[string]any{"login": "carol"},
										"createdAt":  "2026-01-07T10:00:00Z",
									},
									{
										"__typename": "LabeledEvent",
									},
								},
							},
						},
					},
				},
			},
		}), nil
	})

	fetcher, err := NewFetcher(Config{
		HTTPClient: clientHTTP,
		GraphQLURL: "https://api.test/graphql",
	})
	if err != nil {
		t.Fatalf("NewFetcher error = %v, want nil", err)
	}

	prs, err := fetcher.FetchMerged(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("FetchMerged error = %v, want nil", err)
	}
	if len(prs) != 1 {
		t.Fatalf("pull requests len = %d, want 1", len(prs))
	}

	pr := prs[0]
	if pr.Number != 12 || pr.Author.Login != "alice" || pr.Author.AvatarURL != "https://a/alice" {
		t.Fatalf("pull request = %+v, want #12 by alice", pr)
	}
	if !pr.MergedAt.Equal(time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("MergedAt = %s, want 2026-01-07T10:00:00Z", pr.MergedAt)
	}
	if len(pr.Timeline) != 4 {
		t.Fatalf("timeline len = %d, want 4", len(pr.Timeline))
	}

	requested, ok := pr.Timeline[0].(ReviewRequested)
	if !ok || requested.Reviewer.Login != "bob" {
		t.Fatalf("timeline[0] = %#v, want ReviewRequested for bob", pr.Timeline[0])
	}
	review, ok := pr.Timeline[1].(Review)
	if !ok {
		t.Fatalf("timeline[1] = %#v, want Review", pr.Timeline[1])
	}
	if review.State != ReviewApproved || review.CommentCount != 3 || !review.HasBody || review.ID != "PRR_1" {
		t.Fatalf("review = %+v, want approved review with 3 comments and body", review)
	}
	comment, ok := pr.Timeline[2].(IssueComment)
	if !ok || comment.Author != nil {
		t.Fatalf("timeline[2] = %#v, want IssueComment without author", pr.Timeline[2])
	}
	merged, ok := pr.Timeline[3].(Merged)
	if !ok || merged.Actor.Login != "carol" {
		t.Fatalf("timeline[3] = %#v, want Merged by carol", pr.Timeline[3])
	}
}

func TestFetchMergedREST(t *testing.T) {
	t.Parallel()

	clientHTTP := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		switch r.URL.Path {
		case "/search/issues":
			if got := r.URL.Query().Get("q"); got != mergedSearchQuery(testQuery) {
				t.Fatalf("search q = %q, want %q", got, mergedSearchQuery(testQuery))
			}
			return mustJSONResponse(t, http.StatusOK, map[string]any{
				"total_count": 1,
				"items":       []map[string]any{{"number": 4}},
			}), nil
		case "/repos/octo/repo/pulls/4":
			return mustJSONResponse(t, http.StatusOK, map[string]any{
				"number":     4,
				"html_url":   "https://github.com/octo/repo/pull/4",
				"created_at": "2026-01-05T09:00:00Z",
				"merged_at":  "2026-01-06T09:00:00Z",
				"user":       map[string]any{"login": "alice", "html_url": "https://github.com/alice"},
			}), nil
		case "/repos/octo/repo/issues/4/timeline":
			return mustJSONResponse(t, http.StatusOK, []map[string]any{
				{
					"event":              "review_requested",
					"created_at":         "2026-01-05T09:30:00Z",
					"requested_reviewer": map[string]any{"login": "bob"},
				},
				{
					"event":        "reviewed",
					"id":           501,
					"user":         map[string]any{"login": "bob"},
					"state":        "changes_requested",
					"body":         "",
					"submitted_at": "2026-01-05T12:00:00Z",
				},
				{
					"event":      "commented",
					"actor":      map[string]any{"login": "dependabot[bot]", "type": "Bot"},
					"created_at": "2026-01-05T13:00:00Z",
				},
				{
					"event":      "commented",
					"actor":      map[string]any{"login": "dave", "type": "User"},
					"created_at": "2026-01-05T14:00:00Z",
				},
				{
					"event":      "labeled",
					"created_at": "2026-01-05T15:00:00Z",
				},
				{
					"event":      "merged",
					"actor":      map[string]any{"login": "alice"},
					"created_at": "2026-01-06T09:00:00Z",
				},
			}), nil
		case "/repos/octo/repo/pulls/4/comments":
			return mustJSONResponse(t, http.StatusOK, []map[string]any{
				{"id": 1, "pull_request_review_id": 501},
				{"id": 2, "pull_request_review_id": 501},
				{"id": 3, "pull_request_review_id": 999},
			}), nil
		default:
			return notFoundResponse(r.URL.Path), nil
		}
	})

	fetcher, err := NewFetcher(Config{
		Backend:     BackendREST,
		HTTPClient:  clientHTTP,
		RESTBaseURL: "https://api.test/",
	})
	if err != nil {
		t.Fatalf("NewFetcher error = %v, want nil", err)
	}

	prs, err := fetcher.FetchMerged(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("FetchMerged error = %v, want nil", err)
	}
	if len(prs) != 1 {
		t.Fatalf("pull requests len = %d, want 1", len(prs))
	}

	pr := prs[0]
	if pr.Number != 4 || pr.Author.Login != "alice" || pr.URL != "https://github.com/octo/repo/pull/4" {
		t.Fatalf("pull request = %+v, want #4 by alice", pr)
	}
	if len(pr.Timeline) != 5 {
		t.Fatalf("timeline len = %d, want 5", len(pr.Timeline))
	}
	review, ok := pr.Timeline[1].(Review)
	if !ok {
		t.Fatalf("timeline[1] = %#v, want Review", pr.Timeline[1])
	}
	if review.State != ReviewChangesRequested || review.CommentCount != 2 || review.HasBody {
		t.Fatalf("review = %+v, want changes requested with 2 comments and no body", review)
	}
	if bot := pr.Timeline[2].(IssueComment); bot.Author != nil {
		t.Fatalf("bot comment author = %+v, want nil", bot.Author)
	}
	if human := pr.Timeline[3].(IssueComment); human.Author == nil || human.Author.Login != "dave" {
		t.Fatalf("human comment author = %+v, want dave", human.Author)
	}
	if merged := pr.Timeline[4].(Merged); merged.Actor.Login != "alice" {
		t.Fatalf("merged actor = %q, want alice", merged.Actor.Login)
	}
}

func TestFetchMergedGivesUpOnAuthError(t *testing.T) {
	t.Parallel()

	calls := 0
	clientHTTP := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return textHTTPResponse(http.StatusUnauthorized, `{"message":"Bad credentials"}`), nil
	})

	fetcher, err := NewFetcher(Config{
		HTTPClient:     clientHTTP,
		GraphQLURL:     "https://api.test/graphql",
		InitialBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewFetcher error = %v, want nil", err)
	}

	_, err = fetcher.FetchMerged(context.Background(), testQuery)
	if !IsAuthError(err) {
		t.Fatalf("FetchMerged error = %v, want auth error", err)
	}
	if calls != 1 {
		t.Fatalf("call count = %d, want 1 (auth errors are not retried)", calls)
	}
}

func TestFetchMergedWaitsForAdvertisedReset(t *testing.T) {
	t.Parallel()

	calls := 0
	clientHTTP := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return rateLimitedResponse(20 * time.Second), nil
		}
		return mustJSONResponse(t, http.StatusOK, map[string]any{
			"data": map[string]any{
				"search": map[string]any{
					"pageInfo": map[string]any{"hasNextPage": false},
					"nodes":    []map[string]any{},
				},
			},
		}), nil
	})

	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	gf, err := NewFetcher(Config{
		HTTPClient:     clientHTTP,
		GraphQLURL:     "https://api.test/graphql",
		InitialBackoff: time.Millisecond,
		Logger:         logrus.NewEntry(logger),
	})
	if err != nil {
		t.Fatalf("NewFetcher error = %v, want nil", err)
	}

	var waits []time.Duration
	gf.(*fetcher).sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	prs, err := gf.FetchMerged(context.Background(), testQuery)
	if err != nil {
		t.Fatalf("FetchMerged error = %v, want nil", err)
	}
	if len(prs) != 0 {
		t.Fatalf("pull requests len = %d, want 0", len(prs))
	}
	if len(waits) != 1 || waits[0] < 15*time.Second || waits[0] > 20*time.Second {
		t.Fatalf("waits = %v, want one wait close to 20s", waits)
	}
	if !strings.Contains(logs.String(), "retrying github request") || !strings.Contains(logs.String(), "repository=octo/repo") {
		t.Fatalf("logs = %q, want retry warning for octo/repo", logs.String())
	}
}

func TestFetchMergedGivesUpOnLongRateLimitReset(t *testing.T) {
	t.Parallel()

	calls := 0
	clientHTTP := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		calls++
		return rateLimitedResponse(30 * time.Minute), nil
	})

	gf, err := NewFetcher(Config{
		HTTPClient: clientHTTP,
		GraphQLURL: "https://api.test/graphql",
	})
	if err != nil {
		t.Fatalf("NewFetcher error = %v, want nil", err)
	}

	_, err = gf.FetchMerged(context.Background(), testQuery)
	if !IsRateLimitError(err) {
		t.Fatalf("FetchMerged error = %v, want rate limit error", err)
	}
	if IsAuthError(err) {
		t.Fatalf("FetchMerged error = %v classified as auth error", err)
	}
	if calls != 1 {
		t.Fatalf("call count = %d, want 1", calls)
	}
}
