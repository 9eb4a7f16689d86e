package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goGithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	defaultRESTBaseURL = "https://api.github.com/"
	timelinePageSize   = 100
)

type restClient struct {
	client *goGithub.Client
}

// newAuthenticatedHTTPClient wraps the configured client with an oauth2
// transport when a token is present.
func newAuthenticatedHTTPClient(cfg Config) *http.Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Token == "" {
		return httpClient
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	baseTransport := httpClient.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   baseTransport,
		},
		Timeout: httpClient.Timeout,
	}
}

func newRESTClient(cfg Config) (*restClient, error) {
	client := goGithub.NewClient(newAuthenticatedHTTPClient(cfg))

	baseURL := cfg.RESTBaseURL
	if baseURL == "" {
		baseURL = defaultRESTBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse REST base URL %q: %w", baseURL, err)
	}
	client.BaseURL = parsed

	return &restClient{client: client}, nil
}

func (c *restClient) searchIssueNumbers(ctx context.Context, query string) ([]int, error) {
	var numbers []int
	opts := &goGithub.SearchOptions{
		Sort:        "updated",
		ListOptions: goGithub.ListOptions{PerPage: 100},
	}

	for {
		result, resp, err := c.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, wrapRESTError("search issues", err)
		}
		for _, issue := range result.Issues {
			numbers = append(numbers, issue.GetNumber())
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return numbers, nil
}

func (c *restClient) getPullRequest(ctx context.Context, owner, repo string, number int) (*goGithub.PullRequest, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, wrapRESTError("get pull request", err)
	}
	return pr, nil
}

// listTimeline reads a single page of timeline events.
func (c *restClient) listTimeline(ctx context.Context, owner, repo string, number int) ([]*goGithub.Timeline, error) {
	events, _, err := c.client.Issues.ListIssueTimeline(ctx, owner, repo, number, &goGithub.ListOptions{PerPage: timelinePageSize})
	if err != nil {
		return nil, wrapRESTError("list issue timeline", err)
	}
	return events, nil
}

func (c *restClient) listPullRequestComments(ctx context.Context, owner, repo string, number int) ([]*goGithub.PullRequestComment, error) {
	var all []*goGithub.PullRequestComment
	opts := &goGithub.PullRequestListCommentsOptions{
		ListOptions: goGithub.ListOptions{PerPage: 100},
	}
	for {
		comments, resp, err := c.client.PullRequests.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, wrapRESTError("list pull request comments", err)
		}
		all = append(all, comments...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func wrapRESTError(op string, err error) error {
	if err == nil {
		return nil
	}

	var respErr *goGithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return fmt.Errorf("%s: %w", op, &statusError{
			StatusCode: respErr.Response.StatusCode,
			Err:        err,
		})
	}

	var rateErr *goGithub.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s: %w", op, &statusError{
			StatusCode: http.StatusForbidden,
			RetryAfter: untilReset(rateErr.Rate.Reset.Time),
			Err:        err,
		})
	}

	var abuseErr *goGithub.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: %w", op, &statusError{
			StatusCode: http.StatusForbidden,
			RetryAfter: abuseErr.GetRetryAfter(),
			Err:        err,
		})
	}

	return fmt.Errorf("%s: %w", op, err)
}

func untilReset(reset time.Time) time.Duration {
	if reset.IsZero() {
		return 0
	}
	if wait := time.Until(reset); wait > 0 {
		return wait
	}
	return 0
}
