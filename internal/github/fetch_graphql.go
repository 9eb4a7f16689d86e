package github

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const mergedPullRequestsQuery = `
query($searchQuery: String!, $after: String) {
  search(query: $searchQuery, type: ISSUE, first: 100, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    nodes {
      ... on PullRequest {
        number
        url
        publishedAt
        mergedAt
        author { ...UserFragment }
        timelineItems(first: 100, itemTypes: [REVIEW_REQUESTED_EVENT, PULL_REQUEST_REVIEW, MERGED_EVENT, ISSUE_COMMENT]) {
          nodes {
            __typename
            ... on ReviewRequestedEvent {
              createdAt
              requestedReviewer { ...UserFragment }
            }
            ... on PullRequestReview {
              id
              author { ...UserFragment }
              comments(first: 1) {
                totalCount
              }
              bodyText
              submittedAt
              state
            }
            ... on MergedEvent {
              actor { ...UserFragment }
              createdAt
            }
            ... on IssueComment {
              author { ...UserFragment }
              createdAt
            }
          }
        }
      }
    }
  }
}
fragment UserFragment on User {
  url
  login
  avatarUrl
}
`

type graphQLUser struct {
	Login     string `json:"login"`
	URL       string `json:"url"`
	AvatarURL string `json:"avatarUrl"`
}

type graphQLTimelineNode struct {
	TypeName          string       `json:"__typename"`
	ID                string       `json:"id"`
	CreatedAt         string       `json:"createdAt"`
	SubmittedAt       string       `json:"submittedAt"`
	State             string       `json:"state"`
	BodyText          string       `json:"bodyText"`
	RequestedReviewer *graphQLUser `json:"requestedReviewer"`
	Author            *graphQLUser `json:"author"`
	Actor             *graphQLUser `json:"actor"`
	Comments          struct {
		TotalCount int `json:"totalCount"`
	} `json:"comments"`
}

type graphQLPullRequestNode struct {
	Number        int          `json:"number"`
	URL           string       `json:"url"`
	PublishedAt   string       `json:"publishedAt"`
	MergedAt      string       `json:"mergedAt"`
	Author        *graphQLUser `json:"author"`
	TimelineItems struct {
		Nodes []graphQLTimelineNode `json:"nodes"`
	} `json:"timelineItems"`
}

type mergedSearchPayload struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
		Nodes []graphQLPullRequestNode `json:"nodes"`
	} `json:"search"`
}

func (f *fetcher) searchMergedGraphQL(ctx context.Context, q Query) ([]PullRequest, error) {
	var prs []PullRequest

	err := f.gql.QueryPaginated(ctx, mergedPullRequestsQuery, map[string]any{
		"searchQuery": mergedSearchQuery(q),
	}, func(page json.RawMessage) (bool, string, error) {
		var payload mergedSearchPayload
		if err := json.Unmarshal(page, &payload); err != nil {
			return false, "", fmt.Errorf("decode merged pull requests page: %w", err)
		}
		for _, node := range payload.Search.Nodes {
			// Search can return non-PullRequest nodes, which decode as empty objects.
			if node.Number == 0 {
				continue
			}
			prs = append(prs, mapGraphQLPullRequest(node))
		}
		return payload.Search.PageInfo.HasNextPage, payload.Search.PageInfo.EndCursor, nil
	})
	if err != nil {
		return nil, fmt.Errorf("search merged pull requests: %w", err)
	}

	return prs, nil
}

func mapGraphQLPullRequest(node graphQLPullRequestNode) PullRequest {
	pr := PullRequest{
		Number:      node.Number,
		URL:         node.URL,
		Author:      mapGraphQLUser(node.Author),
		PublishedAt: parseTimestamp(node.PublishedAt),
		MergedAt:    parseTimestamp(node.MergedAt),
		Timeline:    make([]TimelineEvent, 0, len(node.TimelineItems.Nodes)),
	}

	for _, item := range node.TimelineItems.Nodes {
		event, ok := mapGraphQLTimelineNode(item)
		if !ok {
			continue
		}
		pr.Timeline = append(pr.Timeline, event)
	}
	return pr
}

func mapGraphQLTimelineNode(node graphQLTimelineNode) (TimelineEvent, bool) {
	switch node.TypeName {
	case "ReviewRequestedEvent":
		return ReviewRequested{
			At:       parseTimestamp(node.CreatedAt),
			Reviewer: mapGraphQLUser(node.RequestedReviewer),
		}, true
	case "PullRequestReview":
		return Review{
			ID:           node.ID,
			Author:       mapGraphQLUser(node.Author),
			State:        ReviewState(node.State),
			CommentCount: node.Comments.TotalCount,
			HasBody:      node.BodyText != "",
			SubmittedAt:  parseTimestamp(node.SubmittedAt),
		}, true
	case "MergedEvent":
		return Merged{
			Actor: mapGraphQLUser(node.Actor),
			At:    parseTimestamp(node.CreatedAt),
		}, true
	case "IssueComment":
		comment := IssueComment{At: parseTimestamp(node.CreatedAt)}
		if author := mapGraphQLUser(node.Author); author.Known() {
			comment.Author = &author
		}
		return comment, true
	default:
		return nil, false
	}
}

func mapGraphQLUser(in *graphQLUser) User {
	if in == nil {
		return User{}
	}
	return User{
		Login:     in.Login,
		URL:       in.URL,
		AvatarURL: in.AvatarURL,
	}
}

// parseTimestamp returns the zero time for absent or malformed values.
func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
