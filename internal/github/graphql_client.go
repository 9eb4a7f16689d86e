package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultGraphQLURL = "https://api.github.com/graphql"
	// GitHub search never serves more than 1000 results, so 100 pages is ample.
	maxGraphQLPages = 100
)

type graphQLClient struct {
	httpClient *http.Client
	endpoint   string
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage       `json:"data"`
	Errors []graphQLErrorMessage `json:"errors"`
}

func newGraphQLClient(cfg Config) *graphQLClient {
	endpoint := cfg.GraphQLURL
	if endpoint == "" {
		endpoint = defaultGraphQLURL
	}

	return &graphQLClient{
		httpClient: newAuthenticatedHTTPClient(cfg),
		endpoint:   endpoint,
	}
}

func (c *graphQLClient) QueryPaginated(ctx context.Context, query string, variables map[string]any, pageHandler func(page json.RawMessage) (hasNext bool, endCursor string, err error)) error {
	currentVars := copyVariables(variables)
	previousCursor := ""
	for pageIndex := 0; ; pageIndex++ {
		if pageIndex >= maxGraphQLPages {
			return fmt.Errorf("graphql pagination exceeded max page limit %d", maxGraphQLPages)
		}

		page, err := c.queryRaw(ctx, query, currentVars)
		if err != nil {
			return err
		}
		hasNext, endCursor, err := pageHandler(page)
		if err != nil {
			return fmt.Errorf("handle paginated graphql page: %w", err)
		}
		if !hasNext {
			return nil
		}
		if endCursor == "" {
			return fmt.Errorf("graphql pagination returned empty cursor while hasNextPage=true")
		}
		if endCursor == previousCursor {
			return fmt.Errorf("graphql pagination cursor stalled at %q", endCursor)
		}
		currentVars["after"] = endCursor
		previousCursor = endCursor
	}
}

func (c *graphQLClient) queryRaw(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	payload := graphQLRequest{
		Query:     query,
		Variables: variables,
	}
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute graphql request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
		return nil, fmt.Errorf("graphql status error: %w", &statusError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		})
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("graphql returned errors: %w", classifyGraphQLError(envelope.Errors[0], resp.Header))
	}

	return envelope.Data, nil
}

// classifyGraphQLError maps typed GraphQL errors, which arrive with status
// 200, onto the HTTP statuses the retry and exit code logic understands.
func classifyGraphQLError(gqlErr graphQLErrorMessage, header http.Header) error {
	base := fmt.Errorf("%s", gqlErr.Message)
	switch gqlErr.Type {
	case "RATE_LIMITED":
		return &statusError{StatusCode: http.StatusTooManyRequests, RetryAfter: parseRetryAfter(header), Err: base}
	case "FORBIDDEN":
		return &statusError{StatusCode: http.StatusForbidden, Err: base}
	case "NOT_FOUND":
		return &statusError{StatusCode: http.StatusNotFound, Err: base}
	default:
		return base
	}
}

// parseRetryAfter reads Retry-After, or the primary limit reset epoch when
// the remaining quota is zero.
func parseRetryAfter(header http.Header) time.Duration {
	if seconds, err := strconv.Atoi(header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if header.Get("X-RateLimit-Remaining") != "0" {
		return 0
	}
	reset, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return 0
	}
	if wait := time.Until(time.Unix(reset, 0)); wait > 0 {
		return wait
	}
	return 0
}

func copyVariables(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
