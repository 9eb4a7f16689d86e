package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxRetries is the default retry count for GitHub API requests.
	DefaultMaxRetries = 3
	// DefaultInitialBackoff is the first retry delay.
	DefaultInitialBackoff = 2 * time.Second
	// DefaultMaxRetryWait bounds a single wait, including rate limit resets.
	DefaultMaxRetryWait = time.Minute
)

// Backend selects which GitHub API the fetcher reads from.
type Backend string

const (
	// BackendGraphQL reads search results and timelines through the GraphQL API.
	BackendGraphQL Backend = "graphql"
	// BackendREST reads search results and timelines through the REST API.
	BackendREST Backend = "rest"
)

// ErrUnsupportedBackend indicates the configured backend is unknown to the fetcher.
var ErrUnsupportedBackend = errors.New("unsupported github backend")

// Query selects the merged pull requests to fetch.
type Query struct {
	Repo        RepoRef
	MergedSince time.Time
}

// Fetcher defines the contract for fetching merged pull requests with their timelines.
type Fetcher interface {
	FetchMerged(ctx context.Context, q Query) ([]PullRequest, error)
}

// Config configures the GitHub fetcher client.
type Config struct {
	Token          string
	Backend        Backend
	HTTPClient     *http.Client
	MaxRetries     int
	InitialBackoff time.Duration
	MaxRetryWait   time.Duration
	RESTBaseURL    string
	GraphQLURL     string
	// Logger receives retry notices. Nil disables them.
	Logger *logrus.Entry
}

// WithDefaults fills missing optional values with package defaults.
func (c Config) WithDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxRetryWait == 0 {
		c.MaxRetryWait = DefaultMaxRetryWait
	}
	if c.Backend == "" {
		c.Backend = BackendGraphQL
	}
	return c
}

// NewFetcher constructs a fetcher instance.
func NewFetcher(cfg Config) (Fetcher, error) {
	cfg = cfg.WithDefaults()
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("invalid MaxRetries %d", cfg.MaxRetries)
	}
	if cfg.InitialBackoff < 0 {
		return nil, fmt.Errorf("invalid InitialBackoff %s", cfg.InitialBackoff)
	}
	if cfg.MaxRetryWait < 0 {
		return nil, fmt.Errorf("invalid MaxRetryWait %s", cfg.MaxRetryWait)
	}
	if cfg.Backend != BackendGraphQL && cfg.Backend != BackendREST {
		return nil, fmt.Errorf("validate backend %q: %w", cfg.Backend, ErrUnsupportedBackend)
	}

	restClient, err := newRESTClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create REST client: %w", err)
	}

	return &fetcher{
		cfg:   cfg,
		rest:  restClient,
		gql:   newGraphQLClient(cfg),
		sleep: sleepContext,
	}, nil
}
