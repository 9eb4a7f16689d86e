package github

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type fetcher struct {
	cfg   Config
	rest  *restClient
	gql   *graphQLClient
	sleep sleepFunc
}

func (f *fetcher) FetchMerged(ctx context.Context, q Query) ([]PullRequest, error) {
	var (
		prs []PullRequest
		err error
	)

	retry := f.retryPolicy(q)

	switch f.cfg.Backend {
	case BackendGraphQL:
		err = retry.do(ctx, func() error {
			prs, err = f.searchMergedGraphQL(ctx, q)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fetch merged pull requests via graphql: %w", err)
		}
		return prs, nil
	case BackendREST:
		err = retry.do(ctx, func() error {
			prs, err = f.searchMergedREST(ctx, q)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fetch merged pull requests via rest: %w", err)
		}
		return prs, nil
	default:
		return nil, fmt.Errorf("dispatch backend %q: %w", f.cfg.Backend, ErrUnsupportedBackend)
	}
}

func (f *fetcher) retryPolicy(q Query) retryPolicy {
	policy := retryPolicy{
		maxRetries:     f.cfg.MaxRetries,
		initialBackoff: f.cfg.InitialBackoff,
		maxWait:        f.cfg.MaxRetryWait,
		sleep:          f.sleep,
	}
	if f.cfg.Logger != nil {
		log := f.cfg.Logger
		policy.onRetry = func(attempt int, wait time.Duration, err error) {
			log.WithFields(logrus.Fields{
				"repository": q.Repo.FullName(),
				"backend":    f.cfg.Backend,
				"attempt":    attempt,
				"wait":       wait.String(),
			}).WithError(err).Warn("retrying github request")
		}
	}
	return policy
}

func mergedSearchQuery(q Query) string {
	return fmt.Sprintf(
		"is:pr archived:false is:closed is:merged repo:%s merged:>=%s",
		q.Repo.FullName(),
		q.MergedSince.UTC().Format("2006-01-02T15:04:05Z"),
	)
}
