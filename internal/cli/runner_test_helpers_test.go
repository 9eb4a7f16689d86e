package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/johnqtcg/reviewstats/internal/config"
	gh "github.com/johnqtcg/reviewstats/internal/github"
	"github.com/johnqtcg/reviewstats/internal/slack"
)

var testNow = time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time {
	return testNow
}

type fakeLoader struct {
	cfg     config.Config
	err     error
	gotArgs []string
}

func (f *fakeLoader) Load(args []string) (config.Config, error) {
	f.gotArgs = append([]string(nil), args...)
	if f.err != nil {
		return config.Config{}, f.err
	}
	return f.cfg, nil
}

type fakeParser struct {
	refByRepo map[string]gh.RepoRef
	errByRepo map[string]error
	gotRepos  []string
}

func (f *fakeParser) Parse(raw string) (gh.RepoRef, error) {
	f.gotRepos = append(f.gotRepos, raw)
	if err := f.errByRepo[raw]; err != nil {
		return gh.RepoRef{}, err
	}
	ref, ok := f.refByRepo[raw]
	if !ok {
		return gh.RepoRef{}, errors.New("unexpected repository")
	}
	return ref, nil
}

type fakeFetcherFactory struct {
	fetcher *fakeFetcher
	err     error
	gotCfg  config.Config
}

func (f *fakeFetcherFactory) New(cfg config.Config, _ *logrus.Entry) (gh.Fetcher, error) {
	f.gotCfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	return f.fetcher, nil
}

type fakeFetcher struct {
	prsByRepo  map[string][]gh.PullRequest
	errByRepo  map[string]error
	gotQueries []gh.Query
}

func (f *fakeFetcher) FetchMerged(_ context.Context, q gh.Query) ([]gh.PullRequest, error) {
	f.gotQueries = append(f.gotQueries, q)
	if err := f.errByRepo[q.Repo.FullName()]; err != nil {
		return nil, err
	}
	return f.prsByRepo[q.Repo.FullName()], nil
}

type fakeNotifierFactory struct {
	notifier *fakeNotifier
	err      error
	calls    int
}

func (f *fakeNotifierFactory) New(cfg config.Config) (slack.Notifier, error) {
	_ = cfg
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.notifier, nil
}

type fakeNotifier struct {
	err     error
	gotMsgs []slack.Message
}

func (f *fakeNotifier) Notify(_ context.Context, msg slack.Message) error {
	f.gotMsgs = append(f.gotMsgs, msg)
	return f.err
}

type fakeOutputWriter struct {
	path       string
	err        error
	gotRefs    []gh.RepoRef
	gotMode    []Mode
	gotContent []string
}

func (f *fakeOutputWriter) Write(cfg config.Config, mode Mode, ref gh.RepoRef, content []byte) (string, error) {
	_ = cfg
	f.gotRefs = append(f.gotRefs, ref)
	f.gotMode = append(f.gotMode, mode)
	f.gotContent = append(f.gotContent, string(content))
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

type fakeInputReader struct {
	lines   []string
	err     error
	gotPath string
}

func (f *fakeInputReader) Read(path string, handle func(line string) error) error {
	f.gotPath = path
	if f.err != nil {
		return f.err
	}
	for _, line := range f.lines {
		if err := handle(line); err != nil {
			return err
		}
	}
	return nil
}

// bufferLoggerFactory captures log output for assertions.
type bufferLoggerFactory struct {
	buf *bytes.Buffer
}

func (f bufferLoggerFactory) New(cfg config.Config) *logrus.Entry {
	_ = cfg
	logger := logrus.New()
	var out io.Writer = io.Discard
	if f.buf != nil {
		out = f.buf
	}
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	return logger.WithField("run_id", "test-run")
}

func mergedPR(number int, author string, timeline ...gh.TimelineEvent) gh.PullRequest {
	return gh.PullRequest{
		Number:      number,
		URL:         fmt.Sprintf("https://github.com/octo/repo/pull/%d", number),
		Author:      gh.User{Login: author},
		PublishedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		MergedAt:    time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC),
		Timeline:    timeline,
	}
}
