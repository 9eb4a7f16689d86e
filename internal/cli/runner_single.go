package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/johnqtcg/reviewstats/internal/config"
	gh "github.com/johnqtcg/reviewstats/internal/github"
	"github.com/johnqtcg/reviewstats/internal/parser"
	"github.com/johnqtcg/reviewstats/internal/report"
	"github.com/johnqtcg/reviewstats/internal/slack"
	"github.com/johnqtcg/reviewstats/internal/stats"
)

const debugSkipDelivery = "DEBUG - Not sending to Slack"

// Runner executes the CLI application flow.
type Runner interface {
	Run(ctx context.Context, args []string) int
}

// FetcherFactory creates GitHub fetcher instances from runtime config. Retry
// warnings are written to log.
type FetcherFactory interface {
	New(cfg config.Config, log *logrus.Entry) (gh.Fetcher, error)
}

// NotifierFactory creates Slack notifier instances from runtime config.
type NotifierFactory interface {
	New(cfg config.Config) (slack.Notifier, error)
}

// AppDeps defines dependencies for CLI app construction.
type AppDeps struct {
	Loader          config.Loader
	Parser          parser.RepoParser
	FetcherFactory  FetcherFactory
	NotifierFactory NotifierFactory
	LoggerFactory   LoggerFactory
	Writer          OutputWriter
	InputReader     InputReader
	Stdout          io.Writer
	Stderr          io.Writer
	Now             func() time.Time
}

// App orchestrates CLI single and batch workflows.
type App struct {
	loader          config.Loader
	parser          parser.RepoParser
	fetcherFactory  FetcherFactory
	notifierFactory NotifierFactory
	loggerFactory   LoggerFactory
	writer          OutputWriter
	inputReader     InputReader
	stdout          io.Writer
	stderr          io.Writer
	now             func() time.Time
}

// NewApp creates a CLI runner with injected dependencies.
func NewApp(deps AppDeps) Runner {
	app := &App{
		loader:          deps.Loader,
		parser:          deps.Parser,
		fetcherFactory:  deps.FetcherFactory,
		notifierFactory: deps.NotifierFactory,
		loggerFactory:   deps.LoggerFactory,
		writer:          deps.Writer,
		inputReader:     deps.InputReader,
		stdout:          deps.Stdout,
		stderr:          deps.Stderr,
		now:             deps.Now,
	}
	app.setDefaults()
	return app
}

func (a *App) setDefaults() {
	if a.loader == nil {
		a.loader = config.NewLoader()
	}
	if a.parser == nil {
		a.parser = parser.New()
	}
	if a.fetcherFactory == nil {
		a.fetcherFactory = defaultFetcherFactory{}
	}
	if a.notifierFactory == nil {
		a.notifierFactory = defaultNotifierFactory{}
	}
	if a.writer == nil {
		a.writer = NewOutputWriter()
	}
	if a.inputReader == nil {
		a.inputReader = NewFileInputReader()
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	if a.loggerFactory == nil {
		a.loggerFactory = defaultLoggerFactory{out: a.stderr}
	}
	if a.now == nil {
		a.now = time.Now
	}
}

// pipeline carries the collaborators shared by every repository of a run.
type pipeline struct {
	cfg      config.Config
	fetcher  gh.Fetcher
	notifier slack.Notifier
	log      *logrus.Entry
}

// Run executes the CLI workflow and returns an exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	cfg, err := a.loader.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		writeText(a.stdout, config.Usage())
		return ExitOK
	}
	if err != nil {
		writeErrorLine(a.stderr, err)
		return ResolveExitCode(err, false, 0)
	}

	validated, err := ValidateArgs(cfg)
	if err != nil {
		writeErrorLine(a.stderr, err)
		return ResolveExitCode(err, false, 0)
	}

	p := pipeline{cfg: cfg, log: a.loggerFactory.New(cfg)}

	p.fetcher, err = a.fetcherFactory.New(cfg, p.log)
	if err != nil {
		runErr := fmt.Errorf("build fetcher: %w", err)
		writeErrorLine(a.stderr, runErr)
		return ResolveExitCode(runErr, false, 0)
	}

	if cfg.SlackWebhook != "" && !cfg.Debug {
		p.notifier, err = a.notifierFactory.New(cfg)
		if err != nil {
			runErr := fmt.Errorf("build notifier: %w", config.NewValidationError("slack-webhook", err.Error()))
			writeErrorLine(a.stderr, runErr)
			return ResolveExitCode(runErr, false, 0)
		}
	}

	switch validated.Mode {
	case ModeSingle:
		if _, runErr := a.runSingle(ctx, p, validated); runErr != nil {
			writeErrorLine(a.stderr, runErr)
			return ResolveExitCode(runErr, false, 0)
		}
		return ExitOK
	case ModeBatch:
		summary, runErr := a.runBatch(ctx, p)
		if runErr != nil {
			writeErrorLine(a.stderr, runErr)
		}
		writeText(a.stdout, FormatSummary(summary)+"\n")
		return ResolveExitCode(runErr, true, summary.Failed)
	default:
		err = fmt.Errorf("unsupported mode %q", validated.Mode)
		writeErrorLine(a.stderr, err)
		return ResolveExitCode(err, false, 0)
	}
}

func (a *App) runSingle(ctx context.Context, p pipeline, args Args) (ItemResult, error) {
	item, err := a.processOne(ctx, p, ModeSingle, args.Repository)
	if err != nil {
		return item, fmt.Errorf("run single repository %q: %w", args.Repository, err)
	}
	return item, nil
}

// processOne parses rawRepo and reports on it.
func (a *App) processOne(ctx context.Context, p pipeline, mode Mode, rawRepo string) (ItemResult, error) {
	ref, err := a.parser.Parse(rawRepo)
	if err != nil {
		return ItemResult{Repository: rawRepo, Status: StatusFailed}, fmt.Errorf("parse repository: %w", err)
	}
	return a.reportRepository(ctx, p, mode, ref)
}

// reportRepository pulls, aggregates, prints, optionally writes, and delivers
// the report for one repository.
func (a *App) reportRepository(ctx context.Context, p pipeline, mode Mode, ref gh.RepoRef) (ItemResult, error) {
	item := ItemResult{
		Repository: ref.FullName(),
		Status:     StatusFailed,
	}
	log := p.log.WithField("repository", item.Repository)

	since := a.now().Add(-p.cfg.Lookback)
	log.WithField("merged_since", since.UTC().Format(time.RFC3339)).Info("pulling stats")

	prs, err := p.fetcher.FetchMerged(ctx, gh.Query{Repo: ref, MergedSince: since})
	if err != nil {
		return item, fmt.Errorf("fetch merged pull requests: %w", err)
	}
	log.WithField("pull_requests", len(prs)).Info("pulled stats")

	label := ""
	if mode == ModeBatch {
		label = item.Repository
	}
	rep := report.Build(label, p.cfg.TimeDiff, stats.Aggregate(prs))
	item.Merged = rep.TotalMerged

	text := rep.Text()
	writeText(a.stdout, text)

	if p.cfg.OutputPath != "" {
		outputPath, err := a.writer.Write(p.cfg, mode, ref, []byte(text))
		if err != nil {
			return item, fmt.Errorf("write output: %w", err)
		}
		item.OutputPath = outputPath
		log.WithField("output", outputPath).Info("wrote report")
	}

	if p.cfg.Debug {
		writeText(a.stdout, "\n"+rep.Debug())
		writeText(a.stdout, debugSkipDelivery+"\n")
	} else if p.notifier != nil {
		log.Info("pushing stats")
		if err := p.notifier.Notify(ctx, slack.NewReportMessage(rep)); err != nil {
			return item, fmt.Errorf("deliver report: %w", err)
		}
		item.Delivered = true
		log.Info("pushed stats")
	}

	item.Status = StatusOK
	return item, nil
}

type defaultFetcherFactory struct{}

func (f defaultFetcherFactory) New(cfg config.Config, log *logrus.Entry) (gh.Fetcher, error) {
	_ = f
	fetcher, err := gh.NewFetcher(gh.Config{
		Token:       cfg.Token,
		Backend:     gh.Backend(cfg.API),
		RESTBaseURL: cfg.RESTBaseURL,
		GraphQLURL:  cfg.GraphQLURL,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	return fetcher, nil
}

type defaultNotifierFactory struct{}

func (f defaultNotifierFactory) New(cfg config.Config) (slack.Notifier, error) {
	_ = f
	notifier, err := slack.NewWebhookNotifier(slack.Config{WebhookURL: cfg.SlackWebhook})
	if err != nil {
		return nil, fmt.Errorf("create notifier: %w", err)
	}
	return notifier, nil
}

func writeStatusLine(w io.Writer, item ItemResult) {
	switch item.Status {
	case StatusOK:
		if _, err := fmt.Fprintf(w, "OK repo=%s merged=%d output=%s delivered=%t\n", item.Repository, item.Merged, item.OutputPath, item.Delivered); err != nil {
			return
		}
	default:
		if _, err := fmt.Fprintf(w, "FAILED repo=%s reason=%s\n", item.Repository, item.Reason); err != nil {
			return
		}
	}
}

func writeText(w io.Writer, text string) {
	if _, err := io.WriteString(w, text); err != nil {
		return
	}
}

func writeErrorLine(w io.Writer, err error) {
	if _, writeErr := fmt.Fprintf(w, "error: %v\n", err); writeErr != nil {
		return
	}
}
