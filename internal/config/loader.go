package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimeDiff  = "7d"
	defaultAPI       = "graphql"
	defaultEnvFile   = ".env"
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// Config represents normalized runtime configuration for the CLI.
type Config struct {
	SlackWebhook string
	Repository   string
	ReposFile    string
	Token        string
	TimeDiff     string
	Lookback     time.Duration
	API          string
	Debug        bool
	OutputPath   string
	Force        bool
	RESTBaseURL  string
	GraphQLURL   string
	LogLevel     string
	LogFormat    string
}

// Loader loads configuration from CLI args and environment variables.
type Loader interface {
	Load(args []string) (Config, error)
}

// NewLoader constructs the default configuration loader.
func NewLoader() Loader {
	return &flagLoader{lookupEnv: os.LookupEnv}
}

type flagLoader struct {
	lookupEnv func(key string) (string, bool)
}

type flagValues struct {
	slackWebhook string
	repository   string
	reposFile    string
	token        string
	timeDiff     string
	api          string
	debug        bool
	outputPath   string
	force        bool
	configFile   string
	envFile      string
	logLevel     string
	logFormat    string
}

// fileConfig is the shape of the optional YAML configuration file.
type fileConfig struct {
	SlackWebhook string `yaml:"slack_webhook"`
	Repository   string `yaml:"repository"`
	ReposFile    string `yaml:"repos_file"`
	TimeDiff     string `yaml:"time_diff"`
	API          string `yaml:"api"`
	RESTBaseURL  string `yaml:"rest_base_url"`
	GraphQLURL   string `yaml:"graphql_url"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

func newFlagSet(values *flagValues) *pflag.FlagSet {
	flags := pflag.NewFlagSet("reviewstats", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.SortFlags = false

	flags.StringVar(&values.slackWebhook, "slack-webhook", "", "Slack incoming webhook URL")
	flags.StringVar(&values.repository, "repository", "", "repository as owner/repo or GitHub URL")
	flags.StringVar(&values.reposFile, "repos-file", "", "file with one repository per line")
	flags.StringVar(&values.token, "token", "", "GitHub token")
	flags.StringVar(&values.timeDiff, "time-diff", "", "lookback window such as 7d, 36h or 2w (default 7d)")
	flags.StringVar(&values.api, "api", "", "GitHub API used for fetching: graphql or rest (default graphql)")
	flags.BoolVar(&values.debug, "debug", false, "print per pull request details and skip Slack delivery")
	flags.StringVar(&values.outputPath, "output", "", "also write the report to this file or directory")
	flags.BoolVar(&values.force, "force", false, "overwrite existing output files")
	flags.StringVar(&values.configFile, "config", "", "YAML configuration file")
	flags.StringVar(&values.envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")
	flags.StringVar(&values.logLevel, "log-level", "", "log level (default info)")
	flags.StringVar(&values.logFormat, "log-format", "", "log format: text or json (default text)")

	return flags
}

// Flags returns a fresh copy of the flags Load accepts, for command line
// front ends that render help or reject unknown flags before loading.
func Flags() *pflag.FlagSet {
	var values flagValues
	return newFlagSet(&values)
}

// Usage returns the flag help text.
func Usage() string {
	return "Usage: reviewstats [flags]\n\nFlags:\n" + Flags().FlagUsages()
}

func (l *flagLoader) Load(args []string) (Config, error) {
	var values flagValues
	flags := newFlagSet(&values)

	if err := flags.Parse(args); err != nil {
		return Config{}, WrapError("parse flags", err)
	}
	if flags.NArg() > 0 {
		return Config{}, WrapError("parse flags", NewValidationError("args", fmt.Sprintf("unexpected positional arguments %q", flags.Args())))
	}

	env, err := l.environment(values.envFile, flags.Changed("env-file"))
	if err != nil {
		return Config{}, WrapError("load env file", err)
	}

	configFile := firstNonEmpty(values.configFile, env("REVIEWSTATS_CONFIG"))
	file, err := readFileConfig(configFile)
	if err != nil {
		return Config{}, WrapError("load config file", err)
	}

	explicit := func(name, value string) string {
		if flags.Changed(name) {
			return value
		}
		return ""
	}

	repository := pickSource(
		sourced{explicit("repository", values.repository), sourceFlag},
		sourced{env("INPUT_REPOSITORY"), sourceActionInput},
		sourced{env("GITHUB_REPOSITORY"), sourceEnv},
		sourced{file.Repository, sourceFile},
	)
	reposFile := pickSource(
		sourced{explicit("repos-file", values.reposFile), sourceFlag},
		sourced{file.ReposFile, sourceFile},
	)

	cfg := Config{
		SlackWebhook: firstNonEmpty(explicit("slack-webhook", values.slackWebhook), env("INPUT_SLACKWEBHOOK"), env("SLACK_WEBHOOK_URL"), file.SlackWebhook),
		Repository:   repository.value,
		ReposFile:    reposFile.value,
		Token:        firstNonEmpty(explicit("token", values.token), env("INPUT_TOKEN"), env("GITHUB_TOKEN")),
		TimeDiff:     firstNonEmpty(explicit("time-diff", values.timeDiff), env("INPUT_TIMEDIFF"), env("REVIEWSTATS_TIME_DIFF"), file.TimeDiff, defaultTimeDiff),
		API:          firstNonEmpty(explicit("api", values.api), env("REVIEWSTATS_API"), file.API, defaultAPI),
		Debug:        values.debug,
		OutputPath:   values.outputPath,
		Force:        values.force,
		RESTBaseURL:  firstNonEmpty(env("GITHUB_API_URL"), file.RESTBaseURL),
		GraphQLURL:   firstNonEmpty(env("GITHUB_GRAPHQL_URL"), file.GraphQLURL),
		LogLevel:     firstNonEmpty(explicit("log-level", values.logLevel), env("REVIEWSTATS_LOG_LEVEL"), file.LogLevel, defaultLogLevel),
		LogFormat:    firstNonEmpty(explicit("log-format", values.logFormat), env("REVIEWSTATS_LOG_FORMAT"), file.LogFormat, defaultLogFormat),
	}

	if err := resolveTarget(&cfg, repository, reposFile); err != nil {
		return Config{}, WrapError("validate flags", err)
	}
	if err := validate(&cfg); err != nil {
		return Config{}, WrapError("validate flags", err)
	}
	return cfg, nil
}

// environment returns a lookup over the process environment backed by the
// dotenv file. Process variables always win. A missing default dotenv file
// is ignored; a missing explicit one is an error.
func (l *flagLoader) environment(envFile string, explicit bool) (func(key string) string, error) {
	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, &SourceError{Kind: "env file", Path: envFile, Err: err}
		}
	}

	return func(key string) string {
		if value, ok := l.lookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(dotenv[key])
	}, nil
}

func readFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &SourceError{Kind: "config file", Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &SourceError{Kind: "config file", Path: path, Err: fmt.Errorf("parse yaml: %w", err)}
	}
	return cfg, nil
}

// resolveTarget keeps whichever of the repository and the repos file came
// from the stronger source. The weaker one is cleared so that, for example,
// an explicit --repository is not turned into a batch run by a repos_file in
// the config file.
func resolveTarget(cfg *Config, repository, reposFile sourced) error {
	if repository.value == "" || reposFile.value == "" {
		return nil
	}
	switch {
	case repository.source > reposFile.source:
		cfg.ReposFile = ""
	case reposFile.source > repository.source:
		cfg.Repository = ""
	case repository.source == sourceFlag:
		return NewConflictError("--repository", "--repos-file")
	default:
		return NewConflictError("repository", "repos_file")
	}
	return nil
}

func validate(cfg *Config) error {
	lookback, err := ParseLookback(cfg.TimeDiff)
	if err != nil {
		return NewValidationError("time-diff", err.Error())
	}
	cfg.Lookback = lookback

	if cfg.API != "graphql" && cfg.API != "rest" {
		return NewValidationError("api", "must be graphql or rest")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return NewValidationError("log-format", "must be text or json")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return NewValidationError("log-level", err.Error())
	}
	return nil
}

// source ranks where a value came from; higher wins.
type source int

const (
	sourceNone source = iota
	sourceFile
	sourceEnv
	sourceActionInput
	sourceFlag
)

type sourced struct {
	value  string
	source source
}

func pickSource(candidates ...sourced) sourced {
	for _, c := range candidates {
		if c.value != "" {
			return c
		}
	}
	return sourced{}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
