package cli

import "github.com/johnqtcg/reviewstats/internal/config"

// Mode identifies the command execution mode.
type Mode string

const (
	// ModeSingle reports on one repository from --repository.
	ModeSingle Mode = "single"
	// ModeBatch reports on every repository listed in --repos-file.
	ModeBatch Mode = "batch"
)

// Args contains validated and normalized command mode inputs.
type Args struct {
	Mode       Mode
	Repository string
}

// ValidateArgs validates single-vs-batch mode constraints from config.
func ValidateArgs(cfg config.Config) (Args, error) {
	if cfg.SlackWebhook == "" && !cfg.Debug && cfg.OutputPath == "" {
		return Args{}, config.NewValidationError("slack-webhook", "--slack-webhook is required unless --debug or --output is set")
	}

	if cfg.ReposFile != "" {
		return Args{Mode: ModeBatch}, nil
	}

	if cfg.Repository == "" {
		return Args{}, config.NewValidationError("repository", "one of --repository or --repos-file is required")
	}

	return Args{
		Mode:       ModeSingle,
		Repository: cfg.Repository,
	}, nil
}
