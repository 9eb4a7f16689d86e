package cli

import (
	"errors"

	"github.com/johnqtcg/reviewstats/internal/config"
	gh "github.com/johnqtcg/reviewstats/internal/github"
	"github.com/johnqtcg/reviewstats/internal/parser"
	"github.com/johnqtcg/reviewstats/internal/slack"
)

const (
	// ExitOK indicates all items completed successfully.
	ExitOK = 0
	// ExitRuntime indicates generic runtime failure.
	ExitRuntime = 1
	// ExitInvalidArguments indicates invalid CLI arguments.
	ExitInvalidArguments = 2
	// ExitAuth indicates auth/authz failures.
	ExitAuth = 3
	// ExitPartialSuccess indicates at least one failure in batch mode.
	ExitPartialSuccess = 4
	// ExitOutputConflict indicates output file conflict without force mode.
	ExitOutputConflict = 5
	// ExitDelivery indicates the Slack webhook rejected the report.
	ExitDelivery = 6
)

// ResolveExitCode maps run error state to CLI exit codes.
func ResolveExitCode(err error, isBatch bool, failed int) int {
	if isBatch && failed > 0 {
		return ExitPartialSuccess
	}
	if err == nil {
		return ExitOK
	}

	var vErr *config.ValidationError
	if errors.As(err, &vErr) {
		return ExitInvalidArguments
	}

	var cErr *config.ConflictError
	if errors.As(err, &cErr) {
		return ExitInvalidArguments
	}
	var sErr *config.SourceError
	if errors.As(err, &sErr) {
		return ExitInvalidArguments
	}
	if errors.Is(err, parser.ErrInvalidRepository) {
		return ExitInvalidArguments
	}

	if errors.Is(err, ErrOutputConflict) {
		return ExitOutputConflict
	}

	// Webhook rejections mention their status and must not read as GitHub auth failures.
	var dErr *slack.DeliveryError
	if errors.As(err, &dErr) {
		return ExitDelivery
	}

	if gh.IsAuthError(err) {
		return ExitAuth
	}

	return ExitRuntime
}
