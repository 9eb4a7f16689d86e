package cli

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/johnqtcg/reviewstats/internal/config"
)

// LoggerFactory creates the per-run structured logger.
type LoggerFactory interface {
	New(cfg config.Config) *logrus.Entry
}

type defaultLoggerFactory struct {
	out io.Writer
}

// New returns an entry tagged with a fresh run_id. Level and format come
// from the already validated config.
func (f defaultLoggerFactory) New(cfg config.Config) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(f.out)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	return logger.WithField("run_id", uuid.NewString())
}
