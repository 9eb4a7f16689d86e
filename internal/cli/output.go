package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/johnqtcg/reviewstats/internal/config"
	gh "github.com/johnqtcg/reviewstats/internal/github"
)

// ErrOutputConflict indicates the output file already exists and force mode is disabled.
var ErrOutputConflict = errors.New("output file already exists")

// OutputWriter writes a rendered report to the filesystem.
type OutputWriter interface {
	Write(cfg config.Config, mode Mode, ref gh.RepoRef, content []byte) (string, error)
}

type fileOutputWriter struct{}

// NewOutputWriter creates a filesystem output writer.
func NewOutputWriter() OutputWriter {
	return &fileOutputWriter{}
}

func (w *fileOutputWriter) Write(cfg config.Config, mode Mode, ref gh.RepoRef, content []byte) (string, error) {
	_ = w

	targetPath, err := resolveOutputPath(cfg, mode, ref)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}

	if err := ensureWritable(targetPath, cfg.Force); err != nil {
		return "", fmt.Errorf("validate output path %q: %w", targetPath, err)
	}

	parentDir := filepath.Dir(targetPath)
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %q: %w", parentDir, err)
	}

	if err := os.WriteFile(targetPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write output file %q: %w", targetPath, err)
	}
	return targetPath, nil
}

// resolveOutputPath treats the output path as a directory in batch mode,
// when it is an existing directory, or when it has no file extension.
func resolveOutputPath(cfg config.Config, mode Mode, ref gh.RepoRef) (string, error) {
	if cfg.OutputPath == "" {
		return "", fmt.Errorf("output path is empty")
	}
	defaultName := defaultFileName(ref)

	if mode == ModeBatch {
		return filepath.Join(cfg.OutputPath, defaultName), nil
	}

	info, err := os.Stat(cfg.OutputPath)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(cfg.OutputPath, defaultName), nil
	case err == nil:
		return cfg.OutputPath, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("stat output path %q: %w", cfg.OutputPath, err)
	}

	if filepath.Ext(cfg.OutputPath) != "" {
		return cfg.OutputPath, nil
	}
	return filepath.Join(cfg.OutputPath, defaultName), nil
}

func defaultFileName(ref gh.RepoRef) string {
	return fmt.Sprintf("%s-%s-review-stats.txt", ref.Owner, ref.Repo)
}

func ensureWritable(path string, force bool) error {
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat output file: %w", err)
	}
	if !force {
		return ErrOutputConflict
	}
	return nil
}
