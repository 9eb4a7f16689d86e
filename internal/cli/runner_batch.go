package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) runBatch(ctx context.Context, p pipeline) (RunSummary, error) {
	var items []ItemResult
	// Keyed by lowercased owner/repo; GitHub names are case-insensitive.
	seen := make(map[string]bool)

	err := a.inputReader.Read(p.cfg.ReposFile, func(line string) error {
		var (
			item       ItemResult
			processErr error
		)

		ref, parseErr := a.parser.Parse(line)
		switch {
		case parseErr != nil:
			item = ItemResult{Repository: line}
			processErr = fmt.Errorf("parse repository: %w", parseErr)
		case seen[strings.ToLower(ref.FullName())]:
			p.log.WithField("repository", ref.FullName()).WithField("entry", line).Info("skipping duplicate repository")
			return nil
		default:
			seen[strings.ToLower(ref.FullName())] = true
			item, processErr = a.reportRepository(ctx, p, ModeBatch, ref)
		}

		if processErr != nil {
			item.Status = StatusFailed
			item.Reason = processErr.Error()
			p.log.WithField("repository", item.Repository).WithError(processErr).Warn("repository failed")
		}

		items = append(items, item)
		writeStatusLine(a.stdout, item)
		return nil
	})
	if err != nil {
		return BuildSummary(items), fmt.Errorf("read repos file %q: %w", p.cfg.ReposFile, err)
	}

	return BuildSummary(items), nil
}
