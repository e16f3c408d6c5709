package core

import (
	"context"
	"errors"
	"os"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/outwriter"
	"github.com/huangsam/repopulse/internal/source"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoRepos is returned when a command needs at least one repository.
var ErrNoRepos = errors.New("no repositories given")

// ExecuteLoad fills the result cache from src for every repository and
// prints a summary of the stored tables. Repositories load concurrently.
func ExecuteLoad(ctx context.Context, src contract.EventSource, mgr contract.CacheManager, repos []string, logger *zap.SugaredLogger) error {
	if len(repos) == 0 {
		return ErrNoRepos
	}
	cache := mgr.GetResultCache()

	reports := make([]source.LoadReport, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(contract.DefaultLoadWorkers)
	for i, repo := range repos {
		g.Go(func() error {
			report, err := source.Load(gctx, src, cache, repo, logger)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return outwriter.WriteLoadReports(os.Stdout, reports)
}

// ExecuteHistory prints the most recent page runs.
func ExecuteHistory(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	runs, err := mgr.GetRunLog().ListRuns(ctx, cfg.HistoryLimit)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRuns(runs, cfg)
}
