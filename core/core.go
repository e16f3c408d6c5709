// Package core has the page pipeline: input gating, cache polling,
// normalization, classification, output and run recording.
package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/outwriter"
	"github.com/huangsam/repopulse/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ExecutorFunc defines the function signature for executing the page commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, logger *zap.SugaredLogger) error

// ExecutePageFunc returns the executor of a single page.
func ExecutePageFunc(page schema.Page) ExecutorFunc {
	return func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, logger *zap.SugaredLogger) error {
		return ExecutePage(ctx, cfg, mgr, page, logger)
	}
}

// ExecutePage runs one page and prints its result.
func ExecutePage(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, page schema.Page, logger *zap.SugaredLogger) error {
	out, err := runAndRecord(ctx, cfg, mgr, page, logger)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePages([]schema.PageOutput{out}, cfg)
}

// ExecuteDashboard runs every page concurrently and prints the results in
// page order once all of them finish. The first failure cancels the others.
func ExecuteDashboard(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, logger *zap.SugaredLogger) error {
	outputs := make([]schema.PageOutput, len(schema.AllPages))
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range schema.AllPages {
		g.Go(func() error {
			out, err := runAndRecord(gctx, cfg, mgr, page, logger)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePages(outputs, cfg)
}

// runAndRecord runs page with page-scoped logging and appends a run record.
func runAndRecord(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, page schema.Page, logger *zap.SugaredLogger) (schema.PageOutput, error) {
	name := strings.ToUpper(string(page))
	req := RequestFor(cfg, page)

	start := time.Now()
	logger.Infow(name+" - START", "repos", req.Repos, "interval", req.Granularity)

	result, err := RunPage(ctx, page, mgr.GetResultCache(), req, cfg.Poll, logger)
	if err != nil {
		logger.Errorw(name+" - FAILED", "error", err)
		return schema.PageOutput{}, err
	}
	duration := time.Since(start)

	switch result.Outcome {
	case schema.OutcomeNoData:
		logger.Warn(name + " - NO DATA AVAILABLE")
	case schema.OutcomeInvalidThresholds:
		logger.Warnw(name+" - INVALID THRESHOLDS", "short", *req.ShortThreshold, "long", *req.LongThreshold)
	case schema.OutcomeNotReady:
		logger.Debug(name + " - INPUTS NOT READY")
	}
	logger.Infow(name+" - END", "outcome", result.Outcome, "duration", duration)

	run := schema.RunRecord{
		ID:          uuid.New(),
		Page:        page,
		Repos:       req.Repos,
		Granularity: req.Granularity,
		Outcome:     result.Outcome,
		StartedAt:   start,
		Duration:    duration,
	}
	if result.Table != nil {
		run.Rows = len(result.Table.Rows)
	}
	if runs := mgr.GetRunLog(); runs != nil {
		if err := runs.RecordRun(ctx, run); err != nil {
			logger.Warnw("Failed to record run", "page", page, "error", err)
		}
	}

	return schema.PageOutput{Page: page, Result: result}, nil
}
