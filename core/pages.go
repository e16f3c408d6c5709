package core

import (
	"context"
	"fmt"

	"github.com/huangsam/repopulse/core/algo"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/iocache"
	"github.com/huangsam/repopulse/schema"
	"go.uber.org/zap"
)

// PageFunc computes the result of one page.
type PageFunc func(ctx context.Context, cache contract.ResultCache, req schema.PageRequest,
	policy schema.PollPolicy, logger *zap.SugaredLogger) (schema.PageResult, error)

// pageFuncs maps each page to its implementation.
var pageFuncs = map[schema.Page]PageFunc{
	schema.DriftPage:     RunDrift,
	schema.StalenessPage: RunStaleness,
	schema.ResponsePage:  RunResponse,
}

// RunPage dispatches to the implementation of page.
func RunPage(ctx context.Context, page schema.Page, cache contract.ResultCache, req schema.PageRequest,
	policy schema.PollPolicy, logger *zap.SugaredLogger,
) (schema.PageResult, error) {
	fn, ok := pageFuncs[page]
	if !ok {
		return schema.PageResult{}, fmt.Errorf("unknown page %q", page)
	}
	return fn(ctx, cache, req, policy, logger)
}

// RequestFor builds the request of page from the validated configuration.
func RequestFor(cfg *contract.Config, page schema.Page) schema.PageRequest {
	req := schema.PageRequest{
		Repos:       cfg.Repos,
		Granularity: cfg.Granularity,
	}
	switch page {
	case schema.DriftPage:
		req.ShortThreshold, req.LongThreshold = cfg.DriftMonths, cfg.AwayMonths
	case schema.StalenessPage:
		req.ShortThreshold, req.LongThreshold = cfg.StalingDays, cfg.StaleDays
	case schema.ResponsePage:
		req.ShortThreshold = cfg.ResponseDays
		req.Granularity = cfg.ResponseGranularity
		req.FilterBots, req.Bots = cfg.FilterBots, cfg.Bots
	}
	return req
}

// gateTwo checks the inputs of a page with two ordered thresholds. ok is false
// when the page must stop with the returned result.
func gateTwo(req schema.PageRequest) (schema.PageResult, bool) {
	if req.ShortThreshold == nil || req.LongThreshold == nil || len(req.Repos) == 0 {
		return schema.PageResult{Outcome: schema.OutcomeNotReady}, false
	}
	if *req.ShortThreshold >= *req.LongThreshold {
		return schema.PageResult{Outcome: schema.OutcomeInvalidThresholds, Alert: true}, false
	}
	return schema.PageResult{}, true
}

// gateOne checks the inputs of a page with a single threshold.
func gateOne(req schema.PageRequest) (schema.PageResult, bool) {
	if req.ShortThreshold == nil || len(req.Repos) == 0 {
		return schema.PageResult{Outcome: schema.OutcomeNotReady}, false
	}
	return schema.PageResult{}, true
}

// fetch waits for the cached table of query. ok is false when the table is empty.
func fetch(ctx context.Context, cache contract.ResultCache, query schema.QueryName, req schema.PageRequest,
	policy schema.PollPolicy, logger *zap.SugaredLogger,
) (schema.RawTable, bool, error) {
	if _, ok := schema.ValidGranularities[req.Granularity]; !ok {
		return schema.RawTable{}, false, fmt.Errorf("invalid granularity %q", req.Granularity)
	}
	table, err := iocache.AwaitCached(ctx, cache, query, req.Repos, policy, logger)
	if err != nil {
		return schema.RawTable{}, false, err
	}
	return table, !table.Empty(), nil
}

// ready wraps classified rows into a ready result.
func ready(page schema.Page, g schema.Granularity, rows []schema.StatusRow) schema.PageResult {
	table := algo.Tabulate(page, g, rows)
	return schema.PageResult{Outcome: schema.OutcomeReady, Table: &table}
}

// RunDrift computes the Active/Drifting/Away contributor table. Thresholds
// are months.
func RunDrift(ctx context.Context, cache contract.ResultCache, req schema.PageRequest,
	policy schema.PollPolicy, logger *zap.SugaredLogger,
) (schema.PageResult, error) {
	if result, ok := gateTwo(req); !ok {
		return result, nil
	}
	table, ok, err := fetch(ctx, cache, schema.ContributorsQuery, req, policy, logger)
	if err != nil {
		return schema.PageResult{}, err
	}
	if !ok {
		return schema.PageResult{Outcome: schema.OutcomeNoData}, nil
	}

	events, err := ContributionEvents(table)
	if err != nil {
		return schema.PageResult{}, err
	}
	earliest, latest, _ := algo.DriftBounds(events)
	axis, err := algo.BuildAxis(earliest, latest, req.Granularity)
	if err != nil {
		return schema.PageResult{}, err
	}
	rows := algo.ClassifyDrift(events, axis, *req.ShortThreshold, *req.LongThreshold)
	return ready(schema.DriftPage, req.Granularity, rows), nil
}

// RunStaleness computes the New/Staling/Stale open issue table. Thresholds
// are days.
func RunStaleness(ctx context.Context, cache contract.ResultCache, req schema.PageRequest,
	policy schema.PollPolicy, logger *zap.SugaredLogger,
) (schema.PageResult, error) {
	if result, ok := gateTwo(req); !ok {
		return result, nil
	}
	table, ok, err := fetch(ctx, cache, schema.IssuesQuery, req, policy, logger)
	if err != nil {
		return schema.PageResult{}, err
	}
	if !ok {
		return schema.PageResult{Outcome: schema.OutcomeNoData}, nil
	}

	events, err := IssueEvents(table)
	if err != nil {
		return schema.PageResult{}, err
	}
	earliest, latest, _ := algo.StalenessBounds(events)
	axis, err := algo.BuildAxis(earliest, latest, req.Granularity)
	if err != nil {
		return schema.PageResult{}, err
	}
	rows := algo.ClassifyStaleness(events, axis, *req.ShortThreshold, *req.LongThreshold)
	return ready(schema.StalenessPage, req.Granularity, rows), nil
}

// RunResponse computes the Open/Response first-response table. The threshold
// is days.
func RunResponse(ctx context.Context, cache contract.ResultCache, req schema.PageRequest,
	policy schema.PollPolicy, logger *zap.SugaredLogger,
) (schema.PageResult, error) {
	if result, ok := gateOne(req); !ok {
		return result, nil
	}
	table, ok, err := fetch(ctx, cache, schema.IssueResponseQuery, req, policy, logger)
	if err != nil {
		return schema.PageResult{}, err
	}
	if !ok {
		return schema.PageResult{Outcome: schema.OutcomeNoData}, nil
	}

	events, err := IssueResponseEvents(table)
	if err != nil {
		return schema.PageResult{}, err
	}
	if req.FilterBots {
		events = FilterBots(events, req.Bots)
	}
	issues := algo.FirstResponses(events)
	if len(issues) == 0 {
		return schema.PageResult{Outcome: schema.OutcomeNoData}, nil
	}
	earliest, latest, _ := algo.ResponseBounds(issues)
	axis, err := algo.BuildAxis(earliest, latest, req.Granularity)
	if err != nil {
		return schema.PageResult{}, err
	}
	rows := algo.ClassifyResponse(issues, axis, *req.ShortThreshold)
	return ready(schema.ResponsePage, req.Granularity, rows), nil
}
