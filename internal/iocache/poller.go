package iocache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"go.uber.org/zap"
)

// ErrPollTimeout is returned when the cache does not populate within the poll timeout.
var ErrPollTimeout = errors.New("timed out waiting for cached data")

// errNotCached marks a poll attempt that found no data yet.
var errNotCached = errors.New("data not cached yet")

// newPollBackOff builds the retry schedule of a poll policy.
func newPollBackOff(policy schema.PollPolicy) *backoff.ExponentialBackOff {
	multiplier := policy.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	maxInterval := max(policy.MaxInterval, policy.Interval)
	b := &backoff.ExponentialBackOff{
		InitialInterval:     policy.Interval,
		RandomizationFactor: 0,
		Multiplier:          multiplier,
		MaxInterval:         maxInterval,
	}
	b.Reset()
	return b
}

// AwaitCached blocks until every repository has a cached table for query and
// returns the concatenated table. Checks repeat on the policy schedule. A
// positive policy timeout bounds the wait with ErrPollTimeout; otherwise only
// ctx ends it. Store errors end the wait immediately.
func AwaitCached(ctx context.Context, cache contract.ResultCache, query schema.QueryName, repos []string,
	policy schema.PollPolicy, logger *zap.SugaredLogger,
) (schema.RawTable, error) {
	attempt := func() (schema.RawTable, error) {
		table, ok, err := cache.Get(ctx, query, repos)
		if err != nil {
			return schema.RawTable{}, backoff.Permanent(err)
		}
		if !ok {
			return schema.RawTable{}, errNotCached
		}
		return table, nil
	}

	notify := func(_ error, wait time.Duration) {
		logger.Warnw("WAITING ON DATA TO BECOME AVAILABLE", "query", query, "repos", repos, "retry_in", wait)
	}

	// MaxElapsedTime of zero disables the elapsed-time limit.
	table, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(newPollBackOff(policy)),
		backoff.WithNotify(notify),
		backoff.WithMaxElapsedTime(policy.Timeout),
	)
	switch {
	case err == nil:
		return table, nil
	case errors.Is(err, errNotCached):
		return schema.RawTable{}, fmt.Errorf("%w: %s after %s", ErrPollTimeout, query, policy.Timeout)
	case ctx.Err() != nil:
		return schema.RawTable{}, fmt.Errorf("stopped waiting for %s: %w", query, ctx.Err())
	default:
		return schema.RawTable{}, fmt.Errorf("failed to read %s from cache: %w", query, err)
	}
}
