package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/iocache"
	"github.com/huangsam/repopulse/internal/source"
	"github.com/huangsam/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExecuteLoad(t *testing.T) {
	tables := contributorTables()
	src := &source.MockEventSource{}
	src.On("Name").Return("mock")
	for repo, table := range tables {
		src.On("Fetch", mock.Anything, repo).Return(map[schema.QueryName]schema.RawTable{schema.ContributorsQuery: table}, nil)
	}
	store := iocache.NewMemoryStore()
	mgr := iocache.NewCacheStoreManager(store, store)

	require.NoError(t, ExecuteLoad(context.Background(), src, mgr, []string{"1", "2"}, zap.NewNop().Sugar()))

	table, ok, err := store.Get(context.Background(), schema.ContributorsQuery, []string{"1", "2"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, table.Len())
	src.AssertExpectations(t)
}

func TestExecuteLoadErrors(t *testing.T) {
	store := iocache.NewMemoryStore()
	mgr := iocache.NewCacheStoreManager(store, store)

	err := ExecuteLoad(context.Background(), &source.MockEventSource{}, mgr, nil, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, ErrNoRepos)

	boom := errors.New("rate limited")
	src := &source.MockEventSource{}
	src.On("Name").Return("mock")
	src.On("Fetch", mock.Anything, "1").Return(nil, boom)
	err = ExecuteLoad(context.Background(), src, mgr, []string{"1"}, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, boom)
}

func TestExecuteHistory(t *testing.T) {
	store := iocache.NewMemoryStore()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, page := range schema.AllPages {
		require.NoError(t, store.RecordRun(context.Background(), schema.RunRecord{
			ID:          uuid.New(),
			Page:        page,
			Repos:       []string{"1"},
			Granularity: schema.Monthly,
			Outcome:     schema.OutcomeReady,
			StartedAt:   start.Add(time.Duration(i) * time.Minute),
		}))
	}
	mgr := iocache.NewCacheStoreManager(store, store)
	cfg := testConfig(t, schema.CSVOut)
	cfg.HistoryLimit = 2

	require.NoError(t, ExecuteHistory(context.Background(), cfg, mgr))

	runs, err := store.ListRuns(context.Background(), cfg.HistoryLimit)
	require.NoError(t, err)
	assert.Equal(t, schema.ResponsePage, runs[0].Page, "newest first")
}

func TestExecuteHistoryError(t *testing.T) {
	runs := &iocache.MockRunLog{}
	runs.On("ListRuns", mock.Anything, contract.DefaultHistoryLimit).Return(nil, errors.New("no such table"))
	mgr := iocache.NewCacheStoreManager(iocache.NewMemoryStore(), runs)

	err := ExecuteHistory(context.Background(), &contract.Config{HistoryLimit: contract.DefaultHistoryLimit}, mgr)
	assert.ErrorContains(t, err, "no such table")
}
