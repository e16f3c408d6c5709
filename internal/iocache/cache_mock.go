package iocache

import (
	"context"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetResultCache implements the CacheManager interface.
func (m *MockCacheManager) GetResultCache() contract.ResultCache {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ResultCache)
	return store
}

// GetRunLog implements the CacheManager interface.
func (m *MockCacheManager) GetRunLog() contract.RunLog {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunLog)
	return store
}

// MockResultCache is a mock implementation of ResultCache for testing.
type MockResultCache struct {
	mock.Mock
}

var _ contract.ResultCache = &MockResultCache{} // Compile-time check

// Get implements the ResultCache interface.
func (m *MockResultCache) Get(ctx context.Context, query schema.QueryName, repos []string) (schema.RawTable, bool, error) {
	args := m.Called(ctx, query, repos)
	return args.Get(0).(schema.RawTable), args.Bool(1), args.Error(2)
}

// Set implements the ResultCache interface.
func (m *MockResultCache) Set(ctx context.Context, query schema.QueryName, repo string, table schema.RawTable) error {
	args := m.Called(ctx, query, repo, table)
	return args.Error(0)
}

// Clear implements the ResultCache interface.
func (m *MockResultCache) Clear(ctx context.Context, query schema.QueryName) error {
	args := m.Called(ctx, query)
	return args.Error(0)
}

// GetStatus implements the ResultCache interface.
func (m *MockResultCache) GetStatus(ctx context.Context) (schema.CacheStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// Close implements the ResultCache interface.
func (m *MockResultCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunLog is a mock implementation of RunLog for testing.
type MockRunLog struct {
	mock.Mock
}

var _ contract.RunLog = &MockRunLog{} // Compile-time check

// RecordRun implements the RunLog interface.
func (m *MockRunLog) RecordRun(ctx context.Context, run schema.RunRecord) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// ListRuns implements the RunLog interface.
func (m *MockRunLog) ListRuns(ctx context.Context, limit int) ([]schema.RunRecord, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}
