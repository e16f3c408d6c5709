package iocache

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

type memoryKey struct {
	query schema.QueryName
	repo  string
}

type memoryEntry struct {
	value     []byte
	version   int
	timestamp int64
}

// MemoryStore keeps the cache and run log in process memory. Entries are
// stored encoded so readers never share slices with writers.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[memoryKey]memoryEntry
	runs    []schema.RunRecord
	now     func() time.Time
}

var (
	_ contract.ResultCache = &MemoryStore{} // Compile-time check
	_ contract.RunLog      = &MemoryStore{} // Compile-time check
)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[memoryKey]memoryEntry),
		now:     time.Now,
	}
}

// Get implements contract.ResultCache.
func (ms *MemoryStore) Get(_ context.Context, query schema.QueryName, repos []string) (schema.RawTable, bool, error) {
	ms.mu.RLock()
	payloads := make(map[string][]byte, len(repos))
	for _, repo := range repos {
		if entry, ok := ms.entries[memoryKey{query, repo}]; ok && entry.version == CacheVersion {
			payloads[repo] = entry.value
		}
	}
	ms.mu.RUnlock()

	return concatPayloads(query, repos, payloads)
}

// Set implements contract.ResultCache.
func (ms *MemoryStore) Set(_ context.Context, query schema.QueryName, repo string, table schema.RawTable) error {
	value, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode %s table for %s: %w", query, repo, err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries[memoryKey{query, repo}] = memoryEntry{value: value, version: CacheVersion, timestamp: ms.now().Unix()}
	return nil
}

// Clear implements contract.ResultCache.
func (ms *MemoryStore) Clear(_ context.Context, query schema.QueryName) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for key := range ms.entries {
		if query == "" || key.query == query {
			delete(ms.entries, key)
		}
	}
	return nil
}

// GetStatus implements contract.ResultCache.
func (ms *MemoryStore) GetStatus(_ context.Context) (schema.CacheStatus, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	status := schema.CacheStatus{
		Backend:      string(schema.MemoryBackend),
		Connected:    true,
		TotalEntries: len(ms.entries),
	}
	var oldest, last int64
	for _, entry := range ms.entries {
		status.TableSizeBytes += int64(len(entry.value))
		if oldest == 0 || entry.timestamp < oldest {
			oldest = entry.timestamp
		}
		if entry.timestamp > last {
			last = entry.timestamp
		}
	}
	if status.TotalEntries > 0 {
		status.OldestEntryTime = time.Unix(oldest, 0)
		status.LastEntryTime = time.Unix(last, 0)
	}
	return status, nil
}

// Close implements contract.ResultCache.
func (ms *MemoryStore) Close() error {
	return nil
}

// RecordRun implements contract.RunLog.
func (ms *MemoryStore) RecordRun(_ context.Context, run schema.RunRecord) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	run.Repos = slices.Clone(run.Repos)
	ms.runs = append(ms.runs, run)
	return nil
}

// ListRuns implements contract.RunLog.
func (ms *MemoryStore) ListRuns(_ context.Context, limit int) ([]schema.RunRecord, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	runs := slices.Clone(ms.runs)
	slices.SortStableFunc(runs, func(a, b schema.RunRecord) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if limit >= 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
