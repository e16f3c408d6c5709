// Package iocache is for caching raw query tables and recording page runs.
package iocache

import (
	"sync"

	"github.com/huangsam/repopulse/internal/contract"
)

// Table names for the cache and run log.
const (
	cacheTable = "cohort_cache"
	runsTable  = "cohort_runs"
)

// CacheVersion is the payload version of cached tables. Entries written
// with another version are treated as absent.
const CacheVersion = 1

// CacheStoreManager manages the result cache and run log instances.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	results      contract.ResultCache
	runs         contract.RunLog
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetResultCache returns the result cache.
func (mgr *CacheStoreManager) GetResultCache() contract.ResultCache {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.results
}

// GetRunLog returns the run log.
func (mgr *CacheStoreManager) GetRunLog() contract.RunLog {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}

// NewCacheStoreManager returns a manager over the given stores.
func NewCacheStoreManager(results contract.ResultCache, runs contract.RunLog) *CacheStoreManager {
	return &CacheStoreManager{results: results, runs: runs}
}
