package iocache

import (
	"fmt"
	"sync"

	"github.com/huangsam/repopulse/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
	closer    interface{ Close() error }
)

// InitStores initializes the global manager with the cache and run log of
// the given backend. Both live in the same database.
func InitStores(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		switch backend {
		case schema.MemoryBackend:
			store := NewMemoryStore()
			Manager.Lock()
			Manager.results, Manager.runs = store, store
			Manager.Unlock()
			closer = store

		default:
			store, err := NewCacheStore(backend, connStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize result cache: %w", err)
				return
			}
			Manager.Lock()
			Manager.results, Manager.runs = store, store
			Manager.Unlock()
			closer = store
		}
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if closer != nil {
			_ = closer.Close()
		}
	})
}
