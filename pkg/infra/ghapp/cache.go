package ghapp

import (
	"sync"

	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
)

// memoryCache is the in-process credential cache for single-process
// deployments. The mutex only protects map access; the surrounding
// check-then-issue sequence is intentionally unguarded (see the
// CredentialCache interface).
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*model.CredentialCacheEntry
}

var _ interfaces.CredentialCache = (*memoryCache)(nil)

// NewMemoryCache creates an in-memory credential cache.
func NewMemoryCache() interfaces.CredentialCache {
	return &memoryCache{
		entries: make(map[string]*model.CredentialCacheEntry),
	}
}

func (x *memoryCache) Get(key string) (*model.CredentialCacheEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	entry, ok := x.entries[key]
	if !ok {
		return nil, false
	}
	cpy := *entry
	return &cpy, true
}

func (x *memoryCache) Set(key string, entry *model.CredentialCacheEntry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	cpy := *entry
	x.entries[key] = &cpy
}

func (x *memoryCache) Delete(key string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.entries, key)
}
