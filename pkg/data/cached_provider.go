package data

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/quantduc/crossover-bot/pkg/types"
)

// MemoryCache is a thread-safe in-memory candle cache keyed by source path.
// Get and Set copy the slice so cached series stay immutable while workers
// share them.
type MemoryCache struct {
	cache map[string][]types.OHLCV
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{cache: make(map[string][]types.OHLCV)}
}

// Get retrieves a copy of the cached series if present.
func (c *MemoryCache) Get(key string) ([]types.OHLCV, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	data, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	result := make([]types.OHLCV, len(data))
	copy(result, data)
	return result, true
}

// Set stores a copy of the series.
func (c *MemoryCache) Set(key string, data []types.OHLCV) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make([]types.OHLCV, len(data))
	copy(cached, data)
	c.cache[key] = cached
}

// Clear removes all cached data.
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cache = make(map[string][]types.OHLCV)
}

// Size returns the number of cached entries.
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// CachedProvider wraps a DataProvider so repeated loads of the same file
// (e.g. single backtest followed by optimization) hit memory instead of
// reparsing the CSV.
type CachedProvider struct {
	provider DataProvider
	cache    *MemoryCache
}

// NewCachedProvider creates a caching wrapper around provider.
func NewCachedProvider(provider DataProvider) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    NewMemoryCache(),
	}
}

// GetName returns the underlying provider's name with cache indication.
func (p *CachedProvider) GetName() string {
	return "Cached " + p.provider.GetName()
}

// LoadData loads data through the cache.
func (p *CachedProvider) LoadData(source string) ([]types.OHLCV, error) {
	if cached, exists := p.cache.Get(source); exists {
		return cached, nil
	}

	log.Printf("🔄 Loading historical data from %s", filepath.Base(source))
	data, err := p.provider.LoadData(source)
	if err != nil {
		return nil, err
	}

	p.cache.Set(source, data)
	log.Printf("✅ Loaded and cached %d candles from %s", len(data), filepath.Base(source))
	return data, nil
}

// ValidateData validates data using the underlying provider.
func (p *CachedProvider) ValidateData(data []types.OHLCV) error {
	return p.provider.ValidateData(data)
}

// ClearCache drops all cached series.
func (p *CachedProvider) ClearCache() {
	p.cache.Clear()
}
