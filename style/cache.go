package style

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// CachingFetcher keeps every asset fetched successfully so repeated default
// style loads only hit the network for shapes not seen yet. Failures are
// not cached. Safe for concurrent use.
type CachingFetcher struct {
	next   Fetcher
	assets map[string][]byte
	mu     sync.RWMutex
}

// NewCachingFetcher wraps next with an in-memory asset cache.
func NewCachingFetcher(next Fetcher) *CachingFetcher {
	return &CachingFetcher{
		next:   next,
		assets: make(map[string][]byte),
	}
}

func (c *CachingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	c.mu.RLock()
	data, ok := c.assets[url]
	c.mu.RUnlock()
	if ok {
		return slices.Clone(data), nil
	}

	data, err := c.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.assets[url] = slices.Clone(data)
	c.mu.Unlock()
	return data, nil
}

// Invalidate drops the cached assets for urls, or every asset when none is
// given.
func (c *CachingFetcher) Invalidate(urls ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(urls) == 0 {
		c.assets = make(map[string][]byte)
		return
	}
	for _, url := range urls {
		delete(c.assets, url)
	}
}

// URLs returns the cached asset urls, sorted.
func (c *CachingFetcher) URLs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	urls := make([]string, 0, len(c.assets))
	for url := range c.assets {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}
