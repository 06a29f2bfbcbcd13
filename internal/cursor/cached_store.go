package cursor

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cursorCacheHit = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securityiq_connector_cursor_cache_hit",
		Help: "The number of ingestion cursor lookups answered from the cache",
	})
	cursorCacheMiss = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securityiq_connector_cursor_cache_miss",
		Help: "The number of ingestion cursor lookups that fell through to the delegate",
	})
)

// CachedStore keeps a bounded read-through cache of already-ingested ids in
// front of a delegate Store.  Only positive answers are cached, an id can
// become ingested at any moment so negative answers must always hit the
// delegate.
type CachedStore struct {
	delegate Store
	cache    *lru.Cache[string, struct{}]
}

func NewCachedStore(delegate Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}

	return &CachedStore{
		delegate: delegate,
		cache:    cache,
	}, nil
}

func (c *CachedStore) IsIngested(ctx context.Context, remoteID string) (bool, error) {
	if _, found := c.cache.Get(remoteID); found {
		cursorCacheHit.Inc()
		return true, nil
	}
	cursorCacheMiss.Inc()

	ingested, err := c.delegate.IsIngested(ctx, remoteID)
	if err != nil {
		return false, err
	}
	if ingested {
		c.cache.Add(remoteID, struct{}{})
	}
	return ingested, nil
}

func (c *CachedStore) TryMark(ctx context.Context, remoteID string) (bool, error) {
	marked, err := c.delegate.TryMark(ctx, remoteID)
	if err != nil {
		return false, err
	}
	c.cache.Add(remoteID, struct{}{})
	return marked, nil
}

func (c *CachedStore) Unmark(ctx context.Context, remoteID string) error {
	c.cache.Remove(remoteID)
	return c.delegate.Unmark(ctx, remoteID)
}
