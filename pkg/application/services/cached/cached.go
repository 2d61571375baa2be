package cached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vsinha/bom/pkg/application/pagination"
	"github.com/vsinha/bom/pkg/application/services/explosion"
	"github.com/vsinha/bom/pkg/application/services/whereused"
	"github.com/vsinha/bom/pkg/infrastructure/cache"
	"github.com/vsinha/bom/pkg/infrastructure/logger"
)

// Exploder is satisfied by *explosion.Engine
type Exploder interface {
	Explode(ctx context.Context, rootHeaderID string) (*explosion.TreeNode, error)
}

// UsageFinder is satisfied by *whereused.Engine
type UsageFinder interface {
	WhereUsed(ctx context.Context, q whereused.Query) (pagination.Page[whereused.UsageRecord], error)
}

// Explorer serves explosions from the cache, computing and storing them on a miss.
// Entries carry cache.TagBOM and are dropped by any formula or master-data write.
type Explorer struct {
	next  Exploder
	store cache.Store
	ttl   time.Duration
	log   *logger.Logger
}

// NewExplorer wraps next; ttl bounds how long a cached tree may outlive its formulas
func NewExplorer(next Exploder, store cache.Store, ttl time.Duration, log *logger.Logger) *Explorer {
	return &Explorer{next: next, store: store, ttl: ttl, log: logger.OrNop(log).With("component", "cache")}
}

// Explode returns the cached tree for rootHeaderID, exploding through next on a miss
func (e *Explorer) Explode(ctx context.Context, rootHeaderID string) (*explosion.TreeNode, error) {
	key := "explode:" + rootHeaderID
	return through(ctx, e.store, e.log, key, e.ttl, func() (*explosion.TreeNode, error) {
		return e.next.Explode(ctx, rootHeaderID)
	})
}

// WhereUsed is the caching counterpart of Explorer for where-used pages
type WhereUsed struct {
	next  UsageFinder
	store cache.Store
	ttl   time.Duration
	log   *logger.Logger
}

// NewWhereUsed wraps next with the same store and ttl semantics as NewExplorer
func NewWhereUsed(next UsageFinder, store cache.Store, ttl time.Duration, log *logger.Logger) *WhereUsed {
	return &WhereUsed{next: next, store: store, ttl: ttl, log: logger.OrNop(log).With("component", "cache")}
}

// WhereUsed returns the cached page for q. The key covers every query field, so each page
// and mode is cached on its own.
func (w *WhereUsed) WhereUsed(ctx context.Context, q whereused.Query) (pagination.Page[whereused.UsageRecord], error) {
	key := fmt.Sprintf("where-used:%s:%t:%t:%d:%d",
		q.ProductID, q.MultiLevel, q.EndItemsOnly, q.Page.PageNumber, q.Page.PageSize)

	page, err := through(ctx, w.store, w.log, key, w.ttl, func() (*pagination.Page[whereused.UsageRecord], error) {
		p, err := w.next.WhereUsed(ctx, q)
		if err != nil {
			return nil, err
		}
		return &p, nil
	})
	if err != nil {
		return pagination.Page[whereused.UsageRecord]{}, err
	}
	return *page, nil
}

// through checks the cache, runs compute on a miss and stores its result. Cache failures are
// logged and bypassed; only compute errors reach the caller, and they are never cached.
func through[T any](
	ctx context.Context,
	store cache.Store,
	log *logger.Logger,
	key string,
	ttl time.Duration,
	compute func() (*T, error),
) (*T, error) {
	raw, err := store.Get(ctx, key)
	switch {
	case err == nil:
		var hit T
		if err := json.Unmarshal(raw, &hit); err == nil {
			log.Debug("cache hit", "key", key)
			return &hit, nil
		}
		log.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, cache.ErrMiss):
		log.Warn("cache read failed", "key", key, "error", err)
	}

	value, err := compute()
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		log.Warn("cache encode failed", "key", key, "error", err)
		return value, nil
	}
	if err := store.Set(ctx, key, encoded, ttl, cache.TagBOM); err != nil {
		log.Warn("cache write failed", "key", key, "error", err)
	}
	return value, nil
}
