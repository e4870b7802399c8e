package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// PrefetchRequest pairs a key with the function that loads it.
type PrefetchRequest struct {
	Key   Key
	Fetch FetchFunc
}

// Prefetch loads key into the cache unless its data is fresh under the
// client's stale time, and waits for the result. Nothing subscribes to the
// entry, so it is subject to idle eviction.
func (c *Client) Prefetch(ctx context.Context, key Key, fn FetchFunc) error {
	if !c.isStale(key, c.cfg.StaleTime) {
		return nil
	}
	_, err := c.exec.Fetch(key, fn).Wait(ctx)
	return err
}

// PrefetchMany prefetches every request with at most limit fetches waiting
// at once (limit <= 0 means no limit). It returns the first error; the other
// prefetches still run to completion in the background.
func (c *Client) PrefetchMany(ctx context.Context, limit int, reqs ...PrefetchRequest) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, req := range reqs {
		g.Go(func() error {
			if err := c.Prefetch(gctx, req.Key, req.Fetch); err != nil {
				return fmt.Errorf("prefetch %s: %w", req.Key, err)
			}
			return nil
		})
	}
	return g.Wait()
}
