package neighbors

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/mager/geetyatra/config"
	"github.com/mager/geetyatra/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache loads cluster indexes on first use and keeps them for the life of
// the process. Concurrent misses for the same cluster share one load.
type Cache struct {
	log  *zap.SugaredLogger
	dir  string
	load func(cluster int) (*Index, error)

	mu      sync.RWMutex
	indexes map[int]*Index
	group   singleflight.Group
}

// NewCache returns a cache reading knn_cluster_<id>.json files from dir.
func NewCache(log *zap.SugaredLogger, dir string) *Cache {
	c := &Cache{
		log:     log,
		dir:     dir,
		indexes: make(map[int]*Index),
	}
	c.load = func(cluster int) (*Index, error) {
		return Load(c.Path(cluster))
	}
	return c
}

// Path is where the index for cluster is expected on disk.
func (c *Cache) Path(cluster int) string {
	return filepath.Join(c.dir, fmt.Sprintf("knn_cluster_%d.json", cluster))
}

// Get returns the index for cluster, loading it if needed. Failed loads are
// not cached.
func (c *Cache) Get(ctx context.Context, cluster int) (*Index, error) {
	c.mu.RLock()
	ix, ok := c.indexes[cluster]
	c.mu.RUnlock()
	if ok {
		return ix, nil
	}

	ch := c.group.DoChan(strconv.Itoa(cluster), func() (any, error) {
		c.mu.RLock()
		ix, ok := c.indexes[cluster]
		c.mu.RUnlock()
		if ok {
			return ix, nil
		}

		ix, err := c.load(cluster)
		if err != nil {
			metrics.IndexLoads.WithLabelValues("error").Inc()
			return nil, err
		}

		c.mu.Lock()
		c.indexes[cluster] = ix
		size := len(c.indexes)
		c.mu.Unlock()

		metrics.IndexLoads.WithLabelValues("ok").Inc()
		metrics.IndexCacheSize.Set(float64(size))
		c.log.Infow("loaded neighbor index", "cluster", cluster, "points", ix.Len(), "metric", ix.Metric())
		return ix, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Index), nil
	}
}

// Len is the number of cached indexes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.indexes)
}

// ProvideCache provides the index cache rooted at the configured model dir.
func ProvideCache(cfg config.Config, log *zap.SugaredLogger) *Cache {
	return NewCache(log, cfg.ModelDir)
}

var Options = ProvideCache
