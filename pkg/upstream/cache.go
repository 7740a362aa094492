package upstream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/robfig/cron/v3"

	"fiber_router/pkg/logging"
	"fiber_router/pkg/store"
)

// Fetcher is the network side of a Cache.
type Fetcher interface {
	Terrestrial(ctx context.Context, bbox orb.Bound) (*geojson.FeatureCollection, error)
	Global(ctx context.Context, src Source) ([]byte, error)
}

// SnapshotStore persists raw global datasets between runs.
type SnapshotStore interface {
	Save(ctx context.Context, s store.Snapshot) error
	Load(ctx context.Context, source string) (*store.Snapshot, error)
}

// Dataset describes one cached global dataset.
type Dataset struct {
	Source    Source    `json:"source"`
	Features  int       `json:"features"`
	FetchedAt time.Time `json:"fetched_at"`
}

type entry struct {
	fc        *geojson.FeatureCollection
	fetchedAt time.Time
}

// Cache serves submarine cables and landing points from memory and fetches
// terrestrial geometry on every call. Cached collections are shared between
// callers and must be treated as read-only.
type Cache struct {
	fetcher Fetcher
	store   SnapshotStore
	log     logging.Logger
	now     func() time.Time

	mu      sync.RWMutex
	entries map[Source]entry

	refreshMu sync.Mutex
	cron      *cron.Cron
}

// NewCache wraps f. st may be nil to disable persistence.
func NewCache(f Fetcher, st SnapshotStore, log logging.Logger) *Cache {
	if log == nil {
		log = logging.Noop()
	}
	return &Cache{
		fetcher: f,
		store:   st,
		log:     log,
		now:     time.Now,
		entries: make(map[Source]entry),
	}
}

var globalSources = []Source{SourceCables, SourceLandings}

// Warm fills the cache from the snapshot store, fetching any dataset the
// store does not hold.
func (c *Cache) Warm(ctx context.Context) error {
	for _, src := range globalSources {
		if c.loadSnapshot(ctx, src) {
			continue
		}
		if err := c.refreshOne(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

// Refresh re-fetches every global dataset. A failed dataset keeps its
// previous contents.
func (c *Cache) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	var errs []error
	for _, src := range globalSources {
		if err := c.fetchAndStore(ctx, src); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start schedules Refresh on a cron spec such as "@every 6h" or
// "0 */6 * * *".
func (c *Cache) Start(spec string) error {
	sched := cron.New()
	_, err := sched.AddFunc(spec, func() {
		ctx := context.Background()
		if err := c.Refresh(ctx); err != nil {
			c.log.Warn(ctx, "scheduled geometry refresh failed", logging.Err(err))
			return
		}
		c.log.Info(ctx, "geometry refreshed")
	})
	if err != nil {
		return fmt.Errorf("schedule refresh %q: %w", spec, err)
	}
	sched.Start()
	c.cron = sched
	return nil
}

// Stop halts scheduled refreshes and waits for a running one to finish.
func (c *Cache) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
}

// Terrestrial is always fetched live since it depends on the query bbox.
func (c *Cache) Terrestrial(ctx context.Context, bbox orb.Bound) (*geojson.FeatureCollection, error) {
	return c.fetcher.Terrestrial(ctx, bbox)
}

// SubmarineCables returns the cached cable collection, fetching it on first use.
func (c *Cache) SubmarineCables(ctx context.Context) (*geojson.FeatureCollection, error) {
	return c.get(ctx, SourceCables)
}

// LandingPoints returns the cached landing collection, fetching it on first use.
func (c *Cache) LandingPoints(ctx context.Context) (*geojson.FeatureCollection, error) {
	return c.get(ctx, SourceLandings)
}

// Datasets reports what is cached, in fixed source order.
func (c *Cache) Datasets() []Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Dataset, 0, len(globalSources))
	for _, src := range globalSources {
		e, ok := c.entries[src]
		if !ok {
			continue
		}
		out = append(out, Dataset{Source: src, Features: len(e.fc.Features), FetchedAt: e.fetchedAt})
	}
	return out
}

func (c *Cache) get(ctx context.Context, src Source) (*geojson.FeatureCollection, error) {
	c.mu.RLock()
	e, ok := c.entries[src]
	c.mu.RUnlock()
	if ok {
		return e.fc, nil
	}

	if err := c.refreshOne(ctx, src); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[src].fc, nil
}

// refreshOne fetches src unless a concurrent caller already did.
func (c *Cache) refreshOne(ctx context.Context, src Source) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.RLock()
	_, ok := c.entries[src]
	c.mu.RUnlock()
	if ok {
		return nil
	}
	return c.fetchAndStore(ctx, src)
}

// fetchAndStore must be called with refreshMu held.
func (c *Cache) fetchAndStore(ctx context.Context, src Source) error {
	body, err := c.fetcher.Global(ctx, src)
	if err != nil {
		return err
	}
	fc, err := decode(src, body)
	if err != nil {
		return err
	}
	at := c.now()
	c.set(src, fc, at)

	if c.store != nil {
		if err := c.store.Save(ctx, store.Snapshot{Source: string(src), FetchedAt: at, Body: body}); err != nil {
			c.log.Warn(ctx, "persist geometry snapshot failed",
				logging.String("source", string(src)),
				logging.Err(err),
			)
		}
	}
	c.log.Debug(ctx, "geometry fetched",
		logging.String("source", string(src)),
		logging.Int("features", len(fc.Features)),
	)
	return nil
}

func (c *Cache) loadSnapshot(ctx context.Context, src Source) bool {
	if c.store == nil {
		return false
	}
	snap, err := c.store.Load(ctx, string(src))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn(ctx, "load geometry snapshot failed",
				logging.String("source", string(src)),
				logging.Err(err),
			)
		}
		return false
	}
	fc, err := decode(src, snap.Body)
	if err != nil {
		c.log.Warn(ctx, "stored geometry snapshot is corrupt",
			logging.String("source", string(src)),
			logging.Err(err),
		)
		return false
	}
	c.set(src, fc, snap.FetchedAt)
	c.log.Info(ctx, "geometry restored from snapshot",
		logging.String("source", string(src)),
		logging.Int("features", len(fc.Features)),
		logging.Duration("age", c.now().Sub(snap.FetchedAt)),
	)
	return true
}

func (c *Cache) set(src Source, fc *geojson.FeatureCollection, at time.Time) {
	c.mu.Lock()
	c.entries[src] = entry{fc: fc, fetchedAt: at}
	c.mu.Unlock()
}
