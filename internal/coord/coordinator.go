// Package coord refreshes feed sources in the background and tells the
// viewer when new reels land in the store.
package coord

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/reels/internal/fetch"
	"github.com/abelbrown/reels/internal/logging"
	"github.com/abelbrown/reels/internal/otel"
	"github.com/abelbrown/reels/internal/store"
	"github.com/abelbrown/reels/internal/ui"
)

// fetchTimeout bounds each source fetch.
const fetchTimeout = 30 * time.Second

// maxConcurrentFetches limits parallel fetch operations.
const maxConcurrentFetches = 5

// fetcher is satisfied by *fetch.Fetcher.
type fetcher interface {
	Fetch(ctx context.Context, src fetch.Source) ([]store.Item, error)
	Manifest(ctx context.Context, ref string) ([]store.Item, error)
}

// Sender receives progress messages. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Coordinator polls sources on an interval. Cancelling the context passed
// to Start is the only way to stop it.
type Coordinator struct {
	store    *store.Store
	fetcher  fetcher
	sources  []fetch.Source // copied at construction, never modified
	interval time.Duration
	events   *otel.Logger
	wg       sync.WaitGroup
}

// NewCoordinator creates a Coordinator. A zero interval fetches once.
func NewCoordinator(s *store.Store, f *fetch.Fetcher, sources []fetch.Source, interval time.Duration, events *otel.Logger) *Coordinator {
	return newCoordinator(s, f, sources, interval, events)
}

func newCoordinator(s *store.Store, f fetcher, sources []fetch.Source, interval time.Duration, events *otel.Logger) *Coordinator {
	if events == nil {
		events = otel.NewNullLogger()
	}
	cp := make([]fetch.Source, len(sources))
	copy(cp, sources)
	return &Coordinator{
		store:    s,
		fetcher:  f,
		sources:  cp,
		interval: interval,
		events:   events,
	}
}

// Import loads a manifest into the store and returns how many items were
// new.
func (c *Coordinator) Import(ctx context.Context, ref string) (int, error) {
	start := time.Now()
	items, err := c.fetcher.Manifest(ctx, ref)
	if err != nil {
		c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindFetchError, Comp: "coord", Source: ref, Err: err.Error()})
		return 0, err
	}
	n, err := c.store.SaveItems(items)
	if err != nil {
		c.events.Error(otel.KindStoreError, "coord", err)
		return 0, err
	}
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchComplete, Comp: "coord", Source: ref, Count: n, Dur: time.Since(start)})
	logging.Info("manifest imported", "ref", ref, "items", len(items), "new", n)
	return n, nil
}

// Start fetches every source now, then on each interval tick.
func (c *Coordinator) Start(ctx context.Context, out Sender) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.fetchAll(ctx, out)
		if c.interval <= 0 {
			return
		}

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.fetchAll(ctx, out)
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// fetchAll fetches all sources in parallel and returns the number of new
// items stored.
func (c *Coordinator) fetchAll(ctx context.Context, out Sender) int {
	var (
		g     errgroup.Group
		mu    sync.Mutex
		total int
	)
	g.SetLimit(maxConcurrentFetches)

	for _, src := range c.sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			n := c.fetchSource(ctx, src, out)
			mu.Lock()
			total += n
			mu.Unlock()
			return nil // errors are reported per source
		})
	}
	_ = g.Wait()
	return total
}

func (c *Coordinator) fetchSource(ctx context.Context, src fetch.Source, out Sender) int {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	name := src.Name
	if name == "" {
		name = src.URL
	}
	c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchStart, Comp: "coord", Source: name})

	start := time.Now()
	items, err := c.fetcher.Fetch(fetchCtx, src)

	added := 0
	if err == nil && len(items) > 0 {
		added, err = c.store.SaveItems(items)
		if err != nil {
			c.events.Error(otel.KindStoreError, "coord", err)
		}
	}

	if err != nil {
		c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindFetchError, Comp: "coord", Source: name, Err: err.Error(), Dur: time.Since(start)})
		logging.Warn("fetch failed", "source", name, "err", err)
	} else {
		c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchComplete, Comp: "coord", Source: name, Count: added, Dur: time.Since(start)})
	}

	if out != nil {
		out.Send(ui.FetchComplete{Source: name, NewItems: added, Err: err})
	}
	return added
}
