// Package civiccal discovers public calendar feeds for US localities
// and collects their events. The pipeline finds organizational
// websites from nothing but a city and state, probes them for feeds,
// arbitrates which feed represents each organization, and pulls
// normalized events into a local store.
package civiccal

import (
	"context"
	"fmt"
	"time"

	"civiccal/internal/citylookup"
	"civiccal/internal/collector"
	"civiccal/internal/config"
	"civiccal/internal/discovery"
	"civiccal/internal/event"
	"civiccal/internal/fetch"
	"civiccal/internal/registry"
	"civiccal/internal/source"
	"civiccal/internal/store"
)

// Options configures a Pipeline. Zero values get sensible defaults;
// only StorePath is required.
type Options struct {
	// Config overrides the built-in defaults.
	Config *config.Config
	// CityTable supplies known city websites; nil means the built-in
	// seed table.
	CityTable *citylookup.Table
	// RegistryPath persists the source registry between runs. Empty
	// keeps the registry in memory only.
	RegistryPath string
	// StorePath is the event store's JSON snapshot file.
	StorePath string
}

// Pipeline ties discovery, the source registry, collection, and event
// storage together behind one facade.
type Pipeline struct {
	cfg          *config.Config
	discoverer   *discovery.Discoverer
	registry     *registry.Registry
	collector    *collector.Collector
	store        *store.FileStore
	registryPath string
}

// New assembles a pipeline. An existing registry snapshot is loaded
// when RegistryPath names one.
func New(opts Options) (*Pipeline, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	table := opts.CityTable
	if table == nil {
		table = citylookup.New()
	}

	st, err := store.NewFileStore(opts.StorePath)
	if err != nil {
		return nil, fmt.Errorf("opening event store: %w", err)
	}

	client := fetch.New(cfg.HTTP)
	reg := registry.New(nil)
	coll := collector.New(client, cfg, st, reg)
	reg.SetTester(coll)

	if opts.RegistryPath != "" {
		if err := reg.Load(opts.RegistryPath); err != nil {
			return nil, fmt.Errorf("loading registry: %w", err)
		}
	}

	return &Pipeline{
		cfg:          cfg,
		discoverer:   discovery.New(client, cfg, table),
		registry:     reg,
		collector:    coll,
		store:        st,
		registryPath: opts.RegistryPath,
	}, nil
}

// DiscoverFeedsForLocation finds candidate feeds for a locality without
// registering them. Passing no org types searches all of them.
func (p *Pipeline) DiscoverFeedsForLocation(ctx context.Context, city, state string, orgs ...source.OrgType) ([]*source.DiscoveredFeed, error) {
	return p.discoverer.DiscoverForLocation(ctx, city, state, orgs...)
}

// PromoteFeed registers a discovered feed as a calendar source. The
// returned flag reports whether the feed was new.
func (p *Pipeline) PromoteFeed(ctx context.Context, feed *source.DiscoveredFeed) (*source.CalendarSource, bool, error) {
	src, added := p.registry.Add(ctx, feed.Source)
	if added {
		if err := p.saveRegistry(); err != nil {
			return src, added, err
		}
	}
	return src, added, nil
}

// CollectFromAllSources collects every active source in batches.
func (p *Pipeline) CollectFromAllSources(ctx context.Context) ([]collector.Result, error) {
	results, err := p.collector.CollectAll(ctx, p.registry.Active())
	if saveErr := p.saveRegistry(); saveErr != nil && err == nil {
		err = saveErr
	}
	return results, err
}

// CollectFromSource collects one source by ID regardless of its active
// flag, for spot checks.
func (p *Pipeline) CollectFromSource(ctx context.Context, id string) (collector.Result, error) {
	src, ok := p.registry.Get(id)
	if !ok {
		return collector.Result{}, fmt.Errorf("unknown source %s", id)
	}
	res := p.collector.CollectSource(ctx, src)
	if err := p.saveRegistry(); err != nil && res.Err == nil {
		res.Err = err
	}
	return res, res.Err
}

// Sources lists all registered sources.
func (p *Pipeline) Sources() []*source.CalendarSource {
	return p.registry.List()
}

// ToggleSource flips a source's active flag.
func (p *Pipeline) ToggleSource(id string) (*source.CalendarSource, error) {
	src, err := p.registry.Toggle(id)
	if err != nil {
		return nil, err
	}
	return src, p.saveRegistry()
}

// RemoveSource deletes a source from the registry.
func (p *Pipeline) RemoveSource(id string) error {
	if err := p.registry.Remove(id); err != nil {
		return err
	}
	return p.saveRegistry()
}

// ReprioritizeAllFeeds re-runs feed arbitration across the registry,
// live-testing feeds so each organization ends up with its best
// working feed active.
func (p *Pipeline) ReprioritizeAllFeeds(ctx context.Context) error {
	if err := p.registry.ReprioritizeAll(ctx); err != nil {
		return err
	}
	return p.saveRegistry()
}

// Events returns the stored events ordered by start time.
func (p *Pipeline) Events() []*event.Event {
	return p.store.All()
}

// LastSyncOf reports a source's last successful collection time.
func (p *Pipeline) LastSyncOf(id string) (time.Time, bool) {
	src, ok := p.registry.Get(id)
	if !ok || src.LastSync == nil {
		return time.Time{}, false
	}
	return *src.LastSync, true
}

func (p *Pipeline) saveRegistry() error {
	if p.registryPath == "" {
		return nil
	}
	return p.registry.Save(p.registryPath)
}
