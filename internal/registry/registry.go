// Package registry tracks known calendar sources and arbitrates which
// feed stays active when one organization exposes several. Higher
// priority feed formats win only after proving they actually work.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"civiccal/internal/logger"
	"civiccal/internal/source"
)

// LiveTester verifies that a feed is currently fetchable and parseable.
// The registry never activates a higher-priority feed on format rank
// alone; the tester has to vouch for it first.
type LiveTester interface {
	TestFeed(ctx context.Context, src *source.CalendarSource) bool
}

// Registry is an in-memory source catalog safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	tester  LiveTester
	sources map[string]*source.CalendarSource
	byURL   map[string]string
}

// New creates an empty registry. The tester may be nil, in which case
// prioritization trusts format rank without live verification.
func New(tester LiveTester) *Registry {
	return &Registry{
		tester:  tester,
		sources: make(map[string]*source.CalendarSource),
		byURL:   make(map[string]string),
	}
}

// SetTester replaces the live tester. Exists because the collector
// that implements testing also wants the registry as its sync marker,
// so one of the two has to be wired after construction.
func (r *Registry) SetTester(tester LiveTester) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tester = tester
}

// groupKey clusters sources that represent the same organization: one
// locality, one organization type. Prioritization runs within a group.
func groupKey(src *source.CalendarSource) string {
	return src.LocalityKey() + "|" + string(src.OrgType)
}

func urlKey(feedURL string) string {
	return strings.ToLower(strings.TrimSpace(feedURL))
}

// Add registers a source. Adds are idempotent on feed URL and ID; a
// re-discovered source returns the existing entry unchanged. When the
// organization already has an active feed, the newcomer only takes over
// if it outranks the incumbent and passes a live test; otherwise it is
// kept inactive for later reprioritization.
func (r *Registry) Add(ctx context.Context, src *source.CalendarSource) (*source.CalendarSource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byURL[urlKey(src.FeedURL)]; ok && src.FeedURL != "" {
		return copyOf(r.sources[id]), false
	}
	if existing, ok := r.sources[src.ID]; ok {
		return copyOf(existing), false
	}

	entry := copyOf(src)
	incumbent := r.activeInGroup(groupKey(entry), entry.ID)

	switch {
	case incumbent == nil:
		entry.IsActive = true
	case entry.FeedType.Priority() > incumbent.FeedType.Priority() && r.passes(ctx, entry):
		entry.IsActive = true
		incumbent.IsActive = false
		logger.Info("feed superseded", logger.Fields{
			"activated":   entry.FeedURL,
			"deactivated": incumbent.FeedURL,
		})
	default:
		// Lower-ranked or unproven feeds wait in the wings.
		entry.IsActive = false
	}

	r.sources[entry.ID] = entry
	if entry.FeedURL != "" {
		r.byURL[urlKey(entry.FeedURL)] = entry.ID
	}
	return copyOf(entry), true
}

// Get returns a copy of one source.
func (r *Registry) Get(id string) (*source.CalendarSource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[id]
	if !ok {
		return nil, false
	}
	return copyOf(src), true
}

// List returns copies of all sources, ordered by locality then name.
func (r *Registry) List() []*source.CalendarSource {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*source.CalendarSource, 0, len(r.sources))
	for _, src := range r.sources {
		out = append(out, copyOf(src))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocalityKey() != out[j].LocalityKey() {
			return out[i].LocalityKey() < out[j].LocalityKey()
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Active returns copies of the active sources in List order.
func (r *Registry) Active() []*source.CalendarSource {
	all := r.List()
	active := make([]*source.CalendarSource, 0, len(all))
	for _, src := range all {
		if src.IsActive {
			active = append(active, src)
		}
	}
	return active
}

// Toggle flips a source's active flag.
func (r *Registry) Toggle(id string) (*source.CalendarSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("unknown source %s", id)
	}
	src.IsActive = !src.IsActive
	return copyOf(src), nil
}

// Remove deletes a source.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[id]
	if !ok {
		return fmt.Errorf("unknown source %s", id)
	}
	delete(r.sources, id)
	if src.FeedURL != "" {
		delete(r.byURL, urlKey(src.FeedURL))
	}
	return nil
}

// MarkSynced records a successful collection time.
func (r *Registry) MarkSynced(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if src, ok := r.sources[id]; ok {
		t := at
		src.LastSync = &t
	}
}

// ReprioritizeAll re-arbitrates every organization group: the highest
// ranked feed that passes a live test becomes the group's sole active
// source. Groups where nothing passes end up fully inactive.
func (r *Registry) ReprioritizeAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	groups := make(map[string][]*source.CalendarSource)
	for _, src := range r.sources {
		key := groupKey(src)
		groups[key] = append(groups[key], src)
	}

	for _, members := range groups {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].FeedType.Priority() > members[j].FeedType.Priority()
		})

		winner := -1
		for i, src := range members {
			if r.passes(ctx, src) {
				winner = i
				break
			}
		}
		for i, src := range members {
			src.IsActive = i == winner
		}
		if winner < 0 {
			logger.Warn("no working feed in group", logger.Fields{
				"locality": members[0].LocalityKey(),
				"org_type": members[0].OrgType,
			})
		}
	}
	return nil
}

// passes runs the live test; a nil tester approves everything.
func (r *Registry) passes(ctx context.Context, src *source.CalendarSource) bool {
	if r.tester == nil {
		return true
	}
	return r.tester.TestFeed(ctx, copyOf(src))
}

// Save writes the registry to a JSON file, creating parent directories
// as needed.
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(r.List(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating registry dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}

// Load replaces the registry contents from a JSON file. A missing file
// is not an error; the registry simply starts empty.
func (r *Registry) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading registry: %w", err)
	}

	var sources []*source.CalendarSource
	if err := json.Unmarshal(data, &sources); err != nil {
		return fmt.Errorf("parsing registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = make(map[string]*source.CalendarSource, len(sources))
	r.byURL = make(map[string]string, len(sources))
	for _, src := range sources {
		r.sources[src.ID] = src
		if src.FeedURL != "" {
			r.byURL[urlKey(src.FeedURL)] = src.ID
		}
	}
	return nil
}

// activeInGroup finds the active source in a group, excluding one ID.
func (r *Registry) activeInGroup(key, excludeID string) *source.CalendarSource {
	for _, src := range r.sources {
		if src.ID != excludeID && src.IsActive && groupKey(src) == key {
			return src
		}
	}
	return nil
}

func copyOf(src *source.CalendarSource) *source.CalendarSource {
	dup := *src
	if src.LastSync != nil {
		t := *src.LastSync
		dup.LastSync = &t
	}
	return &dup
}
