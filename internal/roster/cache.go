// Package roster caches group membership lists with a short TTL.
//
// Entries are replaced wholesale on fetch and dropped on invalidation, so
// there are no partial-update races. A roster-change sync event invalidates
// the entry for its group even when the TTL has not elapsed.
package roster

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/hoodly/hoodly-go/pkg/logger"
	"github.com/hoodly/hoodly-go/pkg/types"
)

// DefaultTTL is how long a cached roster stays valid without invalidation.
const DefaultTTL = 5 * time.Minute

// FetchFunc loads the authoritative roster for a group.
type FetchFunc func(ctx context.Context, groupID string) ([]types.Member, error)

// Clock provides a testable time source.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type entry struct {
	roster    types.Roster
	fetchedAt time.Time
}

// Cache is a TTL cache of group rosters keyed by group id.
type Cache struct {
	fetch FetchFunc
	ttl   time.Duration
	clock Clock

	mu      sync.Mutex
	entries map[string]entry
}

// Option customizes a Cache.
type Option func(*Cache)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock injects a time source for tests.
func WithClock(clock Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// New creates a roster cache backed by the given fetch function.
func New(fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		fetch:   fetch,
		ttl:     DefaultTTL,
		clock:   realClock{},
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Members returns the roster for a group, serving from cache while the entry
// is fresh. On fetch failure it returns a placeholder roster tagged
// Unverified; callers may show it in member-count tooltips and similar
// cosmetic spots but must not use it for routing or authorization.
func (c *Cache) Members(ctx context.Context, groupID string) (types.Roster, error) {
	c.mu.Lock()
	cached, ok := c.entries[groupID]
	ttl := c.ttl
	now := c.clock.Now()
	c.mu.Unlock()

	if ok && now.Sub(cached.fetchedAt) < ttl {
		return cached.roster, nil
	}

	members, err := c.fetch(ctx, groupID)
	if err != nil || len(members) == 0 {
		if err != nil {
			logger.Warnf("roster: fetch failed for group %s, serving placeholder: %v", groupID, err)
		}
		return placeholderRoster(groupID), err
	}

	fresh := types.Roster{GroupID: groupID, Members: members}
	c.mu.Lock()
	c.entries[groupID] = entry{roster: fresh, fetchedAt: c.clock.Now()}
	c.mu.Unlock()
	return fresh, nil
}

// Invalidate drops the cached entry for a group. Called when a roster-change
// sync event arrives or the user forces a refresh.
func (c *Cache) Invalidate(groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, groupID)
}

// InvalidateAll drops every cached entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// placeholderRoster synthesizes a deterministic display-only roster from the
// group id. The Unverified tag keeps it distinguishable from authoritative
// data.
func placeholderRoster(groupID string) types.Roster {
	h := fnv.New32a()
	_, _ = h.Write([]byte(groupID))
	n := 2 + int(h.Sum32()%3)
	members := make([]types.Member, 0, n)
	for i := 0; i < n; i++ {
		members = append(members, types.Member{
			UserID:      fmt.Sprintf("unknown-%s-%d", groupID, i+1),
			DisplayName: fmt.Sprintf("Neighbour %d", i+1),
		})
	}
	return types.Roster{GroupID: groupID, Members: members, Unverified: true}
}
