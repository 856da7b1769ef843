package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kingrea/guild-forge/internal/prompt"
)

type recentEntry struct {
	announcement prompt.Announcement
	storedAt     time.Time
}

// recentOrders keeps the last confirmed orders in memory. Entries older than
// ttl are dropped when read.
type recentOrders struct {
	mu    sync.Mutex
	cache *lru.Cache[string, recentEntry]
	ttl   time.Duration
	clock func() time.Time
}

func newRecentOrders(size int, ttl time.Duration, clock func() time.Time) (*recentOrders, error) {
	cache, err := lru.New[string, recentEntry](size)
	if err != nil {
		return nil, fmt.Errorf("bridge: recent orders: %w", err)
	}
	return &recentOrders{cache: cache, ttl: ttl, clock: clock}, nil
}

func (r *recentOrders) AnnounceOrder(_ context.Context, a prompt.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Add(a.Order.ID, recentEntry{announcement: a, storedAt: r.clock()})
	return nil
}

func (r *recentOrders) AnnounceRequest(context.Context, prompt.Request) error { return nil }

func (r *recentOrders) get(id string) (prompt.Announcement, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache.Get(id)
	if !ok {
		return prompt.Announcement{}, false
	}
	if r.clock().Sub(entry.storedAt) > r.ttl {
		r.cache.Remove(id)
		return prompt.Announcement{}, false
	}
	return entry.announcement, true
}

func (r *recentOrders) len() int {
	return r.cache.Len()
}
