package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/review"
)

const (
	defaultSubscriberCapacity = 32
	defaultBacklogLimit       = 20
	defaultDedupeWindow       = 256
)

// Post kinds.
const (
	PostOrder   = "order"
	PostRequest = "request"
)

// Post is one rendered announcement as seen by feed subscribers.
type Post struct {
	ID   string    `json:"id"`
	Kind string    `json:"kind"`
	Body string    `json:"body"`
	At   time.Time `json:"at"`
}

// FeedOption customizes Feed construction.
type FeedOption func(*Feed)

// FeedWithSubscriberCapacity overrides the buffered channel size per subscriber.
func FeedWithSubscriberCapacity(n int) FeedOption {
	return func(f *Feed) {
		if n > 0 {
			f.capacity = n
		}
	}
}

// FeedWithBacklogLimit overrides how many posts are held while nobody listens.
func FeedWithBacklogLimit(n int) FeedOption {
	return func(f *Feed) {
		if n > 0 {
			f.backlogLimit = n
		}
	}
}

// FeedWithLogger injects a logger for drop diagnostics.
func FeedWithLogger(logger *zap.Logger) FeedOption {
	return func(f *Feed) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// FeedWithClock allows tests to control post timestamps.
func FeedWithClock(clock func() time.Time) FeedOption {
	return func(f *Feed) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// Feed fans announcements out to live subscribers. Posts published while
// nobody is subscribed are held in a bounded backlog and handed to the next
// subscriber. A slow subscriber loses its oldest posts, never blocks the
// publisher.
type Feed struct {
	catalog *catalog.Catalog
	tier    string
	logger  *zap.Logger
	clock   func() time.Time

	mu           sync.Mutex
	subscribers  map[*subscriber]struct{}
	backlog      []Post
	recentIDs    map[string]struct{}
	recentOrder  []string
	capacity     int
	backlogLimit int
	dedupeWindow int
}

// Subscription represents an active feed subscription.
type Subscription struct {
	Posts  <-chan Post
	cancel func()
}

// Close terminates the subscription and closes Posts.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// NewFeed returns a feed rendering announcements with cat.
func NewFeed(cat *catalog.Catalog, tier string, opts ...FeedOption) *Feed {
	if tier == "" {
		tier = review.DefaultTier
	}
	f := &Feed{
		catalog:      cat,
		tier:         tier,
		logger:       zap.NewNop(),
		clock:        func() time.Time { return time.Now().UTC() },
		subscribers:  map[*subscriber]struct{}{},
		recentIDs:    map[string]struct{}{},
		capacity:     defaultSubscriberCapacity,
		backlogLimit: defaultBacklogLimit,
		dedupeWindow: defaultDedupeWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *Feed) AnnounceOrder(_ context.Context, a prompt.Announcement) error {
	f.Publish(Post{
		ID:   a.Order.ID,
		Kind: PostOrder,
		Body: review.RenderAnnouncement(f.catalog, a, f.tier),
	})
	return nil
}

func (f *Feed) AnnounceRequest(_ context.Context, r prompt.Request) error {
	f.Publish(Post{
		ID:   uuid.NewString(),
		Kind: PostRequest,
		Body: review.RenderRequest(r),
	})
	return nil
}

// Subscribe registers a new listener. Any backlog is delivered to it first.
func (f *Feed) Subscribe() Subscription {
	sub := newSubscriber(f.capacity)
	f.mu.Lock()
	f.subscribers[sub] = struct{}{}
	backlog := f.backlog
	f.backlog = nil
	f.mu.Unlock()
	for _, p := range backlog {
		f.deliver(sub, p)
	}
	return Subscription{
		Posts:  sub.ch,
		cancel: func() { f.remove(sub) },
	}
}

// Publish delivers p to every subscriber. Posts whose ID was already seen are
// ignored.
func (f *Feed) Publish(p Post) {
	if p.At.IsZero() {
		p.At = f.clock()
	}
	f.mu.Lock()
	if p.ID != "" && f.seen(p.ID) {
		f.mu.Unlock()
		return
	}
	if len(f.subscribers) == 0 {
		if len(f.backlog) >= f.backlogLimit {
			f.logger.Debug("feed backlog drop", zap.String("post", f.backlog[0].ID))
			f.backlog = f.backlog[1:]
		}
		f.backlog = append(f.backlog, p)
		f.mu.Unlock()
		return
	}
	subs := make([]*subscriber, 0, len(f.subscribers))
	for sub := range f.subscribers {
		subs = append(subs, sub)
	}
	f.mu.Unlock()
	for _, sub := range subs {
		f.deliver(sub, p)
	}
}

// Subscribers reports the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// seen must be called with f.mu held.
func (f *Feed) seen(id string) bool {
	if _, ok := f.recentIDs[id]; ok {
		return true
	}
	f.recentIDs[id] = struct{}{}
	f.recentOrder = append(f.recentOrder, id)
	if len(f.recentOrder) > f.dedupeWindow {
		delete(f.recentIDs, f.recentOrder[0])
		f.recentOrder = f.recentOrder[1:]
	}
	return false
}

func (f *Feed) deliver(sub *subscriber, p Post) {
	if dropped, ok := sub.deliver(p); ok {
		f.logger.Debug("feed subscriber overflow", zap.String("dropped", dropped.ID))
	}
}

func (f *Feed) remove(sub *subscriber) {
	f.mu.Lock()
	delete(f.subscribers, sub)
	f.mu.Unlock()
	sub.close()
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan Post
	closed bool
}

func newSubscriber(capacity int) *subscriber {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	return &subscriber{ch: make(chan Post, capacity)}
}

// deliver queues p, dropping the oldest queued post when the queue is full.
// It reports the dropped post, if any.
func (s *subscriber) deliver(p Post) (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Post{}, false
	}
	select {
	case s.ch <- p:
		return Post{}, false
	default:
	}
	var dropped Post
	var ok bool
	select {
	case dropped = <-s.ch:
		ok = true
	default:
	}
	s.ch <- p
	return dropped, ok
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
