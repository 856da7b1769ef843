// Package bridge serves order sessions over websockets. Each connection on /ws
// runs one flow with the socket as its prompter; /feed streams confirmed
// announcements; /orders/{id} returns recently confirmed orders.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kingrea/guild-forge/internal/announce"
	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/flow"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/review"
)

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

const (
	feedPingEvery    = 30 * time.Second
	closeGracePeriod = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Server wraps the HTTP listener and handlers backing the bridge.
type Server struct {
	settings  Settings
	flows     *flow.Registry
	catalog   *catalog.Catalog
	announcer prompt.Announcer
	logger    *zap.Logger
	clock     func() time.Time
	tier      string
	feed      *Feed
	recent    *recentOrders

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
	cancel    context.CancelFunc

	connMu   sync.Mutex
	conns    sync.WaitGroup
	draining bool
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAnnouncer adds an announcer (usually the orders journal) that receives
// every confirmed order and request alongside the feed.
func WithAnnouncer(a prompt.Announcer) Option {
	return func(s *Server) {
		if a != nil {
			s.announcer = a
		}
	}
}

// WithTier sets the reference tier named in feed announcements.
func WithTier(tier string) Option {
	return func(s *Server) {
		if tier = strings.TrimSpace(tier); tier != "" {
			s.tier = tier
		}
	}
}

// NewServer prepares a bridge server for the flows in reg.
func NewServer(settings Settings, reg *flow.Registry, cat *catalog.Catalog, opts ...Option) (*Server, error) {
	if reg == nil || cat == nil {
		return nil, errors.New("bridge: flow registry and catalog are required")
	}
	settings.normalize()
	s := &Server{
		settings: settings,
		flows:    reg,
		catalog:  cat,
		logger:   zap.NewNop(),
		clock:    func() time.Time { return time.Now().UTC() },
		tier:     review.DefaultTier,
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.feed = NewFeed(cat, s.tier, FeedWithLogger(s.logger), FeedWithClock(s.clock))
	recent, err := newRecentOrders(settings.RecentOrders, settings.RecentTTL, s.clock)
	if err != nil {
		return nil, err
	}
	s.recent = recent
	return s, nil
}

// Feed exposes the announcement feed so other transports can publish to it.
func (s *Server) Feed() *Feed { return s.feed }

// Announcer returns the announcer sessions use: the configured announcer, the
// feed and the recent orders cache.
func (s *Server) Announcer() prompt.Announcer {
	return announce.Multi{s.announcer, s.feed, s.recent}
}

// Start binds the TCP listener and begins serving HTTP traffic. Cancelling ctx
// ends every open session.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("bridge: server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("bridge: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bridge: listen %s: %w", addr, err)
	}
	base, cancel := context.WithCancel(ctx)
	s.listener = listener
	s.cancel = cancel
	s.startTime = s.clock()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleSession)
	mux.HandleFunc("/feed", s.handleFeed)
	mux.HandleFunc("/orders/{id}", s.handleOrder)
	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return base },
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("bridge serve error", zap.Error(err))
		}
	}()
	s.logger.Info("bridge listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Shutdown stops accepting new connections, ends open sessions and waits for
// their handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	server, cancel := s.server, s.cancel
	if s.listener == nil || server == nil {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusDraining
	s.listener = nil
	s.server = nil
	s.mu.Unlock()

	if ctx == nil {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
	}
	s.connMu.Lock()
	s.draining = true
	s.connMu.Unlock()
	cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.clock().Sub(s.startTime).Seconds())
}

// track registers a long-lived connection. It fails once draining started.
func (s *Server) track() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.draining {
		return false
	}
	s.conns.Add(1)
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", fmt.Sprintf("%s, %s", http.MethodGet, http.MethodHead))
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		Version:       ProtocolVersion,
		Flows:         len(s.flows.IDs()),
		Subscribers:   s.feed.Subscribers(),
		RecentOrders:  s.recent.len(),
		UptimeSeconds: s.uptimeSeconds(),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	query := r.URL.Query()
	flowID := strings.TrimSpace(query.Get("flow"))
	f, err := s.flows.Resolve(flowID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown flow " + flowID})
		return
	}
	requester := strings.TrimSpace(query.Get("requester"))
	if requester == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "requester is required"})
		return
	}
	if !s.track() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server draining"})
		return
	}
	defer s.conns.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	logger := s.logger.With(zap.String("flow", flowID), zap.String("requester", requester))
	sock := newSocket(conn, s.catalog, logger)
	defer sock.close()

	logger.Info("bridge session started")
	res, err := f.Run(r.Context(), flow.Env{
		Requester: requester,
		Prompter:  prompt.Timed(sock, s.settings.Wait),
		Announcer: s.Announcer(),
		Logger:    logger,
	})
	done := Frame{Type: FrameDone, Status: string(res.Status)}
	if res.Order != nil {
		done.OrderID = res.Order.ID
	}
	if err != nil {
		done.Error = err.Error()
		logger.Warn("bridge session ended with error", zap.Error(err))
	} else {
		logger.Info("bridge session finished", zap.String("status", string(res.Status)))
	}
	sock.push(done)
	sock.goodbye()
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if !s.track() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server draining"})
		return
	}
	defer s.conns.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := s.feed.Subscribe()
	defer sub.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	defer func() {
		_ = conn.Close()
		<-gone
	}()

	ticker := time.NewTicker(feedPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case post, ok := <-sub.Posts:
			if !ok {
				return
			}
			f := Frame{Type: FrameAnnouncement, Kind: post.Kind, Body: post.Body}
			if post.Kind == PostOrder {
				f.OrderID = post.ID
			}
			if err := conn.SetWriteDeadline(time.Now().Add(socketWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	a, ok := s.recent.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	o := a.Order
	view := orderView{
		ID:        o.ID,
		Name:      o.Name,
		Requester: o.Requester,
		Mode:      o.Mode.String(),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
		Items:     make([]string, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		view.Items = append(view.Items, review.RenderItem(s.catalog, it))
	}
	for _, l := range a.Manifests.Crafting.Lines() {
		view.Crafting = append(view.Crafting, lineView(l))
	}
	for _, l := range a.Manifests.Research.Lines() {
		view.Research = append(view.Research, lineView(l))
	}
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
