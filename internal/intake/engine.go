package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/review"
)

// DefaultMaxParts caps the parts multi-select.
const DefaultMaxParts = 12

// Engine runs intake sessions. It holds no per-session state and may run any
// number of sessions concurrently.
type Engine struct {
	catalog  *catalog.Catalog
	logger   *zap.Logger
	clock    func() time.Time
	maxParts int
	audience string
	tier     string
	observer func(session string, s State)
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithLogger routes session logs to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithMaxParts sets the parts selection cap.
func WithMaxParts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxParts = n
		}
	}
}

// WithAudience sets the tag announcements are addressed to.
func WithAudience(audience string) Option {
	return func(e *Engine) { e.audience = audience }
}

// WithTier sets the label of the reference character-power tier.
func WithTier(tier string) Option {
	return func(e *Engine) {
		if tier != "" {
			e.tier = tier
		}
	}
}

// WithObserver is called on every state transition.
func WithObserver(fn func(session string, s State)) Option {
	return func(e *Engine) { e.observer = fn }
}

// New wires an engine to the catalog.
func New(cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("intake: catalog is required")
	}
	e := &Engine{
		catalog:  cat,
		logger:   zap.NewNop(),
		clock:    time.Now,
		maxParts: DefaultMaxParts,
		tier:     review.DefaultTier,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Request starts one session.
type Request struct {
	Requester string
	Mode      order.Mode
	Prompter  prompt.Prompter
	Announcer prompt.Announcer
}

// Result is the outcome of a session. Order is set once the items have been
// resolved; Manifests holds what the review showed.
type Result struct {
	SessionID string
	State     State
	Order     order.Order
	Manifests prompt.Manifests
}

// Run drives a session to a terminal state. A declined order returns a
// cancelled result and a nil error. A timeout returns prompt.ErrTimeout and a
// malformed answer returns a catalog.ErrNotFound error; both cancel the order.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	if req.Prompter == nil {
		return Result{}, fmt.Errorf("intake: prompter is required")
	}
	s := &session{
		engine: e,
		req:    req,
		id:     uuid.NewString(),
	}
	s.log = e.logger.With(
		zap.String("session", s.id),
		zap.String("requester", req.Requester),
		zap.Stringer("mode", req.Mode),
	)
	res, err := s.run(ctx)
	res.SessionID = s.id
	if err != nil {
		s.log.Warn("session cancelled", zap.String("state", string(res.State)), zap.Error(err))
		if errors.Is(err, prompt.ErrTimeout) {
			req.Prompter.Notify(ctx, "Se acabó el tiempo para responder. Empieza el pedido de nuevo.")
		}
	}
	return res, err
}

type session struct {
	engine *Engine
	req    Request
	id     string
	log    *zap.Logger
	state  State

	name    string
	kinds   []catalog.Gear
	enchant bool
	items   []order.Item
}

func (s *session) enter(state State) {
	s.state = state
	s.log.Debug("state", zap.String("state", string(state)), zap.String("order", s.name))
	if s.engine.observer != nil {
		s.engine.observer(s.id, state)
	}
}

func (s *session) cancel(err error) (Result, error) {
	s.enter(StateCancelled)
	return Result{State: StateCancelled, Order: s.draft()}, err
}

func (s *session) draft() order.Order {
	return order.Order{
		Name:      s.name,
		Requester: s.req.Requester,
		Mode:      s.req.Mode,
		Items:     append([]order.Item(nil), s.items...),
	}
}

func (s *session) run(ctx context.Context) (Result, error) {
	s.enter(StateCollectingParts)
	if err := s.collect(ctx); err != nil {
		return s.cancel(err)
	}

	s.enter(StateExpandingDuplicates)
	kinds, err := s.expand(ctx, s.kinds)
	if err != nil {
		return s.cancel(err)
	}
	s.kinds = kinds

	if s.req.Mode == order.Crafting {
		s.enter(StateAwaitingEnchantmentOptIn)
		s.enchant, err = s.req.Prompter.Confirm(ctx, "¿Quieres encantamientos en las piezas?")
		if err != nil {
			return s.cancel(err)
		}
	}

	for _, f := range catalog.Families {
		s.enter(processingState(f))
		if err := s.processFamily(ctx, f); err != nil {
			return s.cancel(err)
		}
	}

	s.enter(StateReadyForReview)
	o := order.New(s.name, s.req.Requester, s.req.Mode, s.items, s.engine.clock())
	if err := o.Validate(); err != nil {
		return s.cancel(err)
	}
	gate := review.Gate{Catalog: s.engine.catalog, Tier: s.engine.tier}
	outcome, err := gate.Run(ctx, s.req.Prompter, o)
	if err != nil {
		return s.cancel(err)
	}
	if !outcome.Confirmed {
		s.log.Info("order declined", zap.String("order", o.Name))
		res, _ := s.cancel(nil)
		res.Order = o
		res.Manifests = outcome.Manifests
		return res, nil
	}

	s.enter(StateConfirmed)
	res := Result{State: StateConfirmed, Order: o, Manifests: outcome.Manifests}
	s.log.Info("order confirmed", zap.String("order", o.Name), zap.String("order_id", o.ID), zap.Int("items", len(o.Items)))
	if s.req.Announcer != nil {
		a := prompt.Announcement{
			Order:     o,
			Manifests: outcome.Manifests,
			Audience:  s.engine.audience,
			Requester: s.req.Requester,
		}
		if err := s.req.Announcer.AnnounceOrder(ctx, a); err != nil {
			return res, fmt.Errorf("intake: announce %s: %w", o.ID, err)
		}
	}
	return res, nil
}

func (s *session) collect(ctx context.Context) error {
	for {
		raw, err := s.req.Prompter.Text(ctx, "Nombre del pedido", "Ej.: Cólera")
		if err != nil {
			return err
		}
		name, err := NormalizeOrderName(raw)
		if err == nil {
			s.name = name
			break
		}
		s.log.Debug("order name rejected", zap.Error(err))
		s.req.Prompter.Notify(ctx, fmt.Sprintf("El nombre debe tener entre 1 y %d caracteres.", MaxOrderNameLength))
	}

	values, err := s.req.Prompter.Select(ctx, prompt.SelectRequest{
		Label:         "Piezas del pedido",
		Placeholder:   "Elige las piezas",
		Options:       options(s.engine.catalog.GearOptions()),
		MaxSelections: s.engine.maxParts,
	})
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return ErrNoParts
	}
	if len(values) > s.engine.maxParts {
		return fmt.Errorf("%w: %d > %d", ErrTooManyParts, len(values), s.engine.maxParts)
	}
	kinds := make([]catalog.Gear, 0, len(values))
	for _, v := range values {
		g, err := s.engine.catalog.ParseGear(v)
		if err != nil {
			return err
		}
		kinds = append(kinds, g)
	}
	s.kinds = kinds
	return nil
}

func options(in []catalog.Option) []prompt.Option {
	out := make([]prompt.Option, len(in))
	for i, o := range in {
		out[i] = prompt.Option(o)
	}
	return out
}
