// Package flow holds the requests a guild member can start from the menu:
// gear orders, trait research orders and free-text requests for consumables
// or glyphs.
package flow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kingrea/guild-forge/internal/intake"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
)

// Info describes a flow's identity as shown in the menu.
type Info struct {
	ID          string
	Label       string
	Description string
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("flow: id is required")
	}
	if i.Label == "" {
		return fmt.Errorf("flow: label is required for %s", i.ID)
	}
	return nil
}

// Status enumerates flow outcomes.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Result captures the outcome of a flow run. Order is set by order flows,
// Request by free-text flows.
type Result struct {
	Status  Status
	Order   *order.Order
	Request *prompt.Request
}

// Env is what a flow needs to talk to one requester.
type Env struct {
	Requester string
	Prompter  prompt.Prompter
	Announcer prompt.Announcer
	Logger    *zap.Logger
}

func (e Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Flow is implemented by every menu entry.
type Flow interface {
	Info() Info
	Run(ctx context.Context, env Env) (Result, error)
}

// Gear returns the flow for full crafting orders.
func Gear(engine *intake.Engine) Flow {
	return &orderFlow{
		info: Info{
			ID:          "gear",
			Label:       "Equipamiento",
			Description: "Piezas de set: armas, armadura y joyería",
		},
		engine: engine,
		mode:   order.Crafting,
	}
}

// GearResearch returns the flow for trait research orders.
func GearResearch(engine *intake.Engine) Flow {
	return &orderFlow{
		info: Info{
			ID:          "gear-research",
			Label:       "Investigación",
			Description: "Materiales para investigar rasgos",
		},
		engine: engine,
		mode:   order.Research,
	}
}

type orderFlow struct {
	info   Info
	engine *intake.Engine
	mode   order.Mode
}

func (f *orderFlow) Info() Info { return f.info }

func (f *orderFlow) Run(ctx context.Context, env Env) (Result, error) {
	res, err := f.engine.Run(ctx, intake.Request{
		Requester: env.Requester,
		Mode:      f.mode,
		Prompter:  env.Prompter,
		Announcer: env.Announcer,
	})
	out := Result{Status: StatusCancelled}
	if res.State == intake.StateConfirmed {
		o := res.Order
		out = Result{Status: StatusConfirmed, Order: &o}
	}
	return out, err
}
