package review

import (
	"context"
	"fmt"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/cost"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
)

// DefaultTier labels the character-power tier the catalog quantities are for.
const DefaultTier = "CP160"

// Gate shows the recap and asks for the final decision.
type Gate struct {
	Catalog *catalog.Catalog
	Tier    string
}

// Outcome is the result of a review. Manifests holds what was shown.
type Outcome struct {
	Confirmed bool
	Manifests prompt.Manifests
}

// Run presents o and returns whether the requester confirmed it. Crafting
// orders first ask whether they are for the reference tier; only then is the
// crafting manifest computed and shown. Research orders always show the
// research manifest.
func (g Gate) Run(ctx context.Context, p prompt.Prompter, o order.Order) (Outcome, error) {
	tier := g.Tier
	if tier == "" {
		tier = DefaultTier
	}
	var out Outcome
	switch o.Mode {
	case order.Research:
		m, err := cost.Research(g.Catalog, o.Items)
		if err != nil {
			return Outcome{}, err
		}
		out.Manifests.Research = m
	default:
		reference, err := p.Confirm(ctx, fmt.Sprintf("¿El pedido es para %s?", tier))
		if err != nil {
			return Outcome{}, err
		}
		if reference {
			m, err := cost.Crafting(g.Catalog, o.Items)
			if err != nil {
				return Outcome{}, err
			}
			out.Manifests.Crafting = m
		}
	}

	p.Notify(ctx, RenderSummary(g.Catalog, o, out.Manifests, tier))
	ok, err := p.Confirm(ctx, fmt.Sprintf("¿Confirmas el pedido %q?", o.Name))
	if err != nil {
		return Outcome{}, err
	}
	out.Confirmed = ok
	return out, nil
}
