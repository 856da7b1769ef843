package intake

import (
	"context"
	"fmt"

	"github.com/kingrea/guild-forge/internal/catalog"
)

// expand turns the selected kinds into one entry per physical piece: a ring
// always becomes two rings, a one-handed weapon becomes two when the requester
// wants to dual wield. The result is in catalog order.
func (s *session) expand(ctx context.Context, kinds []catalog.Gear) ([]catalog.Gear, error) {
	out := make([]catalog.Gear, 0, len(kinds)+2)
	for _, g := range kinds {
		out = append(out, g)
		switch k := g.(type) {
		case catalog.JewelryKind:
			if k == catalog.Ring {
				out = append(out, g)
			}
		case catalog.OneHandedWeapon:
			name := s.engine.catalog.GearName(k)
			dual, err := s.req.Prompter.Confirm(ctx,
				fmt.Sprintf("Has pedido %s de una mano. ¿Quieres otra para llevar armas duales?", name))
			if err != nil {
				return nil, err
			}
			if dual {
				out = append(out, g)
			}
		}
	}
	catalog.SortGear(out)
	return out, nil
}
