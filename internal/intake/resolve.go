package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
)

// defaults are the attribute values a family's remaining items take without
// being asked. A nil field means every remaining item is prompted.
type defaults struct {
	trait       *catalog.Trait
	enchantment *catalog.Enchantment
	quality     *catalog.Quality
	weight      *catalog.Weight
}

func (s *session) familyKinds(f catalog.Family) []catalog.Gear {
	var out []catalog.Gear
	for _, g := range s.kinds {
		if g.Family() == f {
			out = append(out, g)
		}
	}
	return out
}

// processFamily resolves every item of a family. When the family has more
// than one item, the first one is resolved in full and then offered as the
// default for the rest, one attribute at a time.
func (s *session) processFamily(ctx context.Context, f catalog.Family) error {
	kinds := s.familyKinds(f)
	var d defaults
	for i, g := range kinds {
		it, err := s.resolve(ctx, g, &d)
		if err != nil {
			return err
		}
		s.items = append(s.items, it)
		s.req.Prompter.Preview(ctx, it)
		if i == 0 && len(kinds) > 1 {
			if err := s.offerDefaults(ctx, f, it, &d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *session) asksEnchantment() bool {
	return s.req.Mode == order.Crafting && s.enchant
}

func (s *session) resolve(ctx context.Context, g catalog.Gear, d *defaults) (order.Item, error) {
	cat := s.engine.catalog
	f := g.Family()
	it := order.Item{Gear: g, Quality: catalog.White}
	piece := cat.GearName(g)

	if d.trait != nil {
		it.Trait = *d.trait
	} else {
		v, err := s.selectOne(ctx, "Rasgo para "+piece, cat.TraitOptions(f))
		if err != nil {
			return order.Item{}, err
		}
		if it.Trait, err = cat.ParseTrait(f, v); err != nil {
			return order.Item{}, err
		}
	}

	if s.asksEnchantment() {
		if d.enchantment != nil {
			it.Enchantment = *d.enchantment
		} else {
			v, err := s.selectOne(ctx, "Encantamiento para "+piece, cat.EnchantmentOptions(f))
			if err != nil {
				return order.Item{}, err
			}
			if it.Enchantment, err = cat.ParseEnchantment(f, v); err != nil {
				return order.Item{}, err
			}
		}
	}

	if s.req.Mode == order.Crafting {
		if d.quality != nil {
			it.Quality = *d.quality
		} else {
			v, err := s.selectOne(ctx, "Calidad para "+piece, cat.QualityOptions())
			if err != nil {
				return order.Item{}, err
			}
			if it.Quality, err = cat.ParseQuality(v); err != nil {
				return order.Item{}, err
			}
		}
	}

	if f == catalog.FamilyArmour {
		if d.weight != nil {
			it.Weight = *d.weight
		} else {
			v, err := s.selectOne(ctx, "Peso para "+piece, cat.WeightOptions())
			if err != nil {
				return order.Item{}, err
			}
			if it.Weight, err = cat.ParseWeight(v); err != nil {
				return order.Item{}, err
			}
		}
	}
	return it, nil
}

// offerDefaults asks once per attribute whether the sample's value applies to
// the rest of the family.
func (s *session) offerDefaults(ctx context.Context, f catalog.Family, sample order.Item, d *defaults) error {
	cat := s.engine.catalog
	rest := cat.FamilyName(f)
	ask := func(attr, value string) (bool, error) {
		return s.req.Prompter.Confirm(ctx,
			fmt.Sprintf("¿Aplicar %s %s al resto de %s?", attr, value, rest))
	}

	yes, err := ask("el rasgo", cat.TraitName(sample.Trait))
	if err != nil {
		return err
	}
	if yes {
		t := sample.Trait
		d.trait = &t
	}

	if s.asksEnchantment() {
		yes, err := ask("el encantamiento", cat.EnchantmentName(sample.Enchantment))
		if err != nil {
			return err
		}
		if yes {
			e := sample.Enchantment
			d.enchantment = &e
		}
	}

	if s.req.Mode == order.Crafting {
		yes, err := ask("la calidad", cat.QualityName(sample.Quality))
		if err != nil {
			return err
		}
		if yes {
			q := sample.Quality
			d.quality = &q
		}
	}

	if f == catalog.FamilyArmour {
		yes, err := ask("el peso", cat.WeightName(sample.Weight))
		if err != nil {
			return err
		}
		if yes {
			w := sample.Weight
			d.weight = &w
		}
	}
	return nil
}

// selectOne asks a single-choice question. Anything other than exactly one
// value is a malformed answer.
func (s *session) selectOne(ctx context.Context, label string, opts []catalog.Option) (string, error) {
	values, err := s.req.Prompter.Select(ctx, prompt.SelectRequest{
		Label:         label,
		Placeholder:   label,
		Options:       options(opts),
		MaxSelections: 1,
	})
	if err != nil {
		return "", err
	}
	if len(values) != 1 {
		return "", &catalog.NotFoundError{Kind: "selection", Value: strings.Join(values, ", ")}
	}
	return values[0], nil
}
