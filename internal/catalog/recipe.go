package catalog

import "fmt"

func (c *Catalog) cost(key string, qty int) Cost {
	return Cost{Quantity: qty, Material: c.materials[key]}
}

// MaterialName returns the display name of a material key.
func (c *Catalog) MaterialName(key string) string { return c.materials[key] }

// BaseCost is the raw material of one piece at the reference tier. Armour
// other than shields takes the material of its weight.
func (c *Catalog) BaseCost(g Gear, w Weight) ([]Cost, error) {
	entry, ok := c.gear[g]
	if !ok {
		return nil, &NotFoundError{Kind: "gear", Value: fmt.Sprint(g)}
	}
	key := entry.Material
	if key == "" {
		we, ok := c.weights[w]
		if !ok {
			return nil, &NotFoundError{Kind: "weight", Value: w.ID()}
		}
		key = we.Material
	}
	return []Cost{c.cost(key, entry.Quantity)}, nil
}

// TraitCost is one unit of the trait material.
func (c *Catalog) TraitCost(t Trait) ([]Cost, error) {
	entry, ok := c.traitIndex[t]
	if !ok {
		return nil, &NotFoundError{Kind: t.Family.ID() + " trait", Value: t.ID}
	}
	return []Cost{c.cost(entry.Material, 1)}, nil
}

// EnchantmentCost is one potency rune and one essence rune. The zero
// enchantment costs nothing.
func (c *Catalog) EnchantmentCost(e Enchantment) ([]Cost, error) {
	if e.IsZero() {
		return nil, nil
	}
	entry, ok := c.enchantmentIndex[e]
	if !ok {
		return nil, &NotFoundError{Kind: e.Family.ID() + " enchantment", Value: e.ID}
	}
	return []Cost{c.cost(entry.Potency, 1), c.cost(entry.Essence, 1)}, nil
}

// GlyphQualityCost is the aspect rune that gives a glyph the item's tier.
func (c *Catalog) GlyphQualityCost(q Quality) ([]Cost, error) {
	entry, ok := c.qualities[q]
	if !ok {
		return nil, &NotFoundError{Kind: "quality", Value: q.ID()}
	}
	return []Cost{c.cost(entry.GlyphRune, 1)}, nil
}

// QualityCost lists the upgrade materials needed to raise a piece from White
// to q on its production line. Every step up to q is paid.
func (c *Catalog) QualityCost(g Gear, w Weight, q Quality) ([]Cost, error) {
	if q < White || q > Yellow {
		return nil, &NotFoundError{Kind: "quality", Value: fmt.Sprint(int(q))}
	}
	line := c.lines[LineFor(g, w)]
	out := make([]Cost, 0, int(q))
	for _, step := range line.Upgrades[:q] {
		out = append(out, c.cost(step.Material, step.Quantity))
	}
	return out, nil
}
