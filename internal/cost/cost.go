// Package cost turns finalized items into material manifests.
package cost

import (
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/order"
)

// Manifest maps a material display name to the total quantity needed. Every
// call returns a fresh manifest.
type Manifest map[string]int

// Line is one manifest entry.
type Line struct {
	Material string
	Quantity int
}

func (m Manifest) add(costs []catalog.Cost) {
	for _, c := range costs {
		m[c.Material] += c.Quantity
	}
}

// Total is the sum of all quantities.
func (m Manifest) Total() int {
	total := 0
	for _, qty := range m {
		total += qty
	}
	return total
}

// Lines lists the manifest sorted by material name with Spanish collation, so
// accented names sort next to their plain spelling.
func (m Manifest) Lines() []Line {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	collate.New(language.Spanish).SortStrings(names)
	out := make([]Line, 0, len(names))
	for _, name := range names {
		out = append(out, Line{Material: name, Quantity: m[name]})
	}
	return out
}

type recipe func(cat *catalog.Catalog, it order.Item) ([][]catalog.Cost, error)

func sum(cat *catalog.Catalog, items []order.Item, r recipe) (Manifest, error) {
	m := Manifest{}
	for i, it := range items {
		parts, err := r(cat, it)
		if err != nil {
			return nil, fmt.Errorf("cost: item %d (%s): %w", i, it.Gear.ID(), err)
		}
		for _, p := range parts {
			m.add(p)
		}
	}
	return m, nil
}

// Crafting sums, per item, the base material, the trait material, the glyph
// runes when enchanted and the upgrade materials of its quality.
func Crafting(cat *catalog.Catalog, items []order.Item) (Manifest, error) {
	return sum(cat, items, craftingRecipe)
}

func craftingRecipe(cat *catalog.Catalog, it order.Item) ([][]catalog.Cost, error) {
	base, err := cat.BaseCost(it.Gear, it.Weight)
	if err != nil {
		return nil, err
	}
	trait, err := cat.TraitCost(it.Trait)
	if err != nil {
		return nil, err
	}
	upgrade, err := cat.QualityCost(it.Gear, it.Weight, it.Quality)
	if err != nil {
		return nil, err
	}
	parts := [][]catalog.Cost{base, trait, upgrade}
	if it.HasEnchantment() {
		glyph, err := cat.EnchantmentCost(it.Enchantment)
		if err != nil {
			return nil, err
		}
		aspect, err := cat.GlyphQualityCost(it.Quality)
		if err != nil {
			return nil, err
		}
		parts = append(parts, glyph, aspect)
	}
	return parts, nil
}

// Research sums the trait material of every item.
func Research(cat *catalog.Catalog, items []order.Item) (Manifest, error) {
	return sum(cat, items, func(cat *catalog.Catalog, it order.Item) ([][]catalog.Cost, error) {
		trait, err := cat.TraitCost(it.Trait)
		if err != nil {
			return nil, err
		}
		return [][]catalog.Cost{trait}, nil
	})
}
