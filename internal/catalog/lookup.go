package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
)

// ErrNotFound is matched by every failed catalog lookup.
var ErrNotFound = errors.New("catalog: not found")

// NotFoundError reports a display name with no catalog entry. Suggestion holds
// the closest known name when one is near enough.
type NotFoundError struct {
	Kind       string
	Value      string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("catalog: unknown %s %q", e.Kind, e.Value)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Is makes errors.Is(err, ErrNotFound) hold for every NotFoundError.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound[T any](kind, value string, known map[string]T) error {
	return &NotFoundError{Kind: kind, Value: value, Suggestion: suggest(value, known)}
}

// suggest picks the known name with the smallest edit distance, accepting at
// most a third of the input length (and never fewer than two edits).
func suggest[T any](value string, known map[string]T) string {
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)
	limit := len([]rune(value)) / 3
	if limit < 2 {
		limit = 2
	}
	best, bestDist := "", limit+1
	for _, name := range names {
		if d := levenshtein.ComputeDistance(value, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// ParseGear resolves a gear display name. Armour is consulted first, then
// jewelry, then weapons. Matching is exact.
func (c *Catalog) ParseGear(name string) (Gear, error) {
	for _, f := range []Family{FamilyArmour, FamilyJewelry, FamilyWeapon} {
		if g, ok := c.gearByName[f][name]; ok {
			return g, nil
		}
	}
	all := map[string]Gear{}
	for _, byName := range c.gearByName {
		for n, g := range byName {
			all[n] = g
		}
	}
	return nil, notFound("gear", name, all)
}

// ParseTrait resolves a trait display name inside a family.
func (c *Catalog) ParseTrait(f Family, name string) (Trait, error) {
	if t, ok := c.traitsByName[f][name]; ok {
		return t, nil
	}
	return Trait{}, notFound(f.ID()+" trait", name, c.traitsByName[f])
}

// ParseEnchantment resolves an enchantment display name inside a family.
func (c *Catalog) ParseEnchantment(f Family, name string) (Enchantment, error) {
	if e, ok := c.enchantmentsByName[f][name]; ok {
		return e, nil
	}
	return Enchantment{}, notFound(f.ID()+" enchantment", name, c.enchantmentsByName[f])
}

// ParseQuality resolves a quality display name.
func (c *Catalog) ParseQuality(name string) (Quality, error) {
	if q, ok := c.qualityByName[name]; ok {
		return q, nil
	}
	return White, notFound("quality", name, c.qualityByName)
}

// ParseWeight resolves an armour weight display name.
func (c *Catalog) ParseWeight(name string) (Weight, error) {
	if w, ok := c.weightByName[name]; ok {
		return w, nil
	}
	return WeightNone, notFound("weight", name, c.weightByName)
}
