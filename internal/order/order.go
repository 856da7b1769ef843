// Package order holds the values produced by an intake session: crafted items
// and the order that groups them.
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/guild-forge/internal/catalog"
)

// Mode selects what an order asks for and which manifest it produces.
type Mode int

const (
	// Crafting orders resolve trait, enchantment, quality and weight.
	Crafting Mode = iota
	// Research orders resolve trait and weight only, at White quality.
	Research
)

func (m Mode) String() string {
	if m == Research {
		return "research"
	}
	return "crafting"
}

var (
	ErrWeightMismatch      = errors.New("order: weight must be set for armour and only for armour")
	ErrFamilyMismatch      = errors.New("order: attribute belongs to another family")
	ErrResearchEnchantment = errors.New("order: research items carry no enchantment")
	ErrResearchQuality     = errors.New("order: research items are White")
	ErrEmpty               = errors.New("order: no items")
)

// Item is one physical piece to craft.
type Item struct {
	Gear        catalog.Gear
	Trait       catalog.Trait
	Enchantment catalog.Enchantment
	Quality     catalog.Quality
	Weight      catalog.Weight
}

// Family is the family of the item's gear.
func (it Item) Family() catalog.Family { return it.Gear.Family() }

// HasEnchantment reports whether a glyph is applied.
func (it Item) HasEnchantment() bool { return !it.Enchantment.IsZero() }

// Validate checks the structural invariants of a single item.
func (it Item) Validate(mode Mode) error {
	if it.Gear == nil {
		return errors.New("order: item has no gear")
	}
	f := it.Family()
	if (f == catalog.FamilyArmour) != (it.Weight != catalog.WeightNone) {
		return fmt.Errorf("%w: %s", ErrWeightMismatch, it.Gear.ID())
	}
	if it.Trait.Family != f {
		return fmt.Errorf("%w: trait %s on %s", ErrFamilyMismatch, it.Trait.ID, it.Gear.ID())
	}
	if it.HasEnchantment() && it.Enchantment.Family != f {
		return fmt.Errorf("%w: enchantment %s on %s", ErrFamilyMismatch, it.Enchantment.ID, it.Gear.ID())
	}
	if mode == Research {
		if it.HasEnchantment() {
			return ErrResearchEnchantment
		}
		if it.Quality != catalog.White {
			return ErrResearchQuality
		}
	}
	return nil
}

// Order is the confirmed result of a session. Treat it as immutable once
// confirmed.
type Order struct {
	ID        string
	Name      string
	Requester string
	Mode      Mode
	Items     []Item
	CreatedAt time.Time
}

// New stamps an order with a fresh id.
func New(name, requester string, mode Mode, items []Item, now time.Time) Order {
	return Order{
		ID:        uuid.NewString(),
		Name:      name,
		Requester: requester,
		Mode:      mode,
		Items:     append([]Item(nil), items...),
		CreatedAt: now,
	}
}

// Validate checks every item against the order mode.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmpty
	}
	for i, it := range o.Items {
		if err := it.Validate(o.Mode); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// Group is the slice of an order's items belonging to one family.
type Group struct {
	Family catalog.Family
	Items  []Item
}

// Groups splits items by family in processing order, skipping empty families.
func (o Order) Groups() []Group {
	var out []Group
	for _, f := range catalog.Families {
		var items []Item
		for _, it := range o.Items {
			if it.Family() == f {
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			out = append(out, Group{Family: f, Items: items})
		}
	}
	return out
}
