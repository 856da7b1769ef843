package catalog

import (
	"fmt"
	"sort"
)

// Family groups gear kinds that share traits, enchantments and resolution
// rules. Families are processed in declaration order.
type Family int

const (
	FamilyWeapon Family = iota
	FamilyArmour
	FamilyJewelry
)

// Families lists every family in processing order.
var Families = []Family{FamilyWeapon, FamilyArmour, FamilyJewelry}

var familyIDs = [...]string{"weapon", "armour", "jewelry"}

// ID returns the key used for the family in catalog data.
func (f Family) ID() string {
	if f < 0 || int(f) >= len(familyIDs) {
		return fmt.Sprintf("family(%d)", int(f))
	}
	return familyIDs[f]
}

func (f Family) String() string { return f.ID() }

// Gear is a concrete crafted kind. The set of implementations is closed:
// OneHandedWeapon, TwoHandedWeapon, ArmourPart and JewelryKind.
type Gear interface {
	Family() Family
	// ID is the stable key of the kind in catalog data.
	ID() string
	ordinal() int
}

// Weapon is implemented by the two weapon grips.
type Weapon interface {
	Gear
	OneHanded() bool
}

// OneHandedWeapon can be wielded in pairs.
type OneHandedWeapon int

const (
	Mace OneHandedWeapon = iota
	Dagger
	Sword
	Axe
)

var oneHandedIDs = [...]string{"mace", "dagger", "sword", "axe"}

func (OneHandedWeapon) Family() Family { return FamilyWeapon }
func (w OneHandedWeapon) ID() string { return oneHandedIDs[w] }
func (OneHandedWeapon) OneHanded() bool { return true }
func (w OneHandedWeapon) ordinal() int { return int(w) }
func (w OneHandedWeapon) String() string { return w.ID() }

// TwoHandedWeapon covers heavy weapons, staves and bows.
type TwoHandedWeapon int

const (
	Maul TwoHandedWeapon = iota
	Greatsword
	BattleAxe
	FrostStaff
	FireStaff
	LightningStaff
	RestorationStaff
	Bow
)

var twoHandedIDs = [...]string{
	"maul", "greatsword", "battle_axe",
	"frost_staff", "fire_staff", "lightning_staff", "restoration_staff", "bow",
}

func (TwoHandedWeapon) Family() Family { return FamilyWeapon }
func (w TwoHandedWeapon) ID() string { return twoHandedIDs[w] }
func (TwoHandedWeapon) OneHanded() bool { return false }
func (w TwoHandedWeapon) ordinal() int { return len(oneHandedIDs) + int(w) }
func (w TwoHandedWeapon) String() string { return w.ID() }

// Wooden reports whether the weapon is made on the woodworking line.
func (w TwoHandedWeapon) Wooden() bool { return w >= FrostStaff }

// ArmourPart is a body slot. Its weight is chosen per order.
type ArmourPart int

const (
	Head ArmourPart = iota
	Shoulders
	Chest
	Hands
	Waist
	Legs
	Feet
	Shield
)

var armourIDs = [...]string{"head", "shoulders", "chest", "hands", "waist", "legs", "feet", "shield"}

func (ArmourPart) Family() Family { return FamilyArmour }
func (p ArmourPart) ID() string { return armourIDs[p] }
func (p ArmourPart) ordinal() int { return int(p) }
func (p ArmourPart) String() string { return p.ID() }

// JewelryKind is a jewelry slot. A ring order covers both ring slots.
type JewelryKind int

const (
	Necklace JewelryKind = iota
	Ring
)

var jewelryIDs = [...]string{"necklace", "ring"}

func (JewelryKind) Family() Family { return FamilyJewelry }
func (j JewelryKind) ID() string { return jewelryIDs[j] }
func (j JewelryKind) ordinal() int { return int(j) }
func (j JewelryKind) String() string { return j.ID() }

// AllGear returns every kind in total order.
func AllGear() []Gear {
	out := make([]Gear, 0, len(oneHandedIDs)+len(twoHandedIDs)+len(armourIDs)+len(jewelryIDs))
	for i := range oneHandedIDs {
		out = append(out, OneHandedWeapon(i))
	}
	for i := range twoHandedIDs {
		out = append(out, TwoHandedWeapon(i))
	}
	for i := range armourIDs {
		out = append(out, ArmourPart(i))
	}
	for i := range jewelryIDs {
		out = append(out, JewelryKind(i))
	}
	return out
}

// Less orders gear by family first and declaration index second.
func Less(a, b Gear) bool {
	if a.Family() != b.Family() {
		return a.Family() < b.Family()
	}
	return a.ordinal() < b.ordinal()
}

// SortGear sorts kinds in place, keeping equal kinds in their relative order.
func SortGear(kinds []Gear) {
	sort.SliceStable(kinds, func(i, j int) bool { return Less(kinds[i], kinds[j]) })
}

// Weight is the armour class picked for an armour piece. The zero value means
// no weight, which is the only valid value for weapons and jewelry.
type Weight int

const (
	WeightNone Weight = iota
	Light
	Medium
	Heavy
)

var weightIDs = [...]string{"", "light", "medium", "heavy"}

// Weights lists the selectable weights.
var Weights = []Weight{Light, Medium, Heavy}

func (w Weight) ID() string {
	if w < 0 || int(w) >= len(weightIDs) {
		return ""
	}
	return weightIDs[w]
}

// Quality is the upgrade tier of an item.
type Quality int

const (
	White Quality = iota
	Green
	Blue
	Purple
	Yellow
)

var qualityIDs = [...]string{"white", "green", "blue", "purple", "yellow"}

// Qualities lists every tier from lowest to highest.
var Qualities = []Quality{White, Green, Blue, Purple, Yellow}

func (q Quality) ID() string {
	if q < 0 || int(q) >= len(qualityIDs) {
		return ""
	}
	return qualityIDs[q]
}

// Line is the crafting station that produces and upgrades an item.
type Line int

const (
	Blacksmithing Line = iota
	Clothing
	Woodworking
	JewelryCrafting
)

var lineIDs = [...]string{"blacksmithing", "clothing", "woodworking", "jewelry"}

func (l Line) ID() string { return lineIDs[l] }

// LineFor returns the production line of a kind made at the given weight.
func LineFor(g Gear, w Weight) Line {
	switch k := g.(type) {
	case ArmourPart:
		if k == Shield {
			return Woodworking
		}
		if w == Heavy {
			return Blacksmithing
		}
		return Clothing
	case TwoHandedWeapon:
		if k.Wooden() {
			return Woodworking
		}
		return Blacksmithing
	case JewelryKind:
		return JewelryCrafting
	default:
		return Blacksmithing
	}
}

// Trait is a family-scoped trait identity.
type Trait struct {
	Family Family
	ID     string
}

// Enchantment is a family-scoped glyph identity. The zero value means the item
// carries no enchantment.
type Enchantment struct {
	Family Family
	ID     string
}

// IsZero reports whether no enchantment is set.
func (e Enchantment) IsZero() bool { return e.ID == "" }
