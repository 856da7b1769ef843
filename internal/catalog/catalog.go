// internal/catalog/catalog.go
//
// The catalog is the read-only table of everything a guild crafter can make:
// gear kinds, traits, enchantments, quality tiers, armour weights and the
// materials each of them consumes. It is parsed once from the embedded
// catalog.yaml and shared by every session without locking.

package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Option is a selectable catalog entry. Value is the display name sent back by
// prompts.
type Option struct {
	Value       string
	Label       string
	Description string
}

// Cost is a quantity of one named material.
type Cost struct {
	Quantity int
	Material string
}

type gearEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Material    string `yaml:"material,omitempty"`
	Quantity    int    `yaml:"quantity"`
}

type weightEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Material string `yaml:"material"`
}

type qualityEntry struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	GlyphRune string `yaml:"glyph_rune"`
}

type upgradeStep struct {
	Material string `yaml:"material"`
	Quantity int    `yaml:"quantity"`
}

type lineEntry struct {
	Name     string        `yaml:"name"`
	Upgrades []upgradeStep `yaml:"upgrades"`
}

type traitEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Material    string `yaml:"material"`
}

type enchantmentEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Potency     string `yaml:"potency"`
	Essence     string `yaml:"essence"`
}

type document struct {
	Version      int                           `yaml:"version"`
	Materials    map[string]string             `yaml:"materials"`
	Families     map[string]string             `yaml:"families"`
	Gear         map[string][]gearEntry        `yaml:"gear"`
	Weights      []weightEntry                 `yaml:"weights"`
	Qualities    []qualityEntry                `yaml:"qualities"`
	Lines        map[string]lineEntry          `yaml:"lines"`
	Traits       map[string][]traitEntry       `yaml:"traits"`
	Enchantments map[string][]enchantmentEntry `yaml:"enchantments"`
}

// Catalog is immutable after Load returns.
type Catalog struct {
	materials map[string]string
	families  map[Family]string

	gear       map[Gear]gearEntry
	gearByName map[Family]map[string]Gear

	weights      map[Weight]weightEntry
	weightByName map[string]Weight

	qualities     map[Quality]qualityEntry
	qualityByName map[string]Quality

	lines map[Line]lineEntry

	traits       map[Family][]traitEntry
	traitIndex   map[Trait]traitEntry
	traitsByName map[Family]map[string]Trait

	enchantments       map[Family][]enchantmentEntry
	enchantmentIndex   map[Enchantment]enchantmentEntry
	enchantmentsByName map[Family]map[string]Enchantment
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the process-wide catalog built from the embedded data. It
// panics if the embedded file is invalid.
func Default() *Catalog {
	defaultOnce.Do(func() {
		cat, err := Load(defaultCatalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = cat
	})
	return defaultCatalog
}

// Load parses and validates catalog data.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if doc.Version != 1 {
		return nil, fmt.Errorf("catalog: unsupported version %d", doc.Version)
	}
	b := &builder{doc: doc}
	cat := b.build()
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	return cat, nil
}

type builder struct {
	doc  document
	errs []error
}

func (b *builder) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf("catalog: "+format, args...))
}

func (b *builder) material(key, owner string) {
	if _, ok := b.doc.Materials[key]; !ok {
		b.fail("%s references unknown material %q", owner, key)
	}
}

func (b *builder) name(name, owner string) {
	if strings.TrimSpace(name) == "" {
		b.fail("%s has no name", owner)
		return
	}
	if !norm.NFC.IsNormalString(name) {
		b.fail("%s name %q is not NFC normalized", owner, name)
	}
}

func (b *builder) build() *Catalog {
	cat := &Catalog{
		materials:          b.doc.Materials,
		families:           map[Family]string{},
		gear:               map[Gear]gearEntry{},
		gearByName:         map[Family]map[string]Gear{},
		weights:            map[Weight]weightEntry{},
		weightByName:       map[string]Weight{},
		qualities:          map[Quality]qualityEntry{},
		qualityByName:      map[string]Quality{},
		lines:              map[Line]lineEntry{},
		traits:             map[Family][]traitEntry{},
		traitIndex:         map[Trait]traitEntry{},
		traitsByName:       map[Family]map[string]Trait{},
		enchantments:       map[Family][]enchantmentEntry{},
		enchantmentIndex:   map[Enchantment]enchantmentEntry{},
		enchantmentsByName: map[Family]map[string]Enchantment{},
	}
	for key, name := range b.doc.Materials {
		b.name(name, "material "+key)
	}
	for _, f := range Families {
		name, ok := b.doc.Families[f.ID()]
		if !ok {
			b.fail("family %s has no display name", f)
		}
		cat.families[f] = name
	}
	b.buildGear(cat)
	b.buildWeights(cat)
	b.buildQualities(cat)
	b.buildLines(cat)
	for _, f := range Families {
		b.buildTraits(cat, f)
		b.buildEnchantments(cat, f)
	}
	return cat
}

func (b *builder) buildGear(cat *Catalog) {
	byID := map[string]Gear{}
	for _, g := range AllGear() {
		byID[g.Family().ID()+"/"+g.ID()] = g
	}
	allNames := map[string]Gear{}
	for _, f := range Families {
		cat.gearByName[f] = map[string]Gear{}
		for _, entry := range b.doc.Gear[f.ID()] {
			owner := fmt.Sprintf("%s gear %q", f, entry.ID)
			g, ok := byID[f.ID()+"/"+entry.ID]
			if !ok {
				b.fail("%s is not a known kind", owner)
				continue
			}
			if _, dup := cat.gear[g]; dup {
				b.fail("%s declared twice", owner)
				continue
			}
			b.name(entry.Name, owner)
			if other, clash := allNames[entry.Name]; clash {
				b.fail("%s name %q already used by %s %s", owner, entry.Name, other.Family(), other.ID())
			}
			if entry.Quantity <= 0 {
				b.fail("%s has no base quantity", owner)
			}
			if entry.Material != "" {
				b.material(entry.Material, owner)
			} else if f != FamilyArmour {
				b.fail("%s has no base material", owner)
			}
			allNames[entry.Name] = g
			cat.gear[g] = entry
			cat.gearByName[f][entry.Name] = g
		}
	}
	for _, g := range AllGear() {
		if _, ok := cat.gear[g]; !ok {
			b.fail("%s gear %q missing", g.Family(), g.ID())
		}
	}
}

func (b *builder) buildWeights(cat *Catalog) {
	for _, entry := range b.doc.Weights {
		w := WeightNone
		for _, candidate := range Weights {
			if candidate.ID() == entry.ID {
				w = candidate
			}
		}
		owner := fmt.Sprintf("weight %q", entry.ID)
		if w == WeightNone {
			b.fail("%s is not a known weight", owner)
			continue
		}
		b.name(entry.Name, owner)
		b.material(entry.Material, owner)
		cat.weights[w] = entry
		cat.weightByName[entry.Name] = w
	}
	for _, w := range Weights {
		if _, ok := cat.weights[w]; !ok {
			b.fail("weight %q missing", w.ID())
		}
	}
}

func (b *builder) buildQualities(cat *Catalog) {
	if len(b.doc.Qualities) != len(Qualities) {
		b.fail("expected %d qualities, found %d", len(Qualities), len(b.doc.Qualities))
		return
	}
	for i, entry := range b.doc.Qualities {
		q := Qualities[i]
		owner := fmt.Sprintf("quality %q", entry.ID)
		if entry.ID != q.ID() {
			b.fail("%s declared where %q belongs", owner, q.ID())
			continue
		}
		b.name(entry.Name, owner)
		b.material(entry.GlyphRune, owner)
		cat.qualities[q] = entry
		cat.qualityByName[entry.Name] = q
	}
}

func (b *builder) buildLines(cat *Catalog) {
	for i := range lineIDs {
		l := Line(i)
		entry, ok := b.doc.Lines[l.ID()]
		if !ok {
			b.fail("line %q missing", l.ID())
			continue
		}
		owner := fmt.Sprintf("line %q", l.ID())
		b.name(entry.Name, owner)
		if len(entry.Upgrades) != len(Qualities)-1 {
			b.fail("%s needs %d upgrade steps, found %d", owner, len(Qualities)-1, len(entry.Upgrades))
		}
		for _, step := range entry.Upgrades {
			b.material(step.Material, owner)
		}
		cat.lines[l] = entry
	}
}

func (b *builder) buildTraits(cat *Catalog, f Family) {
	cat.traitsByName[f] = map[string]Trait{}
	entries := b.doc.Traits[f.ID()]
	if len(entries) == 0 {
		b.fail("family %s has no traits", f)
	}
	for _, entry := range entries {
		owner := fmt.Sprintf("%s trait %q", f, entry.ID)
		t := Trait{Family: f, ID: entry.ID}
		if _, dup := cat.traitIndex[t]; dup {
			b.fail("%s declared twice", owner)
			continue
		}
		b.name(entry.Name, owner)
		if _, clash := cat.traitsByName[f][entry.Name]; clash {
			b.fail("%s name %q is not unique", owner, entry.Name)
		}
		b.material(entry.Material, owner)
		cat.traits[f] = append(cat.traits[f], entry)
		cat.traitIndex[t] = entry
		cat.traitsByName[f][entry.Name] = t
	}
}

func (b *builder) buildEnchantments(cat *Catalog, f Family) {
	cat.enchantmentsByName[f] = map[string]Enchantment{}
	entries := b.doc.Enchantments[f.ID()]
	if len(entries) == 0 {
		b.fail("family %s has no enchantments", f)
	}
	for _, entry := range entries {
		owner := fmt.Sprintf("%s enchantment %q", f, entry.ID)
		e := Enchantment{Family: f, ID: entry.ID}
		if entry.ID == "" {
			b.fail("%s enchantment without id", f)
			continue
		}
		if _, dup := cat.enchantmentIndex[e]; dup {
			b.fail("%s declared twice", owner)
			continue
		}
		b.name(entry.Name, owner)
		if _, clash := cat.enchantmentsByName[f][entry.Name]; clash {
			b.fail("%s name %q is not unique", owner, entry.Name)
		}
		b.material(entry.Potency, owner)
		b.material(entry.Essence, owner)
		cat.enchantments[f] = append(cat.enchantments[f], entry)
		cat.enchantmentIndex[e] = entry
		cat.enchantmentsByName[f][entry.Name] = e
	}
}

// FamilyName returns the display name of a family.
func (c *Catalog) FamilyName(f Family) string { return c.families[f] }

// GearName returns the display name of a kind.
func (c *Catalog) GearName(g Gear) string { return c.gear[g].Name }

// GearDescription returns the short description of a kind, possibly empty.
func (c *Catalog) GearDescription(g Gear) string { return c.gear[g].Description }

// WeightName returns the display name of a weight.
func (c *Catalog) WeightName(w Weight) string { return c.weights[w].Name }

// QualityName returns the display name of a tier.
func (c *Catalog) QualityName(q Quality) string { return c.qualities[q].Name }

// LineName returns the display name of a production line.
func (c *Catalog) LineName(l Line) string { return c.lines[l].Name }

// TraitName returns the display name of a trait.
func (c *Catalog) TraitName(t Trait) string { return c.traitIndex[t].Name }

// EnchantmentName returns the display name of an enchantment or "" for none.
func (c *Catalog) EnchantmentName(e Enchantment) string { return c.enchantmentIndex[e].Name }

// Traits lists the traits of a family in declaration order.
func (c *Catalog) Traits(f Family) []Trait {
	out := make([]Trait, 0, len(c.traits[f]))
	for _, entry := range c.traits[f] {
		out = append(out, Trait{Family: f, ID: entry.ID})
	}
	return out
}

// Enchantments lists the enchantments of a family in declaration order.
func (c *Catalog) Enchantments(f Family) []Enchantment {
	out := make([]Enchantment, 0, len(c.enchantments[f]))
	for _, entry := range c.enchantments[f] {
		out = append(out, Enchantment{Family: f, ID: entry.ID})
	}
	return out
}

// GearOptions lists every kind, armour first, then jewelry, then weapons, the
// way the parts menu presents them.
func (c *Catalog) GearOptions() []Option {
	var out []Option
	for _, f := range []Family{FamilyArmour, FamilyJewelry, FamilyWeapon} {
		for _, g := range AllGear() {
			if g.Family() != f {
				continue
			}
			entry := c.gear[g]
			out = append(out, Option{Value: entry.Name, Label: entry.Name, Description: entry.Description})
		}
	}
	return out
}

// TraitOptions lists the traits of a family.
func (c *Catalog) TraitOptions(f Family) []Option {
	out := make([]Option, 0, len(c.traits[f]))
	for _, entry := range c.traits[f] {
		out = append(out, Option{Value: entry.Name, Label: entry.Name, Description: entry.Description})
	}
	return out
}

// EnchantmentOptions lists the enchantments of a family.
func (c *Catalog) EnchantmentOptions(f Family) []Option {
	out := make([]Option, 0, len(c.enchantments[f]))
	for _, entry := range c.enchantments[f] {
		out = append(out, Option{Value: entry.Name, Label: entry.Name, Description: entry.Description})
	}
	return out
}

// QualityOptions lists the tiers from lowest to highest.
func (c *Catalog) QualityOptions() []Option {
	out := make([]Option, 0, len(Qualities))
	for _, q := range Qualities {
		name := c.qualities[q].Name
		out = append(out, Option{Value: name, Label: name})
	}
	return out
}

// WeightOptions lists the armour weights.
func (c *Catalog) WeightOptions() []Option {
	out := make([]Option, 0, len(Weights))
	for _, w := range Weights {
		name := c.weights[w].Name
		out = append(out, Option{Value: name, Label: name})
	}
	return out
}
