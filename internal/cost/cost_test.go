package cost

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/order"
)

func sampleItems() []order.Item {
	return []order.Item{
		{
			Gear:        catalog.Dagger,
			Trait:       catalog.Trait{Family: catalog.FamilyWeapon, ID: "sharpened"},
			Enchantment: catalog.Enchantment{Family: catalog.FamilyWeapon, ID: "fire"},
			Quality:     catalog.Yellow,
		},
		{
			Gear:    catalog.Head,
			Trait:   catalog.Trait{Family: catalog.FamilyArmour, ID: "divines"},
			Quality: catalog.Blue,
			Weight:  catalog.Medium,
		},
		{
			Gear:        catalog.Ring,
			Trait:       catalog.Trait{Family: catalog.FamilyJewelry, ID: "arcane"},
			Enchantment: catalog.Enchantment{Family: catalog.FamilyJewelry, ID: "magicka_recovery"},
			Quality:     catalog.Green,
		},
		{
			Gear:        catalog.Ring,
			Trait:       catalog.Trait{Family: catalog.FamilyJewelry, ID: "arcane"},
			Enchantment: catalog.Enchantment{Family: catalog.FamilyJewelry, ID: "magicka_recovery"},
			Quality:     catalog.Green,
		},
	}
}

func TestCraftingSingleWhiteArmourPiece(t *testing.T) {
	items := []order.Item{{
		Gear:    catalog.Chest,
		Trait:   catalog.Trait{Family: catalog.FamilyArmour, ID: "reinforced"},
		Quality: catalog.White,
		Weight:  catalog.Light,
	}}
	got, err := Crafting(catalog.Default(), items)
	require.NoError(t, err)
	want := Manifest{
		"Seda ancestral (Ancestor Silk)": 150,
		"Sardónice (Sardonyx)":           1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestCraftingSumsEveryRecipePart(t *testing.T) {
	got, err := Crafting(catalog.Default(), sampleItems())
	require.NoError(t, err)
	want := Manifest{
		// dagger
		"Lingote de rubedita (Rubedite Ingots)": 100,
		"Ópalo de fuego (Fire Opal)":            1,
		"Piedra de esmeril (Honing Stone)":      2,
		"Aceite enano (Dwarven Oil)":            3,
		"Disolvente granulado (Grain Solvent)":  4,
		"Aleación de temple (Tempering Alloy)":  8,
		"Itade":                                 1 + 2,
		"Rakeipa":                               1,
		"Kuta":                                  1,
		// head
		"Cuero rubedo (Rubedo Leather)": 130,
		"Zafiro (Sapphire)":             1,
		"Hilo de coser (Hemming)":       2,
		"Bordado (Embroidery)":          3,
		// rings
		"Onza de platino (Platinum Ounces)": 200,
		"Cobalto (Cobalt)":                  2,
		"Chapado de terne (Terne Plating)":  2,
		"Makkoma":                           2,
		"Jejota":                            2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestManifestsIgnoreItemOrder(t *testing.T) {
	cat := catalog.Default()
	items := sampleItems()
	reversed := make([]order.Item, len(items))
	for i, it := range items {
		reversed[len(items)-1-i] = it
	}

	a, err := Crafting(cat, items)
	require.NoError(t, err)
	b, err := Crafting(cat, reversed)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b))

	ra, err := Research(cat, items)
	require.NoError(t, err)
	rb, err := Research(cat, reversed)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(ra, rb))
}

func TestManifestDoesNotMutateInput(t *testing.T) {
	items := sampleItems()
	before := append([]order.Item(nil), items...)
	_, err := Crafting(catalog.Default(), items)
	require.NoError(t, err)
	assert.Equal(t, before, items)
}

func TestResearchCountsTraitsOnly(t *testing.T) {
	got, err := Research(catalog.Default(), sampleItems())
	require.NoError(t, err)
	want := Manifest{
		"Ópalo de fuego (Fire Opal)": 1,
		"Zafiro (Sapphire)":          1,
		"Cobalto (Cobalt)":           2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, got.Total())
}

func TestCraftingRejectsUnknownTrait(t *testing.T) {
	items := []order.Item{{
		Gear:   catalog.Head,
		Trait:  catalog.Trait{Family: catalog.FamilyArmour, ID: "swift"},
		Weight: catalog.Heavy,
	}}
	_, err := Crafting(catalog.Default(), items)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestLinesUseSpanishCollation(t *testing.T) {
	m := Manifest{"Zafiro": 1, "Ópalo": 2, "Oko": 3, "Ámbar": 4, "Bordado": 5}
	var names []string
	for _, l := range m.Lines() {
		names = append(names, l.Material)
	}
	assert.Equal(t, []string{"Ámbar", "Bordado", "Oko", "Ópalo", "Zafiro"}, names)
}
