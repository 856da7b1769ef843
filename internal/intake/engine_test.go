package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/prompt/prompttest"
)

var (
	armourTrait  = func(id string) catalog.Trait { return catalog.Trait{Family: catalog.FamilyArmour, ID: id} }
	weaponTrait  = func(id string) catalog.Trait { return catalog.Trait{Family: catalog.FamilyWeapon, ID: id} }
	jewelryTrait = func(id string) catalog.Trait { return catalog.Trait{Family: catalog.FamilyJewelry, ID: id} }
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return time.Unix(1700000000, 0) })}, opts...)
	e, err := New(catalog.Default(), opts...)
	require.NoError(t, err)
	return e
}

func run(t *testing.T, e *Engine, mode order.Mode, p prompt.Prompter) (Result, *prompttest.Recorder, error) {
	t.Helper()
	rec := &prompttest.Recorder{}
	res, err := e.Run(context.Background(), Request{
		Requester: "Vaelis",
		Mode:      mode,
		Prompter:  p,
		Announcer: rec,
	})
	return res, rec, err
}

func TestColeraScenario(t *testing.T) {
	var (
		mu     sync.Mutex
		states []State
	)
	e := newEngine(t, WithAudience("@Artesanos"), WithObserver(func(_ string, s State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	}))
	script := prompttest.NewScript(t,
		prompttest.Text("Cólera"),
		prompttest.Select("Cabeza", "Anillo"),
		prompttest.Confirm(false).Expect("encantamientos"),
		// armour: a single piece, no bulk questions
		prompttest.Select("Divinidad").Expect("Cabeza"),
		prompttest.Select("Morada"),
		prompttest.Select("Pesada"),
		// jewelry: first ring, then bulk questions
		prompttest.Select("Arcanidad").Expect("Anillo"),
		prompttest.Select("Morada"),
		prompttest.Confirm(true).Expect("el rasgo Arcanidad"),
		prompttest.Confirm(true).Expect("la calidad Morada"),
		// review
		prompttest.Confirm(true).Expect("CP160"),
		prompttest.Confirm(true).Expect("Cólera"),
	)

	res, rec, err := run(t, e, order.Crafting, script)
	require.NoError(t, err)
	assert.Zero(t, script.Remaining())
	assert.Equal(t, StateConfirmed, res.State)

	require.Len(t, res.Order.Items, 3)
	assert.Equal(t, "Cólera", res.Order.Name)
	assert.Equal(t, []catalog.Gear{catalog.Head, catalog.Ring, catalog.Ring},
		[]catalog.Gear{res.Order.Items[0].Gear, res.Order.Items[1].Gear, res.Order.Items[2].Gear})
	for _, it := range res.Order.Items {
		assert.False(t, it.HasEnchantment())
		assert.Equal(t, catalog.Purple, it.Quality)
	}
	assert.Equal(t, catalog.Heavy, res.Order.Items[0].Weight)
	assert.Equal(t, res.Order.Items[1], res.Order.Items[2])
	assert.Len(t, script.Previews(), 3)

	orders := rec.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "@Artesanos", orders[0].Audience)
	assert.Equal(t, "Vaelis", orders[0].Requester)
	require.NotNil(t, orders[0].Manifests.Crafting)
	assert.Equal(t, 200, orders[0].Manifests.Crafting["Onza de platino (Platinum Ounces)"])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{
		StateCollectingParts,
		StateExpandingDuplicates,
		StateAwaitingEnchantmentOptIn,
		StateProcessingWeapons,
		StateProcessingArmour,
		StateProcessingJewelry,
		StateReadyForReview,
		StateConfirmed,
	}, states)
}

func TestDualWieldResolvesEachWeapon(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Text("Duales"),
		prompttest.Select("Daga"),
		prompttest.Confirm(true).Expect("duales"),
		prompttest.Confirm(true).Expect("encantamientos"),
		prompttest.Select("Filo"),
		prompttest.Select("Glifo de fuego"),
		prompttest.Select("Amarilla"),
		prompttest.Confirm(false),
		prompttest.Confirm(false),
		prompttest.Confirm(false),
		prompttest.Select("Precisión"),
		prompttest.Select("Glifo de escarcha"),
		prompttest.Select("Azul"),
		prompttest.Confirm(false).Expect("CP160"),
		prompttest.Confirm(true),
	)

	res, rec, err := run(t, newEngine(t), order.Crafting, script)
	require.NoError(t, err)
	assert.Zero(t, script.Remaining())
	require.Len(t, res.Order.Items, 2)

	first, second := res.Order.Items[0], res.Order.Items[1]
	assert.Equal(t, catalog.Dagger, first.Gear)
	assert.Equal(t, catalog.Dagger, second.Gear)
	assert.Equal(t, weaponTrait("sharpened"), first.Trait)
	assert.Equal(t, weaponTrait("precise"), second.Trait)
	assert.Equal(t, catalog.Enchantment{Family: catalog.FamilyWeapon, ID: "fire"}, first.Enchantment)
	assert.Equal(t, catalog.Enchantment{Family: catalog.FamilyWeapon, ID: "frost"}, second.Enchantment)
	assert.Equal(t, catalog.Yellow, first.Quality)
	assert.Equal(t, catalog.Blue, second.Quality)

	require.Len(t, rec.Orders(), 1)
	assert.Nil(t, rec.Orders()[0].Manifests.Crafting)
}

func TestDualWieldTakesAcceptedDefaults(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Text("Duales"),
		prompttest.Select("Espada", "Arco"),
		prompttest.Confirm(true).Expect("Espada"),
		prompttest.Confirm(false),
		// sword
		prompttest.Select("Carga"),
		prompttest.Select("Verde"),
		prompttest.Confirm(true),
		prompttest.Confirm(false),
		// second sword: quality only
		prompttest.Select("Azul"),
		// bow: trait default, quality asked
		prompttest.Select("Blanca"),
		prompttest.Confirm(true),
		prompttest.Confirm(true),
	)

	res, _, err := run(t, newEngine(t), order.Crafting, script)
	require.NoError(t, err)
	assert.Zero(t, script.Remaining())
	require.Len(t, res.Order.Items, 3)
	assert.Equal(t, catalog.Sword, res.Order.Items[0].Gear)
	assert.Equal(t, catalog.Sword, res.Order.Items[1].Gear)
	assert.Equal(t, catalog.Bow, res.Order.Items[2].Gear)
	for _, it := range res.Order.Items {
		assert.Equal(t, weaponTrait("charged"), it.Trait)
	}
	assert.Equal(t, catalog.Green, res.Order.Items[0].Quality)
	assert.Equal(t, catalog.Blue, res.Order.Items[1].Quality)
	assert.Equal(t, catalog.White, res.Order.Items[2].Quality)
}

func TestDeclinedDefaultsPromptEveryItem(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Text("Armadura"),
		prompttest.Select("Cabeza", "Manos"),
		prompttest.Confirm(false),
		prompttest.Select("Divinidad"),
		prompttest.Select("Azul"),
		prompttest.Select("Ligera"),
		prompttest.Confirm(false).Expect("rasgo"),
		prompttest.Confirm(false).Expect("calidad"),
		prompttest.Confirm(true).Expect("peso"),
		prompttest.Select("Refuerzo").Expect("Manos"),
		prompttest.Select("Morada").Expect("Manos"),
		prompttest.Confirm(true),
		prompttest.Confirm(true),
	)
	res, _, err := run(t, newEngine(t), order.Crafting, script)
	require.NoError(t, err)
	assert.Zero(t, script.Remaining())
	require.Len(t, res.Order.Items, 2)
	assert.Equal(t, armourTrait("reinforced"), res.Order.Items[1].Trait)
	assert.Equal(t, catalog.Purple, res.Order.Items[1].Quality)
	assert.Equal(t, catalog.Light, res.Order.Items[1].Weight)
}

func TestTimeoutCancelsWholeOrder(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Text("Lenta"),
		prompttest.Select("Cabeza", "Manos", "Pies"),
		prompttest.Confirm(false),
		prompttest.Select("Divinidad"),
		prompttest.Select("Azul"),
		prompttest.Select("Pesada"),
		prompttest.Confirm(false),
		prompttest.Confirm(true),
		prompttest.Confirm(true),
		prompttest.Stall(prompttest.KindSelect),
	)
	res, rec, err := run(t, newEngine(t), order.Crafting, prompt.Timed(script, 20*time.Millisecond))
	require.ErrorIs(t, err, prompt.ErrTimeout)
	assert.Equal(t, StateCancelled, res.State)
	assert.Len(t, res.Order.Items, 1)
	assert.Empty(t, rec.Orders())

	notices := script.Notices()
	require.NotEmpty(t, notices)
	assert.Contains(t, notices[len(notices)-1], "Se acabó el tiempo")
}

func TestInvalidOrderNameIsAskedAgain(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Text("   "),
		prompttest.Text(string(make([]rune, MaxOrderNameLength+1))),
		prompttest.Text("  Cólera  "),
		prompttest.Select(),
	)
	res, rec, err := run(t, newEngine(t), order.Crafting, script)
	require.ErrorIs(t, err, ErrNoParts)
	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, "Cólera", res.Order.Name)
	assert.Len(t, script.Notices(), 2)
	assert.Empty(t, rec.Orders())
}

func TestUnknownCatalogValueAborts(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Text("Cólera"),
		prompttest.Select("Casco"),
	)
	res, rec, err := run(t, newEngine(t), order.Crafting, script)
	require.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, StateCancelled, res.State)
	assert.Empty(t, rec.Orders())

	script = prompttest.NewScript(t,
		prompttest.Text("Cólera"),
		prompttest.Select("Collar"),
		prompttest.Confirm(false),
		prompttest.Select("Divinidad"),
	)
	_, _, err = run(t, newEngine(t), order.Crafting, script)
	var nf *catalog.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "jewelry trait", nf.Kind)
}

func TestExplicitDeclineCancelsWithoutError(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Text("Cólera"),
		prompttest.Select("Collar"),
		prompttest.Confirm(false),
		prompttest.Select("Arcanidad"),
		prompttest.Select("Azul"),
		prompttest.Confirm(true),
		prompttest.Confirm(false),
	)
	res, rec, err := run(t, newEngine(t), order.Crafting, script)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, res.State)
	assert.Len(t, res.Order.Items, 1)
	assert.NotNil(t, res.Manifests.Crafting)
	assert.Empty(t, rec.Orders())
}

func TestResearchSkipsEnchantmentAndQuality(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Text("Investigación"),
		prompttest.Select("Cabeza", "Anillo"),
		prompttest.Select("Entrenamiento"),
		prompttest.Select("Media"),
		prompttest.Select("Saludable"),
		prompttest.Confirm(true).Expect("rasgo"),
		prompttest.Confirm(true).Expect("Investigación"),
	)
	res, rec, err := run(t, newEngine(t), order.Research, script)
	require.NoError(t, err)
	assert.Zero(t, script.Remaining())
	require.Len(t, res.Order.Items, 3)
	for _, it := range res.Order.Items {
		assert.Equal(t, catalog.White, it.Quality)
		assert.False(t, it.HasEnchantment())
	}
	assert.Equal(t, armourTrait("training"), res.Order.Items[0].Trait)
	assert.Equal(t, catalog.Medium, res.Order.Items[0].Weight)
	assert.Equal(t, jewelryTrait("healthy"), res.Order.Items[2].Trait)

	orders := rec.Orders()
	require.Len(t, orders, 1)
	assert.Nil(t, orders[0].Manifests.Crafting)
	assert.Equal(t, 2, orders[0].Manifests.Research["Antimonio (Antimony)"])
}

func TestPartsSelectionIsCapped(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Text("Cólera"),
		prompttest.Select("Cabeza", "Manos", "Pies"),
	)
	_, _, err := run(t, newEngine(t, WithMaxParts(2)), order.Crafting, script)
	require.ErrorIs(t, err, ErrTooManyParts)
	asked := script.Asked()
	require.Len(t, asked, 2)
	assert.Equal(t, 2, asked[1].Max)
}

func TestNormalizeOrderName(t *testing.T) {
	name, err := NormalizeOrderName("  Cólera ")
	require.NoError(t, err)
	assert.Equal(t, "Cólera", name)

	_, err = NormalizeOrderName("")
	require.ErrorIs(t, err, ErrInvalidOrderName)
}
