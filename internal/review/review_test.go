package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/prompt/prompttest"
)

func sampleOrder(mode order.Mode) order.Order {
	quality := catalog.Purple
	if mode == order.Research {
		quality = catalog.White
	}
	items := []order.Item{
		{Gear: catalog.Head, Trait: catalog.Trait{Family: catalog.FamilyArmour, ID: "divines"}, Quality: quality, Weight: catalog.Heavy},
		{Gear: catalog.Ring, Trait: catalog.Trait{Family: catalog.FamilyJewelry, ID: "arcane"}, Quality: quality},
	}
	return order.New("Cólera", "Vaelis", mode, items, time.Unix(0, 0))
}

func TestRenderRecapGroupsByFamily(t *testing.T) {
	got := RenderRecap(catalog.Default(), sampleOrder(order.Crafting))
	want := "Pedido: Cólera\n\n" +
		"Armadura:\n  - Cabeza (Pesada): Divinidad, Morada\n\n" +
		"Joyería:\n  - Anillo: Arcanidad, Morada"
	assert.Equal(t, want, got)
}

func TestGateCraftingAtReferenceTier(t *testing.T) {
	script := prompttest.NewScript(t,
		prompttest.Confirm(true).Expect("CP160"),
		prompttest.Confirm(true).Expect("Cólera"),
	)
	out, err := Gate{Catalog: catalog.Default()}.Run(context.Background(), script, sampleOrder(order.Crafting))
	require.NoError(t, err)
	assert.True(t, out.Confirmed)
	require.NotNil(t, out.Manifests.Crafting)
	assert.Nil(t, out.Manifests.Research)
	assert.Equal(t, 130, out.Manifests.Crafting["Lingote de rubedita (Rubedite Ingots)"])

	notices := script.Notices()
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "Materiales (CP160):")
}

func TestGateSkipsManifestBelowReferenceTier(t *testing.T) {
	script := prompttest.NewScript(t, prompttest.Confirm(false), prompttest.Confirm(false))
	out, err := Gate{Catalog: catalog.Default()}.Run(context.Background(), script, sampleOrder(order.Crafting))
	require.NoError(t, err)
	assert.False(t, out.Confirmed)
	assert.Nil(t, out.Manifests.Crafting)
	assert.NotContains(t, script.Notices()[0], "Materiales")
}

func TestGateResearchShowsResearchManifest(t *testing.T) {
	script := prompttest.NewScript(t, prompttest.Confirm(true))
	out, err := Gate{Catalog: catalog.Default(), Tier: "CP160"}.Run(context.Background(), script, sampleOrder(order.Research))
	require.NoError(t, err)
	assert.True(t, out.Confirmed)
	assert.Equal(t, 1, out.Manifests.Research["Zafiro (Sapphire)"])
	assert.Contains(t, script.Notices()[0], "Materiales de investigación:")
}

func TestGatePropagatesTimeout(t *testing.T) {
	script := prompttest.NewScript(t, prompttest.Confirm(true), prompttest.Stall(prompttest.KindConfirm))
	p := prompt.Timed(script, 10*time.Millisecond)
	_, err := Gate{Catalog: catalog.Default()}.Run(context.Background(), p, sampleOrder(order.Crafting))
	require.ErrorIs(t, err, prompt.ErrTimeout)
}

func TestRenderAnnouncementAddressesCrafters(t *testing.T) {
	a := prompt.Announcement{Order: sampleOrder(order.Crafting), Audience: "@Artesanos", Requester: "Vaelis"}
	got := RenderAnnouncement(catalog.Default(), a, DefaultTier)
	assert.Contains(t, got, "@Artesanos Vaelis ha hecho un pedido (2 piezas).")
	assert.Contains(t, got, "Pedido: Cólera")

	req := RenderRequest(prompt.Request{Kind: "consumibles", Requester: "Vaelis", Body: "20 pociones", Audience: "@Artesanos"})
	assert.Equal(t, "@Artesanos Vaelis ha pedido consumibles:\n20 pociones", req)
}
