package announce

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/logbook"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/prompt/prompttest"
)

func sampleAnnouncement() prompt.Announcement {
	items := []order.Item{{
		Gear:    catalog.Necklace,
		Trait:   catalog.Trait{Family: catalog.FamilyJewelry, ID: "triune"},
		Quality: catalog.Blue,
	}}
	return prompt.Announcement{
		Order:     order.New("Trinidad", "Vaelis", order.Crafting, items, time.Unix(0, 0)),
		Audience:  "@Artesanos",
		Requester: "Vaelis",
	}
}

func TestJournalWritesRenderedAnnouncement(t *testing.T) {
	book, err := logbook.New(filepath.Join(t.TempDir(), "orders.log"))
	require.NoError(t, err)
	j := NewJournal(book, catalog.Default(), "", nil)

	require.NoError(t, j.AnnounceOrder(context.Background(), sampleAnnouncement()))
	require.NoError(t, j.AnnounceRequest(context.Background(), prompt.Request{
		Kind: "consumibles", Requester: "Vaelis", Body: "10 sopas", Audience: "@Artesanos",
	}))

	lines, _ := book.Tail(50)
	text := strings.Join(lines, "\n")
	assert.Contains(t, text, "@Artesanos Vaelis ha hecho un pedido (1 piezas).")
	assert.Contains(t, text, "Collar: Trinidad, Azul")
	assert.Contains(t, text, "@Artesanos Vaelis ha pedido consumibles:")
	assert.Contains(t, text, "10 sopas")
}

func TestMultiReachesEveryAnnouncer(t *testing.T) {
	failing := &prompttest.Recorder{Err: errors.New("offline")}
	ok := &prompttest.Recorder{}
	m := Multi{failing, nil, ok}

	err := m.AnnounceOrder(context.Background(), sampleAnnouncement())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
	assert.Len(t, ok.Orders(), 1)

	require.NoError(t, Multi{ok}.AnnounceRequest(context.Background(), prompt.Request{Kind: "encantamientos"}))
	assert.Len(t, ok.Requests(), 1)
}
