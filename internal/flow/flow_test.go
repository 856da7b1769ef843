package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/intake"
	"github.com/kingrea/guild-forge/internal/prompt/prompttest"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	engine, err := intake.New(catalog.Default())
	require.NoError(t, err)
	return Default(engine, "@Artesanos")
}

func TestDefaultRegistry(t *testing.T) {
	r := newRegistry(t)
	assert.Equal(t, []string{"consumables", "enchantments", "gear", "gear-research"}, r.IDs())

	infos := r.Infos()
	require.Len(t, infos, 4)
	assert.Equal(t, "gear", infos[0].ID)
	assert.Equal(t, "Equipamiento", infos[0].Label)

	_, err := r.Resolve("potions")
	require.Error(t, err)

	err = r.Register(Consumables(""))
	require.ErrorContains(t, err, "already registered")
}

func TestRegisterValidatesInfo(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Register(&freeTextFlow{info: Info{ID: "x"}}))
	require.Error(t, r.Register(nil))
}

func TestFreeTextFlowReasksEmptyBody(t *testing.T) {
	r := newRegistry(t)
	f, err := r.Resolve("consumables")
	require.NoError(t, err)

	script := prompttest.NewScript(t,
		prompttest.Text("   "),
		prompttest.Text(" 20 pociones de vida \n"),
	)
	rec := &prompttest.Recorder{}
	res, err := f.Run(context.Background(), Env{Requester: "Vaelis", Prompter: script, Announcer: rec})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Status)
	assert.Len(t, script.Notices(), 1)

	reqs := rec.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "consumibles", reqs[0].Kind)
	assert.Equal(t, "20 pociones de vida", reqs[0].Body)
	assert.Equal(t, "@Artesanos", reqs[0].Audience)
}

func TestFreeTextFlowCancelledOnError(t *testing.T) {
	f := Enchantments("@Artesanos")
	boom := errors.New("gone")
	script := prompttest.NewScript(t, prompttest.Fail(prompttest.KindText, boom))
	rec := &prompttest.Recorder{}
	res, err := f.Run(context.Background(), Env{Requester: "Vaelis", Prompter: script, Announcer: rec})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Empty(t, rec.Requests())
}

func TestGearFlowRunsEngine(t *testing.T) {
	f, err := newRegistry(t).Resolve("gear-research")
	require.NoError(t, err)
	script := prompttest.NewScript(t,
		prompttest.Text("Rasgos"),
		prompttest.Select("Collar"),
		prompttest.Select("Trinidad"),
		prompttest.Confirm(true),
	)
	rec := &prompttest.Recorder{}
	res, err := f.Run(context.Background(), Env{Requester: "Vaelis", Prompter: script, Announcer: rec})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Status)
	require.NotNil(t, res.Order)
	assert.Equal(t, "Rasgos", res.Order.Name)
	assert.Len(t, rec.Orders(), 1)
}

func TestMenuDescription(t *testing.T) {
	text := MenuDescription(1500, "@Artesanos")
	assert.Contains(t, text, "a @Artesanos")
	assert.Contains(t, text, "1500 de oro por pieza")
	assert.Contains(t, MenuDescription(2.5, "@X"), "2.50 de oro")
}
