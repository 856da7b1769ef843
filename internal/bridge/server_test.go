package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/config"
	"github.com/kingrea/guild-forge/internal/flow"
	"github.com/kingrea/guild-forge/internal/intake"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/prompt/prompttest"
)

func startServer(t *testing.T, wait time.Duration, opts ...Option) *Server {
	t.Helper()
	engine, err := intake.New(catalog.Default(), intake.WithAudience("@Artesanos"))
	require.NoError(t, err)
	settings := Settings{Host: "127.0.0.1", Port: 0, Wait: wait}
	srv, err := NewServer(settings, flow.Default(engine, "@Artesanos"), catalog.Default(), opts...)
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		http.DefaultClient.CloseIdleConnections()
	})
	return srv
}

func dial(t *testing.T, srv *Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.BaseURL(), "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// step answers the next blocking frame, checking its label.
type step struct {
	expect string
	answer Answer
}

// converse answers blocking frames in order and returns every frame received
// up to and including the done frame.
func converse(t *testing.T, conn *websocket.Conn, steps ...step) []Frame {
	t.Helper()
	var frames []Frame
	for {
		f := readFrame(t, conn)
		frames = append(frames, f)
		switch f.Type {
		case FrameDone:
			assert.Empty(t, steps, "unused steps")
			return frames
		case FrameText, FrameSelect, FrameConfirm:
			require.NotEmpty(t, steps, "unexpected prompt %q", f.Label)
			next := steps[0]
			steps = steps[1:]
			assert.Contains(t, f.Label, next.expect)
			next.answer.Type = FrameAnswer
			next.answer.ID = f.ID
			require.NoError(t, conn.WriteJSON(next.answer))
		}
	}
}

func text(expect, s string) step { return step{expect: expect, answer: Answer{Text: s}} }
func pick(expect string, v ...string) step { return step{expect: expect, answer: Answer{Values: v}} }
func yes(expect string, b bool) step { return step{expect: expect, answer: Answer{Yes: b}} }

func framesOfType(frames []Frame, kind string) []Frame {
	var out []Frame
	for _, f := range frames {
		if f.Type == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestSettingsFromConfigUsesBridgeSection(t *testing.T) {
	cfg := &config.Config{Project: config.ProjectConfig{
		Intake: config.IntakeConfig{WaitSeconds: 30},
		Bridge: config.BridgeConfig{Host: " 0.0.0.0 ", Port: 9001, RecentOrders: 5, RecentTTLMinutes: 2},
	}}
	settings := SettingsFromConfig(cfg)
	if settings.Host != "0.0.0.0" || settings.Port != 9001 {
		t.Fatalf("unexpected address %s", settings.Address())
	}
	if settings.Wait != 30*time.Second {
		t.Fatalf("expected 30s wait, got %s", settings.Wait)
	}
	if settings.RecentOrders != 5 || settings.RecentTTL != 2*time.Minute {
		t.Fatalf("unexpected recent cache settings %d %s", settings.RecentOrders, settings.RecentTTL)
	}
	if got := SettingsFromConfig(nil); got.Port != DefaultPort || got.Host != DefaultHost {
		t.Fatalf("expected defaults, got %s", got.Address())
	}
}

func TestHealthReportsReady(t *testing.T) {
	srv := startServer(t, time.Second)
	status, body := get(t, srv.BaseURL()+"/health")
	require.Equal(t, http.StatusOK, status)
	var health healthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, string(StatusReady), health.Status)
	assert.Equal(t, ProtocolVersion, health.Version)
	assert.Equal(t, 4, health.Flows)
}

func TestSessionRejectsUnknownFlowAndMissingRequester(t *testing.T) {
	srv := startServer(t, time.Second)
	status, _ := get(t, srv.BaseURL()+"/ws?flow=nope&requester=Vaelis")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = get(t, srv.BaseURL()+"/ws?flow=gear")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGearSessionEndToEnd(t *testing.T) {
	journal := &prompttest.Recorder{}
	srv := startServer(t, 5*time.Second, WithAnnouncer(journal))
	conn := dial(t, srv, "/ws?flow=gear&requester=Vaelis")

	frames := converse(t, conn,
		text("Nombre del pedido", "Trinidad"),
		pick("Piezas del pedido", "Collar"),
		yes("encantamientos", false),
		pick("Rasgo para Collar", "Trinidad"),
		pick("Calidad para Collar", "Azul"),
		yes("CP160", true),
		yes("Confirmas", true),
	)

	previews := framesOfType(frames, FramePreview)
	require.Len(t, previews, 1)
	assert.Equal(t, "Collar: Trinidad, Azul", previews[0].Body)
	require.NotEmpty(t, framesOfType(frames, FrameNotice))

	done := frames[len(frames)-1]
	assert.Equal(t, string(flow.StatusConfirmed), done.Status)
	assert.Empty(t, done.Error)
	require.NotEmpty(t, done.OrderID)
	require.Len(t, journal.Orders(), 1)
	assert.Equal(t, done.OrderID, journal.Orders()[0].Order.ID)

	status, body := get(t, srv.BaseURL()+"/orders/"+done.OrderID)
	require.Equal(t, http.StatusOK, status)
	var view orderView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "Trinidad", view.Name)
	assert.Equal(t, "crafting", view.Mode)
	assert.Equal(t, []string{"Collar: Trinidad, Azul"}, view.Items)
	assert.NotEmpty(t, view.Crafting)

	status, _ = get(t, srv.BaseURL()+"/orders/missing")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSessionIgnoresStaleAnswers(t *testing.T) {
	srv := startServer(t, 5*time.Second)
	sub := srv.Feed().Subscribe()
	defer sub.Close()
	conn := dial(t, srv, "/ws?flow=consumables&requester=Vaelis")

	first := readFrame(t, conn)
	require.Equal(t, FrameText, first.Type)
	require.NoError(t, conn.WriteJSON(Answer{Type: FrameAnswer, ID: first.ID + 7, Text: "respuesta vieja"}))
	require.NoError(t, conn.WriteJSON(Answer{Type: FrameAnswer, ID: first.ID, Text: "10 sopas de tomate"}))

	done := readFrame(t, conn)
	require.Equal(t, FrameDone, done.Type)
	assert.Equal(t, string(flow.StatusConfirmed), done.Status)

	select {
	case post := <-sub.Posts:
		assert.Equal(t, PostRequest, post.Kind)
		assert.Contains(t, post.Body, "10 sopas de tomate")
		assert.NotContains(t, post.Body, "respuesta vieja")
	case <-time.After(5 * time.Second):
		t.Fatal("no post published")
	}
}

func TestSessionTimesOutWithoutAnswer(t *testing.T) {
	srv := startServer(t, 50*time.Millisecond)
	conn := dial(t, srv, "/ws?flow=enchantments&requester=Vaelis")

	first := readFrame(t, conn)
	require.Equal(t, FrameText, first.Type)
	done := readFrame(t, conn)
	require.Equal(t, FrameDone, done.Type)
	assert.Equal(t, string(flow.StatusCancelled), done.Status)
	assert.Equal(t, prompt.ErrTimeout.Error(), done.Error)
}

func TestFeedStreamsAnnouncements(t *testing.T) {
	srv := startServer(t, time.Second)
	// Published before anyone listens, so it waits in the backlog.
	require.NoError(t, srv.Announcer().AnnounceRequest(context.Background(), prompt.Request{
		Kind: "encantamientos", Requester: "Vaelis", Body: "5 glifos de salud", Audience: "@Artesanos",
	}))

	conn := dial(t, srv, "/feed")
	f := readFrame(t, conn)
	assert.Equal(t, FrameAnnouncement, f.Type)
	assert.Equal(t, PostRequest, f.Kind)
	assert.Contains(t, f.Body, "@Artesanos Vaelis ha pedido encantamientos:")
}

func TestShutdownEndsOpenSessions(t *testing.T) {
	srv := startServer(t, time.Minute)
	conn := dial(t, srv, "/ws?flow=gear&requester=Vaelis")
	first := readFrame(t, conn)
	require.Equal(t, FrameText, first.Type)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, StatusDraining, srv.Status())

	done := readFrame(t, conn)
	assert.Equal(t, FrameDone, done.Type)
	assert.Equal(t, string(flow.StatusCancelled), done.Status)
	assert.NotEmpty(t, done.Error)
}
