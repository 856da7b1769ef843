// internal/tui/app.go
//
// This is the terminal front end for forge. It uses bubbletea, which follows
// The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// A running flow lives on its own goroutine and talks to the model through a
// channel: every prompt arrives as a promptMsg carrying a reply channel.

package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/guild-forge/internal/announce"
	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/flow"
	"github.com/kingrea/guild-forge/internal/logbook"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/review"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu appState = iota // Flow picker
	stateSession                  // A flow is running
)

// transcriptLimit bounds how many cards are kept on screen.
const transcriptLimit = 12

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithRequester sets the name orders are placed under.
func WithRequester(name string) AppOption {
	return func(a *App) {
		if name = strings.TrimSpace(name); name != "" {
			a.requester = name
		}
	}
}

// WithAnnouncer sets where confirmed work is delivered (usually the journal).
func WithAnnouncer(an prompt.Announcer) AppOption {
	return func(a *App) {
		if an != nil {
			a.announcer = an
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithLogbook shows the tail of the orders journal under the main area.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithWait sets the per-prompt wait ceiling.
func WithWait(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.wait = d
		}
	}
}

// WithMenuDescription sets the text shown above the flow menu.
func WithMenuDescription(text string) AppOption {
	return func(a *App) {
		a.menuText = strings.TrimSpace(text)
	}
}

// WithTier sets the reference tier named in transcript announcements.
func WithTier(tier string) AppOption {
	return func(a *App) {
		if tier = strings.TrimSpace(tier); tier != "" {
			a.tier = tier
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state     appState
	flows     *flow.Registry
	catalog   *catalog.Catalog
	requester string
	announcer prompt.Announcer
	logger    *zap.Logger
	logbook   *logbook.Logbook
	wait      time.Duration
	menuText  string
	tier      string

	// UI components
	mainMenu  list.Model
	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int

	// Running session
	activeFlow string
	events     chan tea.Msg
	cancel     context.CancelFunc
	done       <-chan struct{}
	pending    *promptMsg
	input      textinput.Model
	choices    list.Model
	checks     checklist
	transcript []cardMsg
}

// flowItem implements list.Item for menu entries.
type flowItem struct {
	info flow.Info
}

func (i flowItem) Title() string       { return i.info.Label }
func (i flowItem) Description() string { return i.info.Description }
func (i flowItem) FilterValue() string { return i.info.ID }

// optionItem implements list.Item for single-choice prompts.
type optionItem struct {
	opt prompt.Option
}

func (i optionItem) Title() string       { return i.opt.Label }
func (i optionItem) Description() string { return i.opt.Description }
func (i optionItem) FilterValue() string { return i.opt.Value }

// NewApp creates a new App over the flows in reg.
func NewApp(reg *flow.Registry, cat *catalog.Catalog, opts ...AppOption) (*App, error) {
	if reg == nil || cat == nil {
		return nil, errors.New("tui: flow registry and catalog are required")
	}
	infos := reg.Infos()
	if len(infos) == 0 {
		return nil, errors.New("tui: no flows registered")
	}
	items := make([]list.Item, 0, len(infos))
	for _, info := range infos {
		items = append(items, flowItem{info: info})
	}
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "⬡ PEDIDOS"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)

	app := &App{
		state:     stateMainMenu,
		flows:     reg,
		catalog:   cat,
		requester: "anónimo",
		logger:    zap.NewNop(),
		wait:      prompt.DefaultWait * time.Second,
		tier:      review.DefaultTier,
		mainMenu:  mainMenu,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app, nil
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		if a.pending != nil && a.pending.kind == promptSelect {
			a.choices.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		}
		return a, nil

	case promptMsg:
		a.beginPrompt(msg)
		return a, a.next()

	case cardMsg:
		a.transcript = append(a.transcript, msg)
		if len(a.transcript) > transcriptLimit {
			a.transcript = a.transcript[len(a.transcript)-transcriptLimit:]
		}
		return a, a.next()

	case sessionDoneMsg:
		return a.finishSession(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.stopSession()
			return a, tea.Quit
		case "esc":
			if a.state == stateSession {
				a.stopSession()
				a.statusMsg = "Pedido abandonado"
				return a, nil
			}
		}
		if a.state == stateMainMenu {
			return a.updateMenu(msg)
		}
		return a, a.answerKey(msg)
	}

	var cmd tea.Cmd
	switch {
	case a.state == stateMainMenu:
		a.mainMenu, cmd = a.mainMenu.Update(msg)
	case a.pending != nil && a.pending.kind == promptText:
		a.input, cmd = a.input.Update(msg)
	}
	return a, cmd
}

func (a *App) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "enter":
		item, ok := a.mainMenu.SelectedItem().(flowItem)
		if !ok {
			return a, nil
		}
		return a, a.startSession(item.info.ID)
	}
	var cmd tea.Cmd
	a.mainMenu, cmd = a.mainMenu.Update(msg)
	return a, cmd
}

// startSession runs the flow on its own goroutine and starts listening for
// its events.
func (a *App) startSession(id string) tea.Cmd {
	f, err := a.flows.Resolve(id)
	if err != nil {
		a.statusMsg = err.Error()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan tea.Msg)
	a.state = stateSession
	a.activeFlow = id
	a.events = events
	a.cancel = cancel
	a.done = ctx.Done()
	a.pending = nil
	a.transcript = nil
	a.statusMsg = ""

	logger := a.logger.With(zap.String("flow", id), zap.String("requester", a.requester))
	env := flow.Env{
		Requester: a.requester,
		Prompter:  prompt.Timed(&channelPrompter{events: events, catalog: a.catalog}, a.wait),
		Announcer: announce.Multi{a.announcer, &transcriptAnnouncer{events: events, catalog: a.catalog, tier: a.tier}},
		Logger:    logger,
	}
	go func() {
		res, err := f.Run(ctx, env)
		select {
		case events <- sessionDoneMsg{flowID: id, result: res, err: err}:
		case <-ctx.Done():
		}
	}()
	logger.Info("terminal session started")
	return a.next()
}

// next waits for the running session's following event.
func (a *App) next() tea.Cmd {
	if a.events == nil {
		return nil
	}
	return waitForEvent(a.events, a.done)
}

func (a *App) stopSession() {
	if a.cancel != nil {
		a.cancel()
	}
	a.cancel = nil
	a.events = nil
	a.done = nil
	a.pending = nil
	a.state = stateMainMenu
}

func (a *App) finishSession(msg sessionDoneMsg) (tea.Model, tea.Cmd) {
	a.stopSession()
	switch {
	case msg.err != nil && errors.Is(msg.err, prompt.ErrTimeout):
		a.statusMsg = "Se acabó el tiempo para responder"
	case msg.err != nil:
		a.statusMsg = fmt.Sprintf("Pedido cancelado: %v", msg.err)
	case msg.result.Status == flow.StatusConfirmed:
		a.statusMsg = "Pedido enviado a los artesanos"
	default:
		a.statusMsg = "Pedido cancelado"
	}
	if msg.err != nil && a.logbook != nil {
		a.logbook.Warn("pedido de %s (%s) cancelado: %v", a.requester, msg.flowID, msg.err)
	}
	a.logger.Info("terminal session finished",
		zap.String("flow", msg.flowID),
		zap.String("status", string(msg.result.Status)),
		zap.Error(msg.err))
	return a, nil
}

// beginPrompt shows msg. Exactly one waitForEvent is outstanding at any time:
// it is re-armed for every event received, never for answers.
func (a *App) beginPrompt(msg promptMsg) {
	a.pending = &msg
	switch msg.kind {
	case promptText:
		a.input = textinput.New()
		a.input.Placeholder = msg.placeholder
		a.input.CharLimit = 200
		a.input.Cursor.SetMode(cursor.CursorStatic)
		a.input.Focus()
	case promptSelect:
		if msg.max > 1 {
			a.checks = newChecklist(msg.options, msg.max)
			return
		}
		items := make([]list.Item, 0, len(msg.options))
		for _, opt := range msg.options {
			items = append(items, optionItem{opt: opt})
		}
		a.choices = list.New(items, list.NewDefaultDelegate(), max(20, a.width-6), max(10, a.height-10))
		a.choices.Title = msg.label
		a.choices.SetShowStatusBar(false)
		a.choices.SetFilteringEnabled(false)
		a.choices.KeyMap.Quit.SetEnabled(false)
	}
}

// reply answers the pending prompt. The outstanding listener picks up
// whatever the session does next.
func (a *App) reply(ans answer) tea.Cmd {
	if a.pending == nil {
		return nil
	}
	a.pending.reply <- ans
	a.pending = nil
	return nil
}

func (a *App) answerKey(msg tea.KeyMsg) tea.Cmd {
	p := a.pending
	if p == nil {
		return nil
	}
	key := msg.String()
	switch p.kind {
	case promptText:
		if key == "enter" {
			return a.reply(answer{text: a.input.Value()})
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return cmd
	case promptConfirm:
		switch strings.ToLower(key) {
		case "y", "s":
			return a.reply(answer{yes: true})
		case "n":
			return a.reply(answer{yes: false})
		}
		return nil
	case promptSelect:
		if p.max > 1 {
			switch key {
			case "up", "k":
				a.checks.move(-1)
			case "down", "j":
				a.checks.move(1)
			case " ", "x":
				a.checks.toggle()
			case "enter":
				return a.reply(answer{values: a.checks.values()})
			}
			return nil
		}
		if key == "enter" {
			item, ok := a.choices.SelectedItem().(optionItem)
			if !ok {
				return nil
			}
			return a.reply(answer{values: []string{item.opt.Value}})
		}
		var cmd tea.Cmd
		a.choices, cmd = a.choices.Update(msg)
		return cmd
	}
	return nil
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ FORGE")

	var main string
	switch a.state {
	case stateMainMenu:
		main = a.mainMenu.View()
		if a.menuText != "" {
			main = lipgloss.JoinVertical(lipgloss.Left, detailStyle.Render(a.menuText), "", main)
		}
	case stateSession:
		main = a.renderPrompt()
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, width-4)).
		Render(main)

	sections := []string{header, box}
	if cards := a.renderTranscript(width - 4); cards != "" {
		sections = append(sections, cards)
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.footerText())
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) footerText() string {
	hint := "enter elige · q sale"
	if a.state == stateSession {
		hint = a.activeFlow + " · esc abandona el pedido · ctrl+c sale"
	}
	if a.statusMsg == "" {
		return hint
	}
	return a.statusMsg + " · " + hint
}

func (a *App) renderPrompt() string {
	p := a.pending
	if p == nil {
		return detailStyle.Render("Esperando...")
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	switch p.kind {
	case promptText:
		return lipgloss.JoinVertical(lipgloss.Left, title.Render(p.label), "", a.input.View())
	case promptConfirm:
		return lipgloss.JoinVertical(lipgloss.Left, title.Render(p.label), "", detailStyle.Render("[s/y] sí · [n] no"))
	case promptSelect:
		if p.max > 1 {
			return lipgloss.JoinVertical(lipgloss.Left, title.Render(p.label), "", a.checks.view())
		}
		return a.choices.View()
	}
	return ""
}

func (a *App) renderTranscript(width int) string {
	if len(a.transcript) == 0 {
		return ""
	}
	cards := make([]string, 0, len(a.transcript))
	for _, c := range a.transcript {
		cards = append(cards, renderCard(c, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func renderCard(c cardMsg, width int) string {
	border := lipgloss.Color("#444444")
	switch c.kind {
	case cardPreview:
		border = lipgloss.Color("#5B8DEF")
	case cardAnnouncement:
		border = lipgloss.Color("#4CAF50")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(20, width)).
		Render(c.body)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(8)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}
