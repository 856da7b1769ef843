package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/flow"
	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/review"
)

type promptKind int

const (
	promptText promptKind = iota
	promptSelect
	promptConfirm
)

// promptMsg is sent by the session goroutine when it needs an answer. The
// reply channel is buffered so the model never blocks on it.
type promptMsg struct {
	kind        promptKind
	label       string
	placeholder string
	options     []prompt.Option
	max         int
	reply       chan answer
}

type answer struct {
	text   string
	values []string
	yes    bool
}

// cardMsg adds a rendered card to the transcript.
type cardMsg struct {
	kind cardKind
	body string
}

type cardKind int

const (
	cardPreview cardKind = iota
	cardNotice
	cardAnnouncement
)

type sessionDoneMsg struct {
	flowID string
	result flow.Result
	err    error
}

// channelPrompter implements prompt.Prompter by handing every prompt to the
// bubbletea program over events.
type channelPrompter struct {
	events  chan<- tea.Msg
	catalog *catalog.Catalog
}

func (p *channelPrompter) send(ctx context.Context, msg tea.Msg) error {
	select {
	case p.events <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *channelPrompter) ask(ctx context.Context, msg promptMsg) (answer, error) {
	msg.reply = make(chan answer, 1)
	if err := p.send(ctx, msg); err != nil {
		return answer{}, err
	}
	select {
	case a := <-msg.reply:
		return a, nil
	case <-ctx.Done():
		return answer{}, ctx.Err()
	}
}

func (p *channelPrompter) Text(ctx context.Context, label, placeholder string) (string, error) {
	a, err := p.ask(ctx, promptMsg{kind: promptText, label: label, placeholder: placeholder})
	return a.text, err
}

func (p *channelPrompter) Select(ctx context.Context, req prompt.SelectRequest) ([]string, error) {
	a, err := p.ask(ctx, promptMsg{
		kind:        promptSelect,
		label:       req.Label,
		placeholder: req.Placeholder,
		options:     req.Options,
		max:         req.MaxSelections,
	})
	return a.values, err
}

func (p *channelPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	a, err := p.ask(ctx, promptMsg{kind: promptConfirm, label: question})
	return a.yes, err
}

func (p *channelPrompter) Preview(ctx context.Context, item order.Item) {
	_ = p.send(ctx, cardMsg{kind: cardPreview, body: review.RenderItem(p.catalog, item)})
}

func (p *channelPrompter) Notify(ctx context.Context, message string) {
	_ = p.send(ctx, cardMsg{kind: cardNotice, body: message})
}

// transcriptAnnouncer shows announcements in the transcript so the requester
// sees what the crafters received.
type transcriptAnnouncer struct {
	events  chan<- tea.Msg
	catalog *catalog.Catalog
	tier    string
}

func (t *transcriptAnnouncer) send(ctx context.Context, body string) error {
	select {
	case t.events <- cardMsg{kind: cardAnnouncement, body: body}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *transcriptAnnouncer) AnnounceOrder(ctx context.Context, a prompt.Announcement) error {
	return t.send(ctx, review.RenderAnnouncement(t.catalog, a, t.tier))
}

func (t *transcriptAnnouncer) AnnounceRequest(ctx context.Context, r prompt.Request) error {
	return t.send(ctx, review.RenderRequest(r))
}

// waitForEvent delivers the next session event, or nil once done is closed.
func waitForEvent(events <-chan tea.Msg, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-events:
			// A session being torn down may still win the race to send.
			select {
			case <-done:
				return nil
			default:
				return msg
			}
		case <-done:
			return nil
		}
	}
}
