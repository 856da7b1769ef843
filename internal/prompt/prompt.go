// Package prompt defines how a session talks to its requester. Transports
// (terminal, websocket) implement Prompter and Announcer.
package prompt

import (
	"context"
	"errors"

	"github.com/kingrea/guild-forge/internal/cost"
	"github.com/kingrea/guild-forge/internal/order"
)

// DefaultWait is the wait ceiling applied to every prompt.
const DefaultWait = 180

// ErrTimeout is returned when the requester does not answer in time.
var ErrTimeout = errors.New("prompt: timed out waiting for an answer")

// Option is a selectable value. Value is what comes back from Select.
type Option struct {
	Value       string
	Label       string
	Description string
}

// SelectRequest asks for one or more options. MaxSelections of 1 or less is a
// single choice.
type SelectRequest struct {
	Label         string
	Placeholder   string
	Options       []Option
	MaxSelections int
}

// Multi reports whether more than one option may be picked.
func (r SelectRequest) Multi() bool { return r.MaxSelections > 1 }

// Prompter asks the requester one question at a time. Text, Select and
// Confirm block until an answer arrives or ctx is done. Preview and Notify do
// not wait for a reply.
type Prompter interface {
	Text(ctx context.Context, label, placeholder string) (string, error)
	Select(ctx context.Context, req SelectRequest) ([]string, error)
	Confirm(ctx context.Context, question string) (bool, error)
	Preview(ctx context.Context, item order.Item)
	Notify(ctx context.Context, message string)
}

// Manifests carries the manifests shown at review. Either may be nil.
type Manifests struct {
	Crafting cost.Manifest
	Research cost.Manifest
}

// Announcement is a confirmed order addressed to the crafters.
type Announcement struct {
	Order     order.Order
	Manifests Manifests
	Audience  string
	Requester string
}

// Request is a free-text request (consumables, glyphs) addressed to the
// crafters.
type Request struct {
	Kind      string
	Requester string
	Body      string
	Audience  string
}

// Announcer publishes confirmed work.
type Announcer interface {
	AnnounceOrder(ctx context.Context, a Announcement) error
	AnnounceRequest(ctx context.Context, r Request) error
}
