// Package prompttest provides scripted prompters and recording announcers for
// driving sessions in tests.
package prompttest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kingrea/guild-forge/internal/order"
	"github.com/kingrea/guild-forge/internal/prompt"
)

// Kind names a blocking prompt.
type Kind string

const (
	KindText    Kind = "text"
	KindSelect  Kind = "select"
	KindConfirm Kind = "confirm"
)

// Step is one scripted answer.
type Step struct {
	kind   Kind
	expect string
	text   string
	values []string
	yes    bool
	err    error
	block  bool
}

// Text answers a text prompt.
func Text(answer string) Step { return Step{kind: KindText, text: answer} }

// Select answers a select prompt with the given values.
func Select(values ...string) Step { return Step{kind: KindSelect, values: values} }

// Confirm answers a yes/no prompt.
func Confirm(yes bool) Step { return Step{kind: KindConfirm, yes: yes} }

// Stall never answers a prompt of the given kind; the call returns once its
// context is done.
func Stall(kind Kind) Step { return Step{kind: kind, block: true} }

// Fail makes a prompt of the given kind return err.
func Fail(kind Kind, err error) Step { return Step{kind: kind, err: err} }

// Expect requires the prompt label or question to contain substr.
func (s Step) Expect(substr string) Step {
	s.expect = substr
	return s
}

// Asked records a blocking prompt as it was issued.
type Asked struct {
	Kind    Kind
	Label   string
	Options []prompt.Option
	Max     int
}

// TestingT is the subset of testing.TB used to report script mismatches.
type TestingT interface {
	Errorf(format string, args ...any)
	Helper()
}

// Script is a Prompter that replays steps in order.
type Script struct {
	t     TestingT
	mu    sync.Mutex
	steps []Step
	next  int

	asked    []Asked
	previews []order.Item
	notices  []string
}

var _ prompt.Prompter = (*Script)(nil)

// NewScript returns a prompter that answers with steps.
func NewScript(t TestingT, steps ...Step) *Script {
	return &Script{t: t, steps: steps}
}

func (s *Script) take(kind Kind, label string, req prompt.SelectRequest) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, Asked{Kind: kind, Label: label, Options: req.Options, Max: req.MaxSelections})
	if s.next >= len(s.steps) {
		s.t.Errorf("prompttest: unexpected %s prompt %q after script ended", kind, label)
		return Step{}, fmt.Errorf("prompttest: script exhausted at %s %q", kind, label)
	}
	step := s.steps[s.next]
	s.next++
	if step.kind != kind {
		s.t.Errorf("prompttest: step %d expected %s prompt, got %s %q", s.next, step.kind, kind, label)
		return Step{}, fmt.Errorf("prompttest: wanted %s, got %s", step.kind, kind)
	}
	if step.expect != "" && !strings.Contains(label, step.expect) {
		s.t.Errorf("prompttest: step %d %s prompt %q does not mention %q", s.next, kind, label, step.expect)
	}
	return step, nil
}

func (s *Script) wait(ctx context.Context, step Step) error {
	if step.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return step.err
}

func (s *Script) Text(ctx context.Context, label, _ string) (string, error) {
	step, err := s.take(KindText, label, prompt.SelectRequest{})
	if err != nil {
		return "", err
	}
	if err := s.wait(ctx, step); err != nil {
		return "", err
	}
	return step.text, nil
}

func (s *Script) Select(ctx context.Context, req prompt.SelectRequest) ([]string, error) {
	step, err := s.take(KindSelect, req.Label, req)
	if err != nil {
		return nil, err
	}
	if err := s.wait(ctx, step); err != nil {
		return nil, err
	}
	return append([]string(nil), step.values...), nil
}

func (s *Script) Confirm(ctx context.Context, question string) (bool, error) {
	step, err := s.take(KindConfirm, question, prompt.SelectRequest{})
	if err != nil {
		return false, err
	}
	if err := s.wait(ctx, step); err != nil {
		return false, err
	}
	return step.yes, nil
}

func (s *Script) Preview(_ context.Context, item order.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previews = append(s.previews, item)
}

func (s *Script) Notify(_ context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, message)
}

// Remaining is the number of steps not yet consumed.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps) - s.next
}

// Asked returns every blocking prompt issued so far.
func (s *Script) Asked() []Asked {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Asked(nil), s.asked...)
}

// Previews returns every previewed item in order.
func (s *Script) Previews() []order.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]order.Item(nil), s.previews...)
}

// Notices returns every notification in order.
func (s *Script) Notices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.notices...)
}

// Recorder is an Announcer that keeps what it receives.
type Recorder struct {
	mu       sync.Mutex
	Err      error
	orders   []prompt.Announcement
	requests []prompt.Request
}

var _ prompt.Announcer = (*Recorder)(nil)

func (r *Recorder) AnnounceOrder(_ context.Context, a prompt.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.orders = append(r.orders, a)
	return nil
}

func (r *Recorder) AnnounceRequest(_ context.Context, req prompt.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.requests = append(r.requests, req)
	return nil
}

// Orders returns announced orders.
func (r *Recorder) Orders() []prompt.Announcement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]prompt.Announcement(nil), r.orders...)
}

// Requests returns announced free-text requests.
func (r *Recorder) Requests() []prompt.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]prompt.Request(nil), r.requests...)
}
