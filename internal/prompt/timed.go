package prompt

import (
	"context"
	"errors"
	"time"

	"github.com/kingrea/guild-forge/internal/order"
)

// Timed wraps a prompter so that every blocking call waits at most ceiling.
// Deadline expiry is reported as ErrTimeout; cancellation of the parent
// context is passed through unchanged.
func Timed(p Prompter, ceiling time.Duration) Prompter {
	if ceiling <= 0 {
		ceiling = DefaultWait * time.Second
	}
	return &timed{next: p, ceiling: ceiling}
}

type timed struct {
	next    Prompter
	ceiling time.Duration
}

func (t *timed) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.ceiling)
}

func (t *timed) mapErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

func (t *timed) Text(ctx context.Context, label, placeholder string) (string, error) {
	cctx, cancel := t.bound(ctx)
	defer cancel()
	out, err := t.next.Text(cctx, label, placeholder)
	return out, t.mapErr(cctx, err)
}

func (t *timed) Select(ctx context.Context, req SelectRequest) ([]string, error) {
	cctx, cancel := t.bound(ctx)
	defer cancel()
	out, err := t.next.Select(cctx, req)
	return out, t.mapErr(cctx, err)
}

func (t *timed) Confirm(ctx context.Context, question string) (bool, error) {
	cctx, cancel := t.bound(ctx)
	defer cancel()
	out, err := t.next.Confirm(cctx, question)
	return out, t.mapErr(cctx, err)
}

func (t *timed) Preview(ctx context.Context, item order.Item) { t.next.Preview(ctx, item) }

func (t *timed) Notify(ctx context.Context, message string) { t.next.Notify(ctx, message) }
