// Package announce delivers confirmed orders and requests to the crafters.
package announce

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/logbook"
	"github.com/kingrea/guild-forge/internal/prompt"
	"github.com/kingrea/guild-forge/internal/review"
)

// Journal writes announcements to the orders logbook.
type Journal struct {
	book    *logbook.Logbook
	catalog *catalog.Catalog
	tier    string
	logger  *zap.Logger
}

// NewJournal returns an announcer backed by book.
func NewJournal(book *logbook.Logbook, cat *catalog.Catalog, tier string, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tier == "" {
		tier = review.DefaultTier
	}
	return &Journal{book: book, catalog: cat, tier: tier, logger: logger}
}

func (j *Journal) AnnounceOrder(_ context.Context, a prompt.Announcement) error {
	if err := j.book.Append(logbook.LevelInfo, review.RenderAnnouncement(j.catalog, a, j.tier)); err != nil {
		return err
	}
	j.logger.Info("order journaled", zap.String("order_id", a.Order.ID), zap.String("requester", a.Requester))
	return nil
}

func (j *Journal) AnnounceRequest(_ context.Context, r prompt.Request) error {
	if err := j.book.Append(logbook.LevelInfo, review.RenderRequest(r)); err != nil {
		return err
	}
	j.logger.Info("request journaled", zap.String("kind", r.Kind), zap.String("requester", r.Requester))
	return nil
}

// Multi announces to every announcer in turn. All of them are attempted even
// when one fails.
type Multi []prompt.Announcer

func (m Multi) AnnounceOrder(ctx context.Context, a prompt.Announcement) error {
	var errs []error
	for _, next := range m {
		if next == nil {
			continue
		}
		errs = append(errs, next.AnnounceOrder(ctx, a))
	}
	return errors.Join(errs...)
}

func (m Multi) AnnounceRequest(ctx context.Context, r prompt.Request) error {
	var errs []error
	for _, next := range m {
		if next == nil {
			continue
		}
		errs = append(errs, next.AnnounceRequest(ctx, r))
	}
	return errors.Join(errs...)
}
