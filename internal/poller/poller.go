package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mjdav02/shiftwatch/internal/model"
)

// Poller owns one full poll iteration: fetch every configured city, filter
// by location match and dedup, then per new listing apply (optional), mark
// handled, and notify. Per-listing failures are isolated; a broken listing
// never blocks the rest of the batch.
type Poller struct {
	source         model.ListingSource
	cities         []string
	filter         model.ListingFilter
	store          model.SeenStore
	notifier       model.Notifier
	applicator     model.Applicator     // nil disables auto-apply
	appLog         model.ApplicationLog // nil disables the audit record
	applicantEmail string
	logger         *slog.Logger
}

// New creates a poller wired with all its dependencies. applicator and
// appLog may be nil for notify-only deployments.
func New(
	source model.ListingSource,
	cities []string,
	filter model.ListingFilter,
	store model.SeenStore,
	notifier model.Notifier,
	applicator model.Applicator,
	appLog model.ApplicationLog,
	applicantEmail string,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		source:         source,
		cities:         cities,
		filter:         filter,
		store:          store,
		notifier:       notifier,
		applicator:     applicator,
		appLog:         appLog,
		applicantEmail: applicantEmail,
		logger:         logger,
	}
}

// Poll runs one iteration. It returns an error only when every city fetch
// failed; partial fetch failures are logged and the fetched listings still
// flow through the pipeline.
func (p *Poller) Poll(ctx context.Context) error {
	listings, err := p.fetchAll(ctx)
	if err != nil {
		return err
	}

	fresh := p.selectNew(listings)

	applied := 0
	notified := 0
	for _, l := range fresh {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		submitted, sent := p.handle(ctx, l)
		if submitted {
			applied++
		}
		if sent {
			notified++
		}
	}

	p.logger.Info("poll complete",
		"fetched", len(listings),
		"new", len(fresh),
		"applied", applied,
		"notified", notified,
	)
	return nil
}

// fetchAll queries every configured city and flattens the results,
// dropping within-batch duplicates (the same posting often matches two
// city queries). An error is returned only when no city succeeded.
func (p *Poller) fetchAll(ctx context.Context) ([]model.Listing, error) {
	var (
		listings []model.Listing
		seenIDs  = make(map[string]bool)
		failures []error
	)

	for _, city := range p.cities {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Debug("checking city", "city", city)

		cityListings, err := p.source.FetchListings(ctx, city)
		if err != nil {
			p.logger.Error("fetch failed", "city", city, "error", err)
			failures = append(failures, fmt.Errorf("fetching %q: %w", city, err))
			continue
		}
		for _, l := range cityListings {
			if seenIDs[l.ID] {
				continue
			}
			seenIDs[l.ID] = true
			listings = append(listings, l)
		}
	}

	if len(failures) == len(p.cities) && len(failures) > 0 {
		return nil, errors.Join(failures...)
	}
	return listings, nil
}

// selectNew keeps listings that match a preferred city and have not been
// handled before. A registry read error skips just that listing.
func (p *Poller) selectNew(listings []model.Listing) []model.Listing {
	var fresh []model.Listing
	for _, l := range listings {
		if !p.filter.Match(l) {
			p.logger.Debug("listing outside preferred cities", "listing", l.ID, "location", l.Location)
			continue
		}
		seen, err := p.store.HasSeen(l.ID)
		if err != nil {
			p.logger.Error("registry check failed, skipping listing", "listing", l.ID, "error", err)
			continue
		}
		if seen {
			p.logger.Debug("listing already handled", "listing", l.ID)
			continue
		}
		fresh = append(fresh, l)
	}
	return fresh
}

// handle processes one new listing: optional apply, mark handled, record
// the application, notify. MarkSeen happens before the notify attempt, so
// notification is at-most-once per listing even if the send fails. Returns
// whether the application was submitted and whether the notification went
// out.
func (p *Poller) handle(ctx context.Context, l model.Listing) (submitted, sent bool) {
	p.logger.Info("new matching listing", "listing", l.ID, "title", l.Title, "location", l.Location)

	var result model.ApplyResult
	if p.applicator != nil {
		result = p.applicator.Apply(ctx, l)
		p.logger.Info("apply attempt finished", "listing", l.ID, "outcome", result.Outcome.String())
	}

	if err := p.store.MarkSeen(l.ID, model.SeenMeta{Title: l.Title, Location: l.Location}); err != nil {
		p.logger.Error("marking listing handled failed", "listing", l.ID, "error", err)
	}

	if result.Submitted() && p.appLog != nil {
		rec := model.ApplicationRecord{
			ListingID:      l.ID,
			ApplicantEmail: p.applicantEmail,
			Title:          l.Title,
			Location:       l.Location,
			Link:           l.Link,
			AppliedAt:      l.DiscoveredAt,
		}
		if err := p.appLog.RecordApplication(rec); err != nil {
			p.logger.Error("recording application failed", "listing", l.ID, "error", err)
		}
	}

	if err := p.notifier.Notify([]model.Listing{l}); err != nil {
		p.logger.Error("notification failed", "listing", l.ID, "error", err)
		return result.Submitted(), false
	}
	return result.Submitted(), true
}
