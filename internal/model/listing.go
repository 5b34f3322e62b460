package model

import (
	"context"
	"strings"
	"time"
)

// Sentinel used when a fetched card is missing a field. A listing with a
// sentinel link never makes it past ListingID.
const NA = "N/A"

// Listing is one discovered job posting, normalized from any source.
type Listing struct {
	ID           string    // stable per posting, derived from the link
	Title        string    // job title
	Location     string    // free-text location string
	Pay          string    // pay rate text, NA when the source omits it
	Shift        string    // shift text, NA when the source omits it
	Link         string    // canonical URL of the posting
	DiscoveredAt time.Time // our clock, set at fetch time
}

// ListingID derives a stable identifier from a posting link: the last
// non-empty path segment. Two fetches of the same posting yield the same ID.
// Returns "" for an unusable link so callers can drop the entry.
func ListingID(link string) string {
	if link == "" || link == NA {
		return ""
	}
	trimmed := strings.TrimRight(link, "/")
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return trimmed
}

// SeenMeta is the optional metadata recorded alongside a seen listing ID.
type SeenMeta struct {
	Title    string
	Location string
}

// ApplicationRecord is one row of the application audit log.
type ApplicationRecord struct {
	ListingID      string
	ApplicantEmail string
	Title          string
	Location       string
	Link           string
	AppliedAt      time.Time
}

// ListingSource fetches the current open listings for one city query.
// A call makes exactly one attempt; retry belongs to decorators.
type ListingSource interface {
	FetchListings(ctx context.Context, city string) ([]Listing, error)
}

// SeenStore tracks which listing IDs have already been handled.
type SeenStore interface {
	HasSeen(listingID string) (bool, error)
	// MarkSeen records a listing as handled. Idempotent: marking the same ID
	// twice leaves the store unchanged.
	MarkSeen(listingID string, meta SeenMeta) error
	Cleanup(olderThan time.Duration) error
}

// ApplicationLog records submitted applications for auditing.
type ApplicationLog interface {
	RecordApplication(rec ApplicationRecord) error
	ListApplications() ([]ApplicationRecord, error)
}

// Notifier delivers alerts to the operator.
type Notifier interface {
	// Notify sends one message per new listing.
	Notify(listings []Listing) error
	// Alert sends a single free-form operator message (errors, test runs).
	Alert(subject, body string) error
}

// ListingFilter decides whether a listing matches the user's criteria.
type ListingFilter interface {
	Match(listing Listing) bool
}

// Applicator drives a best-effort application attempt against one listing.
type Applicator interface {
	Apply(ctx context.Context, listing Listing) ApplyResult
}
