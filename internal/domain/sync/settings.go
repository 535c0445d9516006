package sync

import "time"

// Settings collects the sync-relevant configuration handed to the
// reconciler and exporter at construction, instead of ambient lookups
// scattered through the algorithms
type Settings struct {
	// Source tags all records owned by this sync
	Source string

	// Storage is the ERP warehouse identifier items are counted against
	Storage string
	// LegalEntity is the ERP legal entity orders are booked under
	LegalEntity string
	// Scheme is the ERP accounting scheme identifier
	Scheme string
	// Checkout is the ERP cash desk identifier
	Checkout string
	// Contractor is the default ERP contractor for anonymous orders
	Contractor string
	// UserID is the ERP manager user orders are attributed to
	UserID string
	// Currency is the ERP currency code
	Currency string

	// PageSize bounds one item feed page, default 100
	PageSize int
	// PageDelay is the pause between item feed pages
	PageDelay time.Duration

	// ImageBaseURL is the public base materialized images are served
	// under; empty leaves the bulk upload's photo column blank
	ImageBaseURL string

	// GenerateAddress derives hierarchical product addresses from the
	// owning category's address plus a slugified title
	GenerateAddress bool
	// DownloadImages enables image materialization after a pass
	DownloadImages bool
	// AutoUpdate re-publishes the catalog on product edits and imports
	AutoUpdate bool
	// ReindexSearch chains the search reindex job after a successful pass
	ReindexSearch bool

	Orphan     OrphanPolicy
	Pricing    PricingPolicy
	StockCheck StockCheckPolicy
}

// PageSizeOrDefault returns the configured page size, defaulting to 100
func (s Settings) PageSizeOrDefault() int {
	if s.PageSize <= 0 {
		return 100
	}
	return s.PageSize
}
