package sync

import "fmt"

// OrphanPolicy decides what happens to a category whose declared parent
// cannot be resolved in the current snapshot
type OrphanPolicy string

const (
	// OrphanAttachRoot attaches the orphan directly under the root
	OrphanAttachRoot OrphanPolicy = "attach-root"
	// OrphanMarkInvalid keeps the orphan but flags it invalid
	OrphanMarkInvalid OrphanPolicy = "mark-invalid"
	// OrphanRejectPass fails the whole pass on the first orphan
	OrphanRejectPass OrphanPolicy = "reject-pass"
)

// ParseOrphanPolicy validates a configured orphan policy value
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch OrphanPolicy(s) {
	case OrphanAttachRoot, OrphanMarkInvalid, OrphanRejectPass:
		return OrphanPolicy(s), nil
	case "":
		return OrphanAttachRoot, nil
	default:
		return "", fmt.Errorf("unknown orphan policy %q", s)
	}
}

// PricingPolicy selects the price tier used for exported order lines
type PricingPolicy string

const (
	PricingRetail    PricingPolicy = "retail"
	PricingWholesale PricingPolicy = "wholesale"
)

// ParsePricingPolicy validates a configured pricing policy value
func ParsePricingPolicy(s string) (PricingPolicy, error) {
	switch PricingPolicy(s) {
	case PricingRetail, PricingWholesale:
		return PricingPolicy(s), nil
	case "":
		return PricingRetail, nil
	default:
		return "", fmt.Errorf("unknown pricing policy %q", s)
	}
}

// StockCheckPolicy decides when the ERP is asked to verify availability
type StockCheckPolicy string

const (
	StockCheckAlways         StockCheckPolicy = "always"
	StockCheckRegisteredOnly StockCheckPolicy = "registered-only"
	StockCheckNever          StockCheckPolicy = "never"
)

// ParseStockCheckPolicy validates a configured stock check policy value
func ParseStockCheckPolicy(s string) (StockCheckPolicy, error) {
	switch StockCheckPolicy(s) {
	case StockCheckAlways, StockCheckRegisteredOnly, StockCheckNever:
		return StockCheckPolicy(s), nil
	case "":
		return StockCheckNever, nil
	default:
		return "", fmt.Errorf("unknown stock check policy %q", s)
	}
}

// Applies reports whether the availability check flag should be set for a
// request, given whether the order carries a registered user
func (p StockCheckPolicy) Applies(registeredUser bool) bool {
	switch p {
	case StockCheckAlways:
		return true
	case StockCheckRegisteredOnly:
		return registeredUser
	default:
		return false
	}
}
