package sync

// UpsertOutcome tags the result of an external-id keyed upsert so callers
// can branch without exception-driven control flow
type UpsertOutcome int

const (
	// OutcomeCreated means a new entity was inserted
	OutcomeCreated UpsertOutcome = iota
	// OutcomeUpdated means an existing entity with the same external id was updated
	OutcomeUpdated
	// OutcomeConflictTitle means another entity holds the same title under a
	// different external id; the caller may fall back to updating that entity
	OutcomeConflictTitle
	// OutcomeConflictAddress means only the address collides; the item is skipped
	OutcomeConflictAddress
)

// String returns the outcome name for logging
func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeConflictTitle:
		return "conflict_title"
	case OutcomeConflictAddress:
		return "conflict_address"
	default:
		return "unknown"
	}
}
