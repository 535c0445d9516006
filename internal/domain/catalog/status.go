package catalog

// EntityStatus represents the sync lifecycle status of a catalog entity
// Entities are never hard-deleted; a sweep transitions them to DELETE
type EntityStatus string

const (
	StatusWork   EntityStatus = "WORK"
	StatusDelete EntityStatus = "DELETE"
)

// SourceTradeMaster identifies records owned by the TradeMaster sync
const SourceTradeMaster = "trademaster"
