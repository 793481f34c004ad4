package models

import "time"

// StockLogType is the direction of a stock mutation.
type StockLogType string

const (
	StockLogAdd    StockLogType = "ADD"
	StockLogRemove StockLogType = "REMOVE"
)

// StockLog is an append-only audit row, one per add/remove operation.
// Quantity is the magnitude; Type carries the direction.
type StockLog struct {
	ID          string       `bson:"_id,omitempty" json:"id"`
	ItemID      string       `bson:"item" json:"item"`
	Type        StockLogType `bson:"type" json:"type"`
	Quantity    int          `bson:"quantity" json:"quantity"`
	PerformedBy string       `bson:"performedBy" json:"performedBy"`
	Note        string       `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
}

// IssueLog is an append-only audit row, one per issue and one per return.
// A return is recorded with a negative quantity so the running sum of
// issued stock stays net-correct.
type IssueLog struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ItemID    string    `bson:"item" json:"item"`
	IssuedTo  string    `bson:"issuedTo" json:"issuedTo"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	IssuedBy  string    `bson:"issuedBy" json:"issuedBy"`
	Note      string    `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
