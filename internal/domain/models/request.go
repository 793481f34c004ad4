package models

import "time"

// RequestStatus is the lifecycle state of a material request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusDeclined RequestStatus = "DECLINED"
	StatusIssued   RequestStatus = "ISSUED"
	StatusReturned RequestStatus = "RETURNED"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == StatusDeclined || s == StatusReturned
}

// CanTransition encodes the full state machine:
// PENDING -> APPROVED | DECLINED, APPROVED -> ISSUED, ISSUED -> RETURNED.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusApproved || to == StatusDeclined
	case StatusApproved:
		return to == StatusIssued
	case StatusIssued:
		return to == StatusReturned
	case StatusDeclined, StatusReturned:
		return false
	}
	return false
}

// Request is a student's claim against an item. At most one PENDING request
// may exist per (user, item) pair.
type Request struct {
	ID                string        `bson:"_id,omitempty" json:"id"`
	UserID            string        `bson:"user" json:"user"`
	ItemID            string        `bson:"item" json:"item"`
	QuantityRequested int           `bson:"quantityRequested" json:"quantityRequested"`
	QuantityApproved  int           `bson:"quantityApproved,omitempty" json:"quantityApproved,omitempty"`
	Status            RequestStatus `bson:"status" json:"status"`
	ApprovedBy        string        `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	DeclineReason     string        `bson:"declineReason,omitempty" json:"declineReason,omitempty"`
	IssuedAt          *time.Time    `bson:"issuedAt,omitempty" json:"issuedAt,omitempty"`
	QuantityReturned  int           `bson:"quantityReturned,omitempty" json:"quantityReturned,omitempty"`
	ReturnedAt        *time.Time    `bson:"returnedAt,omitempty" json:"returnedAt,omitempty"`
	ReturnProcessedBy string        `bson:"returnProcessedBy,omitempty" json:"returnProcessedBy,omitempty"`
	CreatedAt         time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time     `bson:"updatedAt" json:"updatedAt"`
}
