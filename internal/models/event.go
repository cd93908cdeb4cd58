package models

import "time"

// Complaint change event types.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// ComplaintEvent is broadcast to live dashboard clients after a successful write.
type ComplaintEvent struct {
	Type        string     `json:"type"`
	ComplaintID string     `json:"complaintId"`
	Complaint   *Complaint `json:"complaint,omitempty"`
	At          time.Time  `json:"at"`
}
