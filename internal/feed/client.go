package feed

import "complaintdesk/backend/internal/models"

// Client is one live dashboard connection.
type Client interface {
	// GetID returns the identifier the hub files the client under.
	GetID() string
	// GetSendChannel returns the channel the hub pushes events into.
	GetSendChannel() chan<- models.ComplaintEvent
	// Run starts the client's read and write pumps.
	Run()
	// Close releases the client. It is safe to call more than once.
	Close()
}
