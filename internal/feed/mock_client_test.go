package feed_test

import (
	"sync/atomic"

	"complaintdesk/backend/internal/models"
)

type MockClient struct {
	id          string
	RecvChannel chan models.ComplaintEvent
	closed      atomic.Bool
}

func newMockClient(id string, buffer int) *MockClient {
	return &MockClient{
		id:          id,
		RecvChannel: make(chan models.ComplaintEvent, buffer),
	}
}

func (c *MockClient) GetID() string {
	return c.id
}

func (c *MockClient) GetSendChannel() chan<- models.ComplaintEvent {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.closed.Store(true)
}

func (c *MockClient) Closed() bool {
	return c.closed.Load()
}
