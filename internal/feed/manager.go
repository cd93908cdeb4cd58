// Package feed pushes complaint change events to connected dashboards.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"complaintdesk/backend/internal/models"
)

// ManagerService is the hub: it owns the set of clients and fans events out to them.
type ManagerService struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.ComplaintEvent

	Log *slog.Logger

	mu   sync.RWMutex
	done chan struct{}
}

func NewManagerService(logger *slog.Logger) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.ComplaintEvent, 64),
		Log:          logger,
		done:         make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (m *ManagerService) Run(ctx context.Context) error {
	defer close(m.done)
	m.Log.Info("feed hub started")

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			for id, client := range m.Clients {
				client.Close()
				delete(m.Clients, id)
			}
			m.mu.Unlock()
			m.Log.Info("feed hub stopped")
			return nil

		case client := <-m.RegisterCh:
			m.mu.Lock()
			m.Clients[client.GetID()] = client
			m.mu.Unlock()
			m.Log.Debug("feed client registered", slog.String("client", client.GetID()))

		case client := <-m.UnregisterCh:
			m.remove(client.GetID())

		case ev := <-m.BroadcastCh:
			m.broadcast(ev)
		}
	}
}

// broadcast hands ev to every client. A client whose buffer is full is dropped.
func (m *ManagerService) broadcast(ev models.ComplaintEvent) {
	m.mu.RLock()
	var slow []string
	for id, client := range m.Clients {
		select {
		case client.GetSendChannel() <- ev:
		default:
			slow = append(slow, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range slow {
		m.Log.Warn("dropping slow feed client", slog.String("client", id))
		m.remove(id)
	}
}

func (m *ManagerService) remove(id string) {
	m.mu.Lock()
	client, ok := m.Clients[id]
	if ok {
		delete(m.Clients, id)
	}
	m.mu.Unlock()
	if ok {
		client.Close()
	}
}

// Register adds client to the hub. It returns false once the hub has stopped.
func (m *ManagerService) Register(client Client) bool {
	select {
	case m.RegisterCh <- client:
		return true
	case <-m.done:
		return false
	}
}

// Unregister removes client from the hub. It never blocks after the hub has stopped.
func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

// Publish queues ev for broadcast. It lets the hub stand in for the Redis bus
// when only one instance is running.
func (m *ManagerService) Publish(ctx context.Context, ev models.ComplaintEvent) error {
	select {
	case m.BroadcastCh <- ev:
		return nil
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of connected clients.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Clients)
}
