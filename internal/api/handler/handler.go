// Package handler exposes the complaint desk over HTTP.
package handler

import (
	"context"
	"log/slog"

	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/domains"
	"complaintdesk/backend/internal/feed"
)

// PingFunc reports whether a dependency is reachable.
type PingFunc func(ctx context.Context) error

// Handler holds everything the routes need.
type Handler struct {
	Complaints *complaint.Service
	Domains    *domains.Registry
	Hub        *feed.ManagerService
	// Checks are run by the health endpoint, keyed by dependency name.
	Checks map[string]PingFunc
	Log    *slog.Logger
}

func NewHandler(svc *complaint.Service, reg *domains.Registry, hub *feed.ManagerService, logger *slog.Logger) *Handler {
	return &Handler{
		Complaints: svc,
		Domains:    reg,
		Hub:        hub,
		Checks:     make(map[string]PingFunc),
		Log:        logger,
	}
}
