// Package storage persists the complaint list. Every backend reads and writes the
// whole list at once; callers serialize read-modify-write cycles themselves.
package storage

import (
	"context"
	"errors"
	"fmt"

	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
)

// ErrCorruptStore is returned when persisted state exists but cannot be decoded.
var ErrCorruptStore = errors.New("storage: corrupt complaint store")

// Storage is a durable, ordered list of complaints.
type Storage interface {
	// LoadAll returns the persisted complaints in insertion order.
	// A store that was never written returns an empty slice.
	LoadAll(ctx context.Context) ([]models.Complaint, error)
	// SaveAll replaces the persisted list with complaints.
	SaveAll(ctx context.Context, complaints []models.Complaint) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Storage, error) {
	var (
		s   Storage
		err error
	)
	switch cfg.Driver {
	case config.DriverFile, "":
		s, err = openFile(cfg.Path)
	case config.DriverPostgres:
		s, err = openGorm(cfg.PostgresDSN)
	case config.DriverMongo:
		s, err = openMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		err = fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openFile(path string) (Storage, error) {
	s, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openGorm(dsn string) (Storage, error) {
	s, err := NewGormStore(dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openMongo(ctx context.Context, uri, database string) (Storage, error) {
	s, err := NewMongoStore(ctx, uri, database)
	if err != nil {
		return nil, err
	}
	return s, nil
}
