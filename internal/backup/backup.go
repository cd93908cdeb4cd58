// Package backup takes point-in-time copies of the complaint store on a cron schedule.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"complaintdesk/backend/internal/storage"

	"github.com/robfig/cron/v3"
)

const (
	filePrefix = "complaints-"
	fileSuffix = ".json"
	nameLayout = "20060102T150405Z"
)

// Snapshotter copies the whole store into a sink.
type Snapshotter struct {
	Store storage.Storage
	Sink  Sink
	Now   func() time.Time
	Log   *slog.Logger
}

func NewSnapshotter(store storage.Storage, sink Sink, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{Store: store, Sink: sink, Now: time.Now, Log: logger}
}

// Snapshot writes complaints-<UTC time>.json and returns its name.
func (s *Snapshotter) Snapshot(ctx context.Context) (string, error) {
	list, err := s.Store.LoadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("backup: load complaints: %w", err)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return "", fmt.Errorf("backup: encode complaints: %w", err)
	}

	name := filePrefix + s.Now().UTC().Format(nameLayout) + fileSuffix
	if err := s.Sink.Put(ctx, name, data); err != nil {
		return "", err
	}
	s.Log.InfoContext(ctx, "backup written", slog.String("name", name), slog.Int("complaints", len(list)))
	return name, nil
}

// Scheduler runs a Snapshotter on a cron spec.
type Scheduler struct {
	cron *cron.Cron
	snap *Snapshotter
}

// NewScheduler validates spec (standard five-field cron or a descriptor such as "@daily").
func NewScheduler(spec string, snap *Snapshotter, timeout time.Duration) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := snap.Snapshot(ctx); err != nil {
			snap.Log.Error("scheduled backup failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("backup: bad schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, snap: snap}, nil
}

// Run starts the schedule and blocks until ctx is cancelled and any running backup has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.snap.Log.Info("backup scheduler started", slog.Int("jobs", len(s.cron.Entries())))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
