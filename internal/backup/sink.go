package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/storage"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Sink stores one named snapshot.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

// NewSink returns a GCS sink when cfg names a bucket, otherwise a local one.
func NewSink(ctx context.Context, cfg config.BackupConfig) (Sink, error) {
	if cfg.GCSBucket != "" {
		s, err := NewGCSSink(ctx, cfg.GCSBucket, cfg.GCSPrefix, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := NewLocalSink(cfg.Dir, cfg.Keep)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LocalSink writes snapshots into Dir and keeps the newest Keep of them (0 keeps all).
type LocalSink struct {
	Dir  string
	Keep int
}

func NewLocalSink(dir string, keep int) (*LocalSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: create dir: %w", err)
	}
	return &LocalSink{Dir: dir, Keep: keep}, nil
}

func (s *LocalSink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(filepath.Join(s.Dir, name), data); err != nil {
		return err
	}
	return s.prune()
}

// prune removes the oldest snapshots beyond Keep. Names sort chronologically.
func (s *LocalSink) prune() error {
	if s.Keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return fmt.Errorf("backup: list %s: %w", s.Dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) && strings.HasSuffix(e.Name(), fileSuffix) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	for len(names) > s.Keep {
		if err := os.Remove(filepath.Join(s.Dir, names[0])); err != nil {
			return fmt.Errorf("backup: prune %s: %w", names[0], err)
		}
		names = names[1:]
	}
	return nil
}

// GCSSink uploads snapshots to a Cloud Storage bucket under Prefix.
type GCSSink struct {
	Client *gcs.Client
	Bucket string
	Prefix string
}

// NewGCSSink connects with credentialsFile, or application default credentials when it is empty.
func NewGCSSink(ctx context.Context, bucket, prefix, credentialsFile string) (*GCSSink, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("backup: connect to cloud storage: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("backup: bucket %s: %w", bucket, err)
	}
	return &GCSSink{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (s *GCSSink) Put(ctx context.Context, name string, data []byte) error {
	w := s.Client.Bucket(s.Bucket).Object(s.Prefix + name).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("backup: upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("backup: upload %s: %w", name, err)
	}
	return nil
}

func (s *GCSSink) Close() error {
	return s.Client.Close()
}
