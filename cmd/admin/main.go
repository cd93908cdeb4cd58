package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"complaintdesk/backend/internal/analysis"
	"complaintdesk/backend/internal/api/handler"
	"complaintdesk/backend/internal/backup"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/logging"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"github.com/joho/godotenv"
)

const usage = `Usage: admin <command> [args]

Commands:
  list                       print every complaint
  stats                      print the dashboard summary as JSON
  set-status <id> <status>   change a complaint's status
  delete <id>                remove a complaint
  backup                     write a snapshot to the configured backup sink
  token <subject> [hours]    issue a staff token (default 24 hours)`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.Log)
	ctx := context.Background()

	if cmd == "token" {
		return issueToken(cfg.Auth, args)
	}

	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close(ctx)

	svc := complaint.NewService(store, analysis.Unconfigured{}, logger)

	// Changes made here must reach a running server's dashboard too.
	if cfg.Redis.Addr != "" {
		rdb, err := storage.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		svc.Events = storage.NewEventBus(rdb, cfg.Redis.Channel)
		svc.Cache = storage.NewSummaryCache(rdb, cfg.Redis.CacheKey, cfg.Redis.CacheTTL)
	}

	return dispatch(ctx, svc, store, cfg, cmd, args)
}

func dispatch(ctx context.Context, svc *complaint.Service, store storage.Storage, cfg *config.Config, cmd string, args []string) error {
	switch cmd {
	case "list":
		return listComplaints(ctx, svc)
	case "stats":
		return printStats(ctx, svc)
	case "set-status":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin set-status <id> <status>")
		}
		return setStatus(ctx, svc, args[0], args[1])
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: admin delete <id>")
		}
		if err := svc.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Complaint %s has been deleted.\n", args[0])
		return nil
	case "backup":
		return runBackup(ctx, store, cfg.Backup)
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func listComplaints(ctx context.Context, svc *complaint.Service) error {
	list, err := svc.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tCATEGORY\tCREATED\tTITLE")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Status, c.Priority, c.Category, c.CreatedAt, c.Title)
	}
	return w.Flush()
}

func printStats(ctx context.Context, svc *complaint.Service) error {
	summary, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// Statuses the dashboard knows about.
var knownStatuses = []string{models.StatusPending, models.StatusInProgress, models.StatusResolved, models.StatusRejected}

func setStatus(ctx context.Context, svc *complaint.Service, id, status string) error {
	if !slices.Contains(knownStatuses, status) {
		return fmt.Errorf("unknown status %q, expected one of %v", status, knownStatuses)
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	c, err := svc.Update(ctx, id, map[string]json.RawMessage{"status": raw})
	if err != nil {
		return err
	}
	fmt.Printf("Complaint %s is now %s.\n", c.ID, c.Status)
	return nil
}

func runBackup(ctx context.Context, store storage.Storage, cfg config.BackupConfig) error {
	sink, err := backup.NewSink(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := sink.(io.Closer); ok {
		defer c.Close()
	}
	name, err := backup.NewSnapshotter(store, sink, slog.Default()).Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot %s written.\n", name)
	return nil
}

func issueToken(cfg config.AuthConfig, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: admin token <subject> [hours]")
	}
	hours := 24
	if len(args) > 1 {
		var err error
		hours, err = strconv.Atoi(args[1])
		if err != nil || hours <= 0 {
			return fmt.Errorf("invalid duration %q, please provide a positive integer", args[1])
		}
	}
	token, err := handler.IssueToken(cfg, args[0], time.Duration(hours)*time.Hour)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
