// Command synccli is an operational troubleshooting tool: it inspects the
// mapping store directly, independent of the HTTP dispatcher, for on-call
// diagnosis of stuck or conflicted pairs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/corvid-labs/jira-bridge/internal/config"
	"github.com/corvid-labs/jira-bridge/internal/model"
	"github.com/corvid-labs/jira-bridge/internal/store"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: synccli <command> [args]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  summary              show sync status summary of the 100 most recently synced records")
	fmt.Fprintln(os.Stderr, "  failed               show failed sync records")
	fmt.Fprintln(os.Stderr, "  conflicts            show records requiring manual resolution, among the 100 most recently synced")
	fmt.Fprintln(os.Stderr, "  record <sync_id>     show one record's details")
	fmt.Fprintln(os.Stderr, "  all                  show the 100 most recently synced records; older records are not listed")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "environment:")
	fmt.Fprintln(os.Stderr, "  DATABASE_URL   postgres connection string")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "error: DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.DBPoolConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	command := flag.Arg(0)
	var runErr error

	switch command {
	case "summary":
		runErr = runSummary(ctx, st)
	case "failed":
		runErr = runByStatus(ctx, st, model.StatusFailed)
	case "conflicts":
		runErr = runConflicts(ctx, st)
	case "record":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "error: sync_id required for 'record' command")
			os.Exit(1)
		}
		runErr = runRecord(ctx, st, flag.Arg(1))
	case "all":
		runErr = runAll(ctx, st)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", command)
		usage()
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

func runSummary(ctx context.Context, st *store.Store) error {
	records, err := st.Scan(ctx, 0)
	if err != nil {
		return err
	}
	printSummary(records)
	return nil
}

func runByStatus(ctx context.Context, st *store.Store, status model.SyncStatus) error {
	records, err := st.ListIssueRecordsByStatus(ctx, status)
	if err != nil {
		return err
	}
	fmt.Printf("found %d %s sync records:\n\n", len(records), status)
	for _, r := range records {
		printRecord(r)
	}
	return nil
}

func runConflicts(ctx context.Context, st *store.Store) error {
	records, err := st.Scan(ctx, 0)
	if err != nil {
		return err
	}
	var conflicts []*model.IssueSyncRecord
	for _, r := range records {
		if r.RequiresManualResolution {
			conflicts = append(conflicts, r)
		}
	}
	fmt.Printf("found %d records with conflicts:\n\n", len(conflicts))
	for _, r := range conflicts {
		printRecord(r)
	}
	return nil
}

func runRecord(ctx context.Context, st *store.Store, syncID string) error {
	r, err := st.GetIssueRecord(ctx, syncID)
	if err != nil {
		return err
	}
	if r == nil {
		fmt.Printf("sync record %q not found\n", syncID)
		return nil
	}
	printRecord(r)
	return nil
}

func runAll(ctx context.Context, st *store.Store) error {
	records, err := st.Scan(ctx, 0)
	if err != nil {
		return err
	}
	printSummary(records)
	fmt.Println("all sync records:")
	fmt.Println()
	for _, r := range records {
		printRecord(r)
	}
	return nil
}

func printSummary(records []*model.IssueSyncRecord) {
	statusCounts := map[model.SyncStatus]int{}
	conflictCount := 0
	errorCount := 0

	for _, r := range records {
		statusCounts[r.Status]++
		if r.RequiresManualResolution {
			conflictCount++
		}
		if r.ErrorCount > 0 {
			errorCount++
		}
	}

	fmt.Println("sync status summary")
	fmt.Println("====================")
	fmt.Printf("total records: %d\n", len(records))
	fmt.Printf("records with conflicts: %d\n", conflictCount)
	fmt.Printf("records with errors: %d\n", errorCount)
	fmt.Println()

	statuses := make([]string, 0, len(statusCounts))
	for s := range statusCounts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	fmt.Println("status breakdown:")
	for _, s := range statuses {
		fmt.Printf("  %s: %d\n", s, statusCounts[model.SyncStatus(s)])
	}
	fmt.Println()
}

func printRecord(r *model.IssueSyncRecord) {
	fmt.Printf("sync record: %s\n", r.SyncID)
	fmt.Println("--------------------------------------------------")
	fmt.Printf("left key: %s\n", deref(r.LeftKey))
	fmt.Printf("right key: %s\n", deref(r.RightKey))
	fmt.Printf("status: %s\n", r.Status)
	fmt.Printf("last sync: %s\n", r.LastSyncTimestamp)
	if r.LastSyncDirection != nil {
		fmt.Printf("direction: %s\n", *r.LastSyncDirection)
	}
	fmt.Printf("error count: %d\n", r.ErrorCount)
	if r.LastError != nil {
		fmt.Printf("last error: %s\n", *r.LastError)
	}
	if r.RequiresManualResolution {
		fmt.Println("REQUIRES MANUAL RESOLUTION")
		if r.ConflictDetails != nil {
			fmt.Printf("conflict details: %s\n", *r.ConflictDetails)
		}
	}
	fmt.Println()
}

func deref(s *string) string {
	if s == nil {
		return "n/a"
	}
	return *s
}
