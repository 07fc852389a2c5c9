package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"bitbucket.org/mmdatafocus/erp_backend/workflow"
	"github.com/joho/godotenv"
)

func main() {
	businessID := flag.String("business-id", "", "Required: business id (uuid)")
	partyKind := flag.String("party-kind", "", "Optional: customers or suppliers (default both)")
	partyIDs := flag.String("ids", "", "Optional: comma separated party ids to recalculate")
	batchSize := flag.Int("batch-size", 0, "Optional: batch size (default 100)")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}

	ids, err := parseIds(*partyIDs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --ids: %v\n", err)
		os.Exit(1)
	}

	_ = godotenv.Load()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := workflow.RecalculateBalances(ctx, workflow.RecalcOptions{
		BusinessId: strings.TrimSpace(*businessID),
		PartyKind:  strings.TrimSpace(*partyKind),
		PartyIds:   ids,
		BatchSize:  *batchSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "recalculation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("run %s: %d parties, %d updated, %d unchanged, %d failed\n",
		report.RunId, report.TotalParties, report.UpdatedCount, report.UnchangedCount, report.FailedCount)
	for _, line := range report.Updated {
		fmt.Println("  " + line)
	}
	if report.FailedCount > 0 {
		os.Exit(1)
	}
}

func parseIds(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
