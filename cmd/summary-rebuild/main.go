package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bsm/redislock"

	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/config"
	"github.com/br3n122204/SisigLovers-Ecommerce-sub000/models"
)

// Rebuilds the weekly/monthly sales summaries from the recorded sales
// events. Run this after a crash mid-fold or a manual data fix; the running
// server keeps folding new orders while the rebuild holds the Redis lock.
func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall rebuild timeout")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	logger := config.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// One rebuild at a time across all instances.
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "rebuild:sales-summaries", *timeout, nil)
		if err == redislock.ErrNotObtained {
			fmt.Fprintln(os.Stderr, "another rebuild is already running")
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not obtain rebuild lock: %v\n", err)
			os.Exit(1)
		}
		defer lock.Release(ctx)
	}

	start := time.Now()
	if err := models.RebuildSalesSummaries(ctx); err != nil {
		config.LogError(logger, "summary-rebuild", "main", "rebuild sales summaries", nil, err)
		os.Exit(1)
	}

	fmt.Printf("sales summaries rebuilt in %s\n", time.Since(start).Round(time.Millisecond))
}
