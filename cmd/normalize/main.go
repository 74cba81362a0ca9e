// Command normalize rewrites legacy gender, date-of-birth and
// marital-status values in the profiles table.
//
//	normalize -dry-run
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/config"
	"github.com/oggyb/mawaddah/internal/db"
	"github.com/oggyb/mawaddah/internal/logger"
	"github.com/oggyb/mawaddah/internal/service/maintenance"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report changes without writing them")
	batch := flag.Int("batch", 200, "profiles per batch")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L().With("cmd", "normalize")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	n := maintenance.NewNormalizer(app.New(cfg, database, nil, log))
	n.DryRun = *dryRun
	n.BatchSize = *batch

	rep, err := n.Run(ctx)
	if err != nil {
		os.Exit(1)
	}
	log.Info("report",
		"scanned", rep.Scanned,
		"updated", rep.Updated,
		"gender_rewritten", rep.GenderRewritten,
		"gender_cleared", rep.GenderCleared,
		"dob_cleared", rep.DobCleared,
		"marital_rewritten", rep.MaritalRewritten,
		"unchanged", rep.Unchanged,
	)
}
