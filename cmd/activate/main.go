// Command activate moves pending accounts to active so their profiles
// show up in search.
//
//	activate -email a@example.com,b@example.com
//	activate -include-suspended -dry-run
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/config"
	"github.com/oggyb/mawaddah/internal/db"
	"github.com/oggyb/mawaddah/internal/logger"
	"github.com/oggyb/mawaddah/internal/service/maintenance"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "count accounts without changing them")
	suspended := flag.Bool("include-suspended", false, "also reactivate suspended accounts")
	emails := flag.String("email", "", "comma-separated accounts to activate; all when empty")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L().With("cmd", "activate")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	a := maintenance.NewActivator(app.New(cfg, database, nil, log))
	a.DryRun = *dryRun
	a.IncludeSuspended = *suspended
	for _, e := range strings.Split(*emails, ",") {
		if e = strings.TrimSpace(e); e != "" {
			a.Emails = append(a.Emails, e)
		}
	}

	rep, err := a.Run(ctx)
	if err != nil {
		os.Exit(1)
	}
	log.Info("report",
		"matched", rep.Matched,
		"activated", rep.Activated,
		"active", rep.ByStatus[db.StatusActive],
		"pending", rep.ByStatus[db.StatusPending],
		"suspended", rep.ByStatus[db.StatusSuspended],
	)
}
