package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/wanderlust-stays/wanderlust/internal/app"
	"github.com/wanderlust-stays/wanderlust/internal/config"
	"github.com/wanderlust-stays/wanderlust/internal/logging"
	"github.com/wanderlust-stays/wanderlust/internal/seeds"
)

func main() {
	owner := flag.String("owner", "", "username that will own the sample listings")
	flag.Parse()

	log, _ := logging.New("info", "text", os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, _, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer st.Close(context.Background())

	n, err := seeds.SeedListings(ctx, st, *owner)
	if err != nil {
		log.WithError(err).Fatal("seeding failed")
	}
	log.WithField("count", n).Info("seeded listings")
}
