package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/smukkama/launch-advisor/internal/database"
	"github.com/smukkama/launch-advisor/internal/engine"
	"github.com/smukkama/launch-advisor/internal/logger"
	"github.com/smukkama/launch-advisor/pkg/config"
)

// One-shot evaluation of a single location, printing the decision as
// JSON. Useful for checking rule sets by hand without waiting for the
// scheduled service.

func main() {
	locationID := flag.Int64("location", 0, "location id to evaluate")
	dryRun := flag.Bool("dry-run", false, "compute the decision without persisting it")
	flag.Parse()

	if *locationID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: evaluate -location <id> [-dry-run]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init("warn")
	log := logger.WithComponent("evaluate")

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var sink engine.DecisionSink
	if !*dryRun {
		sink = db
	}

	eng := engine.New(db, db, sink, engine.Config{
		Freshness:      cfg.Engine.Freshness,
		TrendLookback:  cfg.Engine.TrendLookback,
		DeltaTolerance: cfg.Engine.DeltaTolerance,
		FetchTimeout:   cfg.Engine.FetchTimeout,
		GustEpsilon:    cfg.Engine.GustEpsilon,
		MaxParallel:    cfg.Engine.MaxParallel,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Service.EvalTimeout)
	defer cancel()

	decision, err := eng.EvaluateLocation(ctx, *locationID)
	if err != nil && !errors.Is(err, engine.ErrSinkAppend) {
		log.Fatal().Err(err).Int64("location_id", *locationID).Msg("evaluation failed")
	}
	if err != nil {
		log.Warn().Err(err).Msg("decision computed but not persisted")
	}

	out, marshalErr := json.MarshalIndent(decision, "", "  ")
	if marshalErr != nil {
		log.Fatal().Err(marshalErr).Msg("failed to render decision")
	}
	fmt.Println(string(out))
}
