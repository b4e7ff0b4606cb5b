package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	redisclient "github.com/redis/go-redis/v9"
	redisadapter "github.com/robertarktes/flightdesk/internal/adapters/redis"
	"github.com/robertarktes/flightdesk/internal/config"
	"github.com/robertarktes/flightdesk/internal/domain"
	"github.com/robertarktes/flightdesk/internal/observability"
	"github.com/robertarktes/flightdesk/internal/seed"
	"github.com/robertarktes/flightdesk/internal/store"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	file    string
	backend string
	reset   bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("seeder", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.file, "file", "f", "", "YAML catalog to load (default: built-in catalog)")
	flagSet.StringVar(&opts.backend, "backend", "", "store backend, mongo or crdb (default: STORE_BACKEND)")
	flagSet.BoolVar(&opts.reset, "reset", false, "delete every flight before seeding")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, errors.Newf("unexpected argument: %s", rest[0])
	}
	return opts, nil
}

func catalog(opts options) ([]domain.Flight, error) {
	if opts.file == "" {
		return seed.DefaultFlights(), nil
	}
	return seed.LoadFile(opts.file)
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if opts.backend != "" {
		cfg.StoreBackend = opts.backend
	}
	if cfg.StoreBackend == config.BackendCRDB && cfg.CRDBDSN == "" {
		return errors.New("CRDB_DSN is required for the crdb backend")
	}
	logger := observability.NewLogger(cfg.LogLevel)

	flights, err := catalog(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return errors.Wrapf(err, "open %s store", cfg.StoreBackend)
	}
	defer st.Close()

	inserted, err := st.Seeder.Seed(ctx, flights, opts.reset)
	if err != nil {
		return errors.Wrap(err, "seed flights")
	}

	if cfg.RedisAddr != "" {
		client := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := redisadapter.NewCache(client, cfg.FlightsCacheTTL).InvalidateFlights(ctx); err != nil {
			logger.WithError(err).Warn("failed to invalidate flight cache")
		}
	}

	logger.WithFields(map[string]interface{}{
		"backend":  cfg.StoreBackend,
		"inserted": inserted,
		"total":    len(flights),
		"reset":    opts.reset,
	}).Info("Database seeded with flights")
	return nil
}
