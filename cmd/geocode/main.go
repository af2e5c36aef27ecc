// Command geocode resolves addresses from the command line and prints the
// coordinates as JSON.
//
// Usage:
//
//	go run ./cmd/geocode -key "$GEOCODER_API_KEY" Samara "Brest, Belarus"
//	go run ./cmd/geocode -all Samara
//	go run ./cmd/geocode -check -timeout 3s
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/couchcryptid/storm-data-geocoder/internal/adapter/yandex"
	"github.com/couchcryptid/storm-data-geocoder/internal/cachestore"
	"github.com/couchcryptid/storm-data-geocoder/internal/domain"
	"github.com/couchcryptid/storm-data-geocoder/internal/geocoder"
	"github.com/couchcryptid/storm-data-geocoder/internal/observability"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("geocode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	key := fs.String("key", os.Getenv("GEOCODER_API_KEY"), "Yandex Geocoder API key")
	baseURL := fs.String("base-url", sharedcfg.EnvOrDefault("GEOCODER_BASE_URL", yandex.DefaultBaseURL), "geocoding service endpoint")
	lang := fs.String("lang", os.Getenv("GEOCODER_LANG"), "response language, e.g. en_US")
	timeout := fs.Duration("timeout", 10*time.Second, "per-request timeout")
	all := fs.Bool("all", false, "print every match instead of the best one")
	strict := fs.Bool("strict", false, "fail when an address cannot be resolved")
	check := fs.Bool("check", false, "only check that the service is reachable")
	verbose := fs.Bool("v", false, "log debug output to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// stdout carries the JSON result, so logs go to stderr.
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	client := yandex.NewClient(*key, *timeout, logger, observability.NewMetricsWith(nil),
		yandex.WithBaseURL(*baseURL),
		yandex.WithLanguage(*lang),
	)

	policy := domain.ReturnEmpty
	if *strict {
		policy = domain.ReturnError
	}
	g := geocoder.New(client,
		geocoder.WithStore(cachestore.NewMemory()),
		geocoder.WithFailurePolicy(policy),
		geocoder.WithLogger(logger),
	)
	defer g.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *check {
		if !g.CheckConnection(ctx, *timeout) {
			return errors.New("geocoding service is not reachable")
		}
		fmt.Fprintln(stdout, "ok")
		return nil
	}

	addresses := fs.Args()
	if len(addresses) == 0 {
		fs.Usage()
		return errors.New("at least one address is required")
	}

	var out any
	var err error
	if *all {
		out, err = g.PointsByAddresses(ctx, addresses, progressTo(stderr, *verbose))
	} else {
		out, err = g.PointByAddresses(ctx, addresses, progressTo(stderr, *verbose))
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Debug("done", "requests", g.RequestCount())
	return nil
}

func progressTo(w io.Writer, enabled bool) geocoder.Progress {
	if !enabled {
		return nil
	}
	return func(completed int) {
		fmt.Fprintf(w, "resolved %d\n", completed)
	}
}
