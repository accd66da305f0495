// gdeltctl is a thin demo binary over the acquisition engine: it fetches
// one date range for one record type and writes the validated records to
// stdout as JSON lines. It is deliberately minimal; the library surface in
// pkg/gdelt is the product.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gdelt/pkg/config"
	"gdelt/pkg/filter"
	"gdelt/pkg/gdelt"
	"gdelt/pkg/logger"
)

func main() {
	var (
		recordType = flag.String("type", "events", "record type (events, gkg, vgkg, webngrams, graph_*, doc, geo, ...)")
		start      = flag.String("start", "", "range start, RFC3339 or YYYYMMDDHHMMSS (inclusive)")
		end        = flag.String("end", "", "range end, exclusive")
		forced     = flag.String("source", "auto", "force a source: auto, files, warehouse")
		dedup      = flag.String("dedup", string(filter.DedupURLDateGeo), "dedup strategy")
		policy     = flag.String("errors", string(filter.PolicyWarn), "error policy: raise, warn, skip")
		limit      = flag.Int("limit", 0, "row limit (warehouse only, 0 = none)")
		ping       = flag.Bool("ping", false, "probe connectivity and exit")
	)
	flag.Parse()

	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := gdelt.New(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "client:", err)
		os.Exit(1)
	}
	defer client.Close()

	if *ping {
		if err := client.Ping(ctx); err != nil {
			logger.Fatal("ping failed", "error", err)
		}
		fmt.Println("ok")
		return
	}

	startT, err := parseTime(*start)
	if err != nil {
		logger.Fatal("bad -start", "error", err)
	}
	endT, err := parseTime(*end)
	if err != nil {
		logger.Fatal("bad -end", "error", err)
	}

	f := filter.New(filter.RecordType(*recordType), startT, endT).
		WithDedup(filter.DedupStrategy(*dedup)).
		WithErrorPolicy(filter.ErrorPolicy(*policy)).
		WithForcedSource(filter.Source(*forced))
	if *limit > 0 {
		f = f.WithLimit(*limit)
	}

	result, err := client.Fetch(ctx, f)
	if err != nil {
		logger.Fatal("fetch failed", "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	count := 0
	for {
		v, ok := result.Next(ctx)
		if !ok {
			break
		}
		if err := enc.Encode(v); err != nil {
			logger.Fatal("encode record", "error", err)
		}
		count++
	}

	for _, sf := range result.Failures() {
		fmt.Fprintf(os.Stderr, "failed slot: %s (%s)\n", sf.URL, sf.Reason)
	}
	fmt.Fprintf(os.Stderr, "%d records, complete=%v\n", count, result.Complete())
	if !result.Complete() || len(result.Failures()) > 0 {
		os.Exit(2)
	}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("20060102150405", s)
}
