// Command salesetl runs one stage of the sales ETL (transform, load or query)
// for a single JSON event and prints the JSON response to stdout.
//
// Usage:
//
//	salesetl [flags] transform|load|query
//
// The event is read from -event (a file path, or "-" for stdin). A non-zero
// exit status means the stage failed; the failure envelope is still printed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/invoke"
	"salesetl/internal/load"
	"salesetl/internal/objectstore"
	"salesetl/internal/query"
	"salesetl/internal/storage"

	// register every backend; the config selects which one is used.
	_ "salesetl/internal/objectstore/all"
	_ "salesetl/internal/storage/all"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.LookupEnv, os.Stdin, os.Stdout, os.Stderr))
}

// run is main without process globals so tests can drive it.
func run(ctx context.Context, args []string, lookup config.LookupFunc, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("salesetl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath           string
		eventPath         string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
		verbose           bool
	)
	fs.StringVar(&cfgPath, "config", "", "optional config JSON path; environment variables override it")
	fs.StringVar(&eventPath, "event", "-", "event JSON path, or - for stdin")
	fs.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend (prometheus, datadog, none); overrides METRICS_BACKEND")
	fs.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL; overrides PUSHGATEWAY_URL")
	fs.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&verbose, "v", false, "enable verbose logs")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: salesetl [flags] transform|load|query\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(cfgPath, lookup)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if metricsBackendFlg != "" {
		cfg.Metrics.Backend = metricsBackendFlg
	}
	if pushGatewayURLFlg != "" {
		cfg.Metrics.PushgatewayURL = pushGatewayURLFlg
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("config: invalid")
		return 1
	}
	if validate {
		log.Printf("config: valid")
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	stage := fs.Arg(0)
	switch stage {
	case "transform", "load", "query":
	default:
		fmt.Fprintf(stderr, "unknown stage %q\n", stage)
		return 2
	}

	flush := setupMetrics(cfg.Job, cfg.Metrics, verbose)
	defer flush()

	event, closeEvent, err := openEvent(eventPath, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closeEvent()

	h, err := newHandler(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	start := time.Now()
	if verbose {
		log.Printf("salesetl: stage=%s object_store=%s db=%s table=%s", stage, cfg.ObjectStore.Kind, cfg.DB.Kind, cfg.DB.Table)
	}
	resp, runErr := h.Invoke(ctx, stage, event)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if resp != nil {
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintf(stderr, "encode response: %v\n", err)
			return 1
		}
	}
	if runErr != nil {
		log.Printf("salesetl: %s failed: %v", stage, runErr)
		return 1
	}
	if verbose {
		log.Printf("salesetl: %s completed in %s", stage, time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

func loadConfig(path string, lookup config.LookupFunc) (config.Config, error) {
	if path == "" {
		return config.FromEnv(lookup)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openEvent(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open event: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// newHandler wires the object store and the per-invocation database opener.
func newHandler(ctx context.Context, cfg config.Config) (*invoke.Handler, error) {
	store, err := objectstore.New(ctx, cfg.ObjectStore)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	ph, err := query.PlaceholderFor(cfg.DB.Kind)
	if err != nil {
		return nil, err
	}
	scfg := storageConfig(cfg.DB)
	return &invoke.Handler{
		Store: store,
		OpenRepo: func(ctx context.Context) (storage.Repository, error) {
			return storage.New(ctx, scfg)
		},
		DB: cfg.DB,
		Load: load.Options{
			Table:     cfg.DB.Table,
			BatchSize: cfg.Load.BatchSize,
			Mode:      load.Mode(cfg.Load.Mode),
		},
		Placeholder: ph,
	}, nil
}

func storageConfig(db config.DB) storage.Config {
	return storage.Config{
		Kind:           db.Kind,
		DSN:            db.DSN,
		Host:           db.Host,
		Port:           db.Port,
		User:           db.User,
		Password:       db.Password,
		Name:           db.Name,
		Table:          db.Table,
		ConnectTimeout: db.ConnectTimeout.D(),
	}
}
