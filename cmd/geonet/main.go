package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-geonet/pkg/config"
	"github.com/dd0wney/cluso-geonet/pkg/logging"
	"github.com/dd0wney/cluso-geonet/pkg/metrics"
)

// app carries what every subcommand needs.
type app struct {
	cfg     *config.Config
	log     logging.Logger
	metrics *metrics.Registry
	pretty  bool
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"count", "count points per polygon into an Integer field", runCount},
	{"record", "record the ids of containing polygons on every point", runRecord},
	{"network", "generate edges: network adjacent|length|value|bipartite", runNetwork},
	{"vectors", "draw rays from an origin to every point", runVectors},
	{"relationship", "write the composite relationship matrix as CSV", runRelationship},
	{"cluster", "hierarchical clustering on the composite dissimilarity", runCluster},
	{"rank", "geometric-progression ranking of a numeric field", runRank},
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		envFile    = flag.String("env", ".env", "dotenv file with GEONET_* overrides")
		logLevel   = flag.String("log-level", "", "log level (overrides config)")
		dumpMetric = flag.Bool("metrics", false, "print Prometheus metrics to stderr on exit")
		pretty     = flag.Bool("pretty", false, "render summaries as styled tables")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "geonet: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.Log.Level))
	logging.SetDefaultLogger(logger)

	a := &app{cfg: cfg, log: logger, pretty: *pretty}
	if *dumpMetric || cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name, args := flag.Arg(0), flag.Args()[1:]
	err = dispatch(ctx, a, name, args)

	if a.metrics != nil {
		if werr := a.metrics.WriteText(os.Stderr); werr != nil {
			logger.Warn("failed to write metrics", logging.Error(werr))
		}
	}
	if err != nil {
		logger.Error("command failed", logging.Command(name), logging.Error(err))
		stop()
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, a *app, name string, args []string) error {
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, a, args)
		}
	}
	usage()
	return fmt.Errorf("unknown command %q", name)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: geonet [flags] <command> [command flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-13s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	flag.PrintDefaults()
}
