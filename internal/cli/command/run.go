package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsxlock-go/internal/bench"
	"github.com/yndnr/tsxlock-go/internal/config"
	"github.com/yndnr/tsxlock-go/internal/infra/confloader"
	"github.com/yndnr/tsxlock-go/internal/infra/shutdown"
	"github.com/yndnr/tsxlock-go/internal/telemetry/logger"
	"github.com/yndnr/tsxlock-go/internal/telemetry/metric"
	"github.com/yndnr/tsxlock-go/pkg/htm"
)

const shutdownTimeout = 5 * time.Second

var runFlagKeys = []flagKey{
	{"workload", "bench.workloads", stringsValue},
	{"threads", "bench.threads", intValue},
	{"iterations", "bench.iterations", intValue},
	{"reserve", "bench.reserve", intValue},
	{"repeat", "bench.repeat", intValue},
	{"compare-software", "bench.compare_software", boolValue},
	{"progress-interval", "bench.progress_interval", durationValue},
	{"force-software", "htm.force_software", boolValue},
	{"max-retries", "htm.max_retries", intValue},
	{"hasher", "map.hasher", stringValue},
	{"metrics-addr", "metrics.addr", stringValue},
}

// RunCommand returns the run subcommand.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run benchmark workloads",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "workload",
				Aliases: []string{"w"},
				Usage:   "Workloads to run (repeatable); default all",
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"t"},
				Usage:   "Worker goroutines; 0 means GOMAXPROCS",
			},
			&cli.IntFlag{
				Name:    "iterations",
				Aliases: []string{"n"},
				Usage:   "Operations per worker",
			},
			&cli.IntFlag{
				Name:  "reserve",
				Usage: "Map reservation for the map workloads",
			},
			&cli.IntFlag{
				Name:  "repeat",
				Usage: "Passes per workload and mode",
			},
			&cli.BoolFlag{
				Name:  "compare-software",
				Usage: "Also run every workload with hardware transactions forced off",
			},
			&cli.DurationFlag{
				Name:  "progress-interval",
				Usage: "Minimum time between progress log lines; 0 disables them",
			},
			&cli.BoolFlag{
				Name:  "force-software",
				Usage: "Never start hardware transactions",
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Hardware attempts before taking the lock",
			},
			&cli.StringFlag{
				Name:  "hasher",
				Usage: "Map key hasher: maphash, murmur3",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-apply htm.force_software when the config file changes",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address during the run",
			},
		},
		Action: runBench,
	}
}

func runBench(c *cli.Context) error {
	cfg := GetConfig(c)
	loader := GetLoader(c)
	log := GetLogger(c)

	if err := applyOverrides(loader, cfg, overrides(c, runFlagKeys)); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	probe := htm.NewProbe()
	probe.ForceDisable(cfg.HTM.ForceSoftware)

	sh := shutdown.NewHandler(shutdownTimeout)
	ctx, stop := sh.Notify(c.Context)
	defer stop()
	defer func() {
		if err := sh.Shutdown(); err != nil {
			log.Warn("shutdown", "error", err)
		}
	}()

	ropts := []bench.RunnerOption{bench.WithLogger(log)}
	if cfg.Metrics.Addr != "" {
		reg := metric.NewRegistry()
		addr, err := serveMetrics(reg, cfg.Metrics.Addr, sh, log)
		if err != nil {
			return err
		}
		log.Info("serving metrics", "addr", addr)
		ropts = append(ropts, bench.WithMetrics(reg))
	}

	if c.Bool("watch") {
		if err := watchConfig(loader, probe, sh, log); err != nil {
			return err
		}
	}

	runner, err := bench.NewRunner(probe, bench.Options{
		Threads:          cfg.Bench.Threads,
		Iterations:       cfg.Bench.Iterations,
		Reserve:          cfg.Bench.Reserve,
		Repeat:           cfg.Bench.Repeat,
		CompareSoftware:  cfg.Bench.CompareSoftware,
		ProgressInterval: cfg.Bench.ProgressInterval,
		MaxRetries:       cfg.HTM.MaxRetries,
		MaxBuckets:       cfg.Map.MaxBuckets,
		Hasher:           cfg.Map.Hasher,
		Seed:             cfg.Map.Seed,
	}, ropts...)
	if err != nil {
		return err
	}

	ctx = logger.WithRunID(ctx, bench.NewRunID())
	report, err := runner.Run(ctx, cfg.Bench.Workloads)
	if err != nil {
		return err
	}
	return render(c, report)
}

// serveMetrics starts a /metrics listener that is closed on shutdown. It
// returns the bound address.
func serveMetrics(reg *metric.Registry, addr string, sh *shutdown.Handler, log logger.Logger) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "error", err)
		}
	}()
	sh.OnShutdown(srv.Shutdown)
	return ln.Addr().String(), nil
}

// watchConfig re-reads the config file on change and applies the HTM
// override to the live probe. Other settings only apply to the next run.
func watchConfig(loader *confloader.Loader, probe *htm.Probe, sh *shutdown.Handler, log logger.Logger) error {
	path := loader.FilePath()
	if path == "" {
		return errors.New("--watch requires --config")
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.OnChange(func(string) {
		next := config.Default()
		if err := loader.Reload(next); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if probe.Forced() != next.HTM.ForceSoftware {
			probe.ForceDisable(next.HTM.ForceSoftware)
			log.Info("htm override changed", "force_software", next.HTM.ForceSoftware)
		}
	})
	w.StartAsync()
	sh.OnShutdown(func(context.Context) error { return w.Stop() })
	return nil
}
