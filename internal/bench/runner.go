package bench

import (
	"context"
	"crypto/rand"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yndnr/tsxlock-go/internal/infra/buildinfo"
	"github.com/yndnr/tsxlock-go/internal/telemetry/logger"
	"github.com/yndnr/tsxlock-go/internal/telemetry/metric"
	"github.com/yndnr/tsxlock-go/pkg/cmap"
	"github.com/yndnr/tsxlock-go/pkg/htm"
)

// chunk is the number of iterations a worker runs between cancellation
// checks and progress updates.
const chunk = 1 << 14

// Options configure a Runner.
type Options struct {
	Threads          int
	Iterations       int
	Reserve          int
	Repeat           int
	CompareSoftware  bool
	ProgressInterval time.Duration
	MaxRetries       int
	MaxBuckets       int
	Hasher           string
	Seed             uint32
}

// Runner executes workloads and collects a Report.
type Runner struct {
	probe   *htm.Probe
	opts    Options
	logger  logger.Logger
	metrics *metric.Registry
	maps    *metric.MapCollector
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for progress lines. Without it the
// logger carried by the Run context is used.
func WithLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics reports transaction outcomes, throughput and map gauges to
// reg. The map collector is registered on reg.
func WithMetrics(reg *metric.Registry) RunnerOption {
	return func(r *Runner) {
		r.metrics = reg
	}
}

// NewRunner creates a Runner. The probe is consulted on every transacted
// attempt, so toggling its override during a run takes effect immediately.
func NewRunner(probe *htm.Probe, opts Options, ropts ...RunnerOption) (*Runner, error) {
	if probe == nil {
		probe = htm.Default()
	}
	if opts.Threads <= 0 {
		opts.Threads = runtime.GOMAXPROCS(0)
	}
	if opts.Iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be at least 1", ErrInvalidParams)
	}
	opts.Repeat = max(opts.Repeat, 1)

	r := &Runner{
		probe: probe,
		opts:  opts,
	}
	for _, o := range ropts {
		o(r)
	}
	if r.metrics != nil {
		r.maps = metric.NewMapCollector()
		if err := r.metrics.Register(r.maps); err != nil {
			return nil, fmt.Errorf("register map collector: %w", err)
		}
	}
	return r, nil
}

// NewRunID returns a sortable unique run identifier.
func NewRunID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Run executes the named workloads in order. Each workload runs Repeat
// passes with the live probe and, when CompareSoftware is set and the
// hardware path is available, as many passes again with it forced off.
func (r *Runner) Run(ctx context.Context, names []string) (*Report, error) {
	selected := make([]Workload, 0, len(names))
	for _, name := range names {
		w, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, w)
	}

	if r.logger != nil {
		ctx = logger.WithLogger(ctx, r.logger)
	}
	runID := logger.RunIDFromContext(ctx)
	if runID == "" {
		runID = NewRunID()
		ctx = logger.WithRunID(ctx, runID)
	}

	report := &Report{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Build:     buildinfo.Get(),
		Probe: ProbeInfo{
			RTM:    r.probe.Detect(),
			Forced: r.probe.Forced(),
		},
		Threads:    r.opts.Threads,
		Iterations: r.opts.Iterations,
	}

	forced := htm.NewProbe()
	forced.ForceDisable(true)

	for _, w := range selected {
		wctx := logger.WithWorkload(ctx, w.Name)
		for pass := 1; pass <= r.opts.Repeat; pass++ {
			res, err := r.pass(wctx, w, r.probe, pass)
			if err != nil {
				return report, err
			}
			report.Results = append(report.Results, res)
		}
		if !r.opts.CompareSoftware || !r.probe.Available() {
			continue
		}
		for pass := 1; pass <= r.opts.Repeat; pass++ {
			res, err := r.pass(wctx, w, forced, pass)
			if err != nil {
				return report, err
			}
			report.Results = append(report.Results, res)
		}
	}
	return report, nil
}

func modeOf(p *htm.Probe) string {
	if p.Available() {
		return ModeHardware
	}
	return ModeSoftware
}

// pass runs one timed pass of w with every worker released together.
func (r *Runner) pass(ctx context.Context, w Workload, probe *htm.Probe, pass int) (Result, error) {
	mode := modeOf(probe)
	log := logger.L(ctx).With("pass", pass, "mode", mode)

	params := Params{
		Threads:    r.opts.Threads,
		Iterations: r.opts.Iterations,
		Reserve:    r.opts.Reserve,
		Probe:      probe,
		MaxRetries: r.opts.MaxRetries,
		MaxBuckets: r.opts.MaxBuckets,
		Hasher:     r.opts.Hasher,
		Seed:       r.opts.Seed,
	}
	if r.metrics != nil {
		params.Observer = r.metrics.Observer(w.Name)
	}

	inst, err := w.build(params)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", w.Name, err)
	}
	if r.maps != nil && inst.mapStats() != nil {
		r.maps.Track(w.Name, statsFunc(func() cmap.Stats { return *inst.mapStats() }))
	}

	var (
		done     atomic.Uint64
		gate     = make(chan struct{})
		progress *rate.Limiter
		total    = uint64(r.opts.Threads) * uint64(r.opts.Iterations)
	)
	if r.opts.ProgressInterval > 0 {
		progress = rate.NewLimiter(rate.Every(r.opts.ProgressInterval), 1)
		progress.Allow()
	}

	g, gctx := errgroup.WithContext(ctx)
	for thread := 0; thread < r.opts.Threads; thread++ {
		g.Go(func() error {
			<-gate
			for from := 0; from < r.opts.Iterations; from += chunk {
				if err := gctx.Err(); err != nil {
					return err
				}
				to := min(from+chunk, r.opts.Iterations)
				if err := inst.run(thread, from, to); err != nil {
					return err
				}
				n := done.Add(uint64(to - from))
				if progress != nil && progress.Allow() {
					log.Info("progress", "done", n, "total", total)
				}
			}
			return nil
		})
	}

	log.Debug("pass starting", "threads", r.opts.Threads, "iterations", r.opts.Iterations)
	start := time.Now()
	close(gate)
	err = g.Wait()
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("%s pass %d: %w", w.Name, pass, err)
	}
	if err := inst.verify(); err != nil {
		return Result{}, fmt.Errorf("%s pass %d: %w", w.Name, pass, err)
	}

	res := Result{
		Workload:   w.Name,
		Mode:       mode,
		Pass:       pass,
		Ops:        total,
		Elapsed:    elapsed,
		Throughput: float64(total) / max(elapsed.Seconds(), 1e-9),
		Transact:   inst.stats(),
		Map:        inst.mapStats(),
	}
	if r.metrics != nil {
		r.metrics.BenchOps.WithLabelValues(w.Name, mode).Add(float64(total))
		r.metrics.BenchDuration.WithLabelValues(w.Name, mode).Observe(elapsed.Seconds())
	}
	log.Info("pass complete",
		"elapsed", elapsed,
		"ops_per_sec", int64(res.Throughput),
		"commits", res.Transact.Commits,
		"fallbacks", res.Transact.Fallbacks,
	)
	return res, nil
}

// statsFunc adapts a function to metric.StatsSource.
type statsFunc func() cmap.Stats

func (f statsFunc) Stats() cmap.Stats { return f() }
