package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyHTM(&cfg.HTM); err != nil {
		return err
	}
	if err := verifyMap(&cfg.Map); err != nil {
		return err
	}
	if err := verifyBench(&cfg.Bench); err != nil {
		return err
	}
	if cfg.Bench.Reserve > cfg.Map.MaxBuckets {
		return fmt.Errorf("bench.reserve %d exceeds map.max_buckets %d", cfg.Bench.Reserve, cfg.Map.MaxBuckets)
	}
	return verifyMetrics(&cfg.Metrics)
}

func verifyHTM(cfg *HTMSection) error {
	if cfg.MaxRetries < 1 {
		return errors.New("htm.max_retries must be at least 1")
	}
	return nil
}

func verifyMap(cfg *MapSection) error {
	if cfg.MaxBuckets < 1 {
		return errors.New("map.max_buckets must be at least 1")
	}
	switch cfg.Hasher {
	case "maphash", "murmur3":
	default:
		return fmt.Errorf("map.hasher %q is not one of maphash, murmur3", cfg.Hasher)
	}
	return nil
}

func verifyBench(cfg *BenchSection) error {
	if len(cfg.Workloads) == 0 {
		return errors.New("bench.workloads must name at least one workload")
	}
	for _, w := range cfg.Workloads {
		if !slices.Contains(DefaultWorkloads, w) {
			return fmt.Errorf("bench.workloads: unknown workload %q", w)
		}
	}
	if cfg.Threads < 0 {
		return errors.New("bench.threads must not be negative")
	}
	if cfg.Iterations < 1 {
		return errors.New("bench.iterations must be at least 1")
	}
	if cfg.Reserve < 0 {
		return errors.New("bench.reserve must not be negative")
	}
	if cfg.Repeat < 1 {
		return errors.New("bench.repeat must be at least 1")
	}
	if cfg.ProgressInterval < 0 {
		return errors.New("bench.progress_interval must not be negative")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr: %w", err)
	}
	return nil
}
