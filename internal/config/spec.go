// Package config defines the tsxbench configuration structure.
package config

import "time"

// Config is the root configuration for tsxbench.
type Config struct {
	HTM     HTMSection     `koanf:"htm" json:"htm" yaml:"htm"`
	Map     MapSection     `koanf:"map" json:"map" yaml:"map"`
	Bench   BenchSection   `koanf:"bench" json:"bench" yaml:"bench"`
	Metrics MetricsSection `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Log     LogSection     `koanf:"log" json:"log" yaml:"log"`
}

// HTMSection configures hardware lock elision.
type HTMSection struct {
	// ForceSoftware routes every transacted section through the lock. It
	// can be flipped while a run is in progress by editing the config file
	// when watching is enabled.
	ForceSoftware bool `koanf:"force_software" json:"force_software" yaml:"force_software"`

	// MaxRetries is the number of hardware attempts before falling back.
	MaxRetries int `koanf:"max_retries" json:"max_retries" yaml:"max_retries"`
}

// MapSection configures maps built by the map workloads.
type MapSection struct {
	// MaxBuckets caps the bucket count a map may grow to.
	MaxBuckets int `koanf:"max_buckets" json:"max_buckets" yaml:"max_buckets"`

	// Hasher is "maphash" or "murmur3".
	Hasher string `koanf:"hasher" json:"hasher" yaml:"hasher"`

	// Seed seeds the murmur3 hasher.
	Seed uint32 `koanf:"seed" json:"seed" yaml:"seed"`
}

// BenchSection configures benchmark runs.
type BenchSection struct {
	Workloads  []string `koanf:"workloads" json:"workloads" yaml:"workloads"`
	Threads    int      `koanf:"threads" json:"threads" yaml:"threads"`
	Iterations int      `koanf:"iterations" json:"iterations" yaml:"iterations"`
	Reserve    int      `koanf:"reserve" json:"reserve" yaml:"reserve"`
	Repeat     int      `koanf:"repeat" json:"repeat" yaml:"repeat"`

	// CompareSoftware adds a forced-software pass after each hardware pass
	// when RTM is available.
	CompareSoftware bool `koanf:"compare_software" json:"compare_software" yaml:"compare_software"`

	// ProgressInterval throttles progress log lines.
	ProgressInterval time.Duration `koanf:"progress_interval" json:"progress_interval" yaml:"progress_interval"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
