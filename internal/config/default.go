package config

import (
	"time"

	"github.com/yndnr/tsxlock-go/pkg/cmap"
	"github.com/yndnr/tsxlock-go/pkg/transact"
)

// Default configuration values.
const (
	DefaultIterations       = 1000000
	DefaultReserve          = 10000
	DefaultRepeat           = 1
	DefaultProgressInterval = 2 * time.Second
	DefaultHasher           = "maphash"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultWorkloads lists every workload in run order.
var DefaultWorkloads = []string{
	"spinlock",
	"transact",
	"alloc-small",
	"alloc-large",
	"map-write",
	"map-read",
	"map-readwrite",
}

// Default returns the default configuration. Threads is left at zero,
// meaning GOMAXPROCS.
func Default() *Config {
	return &Config{
		HTM: HTMSection{
			MaxRetries: transact.DefaultMaxRetries,
		},
		Map: MapSection{
			MaxBuckets: cmap.DefaultMaxBuckets,
			Hasher:     DefaultHasher,
		},
		Bench: BenchSection{
			Workloads:        append([]string(nil), DefaultWorkloads...),
			Iterations:       DefaultIterations,
			Reserve:          DefaultReserve,
			Repeat:           DefaultRepeat,
			CompareSoftware:  true,
			ProgressInterval: DefaultProgressInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
