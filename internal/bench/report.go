package bench

import (
	"strconv"
	"time"

	"github.com/yndnr/tsxlock-go/internal/cli/output"
	"github.com/yndnr/tsxlock-go/internal/infra/buildinfo"
	"github.com/yndnr/tsxlock-go/pkg/cmap"
	"github.com/yndnr/tsxlock-go/pkg/transact"
)

// Execution modes of a pass.
const (
	ModeHardware = "hardware"
	ModeSoftware = "software"
)

// ProbeInfo records what the capability probe reported at run start.
type ProbeInfo struct {
	RTM    bool `json:"rtm" yaml:"rtm"`
	Forced bool `json:"forced" yaml:"forced"`
}

// Result is the outcome of one pass of one workload.
type Result struct {
	Workload   string         `json:"workload" yaml:"workload"`
	Mode       string         `json:"mode" yaml:"mode"`
	Pass       int            `json:"pass" yaml:"pass"`
	Ops        uint64         `json:"ops" yaml:"ops"`
	Elapsed    time.Duration  `json:"elapsed_ns" yaml:"elapsed"`
	Throughput float64        `json:"ops_per_sec" yaml:"ops_per_sec"`
	Transact   transact.Stats `json:"transact" yaml:"transact"`
	Map        *cmap.Stats    `json:"map,omitempty" yaml:"map,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	RunID      string         `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	Build      buildinfo.Info `json:"build" yaml:"build"`
	Probe      ProbeInfo      `json:"probe" yaml:"probe"`
	Threads    int            `json:"threads" yaml:"threads"`
	Iterations int            `json:"iterations" yaml:"iterations"`
	Results    []Result       `json:"results" yaml:"results"`
}

// Table renders one row per pass.
func (r *Report) Table() *output.Table {
	t := &output.Table{}
	t.SetHeaders("WORKLOAD", "MODE", "PASS", "OPS/SEC", "ELAPSED", "COMMITS", "FALLBACKS", "ABORTS")
	for _, res := range r.Results {
		t.AddRow(
			res.Workload,
			res.Mode,
			strconv.Itoa(res.Pass),
			humanRate(res.Throughput),
			res.Elapsed.Round(time.Microsecond).String(),
			strconv.FormatUint(res.Transact.Commits, 10),
			strconv.FormatUint(res.Transact.Fallbacks, 10),
			strconv.FormatUint(res.Transact.Aborts, 10),
		)
	}
	return t
}

// humanRate formats ops/sec with a K/M/G suffix.
func humanRate(v float64) string {
	switch {
	case v >= 1e9:
		return strconv.FormatFloat(v/1e9, 'f', 2, 64) + "G"
	case v >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 2, 64) + "M"
	case v >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 2, 64) + "K"
	default:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
}
