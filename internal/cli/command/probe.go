package command

import (
	"runtime"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsxlock-go/internal/cli/output"
	"github.com/yndnr/tsxlock-go/pkg/htm"
)

// ProbeCommand returns the probe subcommand.
func ProbeCommand() *cli.Command {
	return &cli.Command{
		Name:   "probe",
		Usage:  "Report hardware transactional memory support",
		Action: probeAction,
	}
}

type probeReport struct {
	Arch      string `json:"arch" yaml:"arch"`
	RTM       bool   `json:"rtm" yaml:"rtm"`
	Forced    bool   `json:"forced" yaml:"forced"`
	Available bool   `json:"available" yaml:"available"`
}

func (p probeReport) Table() *output.Table {
	t := &output.Table{}
	t.SetHeaders("FIELD", "VALUE")
	t.AddRow("arch", p.Arch)
	t.AddRow("rtm", strconv.FormatBool(p.RTM))
	t.AddRow("forced", strconv.FormatBool(p.Forced))
	t.AddRow("available", strconv.FormatBool(p.Available))
	return t
}

func probeAction(c *cli.Context) error {
	probe := htm.NewProbe()
	probe.ForceDisable(GetConfig(c).HTM.ForceSoftware)

	return render(c, probeReport{
		Arch:      runtime.GOARCH,
		RTM:       probe.Detect(),
		Forced:    probe.Forced(),
		Available: probe.Available(),
	})
}
