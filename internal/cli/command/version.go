package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsxlock-go/internal/cli/output"
	"github.com/yndnr/tsxlock-go/internal/infra/buildinfo"
)

// VersionCommand returns the version subcommand.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show build information",
		Action: versionAction,
	}
}

type versionReport buildinfo.Info

func (v versionReport) Table() *output.Table {
	t := &output.Table{}
	t.SetHeaders("FIELD", "VALUE")
	t.AddRow("version", v.Version)
	t.AddRow("commit", v.Commit)
	t.AddRow("build_time", v.BuildTime)
	t.AddRow("go_version", v.GoVersion)
	t.AddRow("platform", v.Platform)
	return t
}

func versionAction(c *cli.Context) error {
	return render(c, versionReport(buildinfo.Get()))
}
