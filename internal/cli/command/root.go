package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsxlock-go/internal/cli/output"
	"github.com/yndnr/tsxlock-go/internal/config"
	"github.com/yndnr/tsxlock-go/internal/infra/buildinfo"
	"github.com/yndnr/tsxlock-go/internal/infra/confloader"
	"github.com/yndnr/tsxlock-go/internal/telemetry/logger"
)

const (
	metaConfig = "config"
	metaLoader = "loader"
	metaLogger = "logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "tsxbench",
		Usage:    "Measure spinlock, lock elision and concurrent map throughput",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: make(map[string]any),
		Commands: []*cli.Command{
			RunCommand(),
			ProbeCommand(),
			VersionCommand(),
		},
		Before: setup,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"TSXLOCK_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
	}
}

// flagKey binds a command-line flag to a configuration key.
type flagKey struct {
	flag string
	key  string
	get  func(c *cli.Context, name string) any
}

func stringValue(c *cli.Context, name string) any   { return c.String(name) }
func intValue(c *cli.Context, name string) any      { return c.Int(name) }
func boolValue(c *cli.Context, name string) any     { return c.Bool(name) }
func stringsValue(c *cli.Context, name string) any  { return c.StringSlice(name) }
func durationValue(c *cli.Context, name string) any { return c.Duration(name) }

var globalFlagKeys = []flagKey{
	{"log-level", "log.level", stringValue},
	{"log-format", "log.format", stringValue},
}

// overrides collects the flags that were set explicitly, keyed by config
// key, so unset flags never mask the file or environment.
func overrides(c *cli.Context, keys []flagKey) map[string]any {
	m := make(map[string]any)
	for _, fk := range keys {
		if c.IsSet(fk.flag) {
			m[fk.key] = fk.get(c, fk.flag)
		}
	}
	return m
}

// applyOverrides merges explicit flags into the loader and refreshes cfg.
func applyOverrides(loader *confloader.Loader, cfg *config.Config, m map[string]any) error {
	if len(m) == 0 {
		return nil
	}
	if err := loader.LoadMap(m); err != nil {
		return err
	}
	return loader.Unmarshal(cfg)
}

func setup(c *cli.Context) error {
	cfg := config.Default()
	loader := confloader.NewLoader(confloader.WithConfigFile(c.String("config")))
	if err := loader.Load(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyOverrides(loader, cfg, overrides(c, globalFlagKeys)); err != nil {
		return fmt.Errorf("apply flags: %w", err)
	}

	l, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	logger.SetDefault(l)

	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaLoader] = loader
	c.App.Metadata[metaLogger] = l
	return nil
}

// GetConfig returns the configuration loaded by the app's Before hook.
func GetConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// GetLoader returns the loader that produced GetConfig.
func GetLoader(c *cli.Context) *confloader.Loader {
	if l, ok := c.App.Metadata[metaLoader].(*confloader.Loader); ok {
		return l
	}
	return confloader.NewLoader()
}

// GetLogger returns the application logger.
func GetLogger(c *cli.Context) logger.Logger {
	if l, ok := c.App.Metadata[metaLogger].(logger.Logger); ok {
		return l
	}
	return logger.Default()
}

// render writes data to the app's writer in the format chosen by -o.
func render(c *cli.Context, data any) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}
