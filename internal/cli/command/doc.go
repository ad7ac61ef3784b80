// Package command provides CLI command definitions for tsxbench.
//
// It uses urfave/cli/v2 for command parsing. Configuration is loaded once in
// the app's Before hook; subcommands layer their explicitly set flags on
// top of it.
//
// Commands:
//
//   - run: run benchmark workloads and print a report
//   - probe: report whether hardware transactions are usable
//   - version: show build information
package command
