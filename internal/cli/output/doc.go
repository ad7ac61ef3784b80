// Package output renders tsxbench reports.
//
//   - formatter.go: Format parsing and formatter selection
//   - table.go: aligned text tables via text/tabwriter
//   - json.go: indented JSON
//   - yaml.go: YAML via gopkg.in/yaml.v3
package output
