// Package config defines the tsxbench configuration structure.
//
//   - spec.go: the Config tree with koanf tags
//   - default.go: default values
//   - verify.go: validation
//
// Configuration is loaded by internal/infra/confloader from a YAML file and
// TSXLOCK_-prefixed environment variables, for example:
//
//	htm:
//	  force_software: false
//	  max_retries: 8
//	bench:
//	  workloads: [spinlock, transact]
//	  iterations: 1000000
package config
