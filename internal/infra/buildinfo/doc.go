// Package buildinfo reports the version, commit and platform of the running
// binary for tsxbench version and benchmark reports.
//
// Values are injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/tsxlock-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/tsxlock-go/internal/infra/buildinfo.Commit=abc1234"
//
// When they are not, Get falls back to the VCS stamp embedded by the Go
// toolchain.
package buildinfo
