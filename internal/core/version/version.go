// Package version reports build metadata set through -ldflags
package version

// Set with -ldflags "-X payeerules/internal/core/version.Version=v1.2.0 -X ...Commit=abc1234 -X ...Date=2026-10-01"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// BuildInfo is the build metadata served by /meta/version
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build metadata for service
func Info(service string) BuildInfo {
	return BuildInfo{Service: service, Version: Version, Commit: Commit, Date: Date}
}
