// Package buildinfo provides build-time version information.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/respkv-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When a value is not injected, the module and VCS metadata embedded by
// the Go toolchain are used instead.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Build-time variables (set via ldflags).
var (
	// Version is the semantic version.
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

var (
	infoOnce sync.Once
	info     Info
)

// Get returns the build information.
func Get() Info {
	infoOnce.Do(func() {
		info = resolve(Version, Commit, BuildTime, readBuildInfo)
	})
	return info
}

func readBuildInfo() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

// resolve fills values left at their defaults from embedded build info.
func resolve(version, commit, buildTime string, read func() (*debug.BuildInfo, bool)) Info {
	out := Info{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}

	bi, ok := read()
	if !ok || bi == nil {
		return out
	}
	if out.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		out.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if out.Commit == "unknown" && s.Value != "" {
				out.Commit = s.Value
				if len(out.Commit) > 12 {
					out.Commit = out.Commit[:12]
				}
			}
		case "vcs.time":
			if out.BuildTime == "unknown" && s.Value != "" {
				out.BuildTime = s.Value
			}
		}
	}
	if bi.GoVersion != "" {
		out.GoVersion = bi.GoVersion
	}
	return out
}

// String returns a formatted version string.
func String() string {
	i := Get()
	return i.Version + " (" + i.Commit + ") built at " + i.BuildTime + " with " + i.GoVersion
}
