// Package version provides build information and the version command for
// the vitest-mcp binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const devVersion = "0.0.0-dev"

// Info holds version information for the binary.
type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
	Name      string `json:"name"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// New creates a new Info with default values. Version, BuildDate, GitCommit
// are expected to be set via ldflags at build time.
func New(name string) *Info {
	return &Info{
		Version:   devVersion,
		BuildDate: "unknown",
		GitCommit: "unknown",
		Name:      name,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// FillFromBuildInfo replaces unset fields with what the Go toolchain embedded
// in the binary. It is a no-op for fields already set via ldflags.
func (i *Info) FillFromBuildInfo() {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	i.fill(bi)
}

func (i *Info) fill(bi *debug.BuildInfo) {
	if i.Version == devVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "unknown" && s.Value != "" {
				i.GitCommit = s.Value
			}
		case "vcs.time":
			if i.BuildDate == "unknown" && s.Value != "" {
				i.BuildDate = s.Value
			}
		}
	}
}

// String returns a human-readable version string.
func (i *Info) String() string {
	return fmt.Sprintf("%s version %s (commit: %s, built: %s)", i.Name, i.Version, i.GitCommit, i.BuildDate)
}
