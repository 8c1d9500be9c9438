// Command vitest-mcp serves vitest to MCP clients over stdio.
package main

import (
	"os"

	"github.com/Fitzpa/vitest-mcp/cmd/vitest-mcp/cli"
	"github.com/Fitzpa/vitest-mcp/version"
)

// Build information set via ldflags.
var (
	Version   = "0.0.0-dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	info := version.New("vitest-mcp")
	info.Version = Version
	info.BuildDate = BuildDate
	info.GitCommit = GitCommit
	info.FillFromBuildInfo()

	os.Exit(cli.Execute(info))
}
