// Package cli implements the vitest-mcp command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fitzpa/vitest-mcp/cliout"
	"github.com/Fitzpa/vitest-mcp/config"
	"github.com/Fitzpa/vitest-mcp/logutil"
	"github.com/Fitzpa/vitest-mcp/security"
	"github.com/Fitzpa/vitest-mcp/version"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	debug      bool
	logFormat  string
	configPath string
	output     string
}

// NewRootCommand builds the vitest-mcp command tree.
func NewRootCommand(info *version.Info) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "vitest-mcp",
		Short: "Run vitest for MCP clients with validated inputs",
		Long: `vitest-mcp is a Model Context Protocol server that lets AI assistants list,
read and run vitest tests and analyze coverage in a Node.js project.

Every path, argument and glob pattern received from a client is validated
before it reaches the filesystem or the vitest process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cliout.SetFormat(opts.output); err != nil {
				return err
			}
			structured, err := parseLogFormat(opts.logFormat)
			if err != nil {
				return err
			}
			logutil.SetupLogger(opts.debug, structured)
			return nil
		},
	}
	cmd.Version = info.Version
	cmd.SetVersionTemplate(info.String() + "\n")

	flags := cmd.PersistentFlags()
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging on stderr")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVarP(&opts.output, "output", "o", "default", "Output format for check and version: default or json")

	cmd.AddCommand(
		newServeCommand(opts, info),
		newCheckCommand(),
		version.NewCommand(info, &opts.output),
	)
	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(info *version.Info) int {
	if err := NewRootCommand(info).Execute(); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		return 1
	}
	return 0
}

func parseLogFormat(format string) (bool, error) {
	switch format {
	case "text", "":
		return false, nil
	case "json":
		return true, nil
	default:
		return false, fmt.Errorf("invalid log format: %s (valid options: text, json)", format)
	}
}

// formatError converts errors to user-facing messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	if kind, ok := security.KindOf(err); ok {
		return fmt.Sprintf("Error: %v (rule: %s)", err, kind)
	}
	switch {
	case errors.Is(err, config.ErrInvalidConfig):
		return fmt.Sprintf("Error: %v", err)
	case errors.Is(err, context.Canceled):
		return "Error: operation canceled"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
