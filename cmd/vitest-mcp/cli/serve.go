package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Fitzpa/vitest-mcp/config"
	"github.com/Fitzpa/vitest-mcp/logutil"
	"github.com/Fitzpa/vitest-mcp/mcpserver"
	"github.com/Fitzpa/vitest-mcp/version"
)

const metricsShutdownTimeout = 5 * time.Second

type serveOptions struct {
	projectRoot   string
	packageRunner string
	metricsPort   int
}

func newServeCommand(root *rootOptions, info *version.Info) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		Long: `Serve speaks the Model Context Protocol on stdin and stdout.

Logs go to stderr. Settings are read from the --config file, then
VITEST_MCP_* environment variables, then flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(root, opts, cmd.Flags(), os.Environ())
			if err != nil {
				return err
			}
			logutil.SetupLogger(cfg.Debug, cfg.StructuredLogs)

			srv, err := mcpserver.New(cfg, info.Version)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.MetricsPort != 0 {
				metrics := mcpserver.NewMetricsServer(cfg.MetricsPort)
				go func() {
					logutil.Info("serving metrics", "addr", metrics.Addr)
					if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logutil.Error("metrics server failed", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
					defer cancel()
					_ = metrics.Shutdown(shutdownCtx)
				}()
			}

			err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.projectRoot, "root", "", "Initial project root (overrides VITEST_MCP_PROJECT_ROOT)")
	flags.StringVar(&opts.packageRunner, "runner", "", "Force the package runner: npx, pnpm, yarn or bun")
	flags.IntVar(&opts.metricsPort, "metrics-port", 0, "Serve Prometheus metrics on 127.0.0.1:<port>")
	return cmd
}

// loadServeConfig layers flags explicitly set on the command line over the
// file and environment configuration.
func loadServeConfig(root *rootOptions, opts *serveOptions, flags *pflag.FlagSet, environ []string) (*config.Config, error) {
	cfg, err := config.Load(root.configPath, environ)
	if err != nil {
		return nil, err
	}

	if root.debug {
		cfg.Debug = true
	}
	if flags.Changed("log-format") {
		structured, err := parseLogFormat(root.logFormat)
		if err != nil {
			return nil, err
		}
		cfg.StructuredLogs = structured
	}
	if flags.Changed("root") {
		cfg.ProjectRoot = opts.projectRoot
	}
	if flags.Changed("runner") {
		cfg.PackageRunner = opts.packageRunner
	}
	if flags.Changed("metrics-port") {
		cfg.MetricsPort = opts.metricsPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
