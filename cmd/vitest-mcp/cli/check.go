package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fitzpa/vitest-mcp/cliout"
	"github.com/Fitzpa/vitest-mcp/security"
)

// errRejected is returned after a rejected check has been printed, so the
// process exits non-zero without printing the error twice.
var errRejected = errors.New("input rejected")

// checkResult is the outcome of one check subcommand.
type checkResult struct {
	Check   string `json:"check"`
	Input   string `json:"input"`
	Valid   bool   `json:"valid"`
	Result  string `json:"result,omitempty"`
	Changed bool   `json:"changed,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Param   string `json:"param,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Message string `json:"message,omitempty"`
}

func newResult(check, input, result string, err error) checkResult {
	r := checkResult{Check: check, Input: input, Valid: err == nil, Result: result}
	if err == nil {
		return r
	}
	r.Result = ""
	r.Message = err.Error()
	var secErr *security.Error
	if errors.As(err, &secErr) {
		r.Rule = secErr.Kind.String()
		r.Param = secErr.Param
		r.Limit = secErr.Limit
	}
	return r
}

// render prints r and turns a rejection into errRejected.
func render(r checkResult, formatter func()) error {
	if err := cliout.Print(r, func() {
		if !r.Valid {
			cliout.Error("%s", r.Message)
			cliout.Label("Rule", cliout.Status(r.Rule))
			if r.Param != "" {
				cliout.Label("Parameter", r.Param)
			}
			if r.Limit > 0 {
				cliout.Label("Limit", fmt.Sprint(r.Limit))
			}
			return
		}
		formatter()
	}); err != nil {
		return err
	}
	if !r.Valid {
		return errRejected
	}
	return nil
}

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run an input validator from the shell",
		Long: `Check runs the same validators the MCP tools apply to client input.

A rejected input prints the violated rule and exits with status 1.`,
	}
	cmd.AddCommand(
		newCheckPathCommand(),
		newCheckResolveCommand(),
		newCheckArgCommand(),
		newCheckGlobCommand(),
		newCheckSanitizeCommand(),
		newCheckTempfileCommand(),
	)
	return cmd
}

func newCheckPathCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "path <path>",
		Short: "Validate a path, optionally as a test or config file",
		Example: `  vitest-mcp check path src/utils/math.test.ts --kind test
  vitest-mcp check path ../../etc/passwd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var validateKind func(string) error
			switch kind {
			case "":
			case "test":
				validateKind = security.ValidateTestFilePath
			case "config":
				validateKind = security.ValidateConfigFilePath
			default:
				return fmt.Errorf("invalid kind: %s (valid options: test, config)", kind)
			}

			err := security.ValidatePathSecurity(path)
			if err == nil && validateKind != nil {
				err = validateKind(path)
			}
			return render(newResult("path", path, "", err), func() {
				cliout.Success("Path is valid: %s", path)
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Also require a test or config file extension: test or config")
	return cmd
}

func newCheckResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "resolve <root> <candidate>",
		Short:   "Resolve a candidate path inside a root directory",
		Example: `  vitest-mcp check resolve /work/app src/math.test.ts`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := security.SecurePathResolve(args[0], args[1])
			return render(newResult("resolve", args[1], resolved, err), func() {
				cliout.Success("Resolved inside %s", args[0])
				cliout.Label("Path", resolved)
			})
		},
	}
}

func newCheckArgCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "arg <value>",
		Short:   "Validate a value destined for the vitest command line",
		Example: `  vitest-mcp check arg --name project "web; rm -rf /"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := security.ValidateCommandArgument(args[0], name)
			return render(newResult("arg", args[0], "", err), func() {
				cliout.Success("%s is safe: %s", name, args[0])
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "argument", "Parameter name used in messages")
	return cmd
}

func newCheckGlobCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "glob [pattern...]",
		Short:   "Validate coverage exclude patterns",
		Example: `  vitest-mcp check glob "**/*.stories.ts" "src/generated/**"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := security.ValidateGlobPatterns(args)
			return render(newResult("glob", strings.Join(args, " "), "", err), func() {
				cliout.Success("%d pattern(s) valid", len(args))
				for _, p := range args {
					cliout.Bullet("%s", p)
				}
			})
		},
	}
}

func newCheckSanitizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize <text|->",
		Short: "Neutralize script and event-handler markup in text",
		Long: `Sanitize prints text with the same neutralization applied to file content
returned by read_test_file. Pass - to read from stdin.`,
		Example: `  cat src/math.test.ts | vitest-mcp check sanitize -`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if input == "-" {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), security.MaxContentLength+1))
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				input = string(data)
			}
			sanitized := security.SanitizeFileContent(input)
			r := newResult("sanitize", input, sanitized, nil)
			r.Changed = sanitized != input
			return render(r, func() {
				cliout.Plain("%s", sanitized)
			})
		},
	}
}

func newCheckTempfileCommand() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:     "tempfile <root>",
		Short:   "Generate an unpredictable temp file path under root",
		Example: `  vitest-mcp check tempfile /work/app --prefix vitest-report`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := security.CreateSecureTempPath(args[0], prefix)
			return render(newResult("tempfile", args[0], path, err), func() {
				cliout.Success("Temp path generated")
				cliout.Label("Path", path)
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "vitest", "File name prefix; characters outside [A-Za-z0-9_-] are removed")
	return cmd
}
