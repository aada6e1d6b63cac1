package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/httpsim/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool
	logLevel   string
	logFormat  string

	// logger is configured from the log flags before any command runs.
	logger = logging.Nop()

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "httpsim",
	Short: "httpsim runs HTTP handlers against simulated requests",
	Long: `httpsim drives an HTTP handler through in-memory request/response exchanges,
without opening a socket, and checks the captured responses.

Requests and scenarios are described in YAML or JSON files.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("%w: --log-level: %v", ErrUsage, err)
		}
		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return fmt.Errorf("%w: --log-format: %v", ErrUsage, err)
		}
		logger = logging.New(logging.Config{
			Level:  level,
			Format: format,
			Output: cmd.ErrOrStderr(),
		})
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return rootCmd.Execute()
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")
}
