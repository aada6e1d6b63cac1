package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/httpsim/pkg/cli/internal/output"
	"github.com/getmockd/httpsim/pkg/echo"
	"github.com/getmockd/httpsim/pkg/scenario"
	"github.com/getmockd/httpsim/pkg/simulator"
)

var runTimeout time.Duration

// RunOutput is the JSON form of a run.
type RunOutput struct {
	Passed  int               `json:"passed"`
	Failed  int               `json:"failed"`
	Reports []scenario.Report `json:"reports"`
}

var runCmd = &cobra.Command{
	Use:   "run <file|glob>...",
	Short: "Run scenario files against the echo handler",
	Long: `Run scenario files against the built-in echo handler.

The echo handler answers every request with a JSON description of it
(method, url, httpVersion, headers, rawHeaders, body). Its status is 200
unless the request sets X-Echo-Status.

Patterns may use ** to match directories recursively. The command exits with
status 1 when any case fails.

Examples:
  # Run one file
  httpsim run scenarios/users.yaml

  # Run every scenario below a directory, reporting JSON
  httpsim run 'scenarios/**/*.yaml' --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		suites, err := scenario.LoadFiles(args...)
		if err != nil {
			return err
		}

		sim := simulator.New(echo.Handler{}, simulator.WithLogger(logger))
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var out RunOutput
		for _, suite := range suites {
			logger.Info("running scenario", "suite", suite.Name, "file", suite.File, "cases", len(suite.Cases))
			report := scenario.Run(ctx, sim, suite, runTimeout)
			out.Passed += report.Passed
			out.Failed += report.Failed
			out.Reports = append(out.Reports, report)
		}

		w := cmd.OutOrStdout()
		if err := printResult(w, out, func() error { return printRunText(w, out) }); err != nil {
			return err
		}

		if out.Failed > 0 {
			return fmt.Errorf("%w: %d of %d", ErrCasesFailed, out.Failed, out.Passed+out.Failed)
		}
		return nil
	},
}

func printRunText(w io.Writer, out RunOutput) error {
	tw := output.Table(w)
	fmt.Fprintln(tw, "SUITE\tCASE\tRESULT\tSTATUS\tDURATION")
	for _, r := range out.Reports {
		for _, c := range r.Cases {
			result := "PASS"
			if !c.Passed {
				result = "FAIL"
			}
			status := "-"
			if c.StatusCode != 0 {
				status = fmt.Sprint(c.StatusCode)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Suite, c.Name, result, status, c.Duration.Round(time.Microsecond))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, r := range out.Reports {
		for _, c := range r.Cases {
			if c.Passed {
				continue
			}
			fmt.Fprintf(w, "\n--- FAIL: %s / %s\n", r.Suite, c.Name)
			for _, line := range strings.Split(c.Error, "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}

	fmt.Fprintf(w, "\n%d passed, %d failed\n", out.Passed, out.Failed)
	return nil
}

func init() {
	runCmd.Flags().DurationVar(&runTimeout, "timeout", scenario.DefaultTimeout, "Time to wait for each response")
	rootCmd.AddCommand(runCmd)
}
