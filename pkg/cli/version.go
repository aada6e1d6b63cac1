package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// VersionOutput is the JSON form of the version command.
type VersionOutput struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	Go        string `json:"go"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show httpsim version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := VersionOutput{
			Version:   Version,
			Commit:    Commit,
			BuildDate: BuildDate,
			Go:        runtime.Version(),
		}
		w := cmd.OutOrStdout()
		return printResult(w, out, func() error {
			_, err := fmt.Fprintf(w, "httpsim %s (commit %s, built %s, %s)\n", out.Version, out.Commit, out.BuildDate, out.Go)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
