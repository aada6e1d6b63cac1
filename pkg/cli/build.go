package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/httpsim/pkg/cli/internal/output"
	"github.com/getmockd/httpsim/pkg/header"
	"github.com/getmockd/httpsim/pkg/request"
	"github.com/getmockd/httpsim/pkg/scenario"
)

// BuildOutput is the JSON form of a resolved request.
type BuildOutput struct {
	Method      string         `json:"method"`
	URL         string         `json:"url"`
	HTTPVersion string         `json:"httpVersion"`
	Headers     map[string]any `json:"headers"`
	RawHeaders  []header.Pair  `json:"rawHeaders"`
	Body        *string        `json:"body,omitempty"`
}

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Resolve a request description into the request a handler receives",
	Long: `Resolve a request description into the request a handler receives.

The file holds one request in YAML or JSON with the fields httpVersion,
method, path, pathParams, queryParams, headers and body. With no file, or
with "-", the description is read from stdin.

Examples:
  # Show the request line, headers and body
  httpsim build request.yaml

  # Show merged headers as JSON
  echo '{"method":"post","path":"http://localhost/{id}","pathParams":{"id":1}}' | httpsim build --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		spec, err := scenario.ParseRequest(data)
		if err != nil {
			return err
		}
		req, err := request.Build(spec)
		if err != nil {
			return err
		}
		if spec.Body != nil && !req.HasBody() {
			output.Warn(cmd.ErrOrStderr(), "body ignored for %s requests", req.Method)
		}
		logger.Debug("request built", "method", req.Method, "url", req.URL, "headers", req.Header.Len())

		out := BuildOutput{
			Method:      req.Method,
			URL:         req.URL,
			HTTPVersion: req.Version.String(),
			Headers:     req.Header.Map(),
			RawHeaders:  req.Header.Raw(),
		}
		if out.RawHeaders == nil {
			out.RawHeaders = []header.Pair{}
		}
		if req.HasBody() {
			body := string(req.Body())
			out.Body = &body
		}

		w := cmd.OutOrStdout()
		return printResult(w, out, func() error {
			fmt.Fprintf(w, "%s %s %s\n", out.Method, out.URL, req.Version.Proto())
			for _, p := range out.RawHeaders {
				fmt.Fprintf(w, "%s: %s\n", p.Name, p.Value)
			}
			if out.Body != nil {
				fmt.Fprintf(w, "\n%s\n", *out.Body)
			}
			return nil
		})
	},
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", args[0])
		}
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
