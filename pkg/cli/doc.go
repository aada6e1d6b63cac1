// Package cli provides the command-line interface for httpsim.
//
// Commands:
//   - build: Resolve a request description into the request a handler would see
//   - run: Run scenario files against the built-in echo handler and report results
//   - version: Show httpsim version
//
// Global flags:
//   - --json: Output command results in JSON format
//   - --log-level: debug, info, warn or error (default warn)
//   - --log-format: text or json (default text)
//
// Logs go to stderr; command results go to stdout.
package cli
