package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/httpsim/pkg/scenario"
)

// execute runs the root command with args and fresh flag state. Commands
// share package-level flags, so these tests do not run in parallel.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	jsonOutput = false
	logLevel = "warn"
	logFormat = "text"
	runTimeout = scenario.DefaultTimeout

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBuild_Stdin(t *testing.T) {
	stdout, _, err := execute(t, `{"method":"put","path":"http://localhost/{a}","pathParams":{"a":"x y"},"headers":[["A","1"]],"body":"data"}`, "build")
	require.NoError(t, err)
	assert.Equal(t, "PUT http://localhost/x%20y HTTP/1.0\nA: 1\n\ndata\n", stdout)
}

func TestBuild_JSON(t *testing.T) {
	path := writeFile(t, "req.yaml", "httpVersion: [1, 1]\nheaders:\n  Set-Cookie: [a=1, b=2]\n")

	stdout, _, err := execute(t, "", "build", "--json", path)
	require.NoError(t, err)

	var out BuildOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "GET", out.Method)
	assert.Equal(t, "1.1", out.HTTPVersion)
	assert.Equal(t, []any{"a=1", "b=2"}, out.Headers["set-cookie"])
	assert.Len(t, out.RawHeaders, 2)
	assert.Nil(t, out.Body)
}

func TestRun_ReportsFailures(t *testing.T) {
	path := writeFile(t, "suite.yaml", `
name: mixed
cases:
  - name: good
    expect: {status: 200}
  - name: bad
    expect: {status: 500, bodyContains: nope}
`)

	stdout, _, err := execute(t, "", "run", path)
	require.ErrorIs(t, err, ErrCasesFailed)
	assert.Contains(t, stdout, "FAIL: mixed / bad")
	assert.Contains(t, stdout, "status: got 200, want 500")
	assert.Contains(t, stdout, "1 passed, 1 failed")

	stdout, _, err = execute(t, "", "run", "--json", "--timeout", "1s", path)
	require.ErrorIs(t, err, ErrCasesFailed)
	var out RunOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 1, out.Passed)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Reports, 1)
	assert.Equal(t, "mixed", out.Reports[0].Suite)
	assert.Equal(t, time.Second, runTimeout)
}

func TestRun_DebugLogs(t *testing.T) {
	path := writeFile(t, "suite.yaml", "cases:\n  - expect: {status: 200}\n")

	_, stderr, err := execute(t, "", "--log-level", "debug", "--log-format", "json", "run", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"running scenario"`)
	assert.Contains(t, stderr, `"msg":"exchange completed"`)
	assert.Contains(t, stderr, `"exchange":`)
}

func TestRootFlags_Invalid(t *testing.T) {
	_, _, err := execute(t, "", "--log-format", "xml", "version")
	require.ErrorIs(t, err, ErrUsage)
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "", "version", "--json")
	require.NoError(t, err)

	var out VersionOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, Version, out.Version)
	assert.NotEmpty(t, out.Go)
}

func TestPrintRunText(t *testing.T) {
	var buf bytes.Buffer
	err := printRunText(&buf, RunOutput{
		Passed: 1,
		Failed: 1,
		Reports: []scenario.Report{{
			Suite: "s",
			Cases: []scenario.CaseResult{
				{Name: "ok", Passed: true, StatusCode: 200},
				{Name: "broken", Error: "first\nsecond"},
			},
		}},
	})
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "SUITE  CASE    RESULT  STATUS  DURATION")
	assert.Contains(t, text, "s      broken  FAIL    -")
	assert.Contains(t, text, "    first\n    second\n")
	assert.True(t, strings.HasSuffix(text, "1 passed, 1 failed\n"))
}
