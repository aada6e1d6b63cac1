package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/httpsim/pkg/request"
)

// ErrNoFiles is returned by LoadFiles when no pattern matches a file.
var ErrNoFiles = errors.New("no scenario files matched")

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} references with values
// from the environment. Unset variables without a default become empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

// Parse decodes a suite from YAML or JSON and applies its defaults to
// every case.
func Parse(data []byte) (*Suite, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalid)
	}

	var suite Suite
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(data))), &suite); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if len(suite.Cases) == 0 {
		return nil, fmt.Errorf("%w: no cases", ErrInvalid)
	}

	for i := range suite.Cases {
		c := &suite.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("case %d", i+1)
		}
		c.Request.applyDefaults(suite.Defaults)
	}
	return &suite, nil
}

// ParseRequest decodes a single request from YAML or JSON.
func ParseRequest(data []byte) (request.Spec, error) {
	var r Request
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(data))), &r); err != nil {
		return request.Spec{}, fmt.Errorf("parsing YAML: %w", err)
	}
	return r.Spec()
}

// Load reads one scenario file.
func Load(path string) (*Suite, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied: %s", path)
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	suite, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	suite.File = path
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return suite, nil
}

// LoadFiles loads every file named by patterns. A pattern without glob
// metacharacters names one file, which must exist; glob patterns (including
// **) may match nothing. Files from one pattern load in sorted order and a
// file matched twice loads once.
func LoadFiles(patterns ...string) ([]*Suite, error) {
	var suites []*Suite
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches := []string{pattern}
		if hasMeta(pattern) {
			var err error
			matches, err = doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding glob pattern %s: %w", pattern, err)
			}
			sort.Strings(matches)
		}

		for _, match := range matches {
			clean := filepath.Clean(match)
			if seen[clean] {
				continue
			}
			seen[clean] = true

			suite, err := Load(match)
			if err != nil {
				return nil, err
			}
			suites = append(suites, suite)
		}
	}

	if len(suites) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, strings.Join(patterns, " "))
	}
	return suites, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
