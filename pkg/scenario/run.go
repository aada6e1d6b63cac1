package scenario

import (
	"context"
	"time"

	"github.com/getmockd/httpsim/pkg/response"
	"github.com/getmockd/httpsim/pkg/simulator"
)

// DefaultTimeout bounds each case when Run is given a zero timeout.
const DefaultTimeout = 5 * time.Second

// Report is the outcome of running one suite.
type Report struct {
	Suite  string       `json:"suite"`
	File   string       `json:"file,omitempty"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// CaseResult is the outcome of one case. Error is empty when the case passed.
type CaseResult struct {
	Name       string           `json:"name"`
	Passed     bool             `json:"passed"`
	StatusCode int              `json:"statusCode,omitempty"`
	Duration   time.Duration    `json:"duration"`
	Error      string           `json:"error,omitempty"`
	Result     *response.Result `json:"result,omitempty"`
}

// Run executes every case of suite in order, each bounded by timeout. A case
// fails when its request cannot be built, the handler errors or does not
// respond in time, or an expectation does not hold.
func Run(ctx context.Context, sim *simulator.Simulator, suite *Suite, timeout time.Duration) Report {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	report := Report{Suite: suite.Name, File: suite.File}
	for i := range suite.Cases {
		cr := runCase(ctx, sim, &suite.Cases[i], timeout)
		if cr.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Cases = append(report.Cases, cr)
	}
	return report
}

func runCase(ctx context.Context, sim *simulator.Simulator, c *Case, timeout time.Duration) CaseResult {
	cr := CaseResult{Name: c.Name}
	start := time.Now()

	spec, err := c.Spec()
	if err != nil {
		cr.Error = err.Error()
		cr.Duration = time.Since(start)
		return cr
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := sim.Exchange(ctx, spec)
	cr.Duration = time.Since(start)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	cr.Result = res
	cr.StatusCode = res.StatusCode

	if err := c.Expect.Check(res); err != nil {
		cr.Error = err.Error()
		return cr
	}
	cr.Passed = true
	return cr
}
