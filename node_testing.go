package buildflow

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/buildflow/artifact"
)

// RunTestsNode runs the package's test suite inside the entry's environment.
//
// Prerequisites: state.EnvName, state.Installed, state.Job must be set
// Updates: state.Report, state.TestPassed, state.TestRanAt, state.Error
//
// Skipped tests are fine; failures and errors fail the entry. The node does
// not return an error on test failure - it records the failure in state and
// lets the graph route to publish (which will skip) and cleanup.
func RunTestsNode(ctx flowgraph.Context, state State) (State, error) {
	if err := state.Validate(RequireJob, RequireEnv, RequireInstalled); err != nil {
		return state, err
	}

	conda := MustCondaFromContext(ctx)

	output, runErr := conda.RunTests(state.EnvName, state.Job.Package, state.Job.Test)
	report := parseNoseOutput(output)
	report.Passed = runErr == nil && report.FailedTests == 0 && report.ErroredTests == 0

	state.Report = report
	state.TestPassed = report.Passed
	state.TestRanAt = time.Now()

	if store := StoreFromContext(ctx); store != nil {
		store.SaveTestReport(state.RunID, report)
	}

	if !report.Passed {
		state.SetError(&TestFailure{
			Package: state.Job.Package,
			Failed:  report.FailedTests,
			Errored: report.ErroredTests,
			Output:  output,
		})
	}

	return state, nil
}

var (
	ranTestsRe = regexp.MustCompile(`^Ran (\d+) tests? in ([\d.]+s)$`)
	okRe       = regexp.MustCompile(`^OK(?: \(SKIP=(\d+)\))?$`)
	failedRe   = regexp.MustCompile(`^FAILED \(([^)]+)\)$`)
	timingRe   = regexp.MustCompile(`^\[success\]\s+[\d.]+%\s+(\S+):\s+([\d.]+)s$`)
)

// parseNoseOutput extracts a structured report from nose runner output.
// Recognized lines:
//
//	Ran 129 tests in 54.321s
//	OK (SKIP=5)
//	FAILED (errors=2, failures=1, SKIP=3)
//	[success] 12.34% test.module.name: 0.1234s
func parseNoseOutput(output string) *artifact.TestReport {
	report := &artifact.TestReport{}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		if m := ranTestsRe.FindStringSubmatch(line); m != nil {
			report.TotalTests, _ = strconv.Atoi(m[1])
			report.Duration = m[2]
			continue
		}
		if m := okRe.FindStringSubmatch(line); m != nil {
			if m[1] != "" {
				report.SkippedTests, _ = strconv.Atoi(m[1])
			}
			continue
		}
		if m := failedRe.FindStringSubmatch(line); m != nil {
			parseFailureCounts(m[1], report)
			continue
		}
		if m := timingRe.FindStringSubmatch(line); m != nil {
			seconds, _ := strconv.ParseFloat(m[2], 64)
			report.Timings = append(report.Timings, artifact.TestTiming{
				Name:    m[1],
				Seconds: seconds,
			})
		}
	}

	report.PassedTests = report.TotalTests - report.FailedTests - report.ErroredTests - report.SkippedTests
	if report.PassedTests < 0 {
		report.PassedTests = 0
	}

	return report
}

// parseFailureCounts parses the parenthesized summary of a FAILED line,
// e.g. "errors=2, failures=1, SKIP=3".
func parseFailureCounts(summary string, report *artifact.TestReport) {
	for _, field := range strings.Split(summary, ",") {
		field = strings.TrimSpace(field)
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		switch key {
		case "failures":
			report.FailedTests = n
		case "errors":
			report.ErroredTests = n
		case "SKIP":
			report.SkippedTests = n
		}
	}
}
