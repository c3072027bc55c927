package collect

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dusk-indust/spectrace/internal/paths"
	"github.com/dusk-indust/spectrace/internal/trace"
)

// --- Kind A: vitest JSON reporter ---

type vitestReport struct {
	TestResults *[]vitestFile `json:"testResults"`
}

type vitestFile struct {
	Name             string            `json:"name"`
	AssertionResults []vitestAssertion `json:"assertionResults"`
}

type vitestAssertion struct {
	FullName string   `json:"fullName"`
	Title    string   `json:"title"`
	Status   string   `json:"status"`
	Duration *float64 `json:"duration"`
}

// --- Kind B: playwright JSON reporter ---

type playwrightReport struct {
	Suites *[]playwrightSuite `json:"suites"`
}

type playwrightSuite struct {
	Title  string            `json:"title"`
	File   string            `json:"file"`
	Specs  []playwrightSpec  `json:"specs"`
	Suites []playwrightSuite `json:"suites"`
}

type playwrightSpec struct {
	Title    string           `json:"title"`
	File     string           `json:"file"`
	OK       bool             `json:"ok"`
	Duration *float64         `json:"duration"`
	Tests    []playwrightTest `json:"tests"`
}

type playwrightTest struct {
	Results []struct {
		Duration *float64 `json:"duration"`
	} `json:"results"`
}

// parseReport reads the source's report and maps it to results. Every
// failure is a *trace.ReportParseError.
func parseReport(src trace.TestSource, baseDir string) ([]trace.TestResult, error) {
	reportPath := paths.Resolve(baseDir, src.ReportPath)
	fail := func(err error) error {
		return &trace.ReportParseError{SourceID: src.ID, Path: reportPath, Err: err}
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fail(err)
	}

	var results []trace.TestResult
	switch src.Type {
	case trace.FrameworkVitest:
		results, err = decodeVitest(data, baseDir)
	case trace.FrameworkPlaywright:
		results, err = decodePlaywright(data, baseDir)
	default:
		err = fmt.Errorf("unsupported framework %q", src.Type)
	}
	if err != nil {
		return nil, fail(err)
	}
	for i := range results {
		results[i].Source = src.ID
	}
	return results, nil
}

func decodeVitest(data []byte, baseDir string) ([]trace.TestResult, error) {
	var report vitestReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode vitest report: %w", err)
	}
	if report.TestResults == nil {
		return nil, errors.New("vitest report has no testResults")
	}

	var out []trace.TestResult
	for _, file := range *report.TestResults {
		filePath := paths.Resolve(baseDir, file.Name)
		for _, a := range file.AssertionResults {
			name := a.FullName
			if name == "" {
				name = a.Title
			}
			status, _ := trace.ParseStatus(a.Status)
			out = append(out, trace.TestResult{
				TestIdentifier: trace.TestIdentifier{FilePath: filePath, CaseName: name},
				Status:         status,
				Duration:       a.Duration,
			})
		}
	}
	return out, nil
}

func decodePlaywright(data []byte, baseDir string) ([]trace.TestResult, error) {
	var report playwrightReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode playwright report: %w", err)
	}
	if report.Suites == nil {
		return nil, errors.New("playwright report has no suites")
	}

	var out []trace.TestResult
	for _, suite := range *report.Suites {
		out = walkPlaywrightSuite(suite, "", baseDir, out)
	}
	return out, nil
}

// walkPlaywrightSuite visits specs depth-first. Nested suites (describe
// blocks) inherit their parent's file when they carry none.
func walkPlaywrightSuite(suite playwrightSuite, parentFile, baseDir string, out []trace.TestResult) []trace.TestResult {
	file := suite.File
	if file == "" {
		file = parentFile
	}
	for _, spec := range suite.Specs {
		specFile := spec.File
		if specFile == "" {
			specFile = file
		}
		status := trace.StatusFailed
		if spec.OK {
			status = trace.StatusPassed
		}
		out = append(out, trace.TestResult{
			TestIdentifier: trace.TestIdentifier{
				FilePath: paths.Resolve(baseDir, specFile),
				CaseName: spec.Title,
			},
			Status:   status,
			Duration: specDuration(spec),
		})
	}
	for _, child := range suite.Suites {
		out = walkPlaywrightSuite(child, file, baseDir, out)
	}
	return out
}

// specDuration prefers the entry's reported duration and falls back to the sum
// of its attempts.
func specDuration(spec playwrightSpec) *float64 {
	if spec.Duration != nil {
		return spec.Duration
	}
	var total float64
	var seen bool
	for _, t := range spec.Tests {
		for _, r := range t.Results {
			if r.Duration != nil {
				total += *r.Duration
				seen = true
			}
		}
	}
	if !seen {
		return nil
	}
	return &total
}
