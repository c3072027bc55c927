package trace

// --- Enums ---

// SourceType identifies the document format of a requirement source.
type SourceType string

const (
	SourceTypeMarkdown SourceType = "markdown"
)

// Framework identifies the test framework a test source belongs to. It
// decides how an execution report is decoded.
type Framework string

const (
	// FrameworkVitest reports carry per-file assertion results (kind A).
	FrameworkVitest Framework = "vitest"
	// FrameworkPlaywright reports carry suites of specs with an ok flag (kind B).
	FrameworkPlaywright Framework = "playwright"
)

// LinkScope controls which requirements in a document receive a link marker.
type LinkScope string

const (
	// LinkScopeFile gives every requirement in a document every marker found
	// anywhere in that document.
	LinkScopeFile LinkScope = "file"
	// LinkScopeSection attaches each marker to the nearest preceding
	// requirement heading.
	LinkScopeSection LinkScope = "section"
)

// ScannerKind selects the static extraction strategy for test files.
type ScannerKind string

const (
	ScannerRegex ScannerKind = "regex"
	ScannerAST   ScannerKind = "ast"
)

// Status is the execution outcome of a test case.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusPending Status = "pending"
)

// ParseStatus maps a framework status string onto a Status. Unrecognized
// values map to StatusPending and ok is false.
func ParseStatus(s string) (status Status, ok bool) {
	switch s {
	case "passed", "pass":
		return StatusPassed, true
	case "failed", "fail":
		return StatusFailed, true
	case "skipped", "skip", "disabled":
		return StatusSkipped, true
	case "pending", "todo":
		return StatusPending, true
	default:
		return StatusPending, false
	}
}

// --- Configuration models ---

// RequirementSource declares where requirements live and how to find them.
type RequirementSource struct {
	ID                string     `json:"id" yaml:"id" toml:"id" validate:"required"`
	Type              SourceType `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty" validate:"omitempty,oneof=markdown"`
	Path              string     `json:"path" yaml:"path" toml:"path" validate:"required"`
	IDPattern         string     `json:"idPattern,omitempty" yaml:"idPattern,omitempty" toml:"idPattern,omitempty"`
	LinkMarkerPattern string     `json:"linkMarkerPattern,omitempty" yaml:"linkMarkerPattern,omitempty" toml:"linkMarkerPattern,omitempty"`
	LinkScope         LinkScope  `json:"linkScope,omitempty" yaml:"linkScope,omitempty" toml:"linkScope,omitempty" validate:"omitempty,oneof=file section"`
}

// TestSource declares where test cases and their execution reports live.
type TestSource struct {
	ID         string      `json:"id" yaml:"id" toml:"id" validate:"required"`
	Type       Framework   `json:"type" yaml:"type" toml:"type" validate:"required,oneof=vitest playwright"`
	Path       string      `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	ReportPath string      `json:"reportPath,omitempty" yaml:"reportPath,omitempty" toml:"reportPath,omitempty"`
	Scanner    ScannerKind `json:"scanner,omitempty" yaml:"scanner,omitempty" toml:"scanner,omitempty" validate:"omitempty,oneof=regex ast"`
}

// --- Models ---

// TestIdentifier names a test case by file and full case name.
type TestIdentifier struct {
	FilePath string `json:"filePath"`
	CaseName string `json:"caseName"`
}

// Key returns the composite "filePath#caseName" key. Matching on keys is
// exact and case-sensitive.
func (t TestIdentifier) Key() string {
	return t.FilePath + "#" + t.CaseName
}

// Requirement is a traceable item extracted from a document heading.
type Requirement struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	FilePath    string           `json:"filePath"`
	Source      string           `json:"source,omitempty"`
	LinkedTests []TestIdentifier `json:"linkedTests"`
}

// Key identifies a requirement across sources: ids are only unique within
// one source pass, so the document path is part of the key.
func (r Requirement) Key() string {
	return r.FilePath + "#" + r.ID
}

// TestResult is a test case with its execution outcome.
type TestResult struct {
	TestIdentifier
	Status Status `json:"status"`
	// Duration is in milliseconds; nil when the source did not report one.
	Duration *float64 `json:"duration,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// RequirementCoverage is a requirement annotated with its matched results.
type RequirementCoverage struct {
	Requirement
	Covered     bool         `json:"covered"`
	TestResults []TestResult `json:"testResults"`
}

// CoverageSummary aggregates coverage over all requirements.
type CoverageSummary struct {
	TotalRequirements   int     `json:"totalRequirements"`
	CoveredRequirements int     `json:"coveredRequirements"`
	CoveragePercentage  float64 `json:"coveragePercentage"`
}

// Uncovered returns the number of requirements without coverage.
func (s CoverageSummary) Uncovered() int {
	return s.TotalRequirements - s.CoveredRequirements
}

// CoverageResult is the artifact handed to reporting.
type CoverageResult struct {
	Requirements []RequirementCoverage `json:"requirements"`
	Summary      CoverageSummary       `json:"summary"`
}

// UncoveredRequirements returns the requirements that are not covered, in
// result order.
func (r *CoverageResult) UncoveredRequirements() []RequirementCoverage {
	var out []RequirementCoverage
	for _, req := range r.Requirements {
		if !req.Covered {
			out = append(out, req)
		}
	}
	return out
}
