package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dusk-indust/spectrace/internal/trace"
)

// Document is the machine-readable report.
type Document struct {
	Summary      DocumentSummary       `json:"summary"`
	Requirements []DocumentRequirement `json:"requirements"`
}

// DocumentSummary carries the totals plus run metadata.
type DocumentSummary struct {
	RunID                 string  `json:"runId"`
	ConfigPath            *string `json:"configPath"`
	TotalRequirements     int     `json:"totalRequirements"`
	CoveredRequirements   int     `json:"coveredRequirements"`
	UncoveredRequirements int     `json:"uncoveredRequirements"`
	CoveragePercentage    float64 `json:"coveragePercentage"`
	GeneratedAt           string  `json:"generatedAt"`
}

// DocumentRequirement is one requirement with its links and hits.
type DocumentRequirement struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	FilePath    string                 `json:"filePath"`
	Source      string                 `json:"source,omitempty"`
	Covered     bool                   `json:"covered"`
	LinkedTests []trace.TestIdentifier `json:"linkedTests"`
	TestResults []DocumentResult       `json:"testResults"`
}

// DocumentResult is a matched test result.
type DocumentResult struct {
	FilePath string       `json:"filePath"`
	CaseName string       `json:"caseName"`
	Status   trace.Status `json:"status"`
	Duration *float64     `json:"duration,omitempty"`
}

// NewDocument builds the JSON document for res.
func NewDocument(res *trace.CoverageResult, meta Meta) Document {
	s := res.Summary
	doc := Document{
		Summary: DocumentSummary{
			RunID:                 meta.RunID,
			TotalRequirements:     s.TotalRequirements,
			CoveredRequirements:   s.CoveredRequirements,
			UncoveredRequirements: s.Uncovered(),
			CoveragePercentage:    s.CoveragePercentage,
			GeneratedAt:           meta.GeneratedAt.UTC().Format(time.RFC3339),
		},
		Requirements: make([]DocumentRequirement, 0, len(res.Requirements)),
	}
	if meta.ConfigPath != "" {
		p := meta.ConfigPath
		doc.Summary.ConfigPath = &p
	}

	for _, r := range res.Requirements {
		dr := DocumentRequirement{
			ID:          r.ID,
			Title:       r.Title,
			FilePath:    r.FilePath,
			Source:      r.Source,
			Covered:     r.Covered,
			LinkedTests: r.LinkedTests,
			TestResults: make([]DocumentResult, 0, len(r.TestResults)),
		}
		if dr.LinkedTests == nil {
			dr.LinkedTests = []trace.TestIdentifier{}
		}
		for _, tr := range r.TestResults {
			dr.TestResults = append(dr.TestResults, DocumentResult{
				FilePath: tr.FilePath,
				CaseName: tr.CaseName,
				Status:   tr.Status,
				Duration: tr.Duration,
			})
		}
		doc.Requirements = append(doc.Requirements, dr)
	}
	return doc
}

// JSON writes the indented JSON document.
func JSON(w io.Writer, res *trace.CoverageResult, meta Meta) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(res, meta))
}
