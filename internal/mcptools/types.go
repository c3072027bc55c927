package mcptools

import (
	"github.com/dusk-indust/spectrace/internal/graph"
	"github.com/dusk-indust/spectrace/internal/trace"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// MeasureCoverageInput is the input for the measure_coverage MCP tool.
type MeasureCoverageInput struct {
	ConfigPath string `json:"configPath,omitempty" jsonschema:"path to spectrace.yaml (default: the server's configuration)"`
	Policy     string `json:"policy,omitempty" jsonschema:"coverage policy override: presence or passed"`
}

// MeasureCoverageOutput is the result of the measure_coverage MCP tool.
type MeasureCoverageOutput struct {
	ConfigPath            string                `json:"configPath"`
	Summary               trace.CoverageSummary `json:"summary"`
	UncoveredRequirements int                   `json:"uncoveredRequirements"`
	Text                  string                `json:"text"`
}

// ListUncoveredInput is the input for the list_uncovered MCP tool.
type ListUncoveredInput struct{}

// ListUncoveredOutput is the result of the list_uncovered MCP tool.
type ListUncoveredOutput struct {
	Requirements []graph.RequirementNode `json:"requirements"`
	Total        int                     `json:"total"`
}

// TraceRequirementInput is the input for the trace_requirement MCP tool.
type TraceRequirementInput struct {
	ID string `json:"id" jsonschema:"requirement id, e.g. US-001"`
}

// TraceRequirementOutput is the result of the trace_requirement MCP tool.
// An id declared in several documents yields one entry per document.
type TraceRequirementOutput struct {
	Requirements []TracedRequirement `json:"requirements"`
}

// TracedRequirement is a requirement with the test cases it links to.
type TracedRequirement struct {
	Requirement graph.RequirementNode `json:"requirement"`
	Tests       []graph.TestCaseNode  `json:"tests"`
}
