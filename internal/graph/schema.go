package graph

// --- Enums ---

// NodeKind classifies nodes in the traceability graph.
type NodeKind string

const (
	NodeKindRequirement NodeKind = "requirement"
	NodeKindTestCase    NodeKind = "testcase"
)

// EdgeKindVerifiedBy is the only relationship: a requirement is verified by
// a test case.
const EdgeKindVerifiedBy = "VERIFIED_BY"

// StatusMissing marks a linked test case that no source reported.
const StatusMissing = "missing"

// --- Models ---

// RequirementNode is a requirement in the graph. Key is "filePath#id";
// ids alone are only unique within one document.
type RequirementNode struct {
	Key      string `json:"key"`
	ID       string `json:"id"`
	Title    string `json:"title"`
	FilePath string `json:"filePath"`
	Source   string `json:"source,omitempty"`
	Covered  bool   `json:"covered"`
}

// TestCaseNode is a test case in the graph. Key is "filePath#caseName".
type TestCaseNode struct {
	Key      string `json:"key"`
	FilePath string `json:"filePath"`
	CaseName string `json:"caseName"`
	Status   string `json:"status"`
	// DurationMS is -1 when unknown.
	DurationMS float64 `json:"durationMs"`
	Source     string  `json:"source,omitempty"`
}

// Link is a VERIFIED_BY edge.
type Link struct {
	RequirementKey string `json:"requirementKey"`
	TestKey        string `json:"testKey"`
}

// GraphStats summarizes a traceability graph.
type GraphStats struct {
	RequirementCount int `json:"requirementCount"`
	CoveredCount     int `json:"coveredCount"`
	TestCaseCount    int `json:"testCaseCount"`
	MissingCount     int `json:"missingCount"`
	LinkCount        int `json:"linkCount"`
}
