// Package coverage joins requirements with test results and summarizes how
// many requirements are backed by tests. It performs no I/O.
package coverage

import (
	"github.com/dusk-indust/spectrace/internal/trace"
)

// Policy decides whether a matched test result counts as coverage.
type Policy string

const (
	// PolicyPresence covers a requirement when any linked test is known,
	// whatever its status.
	PolicyPresence Policy = "presence"
	// PolicyPassed covers a requirement only when a linked test passed.
	PolicyPassed Policy = "passed"
)

// Covers reports whether r satisfies the policy.
func (p Policy) Covers(r trace.TestResult) bool {
	if p == PolicyPassed {
		return r.Status == trace.StatusPassed
	}
	return true
}

type options struct {
	policy Policy
}

// Option configures Calculate.
type Option func(*options)

// WithPolicy selects the coverage policy. Empty selects PolicyPresence.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		if p != "" {
			o.policy = p
		}
	}
}

// Calculate annotates every requirement with the results its links resolve
// to and reduces them to a summary. Requirement order is preserved. When
// results repeat a key the last one wins.
func Calculate(requirements []trace.Requirement, results []trace.TestResult, opts ...Option) trace.CoverageResult {
	o := options{policy: PolicyPresence}
	for _, opt := range opts {
		opt(&o)
	}

	byKey := make(map[string]trace.TestResult, len(results))
	for _, r := range results {
		byKey[r.Key()] = r
	}

	out := trace.CoverageResult{
		Requirements: make([]trace.RequirementCoverage, 0, len(requirements)),
	}
	for _, req := range requirements {
		rc := trace.RequirementCoverage{
			Requirement: req,
			TestResults: []trace.TestResult{},
		}
		for _, link := range req.LinkedTests {
			hit, ok := byKey[link.Key()]
			if !ok {
				continue
			}
			rc.TestResults = append(rc.TestResults, hit)
			if o.policy.Covers(hit) {
				rc.Covered = true
			}
		}
		out.Requirements = append(out.Requirements, rc)
	}
	out.Summary = Summarize(out.Requirements)
	return out
}

// Summarize counts covered requirements. The percentage is 0 when there
// are no requirements.
func Summarize(reqs []trace.RequirementCoverage) trace.CoverageSummary {
	s := trace.CoverageSummary{TotalRequirements: len(reqs)}
	for _, r := range reqs {
		if r.Covered {
			s.CoveredRequirements++
		}
	}
	if s.TotalRequirements > 0 {
		s.CoveragePercentage = float64(s.CoveredRequirements) / float64(s.TotalRequirements) * 100
	}
	return s
}

// DuplicateKeys returns the keys that occur more than once in results, in
// order of their first repeat.
func DuplicateKeys(results []trace.TestResult) []string {
	seen := make(map[string]int, len(results))
	var dups []string
	for _, r := range results {
		k := r.Key()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}

// DuplicateRequirementKeys returns the requirement keys declared more than
// once, in order of their first repeat. This happens when one document
// repeats an id.
func DuplicateRequirementKeys(reqs []trace.Requirement) []string {
	seen := make(map[string]int, len(reqs))
	var dups []string
	for _, r := range reqs {
		k := r.Key()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}
