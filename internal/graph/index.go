package graph

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dusk-indust/spectrace/internal/trace"
)

// Index loads a coverage result into store: one node per requirement, one
// per linked test case, and a VERIFIED_BY edge per link. Linked tests that
// no source reported become test case nodes with status "missing".
//
// A requirement id repeated within one document gets one node per
// declaration: the second and later copies carry an ordinal suffix
// ("docs/a.md#US-001#2").
func Index(ctx context.Context, store Store, res *trace.CoverageResult) error {
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	added := make(map[string]bool)
	declared := make(map[string]int)
	for _, rc := range res.Requirements {
		if err := ctx.Err(); err != nil {
			return err
		}

		reqKey := rc.Key()
		declared[reqKey]++
		if n := declared[reqKey]; n > 1 {
			reqKey += "#" + strconv.Itoa(n)
		}
		if err := store.AddRequirement(ctx, RequirementNode{
			Key:      reqKey,
			ID:       rc.ID,
			Title:    rc.Title,
			FilePath: rc.FilePath,
			Source:   rc.Source,
			Covered:  rc.Covered,
		}); err != nil {
			return fmt.Errorf("add requirement %s: %w", reqKey, err)
		}

		hits := make(map[string]trace.TestResult, len(rc.TestResults))
		for _, tr := range rc.TestResults {
			hits[tr.Key()] = tr
		}

		for _, link := range rc.LinkedTests {
			testKey := link.Key()
			if !added[testKey] {
				node := TestCaseNode{
					Key:        testKey,
					FilePath:   link.FilePath,
					CaseName:   link.CaseName,
					Status:     StatusMissing,
					DurationMS: -1,
				}
				if tr, ok := hits[testKey]; ok {
					node.Status = string(tr.Status)
					node.Source = tr.Source
					if tr.Duration != nil {
						node.DurationMS = *tr.Duration
					}
				}
				if err := store.AddTestCase(ctx, node); err != nil {
					return fmt.Errorf("add test case %s: %w", testKey, err)
				}
				added[testKey] = true
			}
			if err := store.AddLink(ctx, reqKey, testKey); err != nil {
				return fmt.Errorf("link %s -> %s: %w", reqKey, testKey, err)
			}
		}
	}
	return nil
}
