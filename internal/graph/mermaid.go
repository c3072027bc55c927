package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// GenerateMermaid produces a Mermaid graph LR diagram from a store.
// Requirements point at the test cases that verify them; covered and
// uncovered requirements and missing tests get their own classes.
func GenerateMermaid(ctx context.Context, store Store) (string, error) {
	reqs, err := store.Requirements(ctx)
	if err != nil {
		return "", fmt.Errorf("get requirements: %w", err)
	}
	links, err := store.Links(ctx)
	if err != nil {
		return "", fmt.Errorf("get links: %w", err)
	}

	// Mermaid node ids must be alphanumeric.
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(prefix, key string) string {
		if id, ok := nodeIDs[prefix+key]; ok {
			return id
		}
		id := fmt.Sprintf("%s%d", prefix, nextID)
		nextID++
		nodeIDs[prefix+key] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("  classDef covered fill:#d4f7d4,stroke:#2e7d32\n")
	sb.WriteString("  classDef uncovered fill:#fde0e0,stroke:#c62828\n")
	sb.WriteString("  classDef missing stroke-dasharray: 4 4\n")

	for _, r := range reqs {
		class := "uncovered"
		if r.Covered {
			class = "covered"
		}
		sb.WriteString(fmt.Sprintf("  %s[\"%s: %s\"]:::%s\n", getID("R", r.Key), label(r.ID), label(r.Title), class))
	}

	// Test nodes first, then edges, both in link order.
	var edges strings.Builder
	emitted := make(map[string]bool)
	for _, l := range links {
		testID := getID("T", l.TestKey)
		if !emitted[l.TestKey] {
			emitted[l.TestKey] = true
			tests, err := store.TestsFor(ctx, l.RequirementKey)
			if err != nil {
				return "", fmt.Errorf("get tests for %s: %w", l.RequirementKey, err)
			}
			for _, t := range tests {
				if t.Key != l.TestKey {
					continue
				}
				suffix := ""
				if t.Status == StatusMissing {
					suffix = ":::missing"
				}
				sb.WriteString(fmt.Sprintf("  %s([\"%s<br/>%s\"])%s\n", testID, label(filepath.Base(t.FilePath)), label(t.CaseName), suffix))
			}
		}
		edges.WriteString(fmt.Sprintf("  %s --> %s\n", getID("R", l.RequirementKey), testID))
	}
	sb.WriteString(edges.String())

	return sb.String(), nil
}

// label makes text safe inside a quoted Mermaid label.
func label(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
