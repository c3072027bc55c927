// Package graph stores requirements, test cases and the links between them
// as a queryable traceability graph.
package graph

import (
	"context"
	"io"
)

// Store is the interface for the traceability graph backend.
// Implementations: KuzuStore (cgo builds), MemStore (tests and pure-Go builds).
// Listing methods return nodes ordered by key.
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations. Adding a node whose key exists replaces it.
	AddRequirement(ctx context.Context, node RequirementNode) error
	AddTestCase(ctx context.Context, node TestCaseNode) error
	AddLink(ctx context.Context, requirementKey, testKey string) error

	// Read operations. Get returns nil when the key is unknown.
	GetRequirement(ctx context.Context, key string) (*RequirementNode, error)
	FindRequirements(ctx context.Context, id string) ([]RequirementNode, error)
	Requirements(ctx context.Context) ([]RequirementNode, error)
	Links(ctx context.Context) ([]Link, error)

	// Traversal.
	TestsFor(ctx context.Context, requirementKey string) ([]TestCaseNode, error)
	RequirementsFor(ctx context.Context, testKey string) ([]RequirementNode, error)
	Uncovered(ctx context.Context) ([]RequirementNode, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}
