package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu           sync.RWMutex
	requirements map[string]RequirementNode
	tests        map[string]TestCaseNode
	links        map[Link]struct{}
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		requirements: make(map[string]RequirementNode),
		tests:        make(map[string]TestCaseNode),
		links:        make(map[Link]struct{}),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddRequirement stores a requirement keyed by its Key.
func (m *MemStore) AddRequirement(_ context.Context, node RequirementNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requirements[node.Key] = node
	return nil
}

// AddTestCase stores a test case keyed by its Key.
func (m *MemStore) AddTestCase(_ context.Context, node TestCaseNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[node.Key] = node
	return nil
}

// AddLink records a VERIFIED_BY edge. Both nodes must exist.
func (m *MemStore) AddLink(_ context.Context, requirementKey, testKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requirements[requirementKey]; !ok {
		return fmt.Errorf("memstore: unknown requirement %q", requirementKey)
	}
	if _, ok := m.tests[testKey]; !ok {
		return fmt.Errorf("memstore: unknown test case %q", testKey)
	}
	m.links[Link{RequirementKey: requirementKey, TestKey: testKey}] = struct{}{}
	return nil
}

// GetRequirement returns the requirement with the given key, or nil if not found.
func (m *MemStore) GetRequirement(_ context.Context, key string) (*RequirementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requirements[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// FindRequirements returns every requirement declared with id.
func (m *MemStore) FindRequirements(_ context.Context, id string) ([]RequirementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequirements(func(r RequirementNode) bool { return r.ID == id }), nil
}

// Requirements returns all requirements.
func (m *MemStore) Requirements(_ context.Context) ([]RequirementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequirements(func(RequirementNode) bool { return true }), nil
}

// Uncovered returns the requirements not marked covered.
func (m *MemStore) Uncovered(_ context.Context) ([]RequirementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequirements(func(r RequirementNode) bool { return !r.Covered }), nil
}

// Links returns all edges ordered by requirement key, then test key.
func (m *MemStore) Links(_ context.Context) ([]Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Link, 0, len(m.links))
	for l := range m.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequirementKey != out[j].RequirementKey {
			return out[i].RequirementKey < out[j].RequirementKey
		}
		return out[i].TestKey < out[j].TestKey
	})
	return out, nil
}

// TestsFor returns the test cases linked from a requirement.
func (m *MemStore) TestsFor(_ context.Context, requirementKey string) ([]TestCaseNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TestCaseNode
	for l := range m.links {
		if l.RequirementKey == requirementKey {
			out = append(out, m.tests[l.TestKey])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// RequirementsFor returns the requirements that link to a test case.
func (m *MemStore) RequirementsFor(_ context.Context, testKey string) ([]RequirementNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RequirementNode
	for l := range m.links {
		if l.TestKey == testKey {
			out = append(out, m.requirements[l.RequirementKey])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Stats returns node and edge counts.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := &GraphStats{
		RequirementCount: len(m.requirements),
		TestCaseCount:    len(m.tests),
		LinkCount:        len(m.links),
	}
	for _, r := range m.requirements {
		if r.Covered {
			s.CoveredCount++
		}
	}
	for _, t := range m.tests {
		if t.Status == StatusMissing {
			s.MissingCount++
		}
	}
	return s, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// filterRequirements must be called with m.mu held.
func (m *MemStore) filterRequirements(keep func(RequirementNode) bool) []RequirementNode {
	out := make([]RequirementNode, 0)
	for _, r := range m.requirements {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
