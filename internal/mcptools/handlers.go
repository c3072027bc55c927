package mcptools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dusk-indust/spectrace/internal/coverage"
	"github.com/dusk-indust/spectrace/internal/graph"
	"github.com/dusk-indust/spectrace/internal/logging"
	"github.com/dusk-indust/spectrace/internal/pipeline"
	"github.com/dusk-indust/spectrace/internal/report"
	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/phuslu/log"
)

// StoreFactory opens an empty graph store.
type StoreFactory func() (graph.Store, error)

// CoverageService holds the last measurement and its traceability graph
// for the MCP tool handlers. Tool calls may run concurrently: queries hold
// mu for reading while they use the store, and a store is only replaced or
// closed under the write lock.
type CoverageService struct {
	configPath string
	logger     *log.Logger
	newStore   StoreFactory

	mu    sync.RWMutex
	store graph.Store
}

// NewCoverageService creates a service measuring configPath by default.
// A nil newStore uses graph.NewMemStore.
func NewCoverageService(configPath string, logger *log.Logger, newStore StoreFactory) *CoverageService {
	if newStore == nil {
		newStore = func() (graph.Store, error) { return graph.NewMemStore(), nil }
	}
	return &CoverageService{
		configPath: configPath,
		logger:     logging.OrDiscard(logger),
		newStore:   newStore,
	}
}

// Close releases the current graph store.
func (s *CoverageService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// MeasureCoverage runs the pipeline and replaces the indexed graph.
func (s *CoverageService) MeasureCoverage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MeasureCoverageInput,
) (*mcp.CallToolResult, MeasureCoverageOutput, error) {
	path := input.ConfigPath
	if path == "" {
		path = s.configPath
	}
	if path == "" {
		return nil, MeasureCoverageOutput{}, errors.New("configPath is required")
	}

	var policy coverage.Policy
	switch input.Policy {
	case "", string(coverage.PolicyPresence), string(coverage.PolicyPassed):
		policy = coverage.Policy(input.Policy)
	default:
		return nil, MeasureCoverageOutput{}, fmt.Errorf("unknown policy %q (want presence or passed)", input.Policy)
	}

	res, err := s.measure(ctx, path, policy)
	if err != nil {
		return nil, MeasureCoverageOutput{}, err
	}
	return nil, MeasureCoverageOutput{
		ConfigPath:            path,
		Summary:               res.Summary,
		UncoveredRequirements: res.Summary.Uncovered(),
		Text:                  report.Summary(res),
	}, nil
}

// ListUncovered returns the requirements without coverage from the last
// measurement, measuring the default configuration first if needed.
func (s *CoverageService) ListUncovered(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListUncoveredInput,
) (*mcp.CallToolResult, ListUncoveredOutput, error) {
	var reqs []graph.RequirementNode
	err := s.withStore(ctx, func(store graph.Store) error {
		var err error
		reqs, err = store.Uncovered(ctx)
		if err != nil {
			return fmt.Errorf("list uncovered: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, ListUncoveredOutput{}, err
	}
	return nil, ListUncoveredOutput{Requirements: reqs, Total: len(reqs)}, nil
}

// TraceRequirement returns every requirement declared with the given id and
// the test cases each one links to.
func (s *CoverageService) TraceRequirement(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TraceRequirementInput,
) (*mcp.CallToolResult, TraceRequirementOutput, error) {
	if input.ID == "" {
		return nil, TraceRequirementOutput{}, errors.New("id is required")
	}
	var out TraceRequirementOutput
	err := s.withStore(ctx, func(store graph.Store) error {
		reqs, err := store.FindRequirements(ctx, input.ID)
		if err != nil {
			return fmt.Errorf("find requirement: %w", err)
		}
		if len(reqs) == 0 {
			return fmt.Errorf("requirement %s not found", input.ID)
		}

		out.Requirements = make([]TracedRequirement, 0, len(reqs))
		for _, r := range reqs {
			tests, err := store.TestsFor(ctx, r.Key)
			if err != nil {
				return fmt.Errorf("tests for %s: %w", r.Key, err)
			}
			if tests == nil {
				tests = []graph.TestCaseNode{}
			}
			out.Requirements = append(out.Requirements, TracedRequirement{Requirement: r, Tests: tests})
		}
		return nil
	})
	if err != nil {
		return nil, TraceRequirementOutput{}, err
	}
	return nil, out, nil
}

// measure runs the pipeline for path and swaps in a freshly indexed store.
func (s *CoverageService) measure(ctx context.Context, path string, policy coverage.Policy) (*trace.CoverageResult, error) {
	res, err := pipeline.MeasureFile(ctx, path, pipeline.WithLogger(s.logger), pipeline.WithPolicy(policy))
	if err != nil {
		return nil, err
	}

	store, err := s.newStore()
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}
	if err := graph.Index(ctx, store, res); err != nil {
		store.Close()
		return nil, fmt.Errorf("index coverage: %w", err)
	}

	// Lock waits for in-flight queries on the old store to finish.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("closing previous graph store")
		}
	}
	s.store = store
	return res, nil
}

// withStore runs fn with the current store held for reading, measuring the
// default configuration first when nothing has been measured yet.
func (s *CoverageService) withStore(ctx context.Context, fn func(graph.Store) error) error {
	s.mu.RLock()
	if s.store == nil {
		s.mu.RUnlock()
		if s.configPath == "" {
			return errors.New("nothing measured yet: call measure_coverage first")
		}
		if _, err := s.measure(ctx, s.configPath, ""); err != nil {
			return err
		}
		s.mu.RLock()
	}
	defer s.mu.RUnlock()

	if s.store == nil {
		return errors.New("graph store closed")
	}
	return fn(s.store)
}
