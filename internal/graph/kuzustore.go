//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path, so an index survives between runs. KuzuDB creates
// the leaf directory itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Requirement(
		key STRING,
		id STRING,
		title STRING,
		file_path STRING,
		source STRING,
		covered BOOLEAN,
		PRIMARY KEY(key)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS TestCase(
		key STRING,
		file_path STRING,
		case_name STRING,
		status STRING,
		duration_ms DOUBLE,
		source STRING,
		PRIMARY KEY(key)
	)`,
	`CREATE REL TABLE IF NOT EXISTS VERIFIED_BY(FROM Requirement TO TestCase)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddRequirement upserts a Requirement node.
func (s *KuzuStore) AddRequirement(_ context.Context, node RequirementNode) error {
	return s.exec(
		`MERGE (r:Requirement {key: $key})
		 SET r.id = $id, r.title = $title, r.file_path = $fp, r.source = $src, r.covered = $covered`,
		map[string]any{
			"key":     node.Key,
			"id":      node.ID,
			"title":   node.Title,
			"fp":      node.FilePath,
			"src":     node.Source,
			"covered": node.Covered,
		},
	)
}

// AddTestCase upserts a TestCase node.
func (s *KuzuStore) AddTestCase(_ context.Context, node TestCaseNode) error {
	return s.exec(
		`MERGE (t:TestCase {key: $key})
		 SET t.file_path = $fp, t.case_name = $name, t.status = $status, t.duration_ms = $dur, t.source = $src`,
		map[string]any{
			"key":    node.Key,
			"fp":     node.FilePath,
			"name":   node.CaseName,
			"status": node.Status,
			"dur":    node.DurationMS,
			"src":    node.Source,
		},
	)
}

// AddLink creates a VERIFIED_BY edge. Both nodes must exist.
func (s *KuzuStore) AddLink(_ context.Context, requirementKey, testKey string) error {
	for _, node := range []struct{ table, key string }{
		{"Requirement", requirementKey},
		{"TestCase", testKey},
	} {
		ok, err := s.exists(node.table, node.key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("kuzu: unknown %s %q", node.table, node.key)
		}
	}
	return s.exec(
		`MATCH (r:Requirement {key: $req}), (t:TestCase {key: $test})
		 MERGE (r)-[:VERIFIED_BY]->(t)`,
		map[string]any{"req": requirementKey, "test": testKey},
	)
}

// ---------- Read operations ----------

const requirementColumns = "r.key, r.id, r.title, r.file_path, r.source, r.covered"

const testCaseColumns = "t.key, t.file_path, t.case_name, t.status, t.duration_ms, t.source"

// GetRequirement retrieves a Requirement by key, or returns nil if not found.
func (s *KuzuStore) GetRequirement(_ context.Context, key string) (*RequirementNode, error) {
	reqs, err := s.queryRequirements(
		"MATCH (r:Requirement {key: $key}) RETURN "+requirementColumns,
		map[string]any{"key": key},
	)
	if err != nil || len(reqs) == 0 {
		return nil, err
	}
	return &reqs[0], nil
}

// FindRequirements returns every Requirement declared with id.
func (s *KuzuStore) FindRequirements(_ context.Context, id string) ([]RequirementNode, error) {
	return s.queryRequirements(
		"MATCH (r:Requirement) WHERE r.id = $id RETURN "+requirementColumns+" ORDER BY r.key",
		map[string]any{"id": id},
	)
}

// Requirements returns all Requirement nodes.
func (s *KuzuStore) Requirements(_ context.Context) ([]RequirementNode, error) {
	return s.queryRequirements("MATCH (r:Requirement) RETURN "+requirementColumns+" ORDER BY r.key", nil)
}

// Uncovered returns the Requirement nodes not marked covered.
func (s *KuzuStore) Uncovered(_ context.Context) ([]RequirementNode, error) {
	return s.queryRequirements(
		"MATCH (r:Requirement) WHERE r.covered = false RETURN "+requirementColumns+" ORDER BY r.key",
		nil,
	)
}

// Links returns all VERIFIED_BY edges.
func (s *KuzuStore) Links(_ context.Context) ([]Link, error) {
	rows, err := s.query(
		"MATCH (r:Requirement)-[:VERIFIED_BY]->(t:TestCase) RETURN r.key, t.key ORDER BY r.key, t.key",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]Link, 0, len(rows))
	for _, r := range rows {
		out = append(out, Link{RequirementKey: toString(r[0]), TestKey: toString(r[1])})
	}
	return out, nil
}

// ---------- Graph traversal ----------

// TestsFor returns the TestCase nodes a requirement links to.
func (s *KuzuStore) TestsFor(_ context.Context, requirementKey string) ([]TestCaseNode, error) {
	rows, err := s.query(
		"MATCH (r:Requirement {key: $key})-[:VERIFIED_BY]->(t:TestCase) RETURN "+testCaseColumns+" ORDER BY t.key",
		map[string]any{"key": requirementKey},
	)
	if err != nil {
		return nil, err
	}
	out := make([]TestCaseNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToTestCase(r))
	}
	return out, nil
}

// RequirementsFor returns the Requirement nodes linking to a test case.
func (s *KuzuStore) RequirementsFor(_ context.Context, testKey string) ([]RequirementNode, error) {
	return s.queryRequirements(
		"MATCH (r:Requirement)-[:VERIFIED_BY]->(t:TestCase {key: $key}) RETURN "+requirementColumns+" ORDER BY r.key",
		map[string]any{"key": testKey},
	)
}

// ---------- Stats ----------

// Stats returns node and edge counts.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	stats := &GraphStats{}
	counts := []struct {
		cypher string
		dst    *int
	}{
		{"MATCH (r:Requirement) RETURN count(r)", &stats.RequirementCount},
		{"MATCH (r:Requirement) WHERE r.covered = true RETURN count(r)", &stats.CoveredCount},
		{"MATCH (t:TestCase) RETURN count(t)", &stats.TestCaseCount},
		{"MATCH (t:TestCase) WHERE t.status = '" + StatusMissing + "' RETURN count(t)", &stats.MissingCount},
		{"MATCH ()-[l:VERIFIED_BY]->() RETURN count(l)", &stats.LinkCount},
	}
	for _, c := range counts {
		n, err := s.count(c.cypher)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return stats, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) queryRequirements(cypher string, params map[string]any) ([]RequirementNode, error) {
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]RequirementNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToRequirement(r))
	}
	return out, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// exists reports whether a node with key is present in table. Table is a
// fixed internal name, not user input.
func (s *KuzuStore) exists(table, key string) (bool, error) {
	rows, err := s.query(
		fmt.Sprintf("MATCH (n:%s {key: $key}) RETURN count(n)", table),
		map[string]any{"key": key},
	)
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && toInt(rows[0][0]) > 0, nil
}

// rowToRequirement converts a requirementColumns row.
func rowToRequirement(r []any) RequirementNode {
	return RequirementNode{
		Key:      toString(r[0]),
		ID:       toString(r[1]),
		Title:    toString(r[2]),
		FilePath: toString(r[3]),
		Source:   toString(r[4]),
		Covered:  toBool(r[5]),
	}
}

// rowToTestCase converts a testCaseColumns row.
func rowToTestCase(r []any) TestCaseNode {
	return TestCaseNode{
		Key:        toString(r[0]),
		FilePath:   toString(r[1]),
		CaseName:   toString(r[2]),
		Status:     toString(r[3]),
		DurationMS: toFloat64(r[4]),
		Source:     toString(r[5]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
