//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
// A single connection is shared, so calls are serialized by mu.
type KuzuStore struct {
	mu   sync.Mutex
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store and Aggregator.
var (
	_ Store      = (*KuzuStore)(nil)
	_ Aggregator = (*KuzuStore)(nil)
)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path. KuzuDB creates the leaf itself for new databases; existing
// databases are reopened, so a loaded graph survives across sessions.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

// openKuzuBackend opens a file-backed or in-memory store for Open.
func openKuzuBackend(path string) (Store, error) {
	if path == ":memory:" {
		return NewKuzuStore()
	}
	return NewKuzuFileStore(path)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "open " + path, Err: err}
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, &StoreUnavailableError{Op: "connect " + path, Err: err}
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
// Definition lines are kept as a comma-separated string.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Variable(
		name STRING,
		lines STRING,
		PRIMARY KEY(name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DEPENDS_ON(
		FROM Variable TO Variable,
		line INT64,
		file STRING
	)`,
}

// InitSchema creates the node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range ddlStatements {
		if _, err := s.query(stmt, nil); err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
	}
	return nil
}

// ---------- Write operations ----------

// UpsertVariables merges definition lines into Variable nodes, creating
// them when missing.
func (s *KuzuStore) UpsertVariables(_ context.Context, vars []Variable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vars {
		rows, err := s.query(
			"MATCH (v:Variable {name: $name}) RETURN v.lines",
			map[string]any{"name": v.Name},
		)
		if err != nil {
			return err
		}
		lines := v.Lines
		if len(rows) > 0 {
			lines = mergeLines(decodeLines(toString(rows[0][0])), v.Lines)
		}
		err = s.exec(
			"MERGE (v:Variable {name: $name}) SET v.lines = $lines",
			map[string]any{"name": v.Name, "lines": encodeLines(lines)},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// upsertEdgeCypher creates both endpoints and the relationship on first
// sight only. ON CREATE SET makes the first write's metadata stick.
const upsertEdgeCypher = `
	MERGE (a:Variable {name: $from})
	MERGE (b:Variable {name: $to})
	MERGE (a)-[r:DEPENDS_ON]->(b)
	ON CREATE SET r.line = $line, r.file = $file`

// UpsertEdges merges DEPENDS_ON relationships.
func (s *KuzuStore) UpsertEdges(_ context.Context, edges []Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range edges {
		err := s.exec(upsertEdgeCypher, map[string]any{
			"from": e.From,
			"to":   e.To,
			"line": int64(e.Line),
			"file": e.File,
		})
		if err != nil {
			return fmt.Errorf("upsert edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return nil
}

// Clear detaches and deletes every Variable node.
func (s *KuzuStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec("MATCH (v:Variable) DETACH DELETE v", nil)
}

// ---------- Read operations ----------

// AllVariables returns every variable sorted by name.
func (s *KuzuStore) AllVariables(_ context.Context) ([]Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (v:Variable) RETURN v.name, v.lines ORDER BY v.name", nil)
	if err != nil {
		return nil, err
	}
	out := make([]Variable, 0, len(rows))
	for _, r := range rows {
		out = append(out, Variable{Name: toString(r[0]), Lines: decodeLines(toString(r[1]))})
	}
	return out, nil
}

// AllEdges returns every DEPENDS_ON relationship ordered by endpoints.
func (s *KuzuStore) AllEdges(_ context.Context) ([]Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(
		`MATCH (a:Variable)-[r:DEPENDS_ON]->(b:Variable)
		 RETURN a.name, b.name, r.line, r.file
		 ORDER BY a.name, b.name`, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Edge, 0, len(rows))
	for _, r := range rows {
		out = append(out, Edge{
			From: toString(r[0]),
			To:   toString(r[1]),
			Line: toInt(r[2]),
			File: toString(r[3]),
		})
	}
	return out, nil
}

// Neighbors returns the names adjacent to name, sorted.
func (s *KuzuStore) Neighbors(_ context.Context, name string, dir Direction) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (v:Variable {name: $name}) RETURN count(v)", map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || toInt(rows[0][0]) == 0 {
		return nil, &NotFoundError{Kind: "variable", Name: name}
	}

	cypher := `MATCH (a:Variable {name: $name})-[:DEPENDS_ON]->(b:Variable)
	           RETURN DISTINCT b.name ORDER BY b.name`
	if dir == DirectionDownstream {
		cypher = `MATCH (b:Variable)-[:DEPENDS_ON]->(a:Variable {name: $name})
		          RETURN DISTINCT b.name ORDER BY b.name`
	}
	rows, err = s.query(cypher, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// Stats returns counts of variables, edges and self-loops.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars, err := s.count("MATCH (v:Variable) RETURN count(v)")
	if err != nil {
		return nil, err
	}
	edges, err := s.count("MATCH ()-[r:DEPENDS_ON]->() RETURN count(r)")
	if err != nil {
		return nil, err
	}
	loops, err := s.count("MATCH (a:Variable)-[r:DEPENDS_ON]->(b:Variable) WHERE a.name = b.name RETURN count(r)")
	if err != nil {
		return nil, err
	}
	return &GraphStats{VariableCount: vars, EdgeCount: edges, SelfLoopCount: loops}, nil
}

// ---------- Aggregator ----------

// CountVariables returns the number of Variable nodes.
func (s *KuzuStore) CountVariables(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count("MATCH (v:Variable) RETURN count(v)")
}

// CountEdges returns the number of DEPENDS_ON relationships.
func (s *KuzuStore) CountEdges(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count("MATCH ()-[r:DEPENDS_ON]->() RETURN count(r)")
}

// TopFanIn returns the k variables with the most incoming edges.
func (s *KuzuStore) TopFanIn(_ context.Context, k int) ([]Ranked, error) {
	return s.ranked(`MATCH (a:Variable)-[r:DEPENDS_ON]->(b:Variable)
		RETURN b.name AS name, count(r) AS c
		ORDER BY c DESC, name ASC`, k)
}

// TopFanOut returns the k variables with the most outgoing edges.
func (s *KuzuStore) TopFanOut(_ context.Context, k int) ([]Ranked, error) {
	return s.ranked(`MATCH (a:Variable)-[r:DEPENDS_ON]->(b:Variable)
		RETURN a.name AS name, count(r) AS c
		ORDER BY c DESC, name ASC`, k)
}

func (s *KuzuStore) ranked(cypher string, k int) ([]Ranked, error) {
	if k > 0 {
		// k is an int, never user text.
		cypher += fmt.Sprintf(" LIMIT %d", k)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(cypher, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Ranked, 0, len(rows))
	for _, r := range rows {
		out = append(out, Ranked{Name: toString(r[0]), Count: toInt(r[1])})
	}
	return out, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
// Caller must hold mu.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	_, err := s.query(cypher, params)
	return err
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order. Caller must hold mu.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	if s.conn == nil {
		return nil, &StoreUnavailableError{Op: "query", Err: fmt.Errorf("kuzu: store is closed")}
	}

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

// count runs a single-value count query. Caller must hold mu.
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

// encodeLines renders definition lines as "3,7,12".
func encodeLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ",")
}

// decodeLines parses the encodeLines format, skipping malformed entries.
func decodeLines(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, string, nil for NULL).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
