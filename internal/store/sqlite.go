package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS threads (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	tq_name   TEXT NOT NULL,
	position  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS components (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id INTEGER NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	name      TEXT NOT NULL DEFAULT '',
	position  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	component_id  INTEGER NOT NULL REFERENCES components(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	node_id       TEXT NOT NULL DEFAULT '',
	node_key      TEXT NOT NULL DEFAULT '',
	type          TEXT NOT NULL DEFAULT '',
	class         TEXT NOT NULL DEFAULT '',
	function_name TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	properties    TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_threads_tq_name ON threads(tq_name);
CREATE INDEX IF NOT EXISTS idx_nodes_node_id ON nodes(node_id);
CREATE INDEX IF NOT EXISTS idx_nodes_node_key ON nodes(node_key);
`

// Rows are read in thread, component, node order; LEFT JOINs keep empty
// threads and components visible.
const sqliteSelect = `
SELECT t.id, t.tq_name, c.id, c.name,
       n.id, n.node_id, n.node_key, n.type, n.class, n.function_name, n.description, n.properties
FROM threads t
LEFT JOIN components c ON c.thread_id = t.id
LEFT JOIN nodes n ON n.component_id = c.id
`

const sqliteOrder = ` ORDER BY t.position, t.id, c.position, c.id, n.position, n.id`

// SQLiteStore keeps threads in a relational SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at path.
// Pass ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	for _, p := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Import appends threads after the existing ones in a single transaction.
func (s *SQLiteStore) Import(ctx context.Context, threads []domain.Thread) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	var base int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM threads`).Scan(&base); err != nil {
		return fmt.Errorf("reading thread position: %w", err)
	}

	for ti, t := range threads {
		res, err := tx.ExecContext(ctx, `INSERT INTO threads (tq_name, position) VALUES (?, ?)`, t.TQName, base+ti)
		if err != nil {
			return fmt.Errorf("inserting thread %s: %w", t.TQName, err)
		}
		threadID, _ := res.LastInsertId()

		for ci, c := range t.ComponentNodes {
			res, err := tx.ExecContext(ctx, `INSERT INTO components (thread_id, name, position) VALUES (?, ?, ?)`, threadID, c.Name, ci)
			if err != nil {
				return fmt.Errorf("inserting component of %s: %w", t.TQName, err)
			}
			componentID, _ := res.LastInsertId()

			for ni, n := range c.Nodes {
				props, err := json.Marshal(n.Properties)
				if err != nil {
					return fmt.Errorf("encoding properties of %s: %w", n.Key(), err)
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO nodes (component_id, position, node_id, node_key, type, class, function_name, description, properties)
					 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					componentID, ni, n.ID, n.NodeKey, n.Type, n.Class, n.FunctionName, n.Description, string(props),
				); err != nil {
					return fmt.Errorf("inserting node %s: %w", n.Key(), err)
				}
			}
		}
	}

	return tx.Commit()
}

// ListThreads implements NodeStore.
func (s *SQLiteStore) ListThreads(ctx context.Context, prefix string) ([]domain.Thread, error) {
	query := sqliteSelect
	var args []any
	if prefix != "" {
		// substr keeps the comparison case-sensitive, matching strings.HasPrefix
		query += ` WHERE substr(t.tq_name, 1, length(?)) = ?`
		args = append(args, prefix, prefix)
	}
	query += sqliteOrder

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	defer rows.Close()

	threads := []domain.Thread{}
	var lastThread, lastComponent int64 = -1, -1
	for rows.Next() {
		var (
			threadID                       int64
			tqName                         string
			componentID, nodeRowID         sql.NullInt64
			componentName                  sql.NullString
			id, key, typ, class, fn, descr sql.NullString
			props                          sql.NullString
		)
		if err := rows.Scan(&threadID, &tqName, &componentID, &componentName,
			&nodeRowID, &id, &key, &typ, &class, &fn, &descr, &props); err != nil {
			return nil, fmt.Errorf("scanning thread row: %w", err)
		}

		if threadID != lastThread {
			threads = append(threads, domain.Thread{TQName: tqName, ComponentNodes: []domain.ComponentNode{}})
			lastThread, lastComponent = threadID, -1
		}
		t := &threads[len(threads)-1]

		if !componentID.Valid {
			continue
		}
		if componentID.Int64 != lastComponent {
			t.ComponentNodes = append(t.ComponentNodes, domain.ComponentNode{Name: componentName.String, Nodes: []domain.Node{}})
			lastComponent = componentID.Int64
		}
		c := &t.ComponentNodes[len(t.ComponentNodes)-1]

		if !nodeRowID.Valid {
			continue
		}
		n := domain.Node{
			ID:           id.String,
			NodeKey:      key.String,
			Type:         typ.String,
			Class:        class.String,
			FunctionName: fn.String,
			Description:  descr.String,
		}
		if props.Valid && props.String != "" && props.String != "null" && props.String != "{}" {
			if err := json.Unmarshal([]byte(props.String), &n.Properties); err != nil {
				return nil, fmt.Errorf("decoding properties of %s: %w", n.Key(), err)
			}
		}
		c.Nodes = append(c.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating threads: %w", err)
	}
	return threads, nil
}

// FindNodeByID implements NodeStore. Ordering matches the linear scan of FindNode.
func (s *SQLiteStore) FindNodeByID(ctx context.Context, id string) (*domain.Node, error) {
	if id == "" {
		return nil, nil
	}
	query := `
SELECT n.node_id, n.node_key, n.type, n.class, n.function_name, n.description, n.properties
FROM nodes n
JOIN components c ON c.id = n.component_id
JOIN threads t ON t.id = c.thread_id
WHERE (n.node_id != '' AND n.node_id = ?) OR (n.node_key != '' AND n.node_key = ?)
ORDER BY t.position, t.id, c.position, c.id, n.position, n.id
LIMIT 1`

	var (
		n     domain.Node
		props string
	)
	err := s.db.QueryRowContext(ctx, query, id, id).Scan(
		&n.ID, &n.NodeKey, &n.Type, &n.Class, &n.FunctionName, &n.Description, &props)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding node %s: %w", id, err)
	}
	if props != "" && props != "null" && props != "{}" {
		if err := json.Unmarshal([]byte(props), &n.Properties); err != nil {
			return nil, fmt.Errorf("decoding properties of %s: %w", id, err)
		}
	}
	return &n, nil
}
