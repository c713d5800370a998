package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
)

// SQLiteStore keeps documents as JSON text in a single table and filters with json_extract.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (and creates if needed) a snapshot database.
// Use ":memory:" for an in-memory database.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryStore, "open sqlite database").
			WithContext("path", dbPath).Build()
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, foundation.WrapError(err, foundation.CategoryStore, "initialize sqlite schema").
			WithContext("path", dbPath).Build()
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		position INTEGER NOT NULL,
		body TEXT NOT NULL,
		PRIMARY KEY (collection, position)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ReplaceCollection swaps the contents of collection for docs in one transaction.
func (s *SQLiteStore) ReplaceCollection(ctx context.Context, collection string, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryStore, "begin transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE collection = ?", collection); err != nil {
		return foundation.WrapError(err, foundation.CategoryStore, "clear collection").
			WithContext("collection", collection).Build()
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO documents (collection, position, body) VALUES (?, ?, ?)")
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryStore, "prepare insert").Build()
	}
	defer stmt.Close()

	for i, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return foundation.WrapError(err, foundation.CategoryStore, "encode document").
				WithRetry(foundation.RetryNever).
				WithContext("collection", collection).
				WithContext("position", i).Build()
		}
		if _, err := stmt.ExecContext(ctx, collection, i, string(body)); err != nil {
			return foundation.WrapError(err, foundation.CategoryStore, "insert document").
				WithContext("collection", collection).Build()
		}
	}
	if err := tx.Commit(); err != nil {
		return foundation.WrapError(err, foundation.CategoryStore, "commit collection").
			WithContext("collection", collection).Build()
	}
	return nil
}

func (s *SQLiteStore) Find(ctx context.Context, collection string, f Filter) ([]Document, error) {
	return s.query(ctx, collection, f, 0)
}

func (s *SQLiteStore) FindOne(ctx context.Context, collection string, f Filter) (Document, error) {
	docs, err := s.query(ctx, collection, f, 1)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (s *SQLiteStore) query(ctx context.Context, collection string, f Filter, limit int) ([]Document, error) {
	where, args := sqlWhere(f)
	q := "SELECT body FROM documents WHERE collection = ?" + where + " ORDER BY position"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, append([]any{collection}, args...)...)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryStore, "query documents").
			WithContext("collection", collection).
			WithContext("filter", f.String()).Build()
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryStore, "scan document").Build()
		}
		var doc Document
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, foundation.WrapError(err, foundation.CategoryStore, "decode document").
				WithRetry(foundation.RetryNever).
				WithContext("collection", collection).Build()
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryStore, "iterate documents").Build()
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// sqlWhere renders f as additional AND clauses over json_extract. Every
// comparison is guarded by json_type so 1, true and "1" stay distinct, and
// array fields match when any element equals the value.
func sqlWhere(f Filter) (string, []any) {
	var b strings.Builder
	var args []any
	for _, c := range f {
		path := jsonPath(c.Field)
		if c.Value == nil {
			expr := fmt.Sprintf("json_extract(body, '%s')", path)
			switch c.Op {
			case OpEq:
				b.WriteString(" AND " + expr + " IS NULL")
			case OpNe:
				b.WriteString(" AND " + expr + " IS NOT NULL")
			default:
				b.WriteString(" AND 0")
			}
			continue
		}
		types, v, ok := sqlValue(c.Value)
		if !ok {
			// Values of other types never compare equal.
			if c.Op != OpNe {
				b.WriteString(" AND 0")
			}
			continue
		}
		eq := fmt.Sprintf(
			"(COALESCE(json_type(body, '%[1]s') IN %[2]s AND json_extract(body, '%[1]s') = ?, 0)"+
				" OR EXISTS (SELECT 1 FROM json_each(body, '%[1]s') AS e"+
				" WHERE json_type(body, '%[1]s') = 'array' AND e.type IN %[2]s AND e.value = ?))",
			path, types)
		switch c.Op {
		case OpEq:
			b.WriteString(" AND " + eq)
		case OpNe:
			b.WriteString(" AND NOT " + eq)
		default:
			b.WriteString(" AND 0")
			continue
		}
		args = append(args, v, v)
	}
	return b.String(), args
}

// jsonPath quotes each dot-separated label so field names may contain dashes.
func jsonPath(field string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, part := range strings.Split(field, ".") {
		part = strings.NewReplacer(`"`, "", `'`, "").Replace(part)
		b.WriteString(`."` + part + `"`)
	}
	return b.String()
}

// sqlValue returns the json_type values v may match and the value
// json_extract yields for it. Booleans extract as 0/1, so the type list is
// what tells them apart from numbers.
func sqlValue(v any) (types string, arg any, ok bool) {
	switch x := v.(type) {
	case string:
		return "('text')", x, true
	case bool:
		if x {
			return "('true')", 1, true
		}
		return "('false')", 0, true
	}
	if n, isNum := numeric(v); isNum {
		return "('integer', 'real')", n, true
	}
	return "", nil, false
}
