package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rpggio/fleetd/internal/docstore"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Store implements docstore.Store on a single SQLite table.
type Store struct {
	db *DB
}

// NewStore creates a new Store. The schema must already be migrated.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Open opens dsn, runs migrations and returns the store.
func Open(dsn string) (*Store, error) {
	db, err := New(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// Get retrieves a document by id
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return docstore.Unmarshal([]byte(body))
}

// Find returns documents matching filter in insertion order
func (s *Store) Find(ctx context.Context, collection string, filter docstore.Filter, opts docstore.FindOptions) ([]docstore.Document, error) {
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return nil, err
	}

	limit := int64(-1)
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	query := `SELECT body FROM documents WHERE ` + where + ` ORDER BY rowid LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := docstore.Unmarshal([]byte(body))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count counts documents matching filter
func (s *Store) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	where, args, err := whereClause(collection, filter)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Put inserts or replaces a document
func (s *Store) Put(ctx context.Context, collection string, doc docstore.Document) error {
	id := doc.ID()
	if id == "" {
		return docstore.ErrMissingID
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body
	`, collection, id, string(body))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", docstore.ErrDuplicateKey, err)
		}
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

// Delete removes a document by id
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// Aggregate evaluates the pipeline, pushing a leading match down into SQL
func (s *Store) Aggregate(ctx context.Context, collection string, pipeline docstore.Pipeline) ([]docstore.Document, error) {
	return docstore.Evaluate(ctx, s, collection, pipeline)
}

// EnsureIndexes creates expression indexes scoped to each collection
func (s *Store) EnsureIndexes(ctx context.Context, indexes []docstore.Index) error {
	for _, idx := range indexes {
		ddl, err := indexDDL(idx)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("creating index %s: %w", idx.Name, docstore.ErrDuplicateKey)
			}
			return fmt.Errorf("creating index %s: %w", idx.Name, err)
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func indexDDL(idx docstore.Index) (string, error) {
	if !identRe.MatchString(idx.Collection) || strings.Contains(idx.Collection, ".") {
		return "", fmt.Errorf("invalid collection name %q", idx.Collection)
	}
	if !identRe.MatchString(idx.Name) || strings.Contains(idx.Name, ".") {
		return "", fmt.Errorf("invalid index name %q", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return "", fmt.Errorf("index %s has no fields", idx.Name)
	}

	exprs := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		if !identRe.MatchString(f) {
			return "", fmt.Errorf("invalid index field %q", f)
		}
		exprs[i] = fmt.Sprintf("json_extract(body, '$.%s')", f)
	}

	kind := "INDEX"
	if idx.Unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s IF NOT EXISTS idx_%s ON documents(%s) WHERE collection = '%s'",
		kind, idx.Name, strings.Join(exprs, ", "), idx.Collection), nil
}

func whereClause(collection string, filter docstore.Filter) (string, []any, error) {
	clauses := []string{"collection = ?"}
	args := []any{collection}

	for _, c := range filter {
		if !identRe.MatchString(c.Field) {
			return "", nil, fmt.Errorf("invalid filter field %q", c.Field)
		}
		var vals []any
		for _, v := range c.Values {
			if sv, ok := sqlValue(v); ok {
				vals = append(vals, sv)
			}
		}
		if len(vals) == 0 {
			clauses = append(clauses, "0")
			continue
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
		clauses = append(clauses, fmt.Sprintf(
			"json_type(body, ?) NOT IN ('object', 'array') AND json_extract(body, ?) IN (%s)", placeholders))
		path := "$." + c.Field
		args = append(args, path, path)
		args = append(args, vals...)
	}
	return strings.Join(clauses, " AND "), args, nil
}

// sqlValue converts a filter value into what json_extract yields for it.
func sqlValue(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		if x {
			return int64(1), true
		}
		return int64(0), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		f, err := x.Float64()
		return f, err == nil
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		return x, true
	}
	return nil, false
}

var (
	_ docstore.Store  = (*Store)(nil)
	_ docstore.Finder = (*Store)(nil)
)
