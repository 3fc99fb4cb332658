package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// sqlStore implements WorkflowStore on database/sql. Queries are written
// with ? placeholders and rewritten by bind for drivers that number them.
type sqlStore struct {
	db   *sql.DB
	bind func(string) string
}

// SQLiteStore is a WorkflowStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	sqlStore
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore. The pool is limited to one connection so that
// ":memory:" databases are shared and writers never contend.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{sqlStore{db: db, bind: func(q string) string { return q }}}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sqlStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS workflows (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		);`,
	)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS workflows_updated_at ON workflows (updated_at);`)
	return err
}

func (s *sqlStore) CreateWorkflow(ctx context.Context, name string, data json.RawMessage) (*Workflow, error) {
	data, err := validate(name, data)
	if err != nil {
		return nil, err
	}
	ts := now()
	wf := &Workflow{ID: newID(), Name: name, Data: data, CreatedAt: ts, UpdatedAt: ts}

	_, err = s.db.ExecContext(ctx, s.bind(`
		INSERT INTO workflows (id, name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`),
		wf.ID,
		wf.Name,
		string(wf.Data),
		ts.UnixMilli(),
		ts.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *sqlStore) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	row := s.db.QueryRowContext(ctx, s.bind(`
		SELECT id, name, data, created_at, updated_at
		FROM workflows
		WHERE id = ?`),
		id,
	)
	wf, err := scanWorkflow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkflowNotFound
	}
	return wf, err
}

func (s *sqlStore) UpdateWorkflow(ctx context.Context, id, name string, data json.RawMessage) (*Workflow, error) {
	data, err := validate(name, data)
	if err != nil {
		return nil, err
	}
	ts := now()

	res, err := s.db.ExecContext(ctx, s.bind(`
		UPDATE workflows
		SET name = ?, data = ?, updated_at = ?
		WHERE id = ?`),
		name,
		string(data),
		ts.UnixMilli(),
		id,
	)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrWorkflowNotFound
	}
	return s.GetWorkflow(ctx, id)
}

func (s *sqlStore) DeleteWorkflow(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM workflows WHERE id = ?`), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWorkflowNotFound
	}
	return nil
}

func (s *sqlStore) ListWorkflows(ctx context.Context) ([]*Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, data, created_at, updated_at
		FROM workflows
		ORDER BY updated_at DESC, created_at DESC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*Workflow{}
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, wf)
	}
	return result, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*Workflow, error) {
	var (
		wf               Workflow
		data             string
		created, updated int64
	)
	if err := row.Scan(&wf.ID, &wf.Name, &data, &created, &updated); err != nil {
		return nil, err
	}
	wf.Data = json.RawMessage(data)
	wf.CreatedAt = fromMillis(created)
	wf.UpdatedAt = fromMillis(updated)
	return &wf, nil
}

// numberedPlaceholders rewrites ? placeholders to $1, $2, ...
func numberedPlaceholders(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
