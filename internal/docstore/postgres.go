package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_data_gin ON documents USING GIN (data jsonb_path_ops);
`

var fieldName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Postgres keeps every collection in one JSONB table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates the documents table if needed.
func NewPostgres(ctx context.Context, db *sql.DB) (*Postgres, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Wrap(err, "postgres migrate")
	}
	return &Postgres{db: db}, nil
}

// Get loads one document.
func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	row := p.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, errors.Wrapf(err, "postgres get %s/%s", collection, id)
	}
	data, err := decodeJSON(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

// Query translates filters to JSONB containment and ANY() predicates.
func (p *Postgres) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if emptyIn(filters) {
		return nil, nil
	}
	query, args, err := buildQuery(collection, filters)
	if err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "postgres query %s", collection)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, errors.Wrapf(err, "postgres scan %s", collection)
		}
		data, err := decodeJSON(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Document{ID: id, Data: data})
	}
	return out, rows.Err()
}

// Add inserts data under a new uuid.
func (p *Postgres) Add(ctx context.Context, collection string, data Doc) (string, error) {
	id := uuid.NewString()
	if err := p.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Create inserts data under id, reporting ErrConflict when the key exists.
func (p *Postgres) Create(ctx context.Context, collection, id string, data Doc) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO NOTHING
	`, collection, id, string(raw))
	if err != nil {
		return errors.Wrapf(err, "postgres insert %s", collection)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConflict
	}
	return nil
}

// Update merges fields into the stored object.
func (p *Postgres) Update(ctx context.Context, collection, id string, fields Doc) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "encode fields")
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, string(raw))
	if err != nil {
		return errors.Wrapf(err, "postgres update %s/%s", collection, id)
	}
	return notFoundIfNone(res)
}

// Delete removes one document.
func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return errors.Wrapf(err, "postgres delete %s/%s", collection, id)
	}
	return notFoundIfNone(res)
}

// Close closes the pool.
func (p *Postgres) Close(context.Context) error {
	return p.db.Close()
}

func notFoundIfNone(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func buildQuery(collection string, filters []Filter) (string, []any, error) {
	args := []any{collection}
	clauses := []string{"collection = $1"}
	eq := map[string]any{}

	for _, f := range filters {
		if f.Field != IDField && !fieldName.MatchString(f.Field) {
			return "", nil, fmt.Errorf("invalid field name %q", f.Field)
		}
		switch {
		case f.Op == OpEq && f.Field == IDField:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
		case f.Op == OpEq:
			eq[f.Field] = f.Value
		case f.Op == OpIn && f.Field == IDField:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("id = ANY($%d)", len(args)))
		case f.Op == OpIn:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("data->>'%s' = ANY($%d)", f.Field, len(args)))
		}
	}
	if len(eq) > 0 {
		raw, err := json.Marshal(eq)
		if err != nil {
			return "", nil, errors.Wrap(err, "encode filter")
		}
		args = append(args, string(raw))
		clauses = append(clauses, fmt.Sprintf("data @> $%d::jsonb", len(args)))
	}
	query := "SELECT id, data FROM documents WHERE " + strings.Join(clauses, " AND ") + " ORDER BY created_at, id"
	return query, args, nil
}

func decodeJSON(raw []byte) (Doc, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data Doc
	if err := dec.Decode(&data); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	return data, nil
}
