package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkleiva/sosivask/internal/sosi"
)

// createSelectionsTable is executed at startup; the schema is small
// enough that a migration tool would be overkill.
const createSelectionsTable = `
CREATE TABLE IF NOT EXISTS selections (
	name       TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres is the database-backed SelectionStore. Selections are rows
// keyed by name with the selection itself as a JSONB payload, which
// keeps the schema stable while the selection format evolves.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres ensures the selections table exists and returns the
// store.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, createSelectionsTable); err != nil {
		return nil, fmt.Errorf("ensure selections table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Get returns the named selection.
func (p *Postgres) Get(ctx context.Context, name string) (StoredSelection, error) {
	st := StoredSelection{Name: name}

	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload, updated_at FROM selections WHERE name = $1`,
		name,
	).Scan(&payload, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoredSelection{}, ErrNotFound
	}
	if err != nil {
		return StoredSelection{}, fmt.Errorf("get selection %q: %w", name, err)
	}

	sel, err := sosi.ParseSelection(payload)
	if err != nil {
		return StoredSelection{}, fmt.Errorf("get selection %q: %w", name, err)
	}
	st.Selection = sel
	return st, nil
}

// Put creates or replaces the named selection.
func (p *Postgres) Put(ctx context.Context, name string, sel sosi.Selection) (StoredSelection, error) {
	if err := validateName(name); err != nil {
		return StoredSelection{}, err
	}

	payload, err := json.Marshal(sel)
	if err != nil {
		return StoredSelection{}, fmt.Errorf("put selection %q: %w", name, err)
	}

	st := StoredSelection{Name: name, Selection: cloneSelection(sel)}
	err = p.pool.QueryRow(ctx,
		`INSERT INTO selections (name, payload, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
		 RETURNING updated_at`,
		name, payload,
	).Scan(&st.UpdatedAt)
	if err != nil {
		return StoredSelection{}, fmt.Errorf("put selection %q: %w", name, err)
	}
	return st, nil
}

// Delete removes the named selection.
func (p *Postgres) Delete(ctx context.Context, name string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM selections WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete selection %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all selections ordered by name.
func (p *Postgres) List(ctx context.Context) ([]StoredSelection, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT name, payload, updated_at FROM selections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	defer rows.Close()

	var result []StoredSelection
	for rows.Next() {
		var (
			st      StoredSelection
			payload []byte
		)
		if err := rows.Scan(&st.Name, &payload, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list selections: %w", err)
		}
		sel, err := sosi.ParseSelection(payload)
		if err != nil {
			return nil, fmt.Errorf("list selections: %q: %w", st.Name, err)
		}
		st.Selection = sel
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return result, nil
}
