package database

import (
	"context"

	"github.com/google/uuid"
)

const listTables = `
SELECT id, name, status FROM tables ORDER BY name
`

// ListTables returns every table, ordered by display name.
func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.Name, &t.Status); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const listTablesByStatus = `
SELECT id, name, status FROM tables WHERE status = $1 ORDER BY name
`

// ListTablesByStatus returns tables in the given status, ordered by name.
func (q *Queries) ListTablesByStatus(ctx context.Context, status string) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTablesByStatus, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.Name, &t.Status); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getTable = `
SELECT id, name, status FROM tables WHERE id = $1
`

// GetTable returns a single table by ID.
func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, getTable, id).Scan(&t.ID, &t.Name, &t.Status)
	return t, err
}

const getTableForUpdate = `
SELECT id, name, status FROM tables WHERE id = $1 FOR UPDATE
`

// GetTableForUpdate locks the table row to serialize concurrent status
// transitions within the caller's transaction.
func (q *Queries) GetTableForUpdate(ctx context.Context, id uuid.UUID) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, getTableForUpdate, id).Scan(&t.ID, &t.Name, &t.Status)
	return t, err
}

const updateTableStatus = `
UPDATE tables SET status = $2 WHERE id = $1
RETURNING id, name, status
`

type UpdateTableStatusParams struct {
	ID     uuid.UUID
	Status string
}

// UpdateTableStatus overwrites a table's status field.
func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, updateTableStatus, arg.ID, arg.Status).Scan(&t.ID, &t.Name, &t.Status)
	return t, err
}
