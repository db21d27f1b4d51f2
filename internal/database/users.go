package database

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, username, full_name, password_hash, role, active, created_at, last_login`

const getUserByUsername = `
SELECT ` + userColumns + `
FROM users WHERE username = $1 AND active = TRUE
`

// GetUserByUsername returns an active user for login.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByUsername, username).
		Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt, &u.LastLogin)
	return u, err
}

const listActiveUsers = `
SELECT ` + userColumns + `
FROM users WHERE active = TRUE
ORDER BY username
`

// ListActiveUsers returns all active staff accounts.
func (q *Queries) ListActiveUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listActiveUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt, &u.LastLogin); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const touchUserLastLogin = `
UPDATE users SET last_login = now() WHERE id = $1
`

// TouchUserLastLogin stamps the user's last successful login.
func (q *Queries) TouchUserLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, touchUserLastLogin, id)
	return err
}

const createUser = `
INSERT INTO users (username, full_name, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

type CreateUserParams struct {
	Username     string
	FullName     string
	PasswordHash string
	Role         string
}

// CreateUser inserts a staff account (used by cmd/seed).
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, createUser, arg.Username, arg.FullName, arg.PasswordHash, arg.Role).
		Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt, &u.LastLogin)
	return u, err
}
