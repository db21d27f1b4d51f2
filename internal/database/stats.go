package database

import "context"

// SystemStats holds row counts for the admin dashboard.
type SystemStats struct {
	TotalUsers    int64
	ActiveUsers   int64
	TotalProducts int64
	TotalTables   int64
	TotalOrders   int64
	TotalSessions int64
}

const getSystemStats = `
SELECT
    (SELECT count(*) FROM users),
    (SELECT count(*) FROM users WHERE active = TRUE),
    (SELECT count(*) FROM products),
    (SELECT count(*) FROM tables),
    (SELECT count(*) FROM orders),
    (SELECT count(*) FROM cashier_sessions)
`

// GetSystemStats returns aggregate counts across the core tables.
func (q *Queries) GetSystemStats(ctx context.Context) (SystemStats, error) {
	var s SystemStats
	err := q.db.QueryRow(ctx, getSystemStats).
		Scan(&s.TotalUsers, &s.ActiveUsers, &s.TotalProducts, &s.TotalTables, &s.TotalOrders, &s.TotalSessions)
	return s, err
}
