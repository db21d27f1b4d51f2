package database

import "context"

const listActiveProducts = `
SELECT id, name, category, price, active
FROM products WHERE active = TRUE
ORDER BY category, name
`

// ListActiveProducts returns the sellable menu.
func (q *Queries) ListActiveProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, listActiveProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Active); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const listModifiers = `
SELECT id, name, price_delta FROM modifiers ORDER BY name
`

// ListModifiers returns all modifiers.
func (q *Queries) ListModifiers(ctx context.Context) ([]Modifier, error) {
	rows, err := q.db.Query(ctx, listModifiers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Modifier
	for rows.Next() {
		var m Modifier
		if err := rows.Scan(&m.ID, &m.Name, &m.PriceDelta); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const listActivePaymentMethods = `
SELECT id, name, active
FROM payment_methods WHERE active = TRUE
ORDER BY name
`

// ListActivePaymentMethods returns the methods offered on the payment screen.
func (q *Queries) ListActivePaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	rows, err := q.db.Query(ctx, listActivePaymentMethods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PaymentMethod
	for rows.Next() {
		var pm PaymentMethod
		if err := rows.Scan(&pm.ID, &pm.Name, &pm.Active); err != nil {
			return nil, err
		}
		items = append(items, pm)
	}
	return items, rows.Err()
}
