package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrRegisterClosed       = errors.New("the register is closed; open a cashier session to start an order")
	ErrTableNotFound        = errors.New("table not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderAlreadyPaid     = errors.New("order is already paid")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidProductID     = errors.New("invalid product_id")
	ErrInvalidItemID        = errors.New("invalid item_id")
	ErrInvalidPrice         = errors.New("invalid final_price")
	ErrEmptyPayments        = errors.New("at least one payment is required")
	ErrEmptyPaymentMethod   = errors.New("payment_method is required")
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")
	ErrInvalidTotalAmount   = errors.New("invalid total_amount")
)

// OrderStore defines the DB methods needed by the order lifecycle.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetActiveSession(ctx context.Context) (database.CashierSession, error)
	GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.Table, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
	GetOpenOrderByTable(ctx context.Context, tableID uuid.UUID) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	DeleteOrderItems(ctx context.Context, orderID uuid.UUID) error
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	ListOpenOrders(ctx context.Context) ([]database.Order, error)
	ListPaidOrders(ctx context.Context) ([]database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// ItemInput is one order line as sent by the terminal. ID is optional; lines
// without one are assigned a fresh ID on save.
type ItemInput struct {
	ID         string
	ProductID  string
	Modifiers  string
	Quantity   int32
	FinalPrice string
}

// PaymentInput is one payment tendered at finalization.
type PaymentInput struct {
	Method string
	Amount string
}

// TableOrder is the result of selecting a table.
type TableOrder struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderSummary is an Open order enriched for the floor view.
type OrderSummary struct {
	Order     database.Order
	Items     []database.OrderItem
	Total     decimal.Decimal
	ItemCount int
}

// PaidOrderSummary is a settled order with its recorded payments.
type PaidOrderSummary struct {
	Order    database.Order
	Payments []database.Payment
}

// OrderService orchestrates the order/table state machine:
// NoOrder -> Open -> Paid (kept for history) | force-freed (deleted).
type OrderService struct {
	store    OrderStore
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(store OrderStore, pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{store: store, pool: pool, newStore: newStore}
}

// GetOrCreate returns the table's Open order, creating one (and flipping the
// table to occupied) if none exists. The table row is locked so two
// concurrent selections of the same table cannot both create an order.
func (s *OrderService) GetOrCreate(ctx context.Context, tableID uuid.UUID) (*TableOrder, error) {
	if _, err := s.store.GetActiveSession(ctx); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegisterClosed
		}
		return nil, fmt.Errorf("get active session: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTableForUpdate(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	order, err := store.GetOpenOrderByTable(ctx, table.ID)
	if err == nil {
		items, err := store.ListOrderItems(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit tx: %w", err)
		}
		return &TableOrder{Order: order, Items: items}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get open order: %w", err)
	}

	order, err = store.CreateOrder(ctx, database.CreateOrderParams{
		TableID:     pgtype.UUID{Bytes: table.ID, Valid: true},
		Status:      enum.OrderStatusOpen,
		TotalAmount: decimalToNumeric(decimal.Zero),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     table.ID,
		Status: enum.TableStatusOccupied,
	}); err != nil {
		return nil, fmt.Errorf("occupy table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &TableOrder{Order: order}, nil
}

// SaveItems replaces the order's entire item set with the given lines:
// delete-all then insert, inside one transaction with the order row locked.
// Saving the same list twice is a no-op for the resulting state.
func (s *OrderService) SaveItems(ctx context.Context, orderID uuid.UUID, items []ItemInput) ([]database.OrderItem, error) {
	params := make([]database.CreateOrderItemParams, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidProductID)
		}
		price, err := decimal.NewFromString(item.FinalPrice)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidPrice)
		}

		itemID := uuid.New()
		if item.ID != "" {
			itemID, err = uuid.Parse(item.ID)
			if err != nil {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidItemID)
			}
		}

		modifiers := pgtype.Text{}
		if item.Modifiers != "" {
			modifiers = pgtype.Text{String: item.Modifiers, Valid: true}
		}

		params[i] = database.CreateOrderItemParams{
			ID:         itemID,
			OrderID:    orderID,
			ProductID:  productID,
			Modifiers:  modifiers,
			Quantity:   item.Quantity,
			FinalPrice: decimalToNumeric(price),
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == enum.OrderStatusPaid {
		return nil, ErrOrderAlreadyPaid
	}

	if err := store.DeleteOrderItems(ctx, orderID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}

	saved := make([]database.OrderItem, 0, len(params))
	for i, p := range params {
		item, err := store.CreateOrderItem(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("create order item [%d]: %w", i, err)
		}
		saved = append(saved, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return saved, nil
}

// FinalizeAndPay records the tendered payments against the open session and
// marks the order Paid, atomically. The table flip to available happens after
// the financial facts have committed; if it fails, the money is already safe
// and the table is recovered with force-free, so the failure is only logged.
func (s *OrderService) FinalizeAndPay(ctx context.Context, orderID uuid.UUID, payments []PaymentInput, totalAmount string) error {
	if len(payments) == 0 {
		return ErrEmptyPayments
	}
	amounts := make([]decimal.Decimal, len(payments))
	for i, p := range payments {
		if p.Method == "" {
			return fmt.Errorf("payment[%d]: %w", i, ErrEmptyPaymentMethod)
		}
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil || !amount.IsPositive() {
			return fmt.Errorf("payment[%d]: %w", i, ErrInvalidPaymentAmount)
		}
		amounts[i] = amount
	}
	total, err := decimal.NewFromString(totalAmount)
	if err != nil || total.IsNegative() {
		return ErrInvalidTotalAmount
	}

	session, err := s.store.GetActiveSession(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRegisterClosed
		}
		return fmt.Errorf("get active session: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}
	if order.Status == enum.OrderStatusPaid {
		return ErrOrderAlreadyPaid
	}

	for i, p := range payments {
		if _, err := store.CreatePayment(ctx, database.CreatePaymentParams{
			OrderID:       orderID,
			SessionID:     session.ID,
			PaymentMethod: p.Method,
			Amount:        decimalToNumeric(amounts[i]),
		}); err != nil {
			return fmt.Errorf("create payment [%d]: %w", i, err)
		}
	}

	order, err = store.MarkOrderPaid(ctx, database.MarkOrderPaidParams{
		ID:          orderID,
		TotalAmount: decimalToNumeric(total),
	})
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	// Payments and order state are durable from here; do not roll back.
	if !order.TableID.Valid {
		log.Printf("WARNING: order %s has no table reference, skipping table release", orderID)
		return nil
	}
	if _, err := s.store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     order.TableID.Bytes,
		Status: enum.TableStatusAvailable,
	}); err != nil {
		log.Printf("WARNING: release table for order %s: %v", orderID, err)
	}
	return nil
}

// ForceFree discards an order and its items and releases the table. Operator
// escape hatch; no guard on order status or recorded payments. Any payments
// already taken stay attributed to their session, detached from the order.
func (s *OrderService) ForceFree(ctx context.Context, tableID, orderID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetTableForUpdate(ctx, tableID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTableNotFound
		}
		return fmt.Errorf("get table: %w", err)
	}

	if err := store.DeleteOrderItems(ctx, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err := store.DeleteOrder(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     tableID,
		Status: enum.TableStatusAvailable,
	}); err != nil {
		return fmt.Errorf("release table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ActiveOrders returns every Open order with its items and computed total.
func (s *OrderService) ActiveOrders(ctx context.Context) ([]OrderSummary, error) {
	orders, err := s.store.ListOpenOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, order := range orders {
		items, err := s.store.ListOrderItems(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("list items for order %s: %w", order.ID, err)
		}
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(numericToDecimal(it.FinalPrice).Mul(decimal.NewFromInt32(it.Quantity)))
		}
		summaries = append(summaries, OrderSummary{
			Order:     order,
			Items:     items,
			Total:     total,
			ItemCount: len(items),
		})
	}
	return summaries, nil
}

// PaidHistory returns every Paid order with its payments, newest first.
func (s *OrderService) PaidHistory(ctx context.Context) ([]PaidOrderSummary, error) {
	orders, err := s.store.ListPaidOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list paid orders: %w", err)
	}

	summaries := make([]PaidOrderSummary, 0, len(orders))
	for _, order := range orders {
		payments, err := s.store.ListPaymentsByOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("list payments for order %s: %w", order.ID, err)
		}
		summaries = append(summaries, PaidOrderSummary{Order: order, Payments: payments})
	}
	return summaries, nil
}
