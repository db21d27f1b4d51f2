package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Table is a physical dining table and its occupancy status.
type Table struct {
	ID     uuid.UUID
	Name   string
	Status string
}

// Product is a sellable menu entry.
type Product struct {
	ID       uuid.UUID
	Name     string
	Category pgtype.Text
	Price    pgtype.Numeric
	Active   bool
}

// Modifier is an add-on that adjusts an item's price.
type Modifier struct {
	ID         uuid.UUID
	Name       string
	PriceDelta pgtype.Numeric
}

// PaymentMethod is static reference data for the payment screen.
type PaymentMethod struct {
	ID     uuid.UUID
	Name   string
	Active bool
}

// Order is a table's tab. TableID is nullable: the legacy data contains
// orders whose table reference was lost, and finalization tolerates that.
type Order struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	TableID     pgtype.UUID
	Status      string
	TotalAmount pgtype.Numeric
}

// OrderItem is one line on an order. Modifiers is a display string
// (comma-joined names) snapshotted at save time, like the legacy sheet kept it.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Modifiers  pgtype.Text
	Quantity   int32
	FinalPrice pgtype.Numeric
}

// Payment is an immutable record of money taken for an order within a
// session. OrderID goes NULL when the order is force-freed; the money stays
// attributed to the session either way.
type Payment struct {
	ID            uuid.UUID
	OrderID       pgtype.UUID
	SessionID     uuid.UUID
	PaymentMethod string
	Amount        pgtype.Numeric
	CreatedAt     time.Time
}

// CashierSession is one shift's accounting period.
type CashierSession struct {
	ID             uuid.UUID
	OpenedBy       pgtype.UUID
	OpenTimestamp  time.Time
	InitialAmount  pgtype.Numeric
	CloseTimestamp pgtype.Timestamptz
	ExpectedCash   pgtype.Numeric
	CountedCash    pgtype.Numeric
	Difference     pgtype.Numeric
	Status         string
	Notes          pgtype.Text
}

// CashFlowEntry is a manual income/expense movement scoped to a session.
type CashFlowEntry struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	FlowType    string
	Amount      pgtype.Numeric
	Description string
	CreatedAt   time.Time
}

// User is a staff account.
type User struct {
	ID           uuid.UUID
	Username     string
	FullName     string
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
	LastLogin    pgtype.Timestamptz
}
