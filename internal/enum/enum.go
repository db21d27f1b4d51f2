package enum

// --- State machines (CHECK constrained in DB) ---

// Table statuses keep the Spanish labels the floor terminals display.
const (
	TableStatusAvailable = "Disponible"
	TableStatusOccupied  = "Ocupada"
)

const (
	OrderStatusOpen = "Open"
	OrderStatusPaid = "Paid"
)

const (
	SessionStatusOpen   = "OPEN"
	SessionStatusClosed = "CLOSED"
)

const (
	CashFlowIncome  = "Ingreso"
	CashFlowExpense = "Salida"
)

// --- Configurable labels (no DB constraint) ---

// PaymentMethodCash is the method whose payments count toward the drawer.
// Matching is whitespace/case-insensitive at the reconciliation layer.
const PaymentMethodCash = "Efectivo"

const (
	RoleAdmin = "Administrador"
	RoleStaff = "Atencion"
)
