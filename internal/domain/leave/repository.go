package leave

import (
	"context"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/shopspring/decimal"
)

// TxManager runs fn inside one unit of atomicity. Repositories called with the
// context passed to fn take part in the same transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CreditRepository owns the balance columns of the employees table and the
// append-only leave_credit_history table.
type CreditRepository interface {
	// LockBalances reads the employee's balances holding a row lock until the
	// surrounding transaction ends.
	LockBalances(ctx context.Context, employeeID string) (employee.Balances, error)
	// ApplyDelta adds delta to one balance and returns the new value. It fails
	// with ErrNegativeBalance rather than store a negative balance.
	ApplyDelta(ctx context.Context, employeeID string, credit employee.CreditType, delta decimal.Decimal) (decimal.Decimal, error)
	AppendHistory(ctx context.Context, entry CreditHistoryEntry) (CreditHistoryEntry, error)
	ListHistory(ctx context.Context, employeeID string, credit *employee.CreditType) ([]CreditHistoryEntry, error)
}

type LeaveRequestRepository interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// GetByIDForUpdate locks the request row for the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id string) (LeaveRequest, error)
	// UpdateLifecycle persists status, approved days and the deduction/refund markers.
	UpdateLifecycle(ctx context.Context, req LeaveRequest) error
	AppendApproval(ctx context.Context, approval Approval) (Approval, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	ListByStatus(ctx context.Context, status LeaveRequestStatus) ([]LeaveRequest, error)
}

type AccrualRepository interface {
	// Record inserts the idempotency row for (employee, credit, period) and
	// reports false when it already exists.
	Record(ctx context.Context, run AccrualRun) (bool, error)
}

// SubmissionMarkerRepository stores short-lived duplicate-submission markers.
type SubmissionMarkerRepository interface {
	// Claim stores key until expiresAt. It reports false while an unexpired
	// marker with the same key exists.
	Claim(ctx context.Context, key string, expiresAt time.Time) (bool, error)
	Release(ctx context.Context, key string) error
	// PurgeExpired deletes markers whose window has passed.
	PurgeExpired(ctx context.Context) (int64, error)
}
