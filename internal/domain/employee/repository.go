package employee

import "context"

// EmployeeRepository reads employee records. Balances are mutated only through
// the leave credit repository.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
	// ListByRole returns active employees holding role. A non-nil departmentID
	// narrows the result to that department.
	ListByRole(ctx context.Context, role Role, departmentID *string) ([]Employee, error)
}
