package memory

import (
	"context"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/shopspring/decimal"
)

type creditRepository struct {
	store *Store
}

func NewCreditRepository(s *Store) leave.CreditRepository {
	return &creditRepository{store: s}
}

func (r *creditRepository) LockBalances(_ context.Context, employeeID string) (employee.Balances, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	emp, ok := r.store.state.employees[employeeID]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	return emp.Balances.Clone(), nil
}

func (r *creditRepository) ApplyDelta(_ context.Context, employeeID string, credit employee.CreditType, delta decimal.Decimal) (decimal.Decimal, error) {
	if !credit.IsValid() {
		return decimal.Zero, employee.ErrInvalidCreditType
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	emp, ok := r.store.state.employees[employeeID]
	if !ok {
		return decimal.Zero, employee.ErrEmployeeNotFound
	}
	next := emp.Balances.Get(credit).Add(delta)
	if next.IsNegative() {
		return decimal.Zero, leave.ErrNegativeBalance
	}
	emp.Balances = emp.Balances.Clone()
	emp.Balances[credit] = next
	emp.UpdatedAt = r.store.now()
	r.store.state.employees[employeeID] = emp
	return next, nil
}

func (r *creditRepository) AppendHistory(_ context.Context, entry leave.CreditHistoryEntry) (leave.CreditHistoryEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.CreatedAt = r.store.now()
	r.store.state.history = append(r.store.state.history, entry)
	return entry, nil
}

func (r *creditRepository) ListHistory(_ context.Context, employeeID string, credit *employee.CreditType) ([]leave.CreditHistoryEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []leave.CreditHistoryEntry
	for i := len(r.store.state.history) - 1; i >= 0; i-- {
		h := r.store.state.history[i]
		if h.EmployeeID != employeeID {
			continue
		}
		if credit != nil && h.CreditType != *credit {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}
