package memory

import (
	"context"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
)

type accrualRepository struct {
	store *Store
}

func NewAccrualRepository(s *Store) leave.AccrualRepository {
	return &accrualRepository{store: s}
}

func (r *accrualRepository) Record(_ context.Context, run leave.AccrualRun) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	k := accrualKey{EmployeeID: run.EmployeeID, CreditType: run.CreditType, Period: run.Period}
	if _, exists := r.store.state.accrualRuns[k]; exists {
		return false, nil
	}
	run.CreatedAt = r.store.now()
	r.store.state.accrualRuns[k] = run
	return true, nil
}
