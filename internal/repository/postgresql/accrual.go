package postgresql

import (
	"context"
	"fmt"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/database"
)

type accrualRepositoryImpl struct {
	db *database.DB
}

func NewAccrualRepository(db *database.DB) leave.AccrualRepository {
	return &accrualRepositoryImpl{db: db}
}

// Record implements leave.AccrualRepository.
func (r *accrualRepositoryImpl) Record(ctx context.Context, run leave.AccrualRun) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_accrual_runs (employee_id, credit_type, period, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id, credit_type, period) DO NOTHING
	`
	tag, err := q.Exec(ctx, query, run.EmployeeID, string(run.CreditType), run.Period, run.Amount)
	if err != nil {
		return false, fmt.Errorf("failed to record accrual run: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
