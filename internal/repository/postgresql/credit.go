package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type creditRepositoryImpl struct {
	db *database.DB
}

func NewCreditRepository(db *database.DB) leave.CreditRepository {
	return &creditRepositoryImpl{db: db}
}

// balanceColumn maps a credit type to its column. Only validated types reach
// the SQL text.
func balanceColumn(c employee.CreditType) (string, error) {
	if !c.IsValid() {
		return "", employee.ErrInvalidCreditType
	}
	return string(c) + "_balance", nil
}

// LockBalances implements leave.CreditRepository.
func (r *creditRepositoryImpl) LockBalances(ctx context.Context, employeeID string) (employee.Balances, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 FOR UPDATE`
	emp, err := scanEmployee(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to lock balances of employee %s: %w", employeeID, err)
	}
	return emp.Balances, nil
}

// ApplyDelta implements leave.CreditRepository.
func (r *creditRepositoryImpl) ApplyDelta(ctx context.Context, employeeID string, credit employee.CreditType, delta decimal.Decimal) (decimal.Decimal, error) {
	col, err := balanceColumn(credit)
	if err != nil {
		return decimal.Zero, err
	}
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE employees
		SET %[1]s = %[1]s + $1, updated_at = NOW()
		WHERE id = $2 AND %[1]s + $1 >= 0
		RETURNING %[1]s
	`, col)

	var balance decimal.Decimal
	err = q.QueryRow(ctx, query, delta, employeeID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to update %s: %w", col, err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, employeeID).Scan(&exists); err != nil {
		return decimal.Zero, fmt.Errorf("failed to check employee %s: %w", employeeID, err)
	}
	if !exists {
		return decimal.Zero, employee.ErrEmployeeNotFound
	}
	return decimal.Zero, leave.ErrNegativeBalance
}

// AppendHistory implements leave.CreditRepository.
func (r *creditRepositoryImpl) AppendHistory(ctx context.Context, entry leave.CreditHistoryEntry) (leave.CreditHistoryEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_credit_history (
			employee_id, credit_type, amount, balance_after, effective_date, source,
			leave_request_id, notes, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query,
		entry.EmployeeID,
		string(entry.CreditType),
		entry.Amount,
		entry.BalanceAfter,
		entry.EffectiveDate,
		string(entry.Source),
		entry.LeaveRequestID,
		entry.Notes,
		entry.CreatedBy,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return leave.CreditHistoryEntry{}, fmt.Errorf("failed to insert credit history: %w", err)
	}
	return entry, nil
}

// ListHistory implements leave.CreditRepository.
func (r *creditRepositoryImpl) ListHistory(ctx context.Context, employeeID string, credit *employee.CreditType) ([]leave.CreditHistoryEntry, error) {
	q := GetQuerier(ctx, r.db)

	var creditFilter *string
	if credit != nil {
		c := string(*credit)
		creditFilter = &c
	}

	query := `
		SELECT id, employee_id, credit_type, amount, balance_after, effective_date, source,
			leave_request_id, notes, created_by, created_at
		FROM leave_credit_history
		WHERE employee_id = $1 AND ($2::text IS NULL OR credit_type = $2)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := q.Query(ctx, query, employeeID, creditFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit history: %w", err)
	}
	defer rows.Close()

	var entries []leave.CreditHistoryEntry
	for rows.Next() {
		var h leave.CreditHistoryEntry
		if err := rows.Scan(
			&h.ID, &h.EmployeeID, &h.CreditType, &h.Amount, &h.BalanceAfter, &h.EffectiveDate, &h.Source,
			&h.LeaveRequestID, &h.Notes, &h.CreatedBy, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan credit history: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credit history: %w", err)
	}
	return entries, nil
}
