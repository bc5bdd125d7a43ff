package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepository_GetByID(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	id := insertEmployee(t, db, "E-001", employee.RoleTeacher, "12.5")
	repo := postgresql.NewEmployeeRepository(db)

	emp, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, employee.RoleTeacher, emp.Role)
	assert.Equal(t, "12.5", emp.Balances.Get(employee.CreditCTO).String())
	assert.True(t, emp.IsActive())

	_, err = repo.GetByID(ctx, "0196f3b2-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestCreditRepository_ApplyDeltaGuardsZero(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	id := insertEmployee(t, db, "E-001", employee.RoleEmployee, "8")
	credits := postgresql.NewCreditRepository(db)
	tx := postgresql.NewTxManager(db)

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := credits.LockBalances(ctx, id); err != nil {
			return err
		}
		_, err := credits.ApplyDelta(ctx, id, employee.CreditCTO, decimal.NewFromInt(-16))
		return err
	})
	assert.ErrorIs(t, err, leave.ErrNegativeBalance)

	var balance decimal.Decimal
	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		balance, err = credits.ApplyDelta(ctx, id, employee.CreditCTO, decimal.NewFromInt(-8))
		if err != nil {
			return err
		}
		_, err = credits.AppendHistory(ctx, leave.CreditHistoryEntry{
			EmployeeID:    id,
			CreditType:    employee.CreditCTO,
			Amount:        decimal.NewFromInt(-8),
			BalanceAfter:  balance,
			EffectiveDate: time.Now(),
			Source:        leave.SourceDeduction,
		})
		return err
	})
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	cto := employee.CreditCTO
	history, err := credits.ListHistory(ctx, id, &cto)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "-8", history[0].Amount.String())
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	id := insertEmployee(t, db, "E-001", employee.RoleEmployee, "0")
	credits := postgresql.NewCreditRepository(db)
	tx := postgresql.NewTxManager(db)

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := credits.ApplyDelta(ctx, id, employee.CreditSick, decimal.NewFromInt(3)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balances, err := credits.LockBalances(ctx, id)
	require.NoError(t, err)
	assert.True(t, balances.Get(employee.CreditSick).IsZero())
}

func TestLeaveRequestRepository_Lifecycle(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	empID := insertEmployee(t, db, "E-001", employee.RoleEmployee, "0")
	approverID := insertEmployee(t, db, "E-002", employee.RoleDeptHead, "0")
	repo := postgresql.NewLeaveRequestRepository(db)

	original := leave.TypeVacation
	created, err := repo.Create(ctx, leave.LeaveRequest{
		EmployeeID:        empID,
		LeaveType:         leave.TypeUnpaid,
		OriginalLeaveType: &original,
		StartDate:         time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		SelectedDates:     []time.Time{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
		DaysRequested:     2,
		ApprovedDays:      2,
		Status:            leave.StatusPending,
		Reason:            "moving house",
		SubmittedBy:       "user-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	days := 1
	_, err = repo.AppendApproval(ctx, leave.Approval{
		RequestID:    created.ID,
		Stage:        leave.StageDeptHead,
		ApproverID:   approverID,
		Decision:     leave.DecisionApprove,
		ApprovedDays: &days,
		DecidedAt:    time.Now(),
	})
	require.NoError(t, err)

	created.Status = leave.StatusDeptHeadApproved
	created.ApprovedDays = 1
	require.NoError(t, repo.UpdateLifecycle(ctx, created))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusDeptHeadApproved, got.Status)
	assert.Equal(t, 1, got.ApprovedDays)
	require.NotNil(t, got.OriginalLeaveType)
	assert.Equal(t, leave.TypeVacation, *got.OriginalLeaveType)
	assert.Len(t, got.SelectedDates, 2)
	require.Len(t, got.Approvals, 1)
	assert.Equal(t, leave.StageDeptHead, got.Approvals[0].Stage)

	awaiting, err := repo.ListByStatus(ctx, leave.StatusDeptHeadApproved)
	require.NoError(t, err)
	require.Len(t, awaiting, 1)
	assert.Len(t, awaiting[0].Approvals, 1)
}

func TestAccrualAndMarkerRepositories(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()
	empID := insertEmployee(t, db, "E-001", employee.RoleEmployee, "0")
	runs := postgresql.NewAccrualRepository(db)
	markers := postgresql.NewSubmissionMarkerRepository(db)

	run := leave.AccrualRun{EmployeeID: empID, CreditType: employee.CreditVacation, Period: "2026-03", Amount: decimal.RequireFromString("1.25")}
	first, err := runs.Record(ctx, run)
	require.NoError(t, err)
	second, err := runs.Record(ctx, run)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	ok, err := markers.Claim(ctx, "key-1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = markers.Claim(ctx, "key-1", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = markers.Claim(ctx, "key-2", time.Now().Add(-time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	purged, err := markers.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}
