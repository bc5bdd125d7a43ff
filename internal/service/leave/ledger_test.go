package leave

import (
	"context"
	"testing"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditLedger_CheckSufficiency_Insufficient(t *testing.T) {
	ledger := NewCreditLedger(leave.DefaultPolicy(), nil, nil)
	emp := employee.Employee{Balances: employee.Balances{}}

	s, err := ledger.CheckSufficiency(emp, leave.TypeVacation, 3)
	require.NoError(t, err)

	assert.False(t, s.Sufficient)
	assert.Equal(t, "3", s.Required.String())
	assert.Equal(t, "0", s.Available.String())
	assert.Equal(t, "Insufficient Vacation Leave credits: 3 days required, 0 available.", s.Message)
}

func TestCreditLedger_CheckSufficiency_CTOInHours(t *testing.T) {
	ledger := NewCreditLedger(leave.DefaultPolicy(), nil, nil)
	emp := employee.Employee{Balances: employee.Balances{employee.CreditCTO: dec("4")}}

	s, err := ledger.CheckSufficiency(emp, leave.TypeCTO, 1)
	require.NoError(t, err)

	assert.False(t, s.Sufficient)
	assert.Equal(t, "8", s.Required.String())
	assert.Equal(t, leave.UnitHours, s.Unit)
}

func TestCreditLedger_CheckSufficiency_NoCreditsRequired(t *testing.T) {
	ledger := NewCreditLedger(leave.DefaultPolicy(), nil, nil)

	s, err := ledger.CheckSufficiency(employee.Employee{}, leave.TypeStudy, 20)
	require.NoError(t, err)
	assert.True(t, s.Sufficient)
}

func TestCreditLedger_CheckSufficiency_UnknownType(t *testing.T) {
	ledger := NewCreditLedger(leave.DefaultPolicy(), nil, nil)

	_, err := ledger.CheckSufficiency(employee.Employee{}, leave.LeaveType("sabbatical"), 1)
	assert.ErrorIs(t, err, leave.ErrUnknownLeaveType)
}

func TestCreditLedger_Deduct_WritesHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditVacation, "5"))

	entry, err := env.svc.ledger.Deduct(ctx, actor.EmployeeID, leave.TypeVacation, 2, "req-1", &actor.UserID)
	require.NoError(t, err)

	assert.Equal(t, "-2", entry.Amount.String())
	assert.Equal(t, "3", entry.BalanceAfter.String())
	assert.Equal(t, leave.SourceDeduction, entry.Source)
	require.NotNil(t, entry.LeaveRequestID)
	assert.Equal(t, "req-1", *entry.LeaveRequestID)
	assert.Equal(t, "3", env.balance(t, actor.EmployeeID, employee.CreditVacation).String())
}

func TestCreditLedger_Deduct_Insufficient(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditVacation, "1"))

	_, err := env.svc.ledger.Deduct(context.Background(), actor.EmployeeID, leave.TypeVacation, 2, "req-1", nil)

	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	assert.Equal(t, "1", env.balance(t, actor.EmployeeID, employee.CreditVacation).String())
	assert.Empty(t, env.history(t, actor.EmployeeID))
}

func TestCreditLedger_Deduct_RejectsCreditFreeType(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana")

	_, err := env.svc.ledger.Deduct(context.Background(), actor.EmployeeID, leave.TypeStudy, 1, "req-1", nil)
	assert.ErrorIs(t, err, leave.ErrPolicyViolation)
}

func TestCreditLedger_Grant_NegativeAdjustmentKeepsBalance(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditSick, "2"))

	_, err := env.svc.ledger.Grant(context.Background(), leave.GrantInput{
		EmployeeID: actor.EmployeeID,
		CreditType: employee.CreditSick,
		Amount:     dec("-3"),
		Source:     leave.SourceAdjustment,
		Notes:      "correction",
	})

	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	assert.Equal(t, "2", env.balance(t, actor.EmployeeID, employee.CreditSick).String())
	assert.Empty(t, env.history(t, actor.EmployeeID))
}

func TestCreditLedger_Grant_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	actor := env.addEmployee(t, "ana")
	ctx := context.Background()

	_, err := env.svc.ledger.Grant(ctx, leave.GrantInput{EmployeeID: actor.EmployeeID, CreditType: "bonus", Amount: dec("1")})
	assert.ErrorIs(t, err, employee.ErrInvalidCreditType)

	_, err = env.svc.ledger.Grant(ctx, leave.GrantInput{EmployeeID: actor.EmployeeID, CreditType: employee.CreditSick})
	assert.ErrorIs(t, err, leave.ErrPolicyViolation)
}

func TestCreditLedger_Expire(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.addEmployee(t, "ana", withBalance(employee.CreditSpecialPrivilege, "2"))

	entry, expired, err := env.svc.ledger.Expire(ctx, actor.EmployeeID, employee.CreditSpecialPrivilege, testNow, "forfeit")
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, "-2", entry.Amount.String())
	assert.Equal(t, leave.SourceExpiry, entry.Source)
	assert.True(t, env.balance(t, actor.EmployeeID, employee.CreditSpecialPrivilege).IsZero())

	_, expired, err = env.svc.ledger.Expire(ctx, actor.EmployeeID, employee.CreditSpecialPrivilege, testNow, "forfeit")
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Len(t, env.history(t, actor.EmployeeID), 1)
}
